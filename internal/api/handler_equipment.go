package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"av-maintenance-backend/internal/model"
	"av-maintenance-backend/internal/store"
)

type equipmentRequest struct {
	FacilityID         int64      `json:"facility_id" binding:"required"`
	Name               string     `json:"name" binding:"required"`
	Category           string     `json:"category" binding:"required"`
	Manufacturer       string     `json:"manufacturer"`
	Model              string     `json:"model"`
	SerialNumber       string     `json:"serial_number"`
	PurchaseDate       *time.Time `json:"purchase_date"`
	InstallationDate   *time.Time `json:"installation_date"`
	WarrantyExpiry     *time.Time `json:"warranty_expiry"`
	LocationInFacility string     `json:"location_in_facility"`
	Specifications     string     `json:"specifications"`

	MaintenanceIntervalDays *int     `json:"maintenance_interval_days"`
	UsageBasedMaintenance   *bool    `json:"usage_based_maintenance"`
	UsageThresholdHours     *float64 `json:"usage_threshold_hours"`

	IsCritical *bool  `json:"is_critical"`
	Notes      string `json:"notes"`
}

func (req *equipmentRequest) apply(eq *model.Equipment) {
	eq.FacilityID = req.FacilityID
	eq.Name = req.Name
	eq.Category = model.EquipmentCategory(req.Category)
	eq.Manufacturer = req.Manufacturer
	eq.Model = req.Model
	eq.SerialNumber = req.SerialNumber
	eq.PurchaseDate = req.PurchaseDate
	eq.InstallationDate = req.InstallationDate
	eq.WarrantyExpiry = req.WarrantyExpiry
	eq.LocationInFacility = req.LocationInFacility
	eq.Specifications = req.Specifications
	if req.MaintenanceIntervalDays != nil {
		eq.MaintenanceIntervalDays = *req.MaintenanceIntervalDays
	}
	if req.UsageBasedMaintenance != nil {
		eq.UsageBasedMaintenance = *req.UsageBasedMaintenance
	}
	if req.UsageThresholdHours != nil {
		eq.UsageThresholdHours = *req.UsageThresholdHours
	}
	if req.IsCritical != nil {
		eq.IsCritical = *req.IsCritical
	}
	eq.Notes = req.Notes
}

// CreateEquipment handles POST /api/equipment.
func (h *Handler) CreateEquipment(c *gin.Context) {
	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !model.EquipmentCategory(req.Category).Valid() {
		respondError(c, http.StatusBadRequest, "invalid category")
		return
	}
	if _, err := h.store.GetFacility(c.Request.Context(), req.FacilityID); err != nil {
		respondStoreError(c, err)
		return
	}

	eq := model.Equipment{
		MaintenanceIntervalDays: 90,
		UsageThresholdHours:     1000,
		IsActive:                true,
	}
	req.apply(&eq)
	if err := h.store.CreateEquipment(c.Request.Context(), &eq); err != nil {
		respondStoreError(c, err)
		return
	}
	h.purgeCache()
	respondCreated(c, eq)
}

// ListEquipment handles GET /api/equipment.
func (h *Handler) ListEquipment(c *gin.Context) {
	facilityID, ok := queryInt64(c, "facility_id")
	if !ok {
		return
	}
	isActive, ok := queryBool(c, "is_active")
	if !ok {
		return
	}
	isCritical, ok := queryBool(c, "is_critical")
	if !ok {
		return
	}
	category := model.EquipmentCategory(c.Query("category"))
	if category != "" && !category.Valid() {
		respondError(c, http.StatusBadRequest, "invalid category")
		return
	}

	equipment, err := h.store.ListEquipment(c.Request.Context(), store.EquipmentFilter{
		FacilityID:     facilityID,
		Category:       category,
		IsActive:       isActive,
		IsCritical:     isCritical,
		Manufacturer:   c.Query("manufacturer"),
		MaintenanceDue: c.Query("maintenance_due") == "true",
		AsOf:           time.Now(),
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondList(c, equipment, len(equipment))
}

// GetEquipment handles GET /api/equipment/:id.
func (h *Handler) GetEquipment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	eq, err := h.store.GetEquipment(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondOK(c, eq)
}

// UpdateEquipment handles PUT /api/equipment/:id. The derived next
// maintenance date is recomputed by the store on every save.
func (h *Handler) UpdateEquipment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !model.EquipmentCategory(req.Category).Valid() {
		respondError(c, http.StatusBadRequest, "invalid category")
		return
	}

	eq, err := h.store.GetEquipment(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	req.apply(eq)
	if err := h.store.UpdateEquipment(c.Request.Context(), eq); err != nil {
		respondStoreError(c, err)
		return
	}
	h.purgeCache()
	respondOK(c, eq)
}

// DeactivateEquipment handles DELETE /api/equipment/:id.
func (h *Handler) DeactivateEquipment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.store.DeactivateEquipment(c.Request.Context(), id); err != nil {
		respondStoreError(c, err)
		return
	}
	h.purgeCache()
	respondOK(c, gin.H{"deactivated": id})
}

type usageRequest struct {
	OperatingHours *float64 `json:"operating_hours"`
	PowerCycles    *int     `json:"power_cycles"`
}

// UpdateEquipmentUsage handles PUT /api/equipment/:id/usage.
func (h *Handler) UpdateEquipmentUsage(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req usageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.OperatingHours == nil && req.PowerCycles == nil {
		respondError(c, http.StatusBadRequest, "operating_hours or power_cycles required")
		return
	}

	eq, err := h.store.UpdateEquipmentUsage(c.Request.Context(), id, req.OperatingHours, req.PowerCycles)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	h.purgeCache()
	respondOK(c, eq)
}

// GetEquipmentCategories handles GET /api/equipment/categories.
func (h *Handler) GetEquipmentCategories(c *gin.Context) {
	respondList(c, model.EquipmentCategories, len(model.EquipmentCategories))
}

// ListMaintenanceDue handles GET /api/equipment/maintenance-due.
func (h *Handler) ListMaintenanceDue(c *gin.Context) {
	facilityID, ok := queryInt64(c, "facility_id")
	if !ok {
		return
	}
	daysAhead, ok := queryInt(c, "days_ahead", 0)
	if !ok {
		return
	}

	equipment, err := h.store.ListMaintenanceDue(c.Request.Context(), time.Now(), daysAhead, facilityID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondList(c, equipment, len(equipment))
}

// GetEquipmentStats handles GET /api/equipment/stats.
func (h *Handler) GetEquipmentStats(c *gin.Context) {
	facilityID, ok := queryInt64(c, "facility_id")
	if !ok {
		return
	}
	stats, err := h.store.GetEquipmentStats(c.Request.Context(), facilityID, time.Now())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondOK(c, stats)
}
