package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"av-maintenance-backend/internal/model"
	"av-maintenance-backend/internal/store"
)

type facilityRequest struct {
	Name         string `json:"name" binding:"required"`
	Location     string `json:"location" binding:"required"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	ManagerName  string `json:"manager_name"`
	ManagerEmail string `json:"manager_email"`
	Timezone     string `json:"timezone"`
}

// CreateFacility handles POST /api/facilities.
func (h *Handler) CreateFacility(c *gin.Context) {
	var req facilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	facility := model.Facility{
		Name:         req.Name,
		Location:     req.Location,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
		Phone:        req.Phone,
		Email:        req.Email,
		ManagerName:  req.ManagerName,
		ManagerEmail: req.ManagerEmail,
		Timezone:     req.Timezone,
		IsActive:     true,
	}
	if err := h.store.CreateFacility(c.Request.Context(), &facility); err != nil {
		respondStoreError(c, err)
		return
	}
	h.purgeCache()
	respondCreated(c, facility)
}

// ListFacilities handles GET /api/facilities.
func (h *Handler) ListFacilities(c *gin.Context) {
	isActive, ok := queryBool(c, "is_active")
	if !ok {
		return
	}
	facilities, err := h.store.ListFacilities(c.Request.Context(), store.FacilityFilter{
		IsActive: isActive,
		City:     c.Query("city"),
		State:    c.Query("state"),
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondList(c, facilities, len(facilities))
}

// GetFacility handles GET /api/facilities/:id.
func (h *Handler) GetFacility(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	facility, err := h.store.GetFacility(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondOK(c, facility)
}

// UpdateFacility handles PUT /api/facilities/:id.
func (h *Handler) UpdateFacility(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req facilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	facility, err := h.store.GetFacility(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	facility.Name = req.Name
	facility.Location = req.Location
	facility.Address = req.Address
	facility.City = req.City
	facility.State = req.State
	facility.ZipCode = req.ZipCode
	facility.Phone = req.Phone
	facility.Email = req.Email
	facility.ManagerName = req.ManagerName
	facility.ManagerEmail = req.ManagerEmail
	facility.Timezone = req.Timezone

	if err := h.store.UpdateFacility(c.Request.Context(), facility); err != nil {
		respondStoreError(c, err)
		return
	}
	h.purgeCache()
	respondOK(c, facility)
}

// DeactivateFacility handles DELETE /api/facilities/:id. Facilities are
// soft-deleted; their equipment is deactivated with them.
func (h *Handler) DeactivateFacility(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.store.DeactivateFacility(c.Request.Context(), id); err != nil {
		respondStoreError(c, err)
		return
	}
	h.purgeCache()
	respondOK(c, gin.H{"deactivated": id})
}

// ListFacilityEquipment handles GET /api/facilities/:id/equipment.
func (h *Handler) ListFacilityEquipment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if _, err := h.store.GetFacility(c.Request.Context(), id); err != nil {
		respondStoreError(c, err)
		return
	}
	equipment, err := h.store.ListEquipment(c.Request.Context(), store.EquipmentFilter{FacilityID: &id})
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondList(c, equipment, len(equipment))
}

// GetFacilityStats handles GET /api/facilities/:id/stats, combining the
// equipment, maintenance and alert aggregates for one facility.
func (h *Handler) GetFacilityStats(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	facility, err := h.store.GetFacility(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	now := time.Now()
	equipmentStats, err := h.store.GetEquipmentStats(c.Request.Context(), &id, now)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	maintenanceStats, err := h.store.GetMaintenanceStats(c.Request.Context(), &id, 30, now)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	alertStats, err := h.store.GetAlertStats(c.Request.Context(), &id, now)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	respondOK(c, gin.H{
		"facility":    facility,
		"equipment":   equipmentStats,
		"maintenance": maintenanceStats,
		"alerts":      alertStats,
	})
}
