package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"av-maintenance-backend/internal/model"
	"av-maintenance-backend/internal/store"
)

type createAlertRequest struct {
	FacilityID  *int64 `json:"facility_id"`
	EquipmentID *int64 `json:"equipment_id"`
	ScheduleID  *int64 `json:"schedule_id"`
	AlertType   string `json:"alert_type" binding:"required"`
	Priority    string `json:"priority"`
	Title       string `json:"title" binding:"required"`
	Message     string `json:"message" binding:"required"`
}

// CreateAlert handles POST /api/alerts for user-originated alerts.
func (h *Handler) CreateAlert(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	priority := model.Priority(req.Priority)
	if priority != "" && !priority.Valid() {
		respondError(c, http.StatusBadRequest, "invalid priority")
		return
	}
	if req.FacilityID != nil {
		if _, err := h.store.GetFacility(c.Request.Context(), *req.FacilityID); err != nil {
			respondStoreError(c, err)
			return
		}
	}
	if req.EquipmentID != nil {
		if _, err := h.store.GetEquipment(c.Request.Context(), *req.EquipmentID); err != nil {
			respondStoreError(c, err)
			return
		}
	}
	if req.ScheduleID != nil {
		if _, err := h.store.GetSchedule(c.Request.Context(), *req.ScheduleID); err != nil {
			respondStoreError(c, err)
			return
		}
	}

	alert := model.Alert{
		FacilityID:  req.FacilityID,
		EquipmentID: req.EquipmentID,
		ScheduleID:  req.ScheduleID,
		AlertType:   req.AlertType,
		Priority:    priority,
		Title:       req.Title,
		Message:     req.Message,
	}
	if err := h.store.CreateAlert(c.Request.Context(), &alert); err != nil {
		respondStoreError(c, err)
		return
	}
	respondCreated(c, alert)
}

// ListAlerts handles GET /api/alerts.
func (h *Handler) ListAlerts(c *gin.Context) {
	facilityID, ok := queryInt64(c, "facility_id")
	if !ok {
		return
	}
	equipmentID, ok := queryInt64(c, "equipment_id")
	if !ok {
		return
	}
	isRead, ok := queryBool(c, "is_read")
	if !ok {
		return
	}
	isResolved, ok := queryBool(c, "is_resolved")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return
	}
	priority := model.Priority(c.Query("priority"))
	if priority != "" && !priority.Valid() {
		respondError(c, http.StatusBadRequest, "invalid priority")
		return
	}

	alerts, err := h.store.ListAlerts(c.Request.Context(), store.AlertFilter{
		FacilityID:  facilityID,
		EquipmentID: equipmentID,
		AlertType:   c.Query("alert_type"),
		Priority:    priority,
		IsRead:      isRead,
		IsResolved:  isResolved,
		Limit:       limit,
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondList(c, alerts, len(alerts))
}

// GetAlert handles GET /api/alerts/:id.
func (h *Handler) GetAlert(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	alert, err := h.store.GetAlert(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondOK(c, alert)
}

type updateAlertRequest struct {
	IsRead     *bool   `json:"is_read"`
	IsResolved *bool   `json:"is_resolved"`
	ResolvedBy *string `json:"resolved_by"`
	Priority   *string `json:"priority"`
}

// UpdateAlert handles PUT /api/alerts/:id.
func (h *Handler) UpdateAlert(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req updateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	in := store.UpdateAlertInput{
		IsRead:     req.IsRead,
		IsResolved: req.IsResolved,
		ResolvedBy: req.ResolvedBy,
	}
	if req.Priority != nil {
		priority := model.Priority(*req.Priority)
		if !priority.Valid() {
			respondError(c, http.StatusBadRequest, "invalid priority")
			return
		}
		in.Priority = &priority
	}

	alert, err := h.store.UpdateAlert(c.Request.Context(), id, in)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondOK(c, alert)
}

// DeleteAlert handles DELETE /api/alerts/:id. Unlike facilities and
// equipment, alerts are hard-deleted.
func (h *Handler) DeleteAlert(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.store.DeleteAlert(c.Request.Context(), id); err != nil {
		respondStoreError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": id})
}

type bulkAlertRequest struct {
	AlertIDs   []int64 `json:"alert_ids" binding:"required,min=1"`
	ResolvedBy string  `json:"resolved_by"`
}

// BulkMarkRead handles POST /api/alerts/bulk-read.
func (h *Handler) BulkMarkRead(c *gin.Context) {
	var req bulkAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	n, err := h.store.MarkAlertsRead(c.Request.Context(), req.AlertIDs)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondOK(c, gin.H{"updated": n})
}

// BulkResolve handles POST /api/alerts/bulk-resolve.
func (h *Handler) BulkResolve(c *gin.Context) {
	var req bulkAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	n, err := h.store.ResolveAlerts(c.Request.Context(), req.AlertIDs, req.ResolvedBy)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondOK(c, gin.H{"updated": n})
}

// GenerateMaintenanceAlerts handles POST /api/alerts/generate-maintenance,
// the on-demand counterpart of the periodic sweep. Deduplication makes it
// safe to call repeatedly.
func (h *Handler) GenerateMaintenanceAlerts(c *gin.Context) {
	result, err := h.store.GenerateMaintenanceAlerts(c.Request.Context(), time.Now())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondOK(c, result)
}

// GetAlertTypes handles GET /api/alerts/types.
func (h *Handler) GetAlertTypes(c *gin.Context) {
	respondList(c, model.KnownAlertTypes, len(model.KnownAlertTypes))
}

// GetAlertStats handles GET /api/alerts/stats.
func (h *Handler) GetAlertStats(c *gin.Context) {
	facilityID, ok := queryInt64(c, "facility_id")
	if !ok {
		return
	}
	stats, err := h.store.GetAlertStats(c.Request.Context(), facilityID, time.Now())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondOK(c, stats)
}
