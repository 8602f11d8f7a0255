package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"av-maintenance-backend/internal/model"
	"av-maintenance-backend/internal/store"
)

type createScheduleRequest struct {
	FacilityID               int64  `json:"facility_id" binding:"required"`
	EquipmentID              int64  `json:"equipment_id" binding:"required"`
	TaskID                   int64  `json:"task_id" binding:"required"`
	ScheduledDate            string `json:"scheduled_date" binding:"required"`
	Priority                 string `json:"priority"`
	AssignedTechnician       string `json:"assigned_technician"`
	EstimatedDurationMinutes *int   `json:"estimated_duration_minutes"`
	Notes                    string `json:"notes"`
	IsRecurring              *bool  `json:"is_recurring"`
}

// CreateSchedule handles POST /api/maintenance/schedules.
func (h *Handler) CreateSchedule(c *gin.Context) {
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	scheduledDate, err := time.Parse("2006-01-02", req.ScheduledDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid scheduled_date, expected YYYY-MM-DD")
		return
	}
	priority := model.Priority(req.Priority)
	if priority != "" && !priority.Valid() {
		respondError(c, http.StatusBadRequest, "invalid priority")
		return
	}

	schedule, err := h.store.CreateSchedule(c.Request.Context(), store.CreateScheduleInput{
		FacilityID:               req.FacilityID,
		EquipmentID:              req.EquipmentID,
		TaskID:                   req.TaskID,
		ScheduledDate:            scheduledDate,
		Priority:                 priority,
		AssignedTechnician:       req.AssignedTechnician,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		Notes:                    req.Notes,
		IsRecurring:              req.IsRecurring,
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}
	h.purgeCache()
	respondCreated(c, schedule)
}

// ListSchedules handles GET /api/maintenance/schedules.
func (h *Handler) ListSchedules(c *gin.Context) {
	facilityID, ok := queryInt64(c, "facility_id")
	if !ok {
		return
	}
	equipmentID, ok := queryInt64(c, "equipment_id")
	if !ok {
		return
	}
	startDate, ok := queryDate(c, "start_date")
	if !ok {
		return
	}
	endDate, ok := queryDate(c, "end_date")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	status := model.ScheduleStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		respondError(c, http.StatusBadRequest, "invalid status")
		return
	}
	priority := model.Priority(c.Query("priority"))
	if priority != "" && !priority.Valid() {
		respondError(c, http.StatusBadRequest, "invalid priority")
		return
	}

	schedules, err := h.store.ListSchedules(c.Request.Context(), store.ScheduleFilter{
		FacilityID:         facilityID,
		EquipmentID:        equipmentID,
		Status:             status,
		Priority:           priority,
		StartDate:          startDate,
		EndDate:            endDate,
		AssignedTechnician: c.Query("assigned_technician"),
		Limit:              limit,
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondList(c, schedules, len(schedules))
}

// GetSchedule handles GET /api/maintenance/schedules/:id.
func (h *Handler) GetSchedule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	schedule, err := h.store.GetSchedule(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondOK(c, schedule)
}

type updateScheduleRequest struct {
	ScheduledDate         *string  `json:"scheduled_date"`
	Status                *string  `json:"status"`
	Priority              *string  `json:"priority"`
	AssignedTechnician    *string  `json:"assigned_technician"`
	Notes                 *string  `json:"notes"`
	Cost                  *float64 `json:"cost"`
	ActualDurationMinutes *int     `json:"actual_duration_minutes"`
	CompletedBy           *string  `json:"completed_by"`
}

// UpdateSchedule handles PUT /api/maintenance/schedules/:id. Setting status
// to completed runs the completion cascade (equipment baseline update plus
// recurrence chaining).
func (h *Handler) UpdateSchedule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req updateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	in := store.UpdateScheduleInput{
		AssignedTechnician:    req.AssignedTechnician,
		Notes:                 req.Notes,
		Cost:                  req.Cost,
		ActualDurationMinutes: req.ActualDurationMinutes,
		CompletedBy:           req.CompletedBy,
	}
	if req.ScheduledDate != nil {
		d, err := time.Parse("2006-01-02", *req.ScheduledDate)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid scheduled_date, expected YYYY-MM-DD")
			return
		}
		in.ScheduledDate = &d
	}
	if req.Status != nil {
		status := model.ScheduleStatus(*req.Status)
		if !status.Valid() {
			respondError(c, http.StatusBadRequest, "invalid status")
			return
		}
		in.Status = &status
	}
	if req.Priority != nil {
		priority := model.Priority(*req.Priority)
		if !priority.Valid() {
			respondError(c, http.StatusBadRequest, "invalid priority")
			return
		}
		in.Priority = &priority
	}

	schedule, err := h.store.UpdateSchedule(c.Request.Context(), id, in)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyCompleted) {
			respondError(c, http.StatusConflict, err.Error())
			return
		}
		respondStoreError(c, err)
		return
	}
	h.purgeCache()
	respondOK(c, schedule)
}

// ListMaintenanceHistory handles GET /api/maintenance/history: completed
// work, newest first.
func (h *Handler) ListMaintenanceHistory(c *gin.Context) {
	facilityID, ok := queryInt64(c, "facility_id")
	if !ok {
		return
	}
	equipmentID, ok := queryInt64(c, "equipment_id")
	if !ok {
		return
	}
	startDate, ok := queryDate(c, "start_date")
	if !ok {
		return
	}
	endDate, ok := queryDate(c, "end_date")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return
	}
	maintenanceType := model.MaintenanceType(c.Query("maintenance_type"))
	if maintenanceType != "" && !maintenanceType.Valid() {
		respondError(c, http.StatusBadRequest, "invalid maintenance_type")
		return
	}

	schedules, err := h.store.ListSchedules(c.Request.Context(), store.ScheduleFilter{
		FacilityID:         facilityID,
		EquipmentID:        equipmentID,
		Status:             model.StatusCompleted,
		MaintenanceType:    maintenanceType,
		StartDate:          startDate,
		EndDate:            endDate,
		AssignedTechnician: c.Query("technician"),
		NewestFirst:        true,
		Limit:              limit,
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondList(c, schedules, len(schedules))
}

// ListOverdueSchedules handles GET /api/maintenance/schedules/overdue.
func (h *Handler) ListOverdueSchedules(c *gin.Context) {
	facilityID, ok := queryInt64(c, "facility_id")
	if !ok {
		return
	}
	schedules, err := h.store.ListOverdue(c.Request.Context(), time.Now(), facilityID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondList(c, schedules, len(schedules))
}

// GetMaintenanceStats handles GET /api/maintenance/schedules/stats.
func (h *Handler) GetMaintenanceStats(c *gin.Context) {
	facilityID, ok := queryInt64(c, "facility_id")
	if !ok {
		return
	}
	daysBack, ok := queryInt(c, "days_back", 30)
	if !ok {
		return
	}
	stats, err := h.store.GetMaintenanceStats(c.Request.Context(), facilityID, daysBack, time.Now())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondOK(c, stats)
}
