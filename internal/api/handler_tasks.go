package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"av-maintenance-backend/internal/model"
	"av-maintenance-backend/internal/store"
)

type taskRequest struct {
	Name                     string   `json:"name" binding:"required"`
	Description              string   `json:"description"`
	Category                 string   `json:"category" binding:"required"`
	MaintenanceType          string   `json:"maintenance_type" binding:"required"`
	EstimatedDurationMinutes *int     `json:"estimated_duration_minutes"`
	FrequencyDays            int      `json:"frequency_days"`
	RequiredTools            []string `json:"required_tools"`
	RequiredSkills           []string `json:"required_skills"`
	ProcedureSteps           []string `json:"procedure_steps"`
	SafetyRequirements       string   `json:"safety_requirements"`
}

// CreateTask handles POST /api/maintenance/tasks.
func (h *Handler) CreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !model.EquipmentCategory(req.Category).Valid() {
		respondError(c, http.StatusBadRequest, "invalid category")
		return
	}
	if !model.MaintenanceType(req.MaintenanceType).Valid() {
		respondError(c, http.StatusBadRequest, "invalid maintenance_type")
		return
	}
	if req.FrequencyDays < 0 {
		respondError(c, http.StatusBadRequest, "frequency_days must not be negative")
		return
	}

	task := model.MaintenanceTask{
		Name:                     req.Name,
		Description:              req.Description,
		Category:                 model.EquipmentCategory(req.Category),
		MaintenanceType:          model.MaintenanceType(req.MaintenanceType),
		EstimatedDurationMinutes: 30,
		FrequencyDays:            req.FrequencyDays,
		SafetyRequirements:       req.SafetyRequirements,
		IsActive:                 true,
	}
	if req.EstimatedDurationMinutes != nil {
		task.EstimatedDurationMinutes = *req.EstimatedDurationMinutes
	}
	if err := task.SetRequiredTools(req.RequiredTools); err != nil {
		respondError(c, http.StatusBadRequest, "invalid required_tools")
		return
	}
	if err := task.SetRequiredSkills(req.RequiredSkills); err != nil {
		respondError(c, http.StatusBadRequest, "invalid required_skills")
		return
	}
	if err := task.SetProcedureSteps(req.ProcedureSteps); err != nil {
		respondError(c, http.StatusBadRequest, "invalid procedure_steps")
		return
	}

	if err := h.store.CreateTask(c.Request.Context(), &task); err != nil {
		respondStoreError(c, err)
		return
	}
	h.purgeCache()
	respondCreated(c, taskResponse(&task))
}

// ListTasks handles GET /api/maintenance/tasks.
func (h *Handler) ListTasks(c *gin.Context) {
	isActive, ok := queryBool(c, "is_active")
	if !ok {
		return
	}
	category := model.EquipmentCategory(c.Query("category"))
	if category != "" && !category.Valid() {
		respondError(c, http.StatusBadRequest, "invalid category")
		return
	}
	maintenanceType := model.MaintenanceType(c.Query("maintenance_type"))
	if maintenanceType != "" && !maintenanceType.Valid() {
		respondError(c, http.StatusBadRequest, "invalid maintenance_type")
		return
	}

	tasks, err := h.store.ListTasks(c.Request.Context(), store.TaskFilter{
		Category:        category,
		MaintenanceType: maintenanceType,
		IsActive:        isActive,
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}

	responses := make([]gin.H, 0, len(tasks))
	for i := range tasks {
		responses = append(responses, taskResponse(&tasks[i]))
	}
	respondList(c, responses, len(responses))
}

// taskResponse expands the JSON-encoded list columns for the API.
func taskResponse(t *model.MaintenanceTask) gin.H {
	return gin.H{
		"id":                         t.ID,
		"name":                       t.Name,
		"description":                t.Description,
		"category":                   t.Category,
		"maintenance_type":           t.MaintenanceType,
		"estimated_duration_minutes": t.EstimatedDurationMinutes,
		"frequency_days":             t.FrequencyDays,
		"required_tools":             t.GetRequiredTools(),
		"required_skills":            t.GetRequiredSkills(),
		"procedure_steps":            t.GetProcedureSteps(),
		"safety_requirements":        t.SafetyRequirements,
		"is_active":                  t.IsActive,
		"created_at":                 t.CreatedAt,
		"updated_at":                 t.UpdatedAt,
	}
}
