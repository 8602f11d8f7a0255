package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"av-maintenance-backend/internal/model"
)

// Store defines the interface for all database operations. The HTTP handlers
// and the sweep runner share one implementation; both go through the same
// ledger and dedup logic.
type Store interface {
	// Facilities
	CreateFacility(ctx context.Context, f *model.Facility) error
	GetFacility(ctx context.Context, id int64) (*model.Facility, error)
	ListFacilities(ctx context.Context, filter FacilityFilter) ([]model.Facility, error)
	ListActiveFacilities(ctx context.Context) ([]model.Facility, error)
	UpdateFacility(ctx context.Context, f *model.Facility) error
	DeactivateFacility(ctx context.Context, id int64) error

	// Equipment
	CreateEquipment(ctx context.Context, eq *model.Equipment) error
	GetEquipment(ctx context.Context, id int64) (*model.Equipment, error)
	ListEquipment(ctx context.Context, filter EquipmentFilter) ([]model.Equipment, error)
	UpdateEquipment(ctx context.Context, eq *model.Equipment) error
	DeactivateEquipment(ctx context.Context, id int64) error
	UpdateEquipmentUsage(ctx context.Context, id int64, hours *float64, cycles *int) (*model.Equipment, error)
	ListMaintenanceDue(ctx context.Context, asOf time.Time, daysAhead int, facilityID *int64) ([]model.Equipment, error)
	ListExpiringWarranties(ctx context.Context, asOf time.Time, horizonDays int) ([]model.Equipment, error)
	GetEquipmentStats(ctx context.Context, facilityID *int64, asOf time.Time) (*EquipmentStats, error)

	// Maintenance tasks
	CreateTask(ctx context.Context, t *model.MaintenanceTask) error
	GetTask(ctx context.Context, id int64) (*model.MaintenanceTask, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.MaintenanceTask, error)

	// Schedule ledger
	CreateSchedule(ctx context.Context, in CreateScheduleInput) (*model.MaintenanceSchedule, error)
	GetSchedule(ctx context.Context, id int64) (*model.MaintenanceSchedule, error)
	ListSchedules(ctx context.Context, filter ScheduleFilter) ([]model.MaintenanceSchedule, error)
	UpdateSchedule(ctx context.Context, id int64, in UpdateScheduleInput) (*model.MaintenanceSchedule, error)
	CompleteSchedule(ctx context.Context, id int64, in CompleteScheduleInput) (*model.MaintenanceSchedule, error)
	ListOverdue(ctx context.Context, asOf time.Time, facilityID *int64) ([]model.MaintenanceSchedule, error)
	ListUpcoming(ctx context.Context, asOf time.Time, horizonDays int, facilityID *int64) ([]model.MaintenanceSchedule, error)
	CountSchedules(ctx context.Context, filter ScheduleCountFilter) (int64, error)
	GetMaintenanceStats(ctx context.Context, facilityID *int64, daysBack int, asOf time.Time) (*MaintenanceStats, error)

	// Alerts
	RaiseAlertIfAbsent(ctx context.Context, in AlertInput) (bool, error)
	CreateAlert(ctx context.Context, a *model.Alert) error
	GetAlert(ctx context.Context, id int64) (*model.Alert, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]model.Alert, error)
	UpdateAlert(ctx context.Context, id int64, in UpdateAlertInput) (*model.Alert, error)
	DeleteAlert(ctx context.Context, id int64) error
	MarkAlertsRead(ctx context.Context, ids []int64) (int64, error)
	ResolveAlerts(ctx context.Context, ids []int64, resolvedBy string) (int64, error)
	GenerateMaintenanceAlerts(ctx context.Context, asOf time.Time) (*GenerateAlertsResult, error)
	GetAlertStats(ctx context.Context, facilityID *int64, asOf time.Time) (*AlertStats, error)

	// DB exposes the underlying handle for read-only handler queries.
	DB() *gorm.DB
}

// FacilityFilter narrows ListFacilities.
type FacilityFilter struct {
	IsActive *bool
	City     string
	State    string
}

// EquipmentFilter narrows ListEquipment.
type EquipmentFilter struct {
	FacilityID     *int64
	Category       model.EquipmentCategory
	IsActive       *bool
	IsCritical     *bool
	Manufacturer   string
	MaintenanceDue bool
	AsOf           time.Time
}

// TaskFilter narrows ListTasks.
type TaskFilter struct {
	Category        model.EquipmentCategory
	MaintenanceType model.MaintenanceType
	IsActive        *bool
}

// ScheduleFilter narrows ListSchedules. Results are ordered by scheduled_date
// ascending, or descending with NewestFirst (the history view).
type ScheduleFilter struct {
	FacilityID         *int64
	EquipmentID        *int64
	Status             model.ScheduleStatus
	Priority           model.Priority
	MaintenanceType    model.MaintenanceType
	StartDate          *time.Time
	EndDate            *time.Time
	AssignedTechnician string
	NewestFirst        bool
	Limit              int
}

// ScheduleCountFilter supports the aggregate counts the digests need.
type ScheduleCountFilter struct {
	FacilityID *int64
	Status     model.ScheduleStatus
	StartDate  *time.Time
	EndDate    *time.Time
}

// CreateScheduleInput carries a new ledger entry.
type CreateScheduleInput struct {
	FacilityID               int64
	EquipmentID              int64
	TaskID                   int64
	ScheduledDate            time.Time
	Priority                 model.Priority
	Status                   model.ScheduleStatus
	AssignedTechnician       string
	EstimatedDurationMinutes *int
	Notes                    string
	IsRecurring              *bool
}

// UpdateScheduleInput is a partial update; nil fields are left unchanged.
// Setting Status to completed triggers the completion cascade.
type UpdateScheduleInput struct {
	ScheduledDate         *time.Time
	Status                *model.ScheduleStatus
	Priority              *model.Priority
	AssignedTechnician    *string
	Notes                 *string
	Cost                  *float64
	ActualDurationMinutes *int
	CompletedBy           *string
}

// CompleteScheduleInput carries the completion details for a schedule.
type CompleteScheduleInput struct {
	CompletedBy           string
	ActualDurationMinutes *int
	Cost                  *float64
	CompletedAt           time.Time
}

// AlertInput is the dedup-checked alert factory input. Subject ids are
// optional but at least one should be set.
type AlertInput struct {
	FacilityID  *int64
	EquipmentID *int64
	ScheduleID  *int64
	AlertType   string
	Priority    model.Priority
	Title       string
	Message     string
}

// UpdateAlertInput is a partial update; nil fields are left unchanged.
type UpdateAlertInput struct {
	IsRead     *bool
	IsResolved *bool
	ResolvedBy *string
	Priority   *model.Priority
}

// AlertFilter narrows ListAlerts. Results are ordered by created_at
// descending and capped at Limit rows.
type AlertFilter struct {
	FacilityID  *int64
	EquipmentID *int64
	AlertType   string
	Priority    model.Priority
	IsRead      *bool
	IsResolved  *bool
	Limit       int
}

// GenerateAlertsResult summarizes a user-triggered alert generation pass.
type GenerateAlertsResult struct {
	AlertsCreated int `json:"alerts_created"`
	OverdueCount  int `json:"overdue_count"`
	UpcomingCount int `json:"upcoming_count"`
}

// EquipmentStats aggregates the equipment inventory.
type EquipmentStats struct {
	TotalEquipment     int64            `json:"total_equipment"`
	CriticalEquipment  int64            `json:"critical_equipment"`
	ByCategory         map[string]int64 `json:"by_category"`
	ByManufacturer     map[string]int64 `json:"by_manufacturer"`
	MaintenanceOverdue int64            `json:"maintenance_overdue"`
	MaintenanceDueSoon int64            `json:"maintenance_due_soon"`
}

// MaintenanceStats aggregates the schedule ledger.
type MaintenanceStats struct {
	TotalScheduled     int64   `json:"total"`
	Completed          int64   `json:"completed"`
	Overdue            int64   `json:"overdue"`
	UpcomingWeek       int64   `json:"upcoming_week"`
	RecentCompleted    int64   `json:"recent_completed"`
	CompletionRate     float64 `json:"completion_rate"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
}

// AlertStats aggregates the alert store.
type AlertStats struct {
	TotalAlerts      int64            `json:"total_alerts"`
	UnreadAlerts     int64            `json:"unread_alerts"`
	UnresolvedAlerts int64            `json:"unresolved_alerts"`
	RecentAlerts     int64            `json:"recent_alerts"`
	ByPriority       map[string]int64 `json:"by_priority"`
	ByType           map[string]int64 `json:"by_type"`
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB returns the underlying GORM handle.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}
