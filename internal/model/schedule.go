package model

import "time"

// ScheduleStatus is the lifecycle state of a maintenance schedule.
//
// A schedule is never mechanically transitioned to StatusOverdue; "overdue"
// is a derived predicate (scheduled_date < today AND status == scheduled).
// The stored value exists only because callers may set it explicitly.
type ScheduleStatus string

const (
	StatusScheduled  ScheduleStatus = "scheduled"
	StatusInProgress ScheduleStatus = "in_progress"
	StatusCompleted  ScheduleStatus = "completed"
	StatusOverdue    ScheduleStatus = "overdue"
	StatusCancelled  ScheduleStatus = "cancelled"
)

// ScheduleStatuses lists every recognized status value.
var ScheduleStatuses = []ScheduleStatus{
	StatusScheduled, StatusInProgress, StatusCompleted, StatusOverdue, StatusCancelled,
}

// Valid reports whether s is a recognized status.
func (s ScheduleStatus) Valid() bool {
	for _, v := range ScheduleStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// MaintenanceSchedule is one planned (or completed) maintenance event for a
// piece of equipment. Completed schedules are never deleted; they are the
// maintenance history.
type MaintenanceSchedule struct {
	ID          int64 `gorm:"primaryKey" json:"id"`
	FacilityID  int64 `gorm:"index;not null" json:"facility_id"`
	EquipmentID int64 `gorm:"index;not null" json:"equipment_id"`
	TaskID      int64 `gorm:"index;not null" json:"task_id"`

	ScheduledDate time.Time      `gorm:"type:date;not null;index" json:"scheduled_date"`
	Status        ScheduleStatus `gorm:"size:32;not null;default:scheduled;index" json:"status"`
	Priority      Priority       `gorm:"size:32;not null;default:medium" json:"priority"`

	AssignedTechnician       string `gorm:"size:128" json:"assigned_technician"`
	EstimatedDurationMinutes int    `gorm:"not null;default:30" json:"estimated_duration_minutes"`
	Notes                    string `gorm:"type:text" json:"notes"`

	CompletedDate         *time.Time `json:"completed_date"`
	CompletedBy           string     `gorm:"size:128" json:"completed_by"`
	ActualDurationMinutes *int       `json:"actual_duration_minutes"`
	Cost                  *float64   `json:"cost"`

	IsRecurring    bool       `gorm:"not null;default:true" json:"is_recurring"`
	NextOccurrence *time.Time `gorm:"type:date" json:"next_occurrence"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Facility  Facility        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Equipment Equipment       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Task      MaintenanceTask `json:"-"`
}

// IsOverdue reports whether the schedule counts as overdue at the given date.
func (s *MaintenanceSchedule) IsOverdue(asOf time.Time) bool {
	return s.Status == StatusScheduled && s.ScheduledDate.Before(DateOf(asOf))
}

// DateOf truncates t to a UTC calendar date. All scheduled_date comparisons
// go through this so date arithmetic never depends on the wall-clock time.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from a to b (negative when b
// precedes a).
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}
