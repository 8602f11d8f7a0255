package model

import "time"

// Priority is the shared priority vocabulary for schedules and alerts.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every recognized priority value.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Valid reports whether p is a recognized priority.
func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// Alert types generated by the sweep runner. User-created alerts may carry
// any free-form type (equipment_failure, parts_needed, ...).
const (
	AlertMaintenanceDue     = "maintenance_due"
	AlertMaintenanceOverdue = "maintenance_overdue"
	AlertWarrantyExpiring   = "warranty_expiring"
	AlertWeeklySummary      = "weekly_summary"
	AlertMonthlyReport      = "monthly_report"
)

// KnownAlertTypes is the full vocabulary exposed by the API, including the
// user-originated types the sweep never generates.
var KnownAlertTypes = []string{
	AlertMaintenanceDue,
	AlertMaintenanceOverdue,
	AlertWarrantyExpiring,
	AlertWeeklySummary,
	AlertMonthlyReport,
	"equipment_failure",
	"inspection_required",
	"parts_needed",
	"technician_required",
	"system_notification",
}

// Alert is a materialized notification row. Alerts are created by the sweep
// runner or by direct user action, and resolved only by explicit user action;
// the sweep never auto-resolves an alert even if the condition clears.
//
// Dedup invariant: at most one unresolved alert per (facility, equipment,
// schedule, alert_type) tuple. Enforced by check-before-create plus a partial
// unique index at the storage layer (see db.ApplyAlertDedupIndex).
type Alert struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	FacilityID  *int64 `gorm:"index" json:"facility_id"`
	EquipmentID *int64 `gorm:"index" json:"equipment_id"`
	ScheduleID  *int64 `gorm:"index" json:"schedule_id"`

	AlertType string   `gorm:"size:64;not null;index" json:"alert_type"`
	Priority  Priority `gorm:"size:32;not null;default:medium" json:"priority"`
	Title     string   `gorm:"size:256;not null" json:"title"`
	Message   string   `gorm:"type:text;not null" json:"message"`

	IsRead bool       `gorm:"not null;default:false" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`

	IsResolved bool       `gorm:"not null;default:false;index" json:"is_resolved"`
	ResolvedAt *time.Time `json:"resolved_at"`
	ResolvedBy string     `gorm:"size:128" json:"resolved_by"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Escalation rules shared by the sweep jobs and the user-triggered alert
// generation endpoint.

// OverduePriority escalates by how many days a schedule is overdue.
func OverduePriority(daysOverdue int) Priority {
	switch {
	case daysOverdue > 14:
		return PriorityCritical
	case daysOverdue > 7:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// DuePriority escalates by how soon a schedule is due.
func DuePriority(daysUntil int) Priority {
	if daysUntil <= 2 {
		return PriorityHigh
	}
	return PriorityMedium
}

// WarrantyPriority escalates by how soon a warranty expires.
func WarrantyPriority(daysUntilExpiry int) Priority {
	if daysUntilExpiry <= 30 {
		return PriorityHigh
	}
	return PriorityMedium
}

// WeeklySummaryPriority is high whenever any overdue work exists.
func WeeklySummaryPriority(overdueCount int) Priority {
	if overdueCount > 0 {
		return PriorityHigh
	}
	return PriorityMedium
}

// MonthlyReportPriority is high when the completion rate dips below 70% or
// more than 20 items are queued for the coming month.
func MonthlyReportPriority(completionRate float64, upcomingCount int) Priority {
	if completionRate < 70 || upcomingCount > 20 {
		return PriorityHigh
	}
	return PriorityMedium
}
