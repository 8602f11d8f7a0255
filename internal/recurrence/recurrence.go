// Package recurrence computes next-due dates for equipment maintenance
// policies. It is pure: no storage access, no clock, no errors. Missing
// inputs degrade to an unknown (nil) due date, since equipment without a
// maintenance history is valid.
package recurrence

import (
	"time"

	"av-maintenance-backend/internal/model"
)

// NextDue returns the next calendar due date under a fixed-interval policy.
// The baseline is the last maintenance date, falling back to the installation
// date for equipment that has never been maintained. Returns nil when no
// baseline exists or the interval is not positive.
func NextDue(intervalDays int, lastMaintenance, installed *time.Time) *time.Time {
	if intervalDays <= 0 {
		return nil
	}
	baseline := lastMaintenance
	if baseline == nil {
		baseline = installed
	}
	if baseline == nil {
		return nil
	}
	next := model.DateOf(*baseline).AddDate(0, 0, intervalDays)
	return &next
}

// UsageDue reports whether usage-based maintenance is due now: the hours
// accumulated since the last maintenance have reached the threshold.
// A non-positive threshold never signals due.
func UsageDue(thresholdHours, operatingHours, hoursAtLastMaintenance float64) bool {
	if thresholdHours <= 0 {
		return false
	}
	return operatingHours-hoursAtLastMaintenance >= thresholdHours
}

// ForEquipment computes the stored next_maintenance value for a piece of
// equipment. Usage-based equipment gets no calendar projection, only the
// due-now flag from UsageDue, so its next_maintenance stays nil.
func ForEquipment(eq *model.Equipment) *time.Time {
	if eq.UsageBasedMaintenance {
		return nil
	}
	return NextDue(eq.MaintenanceIntervalDays, eq.LastMaintenance, eq.InstallationDate)
}
