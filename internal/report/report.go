// Package report builds the equipment-status and maintenance-summary reports
// and renders them as CSV or XLSX.
package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"av-maintenance-backend/internal/model"
	"av-maintenance-backend/internal/recurrence"
	"av-maintenance-backend/internal/store"
)

// Maintenance status values used in the equipment-status report.
const (
	StatusUpToDate = "up_to_date"
	StatusDueSoon  = "due_soon"
	StatusOverdue  = "overdue"
	StatusUnknown  = "unknown"
)

// Generator builds reports from the store.
type Generator struct {
	store store.Store
}

func NewGenerator(s store.Store) *Generator {
	return &Generator{store: s}
}

// EquipmentStatusRow is one equipment line in the status report.
type EquipmentStatusRow struct {
	EquipmentID     int64      `json:"equipment_id"`
	EquipmentName   string     `json:"equipment_name"`
	FacilityID      int64      `json:"facility_id"`
	FacilityName    string     `json:"facility_name"`
	Category        string     `json:"category"`
	IsCritical      bool       `json:"is_critical"`
	OperatingHours  float64    `json:"operating_hours"`
	LastMaintenance *time.Time `json:"last_maintenance"`
	NextMaintenance *time.Time `json:"next_maintenance"`
	DaysUntilDue    *int       `json:"days_until_due"`
	Status          string     `json:"maintenance_status"`
}

// EquipmentStatusReport classifies every active piece of equipment by
// maintenance state.
type EquipmentStatusReport struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Equipment   []EquipmentStatusRow `json:"equipment"`
	Counts      map[string]int       `json:"counts"`
}

// EquipmentStatus builds the status report for one facility or, with a nil
// facility id, the whole fleet.
func (g *Generator) EquipmentStatus(ctx context.Context, facilityID *int64, asOf time.Time) (*EquipmentStatusReport, error) {
	active := true
	equipment, err := g.store.ListEquipment(ctx, store.EquipmentFilter{
		FacilityID: facilityID,
		IsActive:   &active,
	})
	if err != nil {
		return nil, err
	}

	facilities, err := g.store.ListFacilities(ctx, store.FacilityFilter{})
	if err != nil {
		return nil, err
	}
	facilityNames := make(map[int64]string, len(facilities))
	for _, f := range facilities {
		facilityNames[f.ID] = f.Name
	}

	rep := &EquipmentStatusReport{
		GeneratedAt: asOf,
		Counts:      map[string]int{},
	}
	today := model.DateOf(asOf)
	for i := range equipment {
		eq := &equipment[i]
		row := EquipmentStatusRow{
			EquipmentID:     eq.ID,
			EquipmentName:   eq.Name,
			FacilityID:      eq.FacilityID,
			FacilityName:    facilityNames[eq.FacilityID],
			Category:        string(eq.Category),
			IsCritical:      eq.IsCritical,
			OperatingHours:  eq.OperatingHours,
			LastMaintenance: eq.LastMaintenance,
			NextMaintenance: eq.NextMaintenance,
		}
		switch {
		case eq.NextMaintenance != nil:
			days := model.DaysBetween(today, *eq.NextMaintenance)
			row.DaysUntilDue = &days
			switch {
			case days < 0:
				row.Status = StatusOverdue
			case days <= 30:
				row.Status = StatusDueSoon
			default:
				row.Status = StatusUpToDate
			}
		case eq.UsageBasedMaintenance:
			if recurrence.UsageDue(eq.UsageThresholdHours, eq.OperatingHours, eq.HoursAtLastMaintenance) {
				row.Status = StatusOverdue
			} else {
				row.Status = StatusUpToDate
			}
		default:
			row.Status = StatusUnknown
		}
		rep.Counts[row.Status]++
		rep.Equipment = append(rep.Equipment, row)
	}
	return rep, nil
}

// Headers implements Tabular.
func (r *EquipmentStatusReport) Headers() []string {
	return []string{
		"Equipment ID", "Equipment", "Facility", "Category", "Critical",
		"Operating Hours", "Last Maintenance", "Next Maintenance", "Days Until Due", "Status",
	}
}

// Rows implements Tabular.
func (r *EquipmentStatusReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Equipment))
	for _, e := range r.Equipment {
		rows = append(rows, []string{
			strconv.FormatInt(e.EquipmentID, 10),
			e.EquipmentName,
			e.FacilityName,
			e.Category,
			strconv.FormatBool(e.IsCritical),
			fmt.Sprintf("%.1f", e.OperatingHours),
			formatDate(e.LastMaintenance),
			formatDate(e.NextMaintenance),
			formatInt(e.DaysUntilDue),
			e.Status,
		})
	}
	return rows
}

// ScheduleRow is one schedule line in the maintenance summary.
type ScheduleRow struct {
	ScheduleID    int64     `json:"schedule_id"`
	EquipmentName string    `json:"equipment_name"`
	FacilityName  string    `json:"facility_name"`
	TaskName      string    `json:"task_name"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Priority      string    `json:"priority"`
	Technician    string    `json:"assigned_technician"`
}

// MaintenanceSummary aggregates the ledger over a look-back window plus the
// current overdue and upcoming queues.
type MaintenanceSummary struct {
	GeneratedAt time.Time               `json:"generated_at"`
	DaysBack    int                     `json:"days_back"`
	Stats       *store.MaintenanceStats `json:"stats"`
	Overdue     []ScheduleRow           `json:"overdue"`
	Upcoming    []ScheduleRow           `json:"upcoming"`
}

// Summary builds the maintenance summary for one facility or the whole fleet.
func (g *Generator) Summary(ctx context.Context, facilityID *int64, daysBack int, asOf time.Time) (*MaintenanceSummary, error) {
	if daysBack <= 0 {
		daysBack = 30
	}
	stats, err := g.store.GetMaintenanceStats(ctx, facilityID, daysBack, asOf)
	if err != nil {
		return nil, err
	}
	overdue, err := g.store.ListOverdue(ctx, asOf, facilityID)
	if err != nil {
		return nil, err
	}
	upcoming, err := g.store.ListUpcoming(ctx, asOf, 7, facilityID)
	if err != nil {
		return nil, err
	}

	return &MaintenanceSummary{
		GeneratedAt: asOf,
		DaysBack:    daysBack,
		Stats:       stats,
		Overdue:     scheduleRows(overdue),
		Upcoming:    scheduleRows(upcoming),
	}, nil
}

func scheduleRows(schedules []model.MaintenanceSchedule) []ScheduleRow {
	rows := make([]ScheduleRow, 0, len(schedules))
	for _, s := range schedules {
		rows = append(rows, ScheduleRow{
			ScheduleID:    s.ID,
			EquipmentName: s.Equipment.Name,
			FacilityName:  s.Facility.Name,
			TaskName:      s.Task.Name,
			ScheduledDate: s.ScheduledDate,
			Priority:      string(s.Priority),
			Technician:    s.AssignedTechnician,
		})
	}
	return rows
}

// Headers implements Tabular.
func (s *MaintenanceSummary) Headers() []string {
	return []string{"Section", "Schedule ID", "Equipment", "Facility", "Task", "Scheduled Date", "Priority", "Technician"}
}

// Rows implements Tabular. Stats come first as key/value lines so the export
// stays a single flat sheet, followed by the overdue and upcoming queues.
func (s *MaintenanceSummary) Rows() [][]string {
	rows := [][]string{
		{"stats", "total", strconv.FormatInt(s.Stats.TotalScheduled, 10), "", "", "", "", ""},
		{"stats", "completed", strconv.FormatInt(s.Stats.Completed, 10), "", "", "", "", ""},
		{"stats", "overdue", strconv.FormatInt(s.Stats.Overdue, 10), "", "", "", "", ""},
		{"stats", "completion_rate", fmt.Sprintf("%.1f", s.Stats.CompletionRate), "", "", "", "", ""},
		{"stats", "avg_duration_minutes", fmt.Sprintf("%.1f", s.Stats.AvgDurationMinutes), "", "", "", "", ""},
	}
	for _, section := range []struct {
		name string
		list []ScheduleRow
	}{
		{"overdue", s.Overdue},
		{"upcoming", s.Upcoming},
	} {
		for _, r := range section.list {
			rows = append(rows, []string{
				section.name,
				strconv.FormatInt(r.ScheduleID, 10),
				r.EquipmentName,
				r.FacilityName,
				r.TaskName,
				r.ScheduledDate.Format("2006-01-02"),
				r.Priority,
				r.Technician,
			})
		}
	}
	return rows
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
