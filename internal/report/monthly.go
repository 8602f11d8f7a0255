package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"av-maintenance-backend/internal/model"
	"av-maintenance-backend/internal/store"
)

// MonthlyFacilityRow is one facility line in the monthly summary.
type MonthlyFacilityRow struct {
	FacilityID         int64   `json:"facility_id"`
	FacilityName       string  `json:"facility_name"`
	Location           string  `json:"location"`
	TotalEquipment     int64   `json:"total_equipment"`
	CriticalEquipment  int64   `json:"critical_equipment"`
	ScheduledThisMonth int64   `json:"scheduled_this_month"`
	CompletedThisMonth int64   `json:"completed_this_month"`
	CompletionRate     float64 `json:"completion_rate"`
	UpcomingNextMonth  int64   `json:"upcoming_next_month"`
	CurrentlyOverdue   int64   `json:"currently_overdue"`
}

// MonthlySummary aggregates one calendar month per active facility.
type MonthlySummary struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Month       int                  `json:"month"`
	Year        int                  `json:"year"`
	Period      string               `json:"period"`
	Facilities  []MonthlyFacilityRow `json:"facilities"`
}

// Monthly builds the per-facility summary for the given calendar month.
// Overdue counts are current as of asOf, not bounded to the month.
func (g *Generator) Monthly(ctx context.Context, month, year int, asOf time.Time) (*MonthlySummary, error) {
	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	nextMonthStart := monthStart.AddDate(0, 1, 0)
	nextMonthEnd := nextMonthStart.AddDate(0, 0, 30)
	overdueCutoff := model.DateOf(asOf).AddDate(0, 0, -1)

	facilities, err := g.store.ListActiveFacilities(ctx)
	if err != nil {
		return nil, err
	}

	sum := &MonthlySummary{
		GeneratedAt: asOf,
		Month:       month,
		Year:        year,
		Period:      monthStart.Format("January 2006"),
	}
	for i := range facilities {
		f := &facilities[i]

		eqStats, err := g.store.GetEquipmentStats(ctx, &f.ID, asOf)
		if err != nil {
			return nil, err
		}
		scheduled, err := g.store.CountSchedules(ctx, store.ScheduleCountFilter{
			FacilityID: &f.ID, StartDate: &monthStart, EndDate: &monthEnd,
		})
		if err != nil {
			return nil, err
		}
		completed, err := g.store.CountSchedules(ctx, store.ScheduleCountFilter{
			FacilityID: &f.ID, Status: model.StatusCompleted,
			StartDate: &monthStart, EndDate: &monthEnd,
		})
		if err != nil {
			return nil, err
		}
		upcoming, err := g.store.CountSchedules(ctx, store.ScheduleCountFilter{
			FacilityID: &f.ID, Status: model.StatusScheduled,
			StartDate: &nextMonthStart, EndDate: &nextMonthEnd,
		})
		if err != nil {
			return nil, err
		}
		overdue, err := g.store.CountSchedules(ctx, store.ScheduleCountFilter{
			FacilityID: &f.ID, Status: model.StatusScheduled,
			EndDate: &overdueCutoff,
		})
		if err != nil {
			return nil, err
		}

		completionRate := 100.0
		if scheduled > 0 {
			completionRate = float64(completed) / float64(scheduled) * 100
		}
		sum.Facilities = append(sum.Facilities, MonthlyFacilityRow{
			FacilityID:         f.ID,
			FacilityName:       f.Name,
			Location:           f.Location,
			TotalEquipment:     eqStats.TotalEquipment,
			CriticalEquipment:  eqStats.CriticalEquipment,
			ScheduledThisMonth: scheduled,
			CompletedThisMonth: completed,
			CompletionRate:     completionRate,
			UpcomingNextMonth:  upcoming,
			CurrentlyOverdue:   overdue,
		})
	}
	return sum, nil
}

// Headers implements Tabular.
func (s *MonthlySummary) Headers() []string {
	return []string{
		"Facility ID", "Facility", "Location", "Total Equipment", "Critical Equipment",
		"Scheduled", "Completed", "Completion Rate", "Upcoming Next Month", "Currently Overdue",
	}
}

// Rows implements Tabular.
func (s *MonthlySummary) Rows() [][]string {
	rows := make([][]string, 0, len(s.Facilities))
	for _, f := range s.Facilities {
		rows = append(rows, []string{
			strconv.FormatInt(f.FacilityID, 10),
			f.FacilityName,
			f.Location,
			strconv.FormatInt(f.TotalEquipment, 10),
			strconv.FormatInt(f.CriticalEquipment, 10),
			strconv.FormatInt(f.ScheduledThisMonth, 10),
			strconv.FormatInt(f.CompletedThisMonth, 10),
			fmt.Sprintf("%.1f", f.CompletionRate),
			strconv.FormatInt(f.UpcomingNextMonth, 10),
			strconv.FormatInt(f.CurrentlyOverdue, 10),
		})
	}
	return rows
}
