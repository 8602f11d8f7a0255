package sweep

import (
	"context"
	"fmt"
	"time"

	"av-maintenance-backend/internal/model"
	"av-maintenance-backend/internal/store"
)

// runDailyDueCheck raises maintenance_due alerts for work coming up within
// the configured horizon, and warranty_expiring alerts for warranties inside
// the warranty horizon.
func (sw *Sweeper) runDailyDueCheck(ctx context.Context, now time.Time) error {
	upcoming, err := sw.store.ListUpcoming(ctx, now, sw.cfg.UpcomingHorizonDays, nil)
	if err != nil {
		return err
	}
	created := 0
	for i := range upcoming {
		sched := &upcoming[i]
		daysUntil := model.DaysBetween(now, sched.ScheduledDate)
		ok, err := sw.store.RaiseAlertIfAbsent(ctx, store.DueAlertInput(sched, daysUntil))
		if err != nil {
			return err
		}
		if ok {
			created++
		}
	}

	expiring, err := sw.store.ListExpiringWarranties(ctx, now, sw.cfg.WarrantyHorizonDays)
	if err != nil {
		return err
	}
	for i := range expiring {
		eq := &expiring[i]
		daysLeft := model.DaysBetween(now, *eq.WarrantyExpiry)
		ok, err := sw.store.RaiseAlertIfAbsent(ctx, store.AlertInput{
			FacilityID:  &eq.FacilityID,
			EquipmentID: &eq.ID,
			AlertType:   model.AlertWarrantyExpiring,
			Priority:    model.WarrantyPriority(daysLeft),
			Title:       fmt.Sprintf("Warranty Expiring: %s", eq.Name),
			Message: fmt.Sprintf("Warranty for %s expires in %d days (%s). Consider scheduling a final covered inspection.",
				eq.Name, daysLeft, eq.WarrantyExpiry.Format("2006-01-02")),
		})
		if err != nil {
			return err
		}
		if ok {
			created++
		}
	}

	sw.logger.Printf("daily due check: %d upcoming, %d expiring warranties, %d alerts created",
		len(upcoming), len(expiring), created)
	return nil
}

// runOverdueCheck raises maintenance_overdue alerts for every schedule past
// its date and still in scheduled status.
func (sw *Sweeper) runOverdueCheck(ctx context.Context, now time.Time) error {
	overdue, err := sw.store.ListOverdue(ctx, now, nil)
	if err != nil {
		return err
	}
	created := 0
	for i := range overdue {
		sched := &overdue[i]
		daysOverdue := model.DaysBetween(sched.ScheduledDate, now)
		ok, err := sw.store.RaiseAlertIfAbsent(ctx, store.OverdueAlertInput(sched, daysOverdue))
		if err != nil {
			return err
		}
		if ok {
			created++
		}
	}
	sw.logger.Printf("overdue check: %d overdue, %d alerts created", len(overdue), created)
	return nil
}

// runWeeklySummary raises one weekly_summary digest per active facility.
func (sw *Sweeper) runWeeklySummary(ctx context.Context, now time.Time) error {
	facilities, err := sw.store.ListActiveFacilities(ctx)
	if err != nil {
		return err
	}
	err = forEachFacility(ctx, facilities, sw.cfg.DigestWorkers, func(ctx context.Context, f *model.Facility) error {
		overdue, err := sw.store.ListOverdue(ctx, now, &f.ID)
		if err != nil {
			return err
		}
		upcoming, err := sw.store.ListUpcoming(ctx, now, 7, &f.ID)
		if err != nil {
			return err
		}
		stats, err := sw.store.GetMaintenanceStats(ctx, &f.ID, 7, now)
		if err != nil {
			return err
		}

		_, err = sw.store.RaiseAlertIfAbsent(ctx, store.AlertInput{
			FacilityID: &f.ID,
			AlertType:  model.AlertWeeklySummary,
			Priority:   model.WeeklySummaryPriority(len(overdue)),
			Title:      fmt.Sprintf("Weekly Maintenance Summary: %s", f.Name),
			Message: fmt.Sprintf("Week of %s for %s: %d completed, %d overdue, %d scheduled for the next 7 days.",
				model.DateOf(now).Format("2006-01-02"), f.Name,
				stats.RecentCompleted, len(overdue), len(upcoming)),
		})
		return err
	})
	if err != nil {
		return err
	}
	sw.logger.Printf("weekly summary: %d facilities processed", len(facilities))
	return nil
}

// runMonthlyReport raises one monthly_report digest per active facility. The
// trigger fires daily; only the first of the month does any work, reporting
// on the month that just ended.
func (sw *Sweeper) runMonthlyReport(ctx context.Context, now time.Time) error {
	if now.Day() != 1 {
		return nil
	}

	monthStart := model.DateOf(now).AddDate(0, -1, 0)
	monthEnd := model.DateOf(now).AddDate(0, 0, -1)
	nextMonthEnd := model.DateOf(now).AddDate(0, 1, -1)

	facilities, err := sw.store.ListActiveFacilities(ctx)
	if err != nil {
		return err
	}
	err = forEachFacility(ctx, facilities, sw.cfg.DigestWorkers, func(ctx context.Context, f *model.Facility) error {
		total, err := sw.store.CountSchedules(ctx, store.ScheduleCountFilter{
			FacilityID: &f.ID, StartDate: &monthStart, EndDate: &monthEnd,
		})
		if err != nil {
			return err
		}
		completed, err := sw.store.CountSchedules(ctx, store.ScheduleCountFilter{
			FacilityID: &f.ID, Status: model.StatusCompleted,
			StartDate: &monthStart, EndDate: &monthEnd,
		})
		if err != nil {
			return err
		}
		upcoming, err := sw.store.CountSchedules(ctx, store.ScheduleCountFilter{
			FacilityID: &f.ID, Status: model.StatusScheduled,
			StartDate: &now, EndDate: &nextMonthEnd,
		})
		if err != nil {
			return err
		}

		completionRate := 100.0
		if total > 0 {
			completionRate = float64(completed) / float64(total) * 100
		}

		_, err = sw.store.RaiseAlertIfAbsent(ctx, store.AlertInput{
			FacilityID: &f.ID,
			AlertType:  model.AlertMonthlyReport,
			Priority:   model.MonthlyReportPriority(completionRate, int(upcoming)),
			Title:      fmt.Sprintf("Monthly Maintenance Report: %s", f.Name),
			Message: fmt.Sprintf("%s report for %s: %d of %d scheduled completed (%.1f%%), %d items scheduled for the coming month.",
				monthStart.Format("January 2006"), f.Name,
				completed, total, completionRate, upcoming),
		})
		return err
	})
	if err != nil {
		return err
	}
	sw.logger.Printf("monthly report: %d facilities processed", len(facilities))
	return nil
}
