package internal

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"av-maintenance-backend/config"
	"av-maintenance-backend/internal/db"
	"av-maintenance-backend/internal/model"
	"av-maintenance-backend/internal/store"
	"av-maintenance-backend/internal/sweep"
)

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

// TestMaintenanceLifecycle walks one piece of equipment through a full cycle:
// install, schedule, fall overdue, get alerted, complete, and verify the
// recurrence chain and alert dedup behavior along the way.
func TestMaintenanceLifecycle(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, db.Migrate(gdb))

	s := store.NewGormStore(gdb)
	ctx := context.Background()

	// --- Install equipment ---

	facility := &model.Facility{Name: "City Arena", Location: "North Side", IsActive: true}
	require.NoError(t, s.CreateFacility(ctx, facility))

	installed := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	eq := &model.Equipment{
		FacilityID:              facility.ID,
		Name:                    "L-Acoustics K2",
		Category:                model.CategorySpeaker,
		InstallationDate:        &installed,
		MaintenanceIntervalDays: 90,
		IsCritical:              true,
		IsActive:                true,
	}
	require.NoError(t, s.CreateEquipment(ctx, eq))
	require.NotNil(t, eq.NextMaintenance)
	assert.Equal(t, time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC), *eq.NextMaintenance)

	task := &model.MaintenanceTask{
		Name:            "Rigging and driver inspection",
		Category:        model.CategorySpeaker,
		MaintenanceType: model.TypeInspection,
		FrequencyDays:   90,
		IsActive:        true,
	}
	require.NoError(t, s.CreateTask(ctx, task))

	sched, err := s.CreateSchedule(ctx, store.CreateScheduleInput{
		FacilityID:    facility.ID,
		EquipmentID:   eq.ID,
		TaskID:        task.ID,
		ScheduledDate: *eq.NextMaintenance,
	})
	require.NoError(t, err)

	// --- The schedule falls overdue and the sweeper notices ---

	clock := &fixedClock{t: time.Date(2024, time.April, 9, 9, 30, 0, 0, time.UTC)} // Tuesday
	sweeperCfg := &config.SweeperConfig{
		Enabled: true, TickSeconds: 60, Tick: time.Minute, Timezone: "UTC",
		DailyCheckTime: "09:00", WeeklySummaryDay: "Monday", WeeklySummaryTime: "08:00",
		MonthlyReportTime: "01:00", OverdueIntervalHrs: 6, UpcomingHorizonDays: 7,
		WarrantyHorizonDays: 90, JobTimeoutSeconds: 60, DigestWorkers: 2,
	}
	sweeper, err := sweep.New(s, sweeperCfg, clock, log.Default())
	require.NoError(t, err)

	sweeper.Tick(ctx)

	unresolved := false
	alerts, err := s.ListAlerts(ctx, store.AlertFilter{IsResolved: &unresolved})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	alert := alerts[0]
	assert.Equal(t, model.AlertMaintenanceOverdue, alert.AlertType)
	// 9 days overdue escalates past the 7-day threshold.
	assert.Equal(t, model.PriorityHigh, alert.Priority)
	require.NotNil(t, alert.ScheduleID)
	assert.Equal(t, sched.ID, *alert.ScheduleID)

	// Six hours later the overdue job runs again; dedup holds.
	clock.t = clock.t.Add(6 * time.Hour)
	sweeper.Tick(ctx)
	alerts, err = s.ListAlerts(ctx, store.AlertFilter{IsResolved: &unresolved})
	require.NoError(t, err)
	assert.Len(t, alerts, 1)

	// --- The work gets done ---

	duration := 75
	cost := 250.0
	completed, err := s.CompleteSchedule(ctx, sched.ID, store.CompleteScheduleInput{
		CompletedBy:           "a.okafor",
		ActualDurationMinutes: &duration,
		Cost:                  &cost,
		CompletedAt:           clock.t,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, completed.Status)

	// Cadence preserved: baseline is the planned date, not April 9.
	eq, err = s.GetEquipment(ctx, eq.ID)
	require.NoError(t, err)
	require.NotNil(t, eq.LastMaintenance)
	assert.Equal(t, time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC), *eq.LastMaintenance)
	require.NotNil(t, eq.NextMaintenance)
	assert.Equal(t, time.Date(2024, time.June, 29, 0, 0, 0, 0, time.UTC), *eq.NextMaintenance)

	// One successor chained at the old next occurrence.
	open, err := s.ListSchedules(ctx, store.ScheduleFilter{Status: model.StatusScheduled})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, time.Date(2024, time.June, 29, 0, 0, 0, 0, time.UTC), open[0].ScheduledDate)

	// --- Resolve the alert; a later recurrence of the condition re-alerts ---

	resolvedTrue := true
	_, err = s.UpdateAlert(ctx, alert.ID, store.UpdateAlertInput{IsResolved: &resolvedTrue})
	require.NoError(t, err)

	// Far future: the successor schedule itself is now long overdue.
	clock.t = time.Date(2024, time.July, 10, 9, 30, 0, 0, time.UTC)
	sweeper.Tick(ctx)

	alerts, err = s.ListAlerts(ctx, store.AlertFilter{
		AlertType:  model.AlertMaintenanceOverdue,
		IsResolved: &unresolved,
	})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, open[0].ID, *alerts[0].ScheduleID)
}
