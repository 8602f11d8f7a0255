package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"av-maintenance-backend/internal/db"
	"av-maintenance-backend/internal/model"
	"av-maintenance-backend/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))
	return store.NewGormStore(gdb)
}

func seedReportData(t *testing.T, s store.Store, asOf time.Time) {
	t.Helper()
	ctx := context.Background()

	facility := &model.Facility{Name: "Grand Hall", IsActive: true}
	require.NoError(t, s.CreateFacility(ctx, facility))

	installed := asOf.AddDate(0, 0, -200)
	overdueEq := &model.Equipment{
		FacilityID:              facility.ID,
		Name:                    "QSC K12.2",
		Category:                model.CategorySpeaker,
		InstallationDate:        &installed,
		MaintenanceIntervalDays: 90,
		IsActive:                true,
	}
	require.NoError(t, s.CreateEquipment(ctx, overdueEq))

	recentlyServiced := asOf.AddDate(0, 0, -10)
	freshEq := &model.Equipment{
		FacilityID:              facility.ID,
		Name:                    "Epson L1755",
		Category:                model.CategoryProjector,
		LastMaintenance:         &recentlyServiced,
		MaintenanceIntervalDays: 180,
		IsActive:                true,
	}
	require.NoError(t, s.CreateEquipment(ctx, freshEq))

	usageEq := &model.Equipment{
		FacilityID:            facility.ID,
		Name:                  "Yamaha CL5",
		Category:              model.CategoryMixer,
		UsageBasedMaintenance: true,
		UsageThresholdHours:   500,
		OperatingHours:        620,
		IsActive:              true,
	}
	require.NoError(t, s.CreateEquipment(ctx, usageEq))

	task := &model.MaintenanceTask{
		Name:            "Driver inspection",
		Category:        model.CategorySpeaker,
		MaintenanceType: model.TypeInspection,
		FrequencyDays:   90,
		IsActive:        true,
	}
	require.NoError(t, s.CreateTask(ctx, task))

	_, err := s.CreateSchedule(ctx, store.CreateScheduleInput{
		FacilityID: facility.ID, EquipmentID: overdueEq.ID, TaskID: task.ID,
		ScheduledDate: asOf.AddDate(0, 0, -5),
	})
	require.NoError(t, err)
	_, err = s.CreateSchedule(ctx, store.CreateScheduleInput{
		FacilityID: facility.ID, EquipmentID: freshEq.ID, TaskID: task.ID,
		ScheduledDate: asOf.AddDate(0, 0, 3),
	})
	require.NoError(t, err)
}

func TestEquipmentStatusClassification(t *testing.T) {
	s := newTestStore(t)
	asOf := time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)
	seedReportData(t, s, asOf)

	rep, err := NewGenerator(s).EquipmentStatus(context.Background(), nil, asOf)
	require.NoError(t, err)
	require.Len(t, rep.Equipment, 3)

	byName := map[string]EquipmentStatusRow{}
	for _, row := range rep.Equipment {
		byName[row.EquipmentName] = row
	}

	// Installed 200 days ago with a 90-day interval: 110 days overdue.
	assert.Equal(t, StatusOverdue, byName["QSC K12.2"].Status)
	require.NotNil(t, byName["QSC K12.2"].DaysUntilDue)
	assert.Equal(t, -110, *byName["QSC K12.2"].DaysUntilDue)

	// Serviced 10 days ago with a 180-day interval: comfortably up to date.
	assert.Equal(t, StatusUpToDate, byName["Epson L1755"].Status)

	// Usage-based and past its threshold: overdue with no calendar date.
	assert.Equal(t, StatusOverdue, byName["Yamaha CL5"].Status)
	assert.Nil(t, byName["Yamaha CL5"].NextMaintenance)

	assert.Equal(t, 2, rep.Counts[StatusOverdue])
	assert.Equal(t, 1, rep.Counts[StatusUpToDate])
	assert.Equal(t, "Grand Hall", byName["QSC K12.2"].FacilityName)
}

func TestMaintenanceSummary(t *testing.T) {
	s := newTestStore(t)
	asOf := time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)
	seedReportData(t, s, asOf)

	sum, err := NewGenerator(s).Summary(context.Background(), nil, 30, asOf)
	require.NoError(t, err)

	require.Len(t, sum.Overdue, 1)
	assert.Equal(t, "QSC K12.2", sum.Overdue[0].EquipmentName)
	require.Len(t, sum.Upcoming, 1)
	assert.Equal(t, "Epson L1755", sum.Upcoming[0].EquipmentName)
	assert.Equal(t, int64(2), sum.Stats.TotalScheduled)
	assert.Equal(t, int64(1), sum.Stats.Overdue)
}

func TestMonthlySummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	asOf := time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)
	seedReportData(t, s, asOf)

	facilities, err := s.ListActiveFacilities(ctx)
	require.NoError(t, err)
	require.Len(t, facilities, 1)
	facility := facilities[0]

	task := &model.MaintenanceTask{
		Name:            "Lens cleaning",
		Category:        model.CategoryProjector,
		MaintenanceType: model.TypeCleaning,
		IsActive:        true,
	}
	require.NoError(t, s.CreateTask(ctx, task))
	equipment, err := s.ListEquipment(ctx, store.EquipmentFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, equipment)

	// Two April schedules, one of them completed.
	recurring := false
	done, err := s.CreateSchedule(ctx, store.CreateScheduleInput{
		FacilityID: facility.ID, EquipmentID: equipment[0].ID, TaskID: task.ID,
		ScheduledDate: time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC),
		IsRecurring:   &recurring,
	})
	require.NoError(t, err)
	_, err = s.CompleteSchedule(ctx, done.ID, store.CompleteScheduleInput{CompletedBy: "a.chen"})
	require.NoError(t, err)
	_, err = s.CreateSchedule(ctx, store.CreateScheduleInput{
		FacilityID: facility.ID, EquipmentID: equipment[0].ID, TaskID: task.ID,
		ScheduledDate: time.Date(2024, time.April, 20, 0, 0, 0, 0, time.UTC),
		IsRecurring:   &recurring,
	})
	require.NoError(t, err)

	sum, err := NewGenerator(s).Monthly(ctx, 4, 2024, asOf)
	require.NoError(t, err)
	assert.Equal(t, "April 2024", sum.Period)
	require.Len(t, sum.Facilities, 1)

	row := sum.Facilities[0]
	assert.Equal(t, "Grand Hall", row.FacilityName)
	assert.Equal(t, int64(3), row.TotalEquipment)
	assert.Equal(t, int64(2), row.ScheduledThisMonth)
	assert.Equal(t, int64(1), row.CompletedThisMonth)
	assert.Equal(t, 50.0, row.CompletionRate)
	// seedReportData's two May schedules fall in the month after April.
	assert.Equal(t, int64(2), row.UpcomingNextMonth)
	// Still open as of May 15: the April 20 schedule and the May 10 one.
	assert.Equal(t, int64(2), row.CurrentlyOverdue)

	// A month with no schedules reports a clean slate.
	empty, err := NewGenerator(s).Monthly(ctx, 1, 2024, asOf)
	require.NoError(t, err)
	require.Len(t, empty.Facilities, 1)
	assert.Equal(t, int64(0), empty.Facilities[0].ScheduledThisMonth)
	assert.Equal(t, 100.0, empty.Facilities[0].CompletionRate)
}

func TestWriteCSV(t *testing.T) {
	s := newTestStore(t)
	asOf := time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)
	seedReportData(t, s, asOf)

	rep, err := NewGenerator(s).EquipmentStatus(context.Background(), nil, asOf)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rep))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4) // header + 3 equipment rows
	assert.Contains(t, lines[0], "Next Maintenance")
	assert.Contains(t, buf.String(), "QSC K12.2")
	assert.Contains(t, buf.String(), StatusOverdue)
}

func TestWriteXLSX(t *testing.T) {
	s := newTestStore(t)
	asOf := time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)
	seedReportData(t, s, asOf)

	sum, err := NewGenerator(s).Summary(context.Background(), nil, 30, asOf)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "Maintenance Summary", sum))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Maintenance Summary")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Section", rows[0][0])
	// header + 5 stat lines + 1 overdue + 1 upcoming
	assert.Len(t, rows, 8)
}
