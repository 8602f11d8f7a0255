package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"av-maintenance-backend/internal/model"
)

func TestRaiseAlertIfAbsentDedup(t *testing.T) {
	s := newSQLiteStore(t)
	facility, eq, _ := seedBasics(t, s)
	ctx := context.Background()

	in := AlertInput{
		FacilityID:  &facility.ID,
		EquipmentID: &eq.ID,
		AlertType:   model.AlertMaintenanceOverdue,
		Priority:    model.PriorityHigh,
		Title:       "OVERDUE: Crown XTi 4002",
		Message:     "Maintenance is 3 days overdue.",
	}

	created, err := s.RaiseAlertIfAbsent(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)

	// Same unresolved tuple: no second row, no error.
	created, err = s.RaiseAlertIfAbsent(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)

	// A different alert type for the same subject is a separate alert.
	due := in
	due.AlertType = model.AlertMaintenanceDue
	created, err = s.RaiseAlertIfAbsent(ctx, due)
	require.NoError(t, err)
	assert.True(t, created)

	// Resolving the original frees the tuple for a fresh alert.
	alerts, err := s.ListAlerts(ctx, AlertFilter{AlertType: model.AlertMaintenanceOverdue})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	resolved := true
	_, err = s.UpdateAlert(ctx, alerts[0].ID, UpdateAlertInput{IsResolved: &resolved})
	require.NoError(t, err)

	created, err = s.RaiseAlertIfAbsent(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestRaiseAlertIfAbsentNilSubjects(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	// Alerts with no subject at all still dedup against each other.
	in := AlertInput{
		AlertType: "system_notification",
		Title:     "Scheduled downtime",
		Message:   "System maintenance window tonight.",
	}
	created, err := s.RaiseAlertIfAbsent(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.RaiseAlertIfAbsent(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestGenerateMaintenanceAlertsIdempotent(t *testing.T) {
	s := newSQLiteStore(t)
	facility, eq, task := seedBasics(t, s)
	ctx := context.Background()

	asOf := time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC)

	// One overdue by 20 days, one due in 2 days.
	_, err := s.CreateSchedule(ctx, CreateScheduleInput{
		FacilityID:    facility.ID,
		EquipmentID:   eq.ID,
		TaskID:        task.ID,
		ScheduledDate: asOf.AddDate(0, 0, -20),
	})
	require.NoError(t, err)
	_, err = s.CreateSchedule(ctx, CreateScheduleInput{
		FacilityID:    facility.ID,
		EquipmentID:   eq.ID,
		TaskID:        task.ID,
		ScheduledDate: asOf.AddDate(0, 0, 2),
	})
	require.NoError(t, err)

	result, err := s.GenerateMaintenanceAlerts(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, result.AlertsCreated)
	assert.Equal(t, 1, result.OverdueCount)
	assert.Equal(t, 1, result.UpcomingCount)

	// Escalation: 20 days overdue is critical, due within 2 days is high.
	overdueAlerts, err := s.ListAlerts(ctx, AlertFilter{AlertType: model.AlertMaintenanceOverdue})
	require.NoError(t, err)
	require.Len(t, overdueAlerts, 1)
	assert.Equal(t, model.PriorityCritical, overdueAlerts[0].Priority)
	assert.Contains(t, overdueAlerts[0].Title, "OVERDUE:")

	dueAlerts, err := s.ListAlerts(ctx, AlertFilter{AlertType: model.AlertMaintenanceDue})
	require.NoError(t, err)
	require.Len(t, dueAlerts, 1)
	assert.Equal(t, model.PriorityHigh, dueAlerts[0].Priority)

	// A second pass over unchanged state creates nothing.
	result, err = s.GenerateMaintenanceAlerts(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 0, result.AlertsCreated)
	assert.Equal(t, 1, result.OverdueCount)
	assert.Equal(t, 1, result.UpcomingCount)
}

func TestUpdateAlertResolveAndReopen(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	alert := &model.Alert{
		AlertType: "equipment_failure",
		Priority:  model.PriorityCritical,
		Title:     "Projector lamp failure",
		Message:   "Lamp burned out mid-show.",
	}
	require.NoError(t, s.CreateAlert(ctx, alert))

	resolved := true
	by := "j.tan"
	updated, err := s.UpdateAlert(ctx, alert.ID, UpdateAlertInput{IsResolved: &resolved, ResolvedBy: &by})
	require.NoError(t, err)
	assert.True(t, updated.IsResolved)
	assert.Equal(t, "j.tan", updated.ResolvedBy)
	require.NotNil(t, updated.ResolvedAt)

	// Reopening clears the resolution fields.
	unresolved := false
	updated, err = s.UpdateAlert(ctx, alert.ID, UpdateAlertInput{IsResolved: &unresolved})
	require.NoError(t, err)
	assert.False(t, updated.IsResolved)
	assert.Nil(t, updated.ResolvedAt)
	assert.Empty(t, updated.ResolvedBy)
}

func TestBulkAlertOperations(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	var ids []int64
	for _, title := range []string{"one", "two", "three"} {
		a := &model.Alert{AlertType: "parts_needed", Title: title, Message: "m"}
		require.NoError(t, s.CreateAlert(ctx, a))
		ids = append(ids, a.ID)
	}

	n, err := s.MarkAlertsRead(ctx, ids[:2])
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.ResolveAlerts(ctx, ids, "supervisor")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	unresolvedOnly := false
	remaining, err := s.ListAlerts(ctx, AlertFilter{IsResolved: &unresolvedOnly})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestGetAlertStats(t *testing.T) {
	s := newSQLiteStore(t)
	facility, _, _ := seedBasics(t, s)
	ctx := context.Background()

	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityHigh, model.PriorityMedium} {
		a := &model.Alert{
			FacilityID: &facility.ID,
			AlertType:  model.AlertMaintenanceDue,
			Priority:   p,
			Title:      "t",
			Message:    "m",
		}
		require.NoError(t, s.CreateAlert(ctx, a))
	}

	stats, err := s.GetAlertStats(ctx, &facility.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalAlerts)
	assert.Equal(t, int64(3), stats.UnreadAlerts)
	assert.Equal(t, int64(3), stats.UnresolvedAlerts)
	assert.Equal(t, int64(2), stats.ByPriority["high"])
	assert.Equal(t, int64(3), stats.ByType[model.AlertMaintenanceDue])
}
