package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"av-maintenance-backend/internal/model"
)

// Any matches any driver value in a sqlmock expectation.
type Any struct{}

func (Any) Match(v driver.Value) bool { return true }

// newMockDB wraps a sqlmock connection in a GORM postgres dialector so query
// shapes can be asserted without a real database.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	return gormDB, mock
}

// The dedup check must match NULL subject ids with IS NULL, not "= NULL",
// or alerts without a subject would never dedup.
func TestRaiseAlertIfAbsentQueryShape(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	facilityID := int64(7)
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT count(*) FROM "alerts" WHERE (alert_type = $1 AND is_resolved = $2) AND facility_id = $3 AND equipment_id IS NULL AND schedule_id IS NULL`)).
		WithArgs(model.AlertWeeklySummary, false, facilityID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "alerts"`)).
		WithArgs(facilityID, nil, nil, model.AlertWeeklySummary, "medium", "Weekly Summary", "m",
			false, nil, false, nil, "", Any{}, Any{}).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	created, err := s.RaiseAlertIfAbsent(context.Background(), AlertInput{
		FacilityID: &facilityID,
		AlertType:  model.AlertWeeklySummary,
		Title:      "Weekly Summary",
		Message:    "m",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A count hit short-circuits before any INSERT is attempted.
func TestRaiseAlertIfAbsentExistingShortCircuits(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	equipmentID := int64(12)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "alerts"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	created, err := s.RaiseAlertIfAbsent(context.Background(), AlertInput{
		EquipmentID: &equipmentID,
		AlertType:   model.AlertMaintenanceDue,
		Title:       "t",
		Message:     "m",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}
