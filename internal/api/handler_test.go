package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"av-maintenance-backend/config"
	"av-maintenance-backend/internal/db"
	"av-maintenance-backend/internal/model"
	"av-maintenance-backend/internal/store"
)

func setupRouter(t *testing.T) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	s := store.NewGormStore(gdb)
	cfg := &config.ServerConfig{RateLimitPerSec: 1000, CacheTTLSeconds: 1}
	return NewRouter(s, cfg), s
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	// http.NewRequest builds a client-side request and leaves RequestURI
	// empty; inbound server requests always carry it, and the cache
	// middleware keys on it.
	req.RequestURI = path
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestFacilityCRUD(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, "POST", "/api/facilities", gin.H{
		"name": "Studio A", "location": "Downtown", "city": "Austin", "state": "TX",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, true, envelope["success"])
	id := int64(envelope["data"].(map[string]any)["id"].(float64))

	w = doJSON(t, router, "GET", fmt.Sprintf("/api/facilities/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Validation failure: missing required fields.
	w = doJSON(t, router, "POST", "/api/facilities", gin.H{"name": "No Location"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope = decodeEnvelope(t, w)
	assert.Equal(t, false, envelope["success"])

	// Unknown id is a 404 with the error envelope.
	w = doJSON(t, router, "GET", "/api/facilities/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/facilities/%d", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEquipmentValidation(t *testing.T) {
	router, s := setupRouter(t)
	ctx := context.Background()

	facility := &model.Facility{Name: "Studio B", Location: "Midtown", IsActive: true}
	require.NoError(t, s.CreateFacility(ctx, facility))

	// Unknown category rejected.
	w := doJSON(t, router, "POST", "/api/equipment", gin.H{
		"facility_id": facility.ID, "name": "Mystery Box", "category": "gadget",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown facility rejected.
	w = doJSON(t, router, "POST", "/api/equipment", gin.H{
		"facility_id": 9999, "name": "Lost Amp", "category": "amplifier",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, "POST", "/api/equipment", gin.H{
		"facility_id": facility.ID, "name": "Crown XLS", "category": "amplifier",
		"installation_date": "2024-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	// The derived projection is present on create.
	assert.NotNil(t, data["next_maintenance"])

	w = doJSON(t, router, "GET", "/api/equipment/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, float64(len(model.EquipmentCategories)), envelope["count"])
}

func TestScheduleLifecycleOverHTTP(t *testing.T) {
	router, s := setupRouter(t)
	ctx := context.Background()

	facility := &model.Facility{Name: "Studio C", Location: "Uptown", IsActive: true}
	require.NoError(t, s.CreateFacility(ctx, facility))
	installed := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	eq := &model.Equipment{
		FacilityID: facility.ID, Name: "dbx DriveRack", Category: model.CategoryDSP,
		InstallationDate: &installed, MaintenanceIntervalDays: 90, IsActive: true,
	}
	require.NoError(t, s.CreateEquipment(ctx, eq))
	task := &model.MaintenanceTask{
		Name: "Firmware and calibration", Category: model.CategoryDSP,
		MaintenanceType: model.TypeCalibration, FrequencyDays: 90, IsActive: true,
	}
	require.NoError(t, s.CreateTask(ctx, task))

	w := doJSON(t, router, "POST", "/api/maintenance/schedules", gin.H{
		"facility_id": facility.ID, "equipment_id": eq.ID, "task_id": task.ID,
		"scheduled_date": "2024-03-31",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	scheduleID := int64(decodeEnvelope(t, w)["data"].(map[string]any)["id"].(float64))

	// Completion over HTTP triggers the cascade.
	w = doJSON(t, router, "PUT", fmt.Sprintf("/api/maintenance/schedules/%d", scheduleID), gin.H{
		"status": "completed", "completed_by": "m.rivera",
	})
	require.Equal(t, http.StatusOK, w.Code)

	updatedEq, err := s.GetEquipment(ctx, eq.ID)
	require.NoError(t, err)
	require.NotNil(t, updatedEq.NextMaintenance)
	assert.Equal(t, time.Date(2024, time.June, 29, 0, 0, 0, 0, time.UTC), *updatedEq.NextMaintenance)

	// Completing twice conflicts.
	w = doJSON(t, router, "PUT", fmt.Sprintf("/api/maintenance/schedules/%d", scheduleID), gin.H{
		"status": "completed",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// The chained successor shows up in the list.
	w = doJSON(t, router, "GET", "/api/maintenance/schedules?status=scheduled", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeEnvelope(t, w)["count"])

	// The completed entry is the history.
	w = doJSON(t, router, "GET", "/api/maintenance/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	require.Equal(t, float64(1), envelope["count"])
	entry := envelope["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "completed", entry["status"])
	assert.Equal(t, "m.rivera", entry["completed_by"])

	w = doJSON(t, router, "GET", "/api/maintenance/history?maintenance_type=cleaning", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeEnvelope(t, w)["count"])

	w = doJSON(t, router, "GET", "/api/maintenance/history?maintenance_type=polishing", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateMaintenanceAlertsEndpoint(t *testing.T) {
	router, s := setupRouter(t)
	ctx := context.Background()

	facility := &model.Facility{Name: "Studio D", Location: "Harbor", IsActive: true}
	require.NoError(t, s.CreateFacility(ctx, facility))
	eq := &model.Equipment{FacilityID: facility.ID, Name: "ETC Ion", Category: model.CategoryLighting, IsActive: true}
	require.NoError(t, s.CreateEquipment(ctx, eq))
	task := &model.MaintenanceTask{
		Name: "Console check", Category: model.CategoryLighting,
		MaintenanceType: model.TypePreventive, IsActive: true,
	}
	require.NoError(t, s.CreateTask(ctx, task))
	_, err := s.CreateSchedule(ctx, store.CreateScheduleInput{
		FacilityID: facility.ID, EquipmentID: eq.ID, TaskID: task.ID,
		ScheduledDate: time.Now().AddDate(0, 0, -10),
	})
	require.NoError(t, err)

	w := doJSON(t, router, "POST", "/api/alerts/generate-maintenance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(1), data["alerts_created"])
	assert.Equal(t, float64(1), data["overdue_count"])

	// Idempotent on unchanged state.
	w = doJSON(t, router, "POST", "/api/alerts/generate-maintenance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(0), data["alerts_created"])

	w = doJSON(t, router, "GET", "/api/alerts?alert_type=maintenance_overdue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeEnvelope(t, w)["count"])
}

func TestCreateAlertValidatesReferences(t *testing.T) {
	router, s := setupRouter(t)
	ctx := context.Background()

	facility := &model.Facility{Name: "Studio F", Location: "Riverside", IsActive: true}
	require.NoError(t, s.CreateFacility(ctx, facility))

	// A schedule reference must exist.
	w := doJSON(t, router, "POST", "/api/alerts", gin.H{
		"facility_id": facility.ID, "schedule_id": 9999,
		"alert_type": "equipment_failure", "title": "Blown driver", "message": "Left main is distorting.",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, "POST", "/api/alerts", gin.H{
		"facility_id": facility.ID,
		"alert_type":  "equipment_failure", "title": "Blown driver", "message": "Left main is distorting.",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestReportEndpoints(t *testing.T) {
	router, s := setupRouter(t)
	ctx := context.Background()

	facility := &model.Facility{Name: "Studio E", Location: "West End", IsActive: true}
	require.NoError(t, s.CreateFacility(ctx, facility))
	eq := &model.Equipment{FacilityID: facility.ID, Name: "Meyer UPA", Category: model.CategorySpeaker, IsActive: true}
	require.NoError(t, s.CreateEquipment(ctx, eq))

	w := doJSON(t, router, "GET", "/api/reports/equipment-status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.NotNil(t, data["equipment"])

	w = doJSON(t, router, "GET", "/api/reports/equipment-status?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "Meyer UPA")

	w = doJSON(t, router, "GET", "/api/reports/maintenance-summary?format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")

	w = doJSON(t, router, "GET", "/api/reports/maintenance-summary?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, "GET", "/api/reports/monthly-summary?month=5&year=2024", nil)
	require.Equal(t, http.StatusOK, w.Code)
	monthly := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, "May 2024", monthly["period"])
	assert.Len(t, monthly["facilities"].([]any), 1)

	w = doJSON(t, router, "GET", "/api/reports/monthly-summary?month=13", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
