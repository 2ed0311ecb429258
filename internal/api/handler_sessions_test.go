package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"calibration-backend/config"
	"calibration-backend/internal/model"
	"calibration-backend/internal/store"
)

// newTestDB opens an in-memory SQLite database with foreign keys enabled.
func newTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared&_foreign_keys=on",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Filament{},
		&model.CalibrationSession{},
		&model.CalibrationStepResult{},
		&model.PushSubscription{},
	))
	return db
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	cfg := &config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 1,
	}
	router := NewRouter(store.NewGormStore(db), cfg, nil, nil)
	return router, db
}

func createTestFilament(t *testing.T, db *gorm.DB) *model.Filament {
	filament := model.Filament{
		Registered: time.Now().UTC(),
		Name:       "Galaxy Black",
		Material:   "PLA",
	}
	require.NoError(t, db.Create(&filament).Error)
	return &filament
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateSession_DefaultsAndSparseJSON(t *testing.T) {
	router, db := setupRouter(t)
	filament := createTestFilament(t, db)

	w := doJSON(t, router, "POST", "/api/v1/calibration/session",
		fmt.Sprintf(`{"filament_id": %d}`, filament.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "planned", body["status"])
	assert.Equal(t, float64(filament.ID), body["filament_id"])
	assert.Equal(t, []any{}, body["steps"])

	// Unset optional fields are omitted, not emitted as null.
	for _, key := range []string{"printer_name", "nozzle_diameter", "notes", "started_at", "completed_at"} {
		_, present := body[key]
		assert.False(t, present, "expected %q to be omitted", key)
	}

	// Registered serializes as a UTC-qualified date-time string.
	registered, ok := body["registered"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(registered, "Z"), "registered should be UTC: %s", registered)
}

func TestCreateSession_UnknownFilament(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, "POST", "/api/v1/calibration/session", `{"filament_id": 9999}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSession_Validation(t *testing.T) {
	router, db := setupRouter(t)
	filament := createTestFilament(t, db)

	cases := []struct {
		name string
		body string
	}{
		{"missing filament_id", `{}`},
		{"unknown status", fmt.Sprintf(`{"filament_id": %d, "status": "done"}`, filament.ID)},
		{"zero nozzle diameter", fmt.Sprintf(`{"filament_id": %d, "nozzle_diameter": 0}`, filament.ID)},
		{"negative nozzle diameter", fmt.Sprintf(`{"filament_id": %d, "nozzle_diameter": -0.4}`, filament.ID)},
		{"printer name too long", fmt.Sprintf(`{"filament_id": %d, "printer_name": %q}`, filament.ID, strings.Repeat("x", 257))},
		{"notes too long", fmt.Sprintf(`{"filament_id": %d, "notes": %q}`, filament.ID, strings.Repeat("x", 1025))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, "POST", "/api/v1/calibration/session", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	// Nothing was persisted by the rejected requests.
	var count int64
	db.Model(&model.CalibrationSession{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreateSession_NormalizesStartedAt(t *testing.T) {
	router, db := setupRouter(t)
	filament := createTestFilament(t, db)

	w := doJSON(t, router, "POST", "/api/v1/calibration/session",
		fmt.Sprintf(`{"filament_id": %d, "started_at": "2026-03-01T10:30:00+02:00"}`, filament.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2026-03-01T08:30:00Z", body["started_at"])
}

func TestFindSessions(t *testing.T) {
	router, db := setupRouter(t)
	filamentA := createTestFilament(t, db)
	filamentB := createTestFilament(t, db)

	for i := 0; i < 3; i++ {
		w := doJSON(t, router, "POST", "/api/v1/calibration/session",
			fmt.Sprintf(`{"filament_id": %d}`, filamentA.ID))
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := doJSON(t, router, "POST", "/api/v1/calibration/session",
		fmt.Sprintf(`{"filament_id": %d}`, filamentB.ID))
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("filter by filament with total count header", func(t *testing.T) {
		w := doJSON(t, router, "GET",
			fmt.Sprintf("/api/v1/calibration/session?filament_id=%d", filamentA.ID), "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-Total-Count"))

		var sessions []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessions))
		assert.Len(t, sessions, 3)
	})

	t.Run("pagination preserves total count", func(t *testing.T) {
		w := doJSON(t, router, "GET",
			fmt.Sprintf("/api/v1/calibration/session?filament_id=%d&limit=2&offset=2", filamentA.ID), "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-Total-Count"))

		var sessions []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessions))
		assert.Len(t, sessions, 1)
	})

	t.Run("invalid query values rejected", func(t *testing.T) {
		for _, path := range []string{
			"/api/v1/calibration/session?filament_id=abc",
			"/api/v1/calibration/session?limit=-1",
			"/api/v1/calibration/session?offset=x",
		} {
			w := doJSON(t, router, "GET", path, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, path)
		}
	})
}

func TestUpdateSession(t *testing.T) {
	router, db := setupRouter(t)
	filament := createTestFilament(t, db)

	w := doJSON(t, router, "POST", "/api/v1/calibration/session",
		fmt.Sprintf(`{"filament_id": %d, "notes": "PA pending", "nozzle_diameter": 0.6}`, filament.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	sessionID := int(created["id"].(float64))

	t.Run("partial update leaves other fields untouched", func(t *testing.T) {
		w := doJSON(t, router, "PATCH", fmt.Sprintf("/api/v1/calibration/session/%d", sessionID),
			`{"status": "in_progress", "printer_name": "Voron 2.4"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "in_progress", body["status"])
		assert.Equal(t, "Voron 2.4", body["printer_name"])
		assert.Equal(t, "PA pending", body["notes"])
		assert.Equal(t, 0.6, body["nozzle_diameter"])
	})

	t.Run("explicit null clears a nullable field", func(t *testing.T) {
		w := doJSON(t, router, "PATCH", fmt.Sprintf("/api/v1/calibration/session/%d", sessionID),
			`{"notes": null}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		_, present := body["notes"]
		assert.False(t, present, "cleared notes should be omitted")
		// The fields set earlier survive.
		assert.Equal(t, "Voron 2.4", body["printer_name"])
	})

	t.Run("null status rejected", func(t *testing.T) {
		w := doJSON(t, router, "PATCH", fmt.Sprintf("/api/v1/calibration/session/%d", sessionID),
			`{"status": null}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		w := doJSON(t, router, "PATCH", fmt.Sprintf("/api/v1/calibration/session/%d", sessionID),
			`{"status": "finished"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("status accepts any enum value in any order", func(t *testing.T) {
		for _, status := range []string{"complete", "planned", "archived", "in_progress"} {
			w := doJSON(t, router, "PATCH", fmt.Sprintf("/api/v1/calibration/session/%d", sessionID),
				fmt.Sprintf(`{"status": %q}`, status))
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		}
	})

	t.Run("missing session", func(t *testing.T) {
		w := doJSON(t, router, "PATCH", "/api/v1/calibration/session/99999", `{"status": "complete"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteSession_CascadesToSteps(t *testing.T) {
	router, db := setupRouter(t)
	filament := createTestFilament(t, db)

	w := doJSON(t, router, "POST", "/api/v1/calibration/session",
		fmt.Sprintf(`{"filament_id": %d}`, filament.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	sessionID := int(created["id"].(float64))

	w = doJSON(t, router, "POST", fmt.Sprintf("/api/v1/calibration/session/%d/step", sessionID),
		`{"step_type": "temperature"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var step map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &step))
	stepID := int(step["id"].(float64))

	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/v1/calibration/session/%d", sessionID), "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", fmt.Sprintf("/api/v1/calibration/step/%d", stepID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/v1/calibration/session/%d", sessionID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
