package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/steward/internal/modules/settings"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupHandler(t *testing.T) *Handler {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			description TEXT,
			updated_at INTEGER
		)
	`)
	require.NoError(t, err)

	logger := zerolog.New(nil).Level(zerolog.Disabled)
	repo := settings.NewRepository(db, logger)
	svc := settings.NewService(repo, logger)
	return NewHandler(svc, logger)
}

func TestHandleGetAll(t *testing.T) {
	handler := setupHandler(t)

	req := httptest.NewRequest("GET", "/api/settings", nil)
	w := httptest.NewRecorder()

	handler.HandleGetAll(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	assert.Contains(t, response, "data")
	assert.Contains(t, response, "metadata")

	data := response["data"].(map[string]interface{})
	settingsMap := data["settings"].(map[string]interface{})
	assert.Equal(t, "AUD", settingsMap["display_currency"])
	assert.Equal(t, 15.0, settingsMap["price_ttl_minutes"])
}

func TestHandleGetSingle(t *testing.T) {
	handler := setupHandler(t)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	req := httptest.NewRequest("GET", "/settings/anomaly_runrate_multiplier", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, 1.5, data["value"])

	// Unknown key is a 404
	req = httptest.NewRequest("GET", "/settings/not_a_setting", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleUpdate(t *testing.T) {
	handler := setupHandler(t)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	body, _ := json.Marshal(map[string]interface{}{"value": "NZD"})
	req := httptest.NewRequest("PUT", "/settings/display_currency", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// Read back through the API
	req = httptest.NewRequest("GET", "/settings/display_currency", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "NZD", data["value"])

	// Unknown keys are rejected
	body, _ = json.Marshal(map[string]interface{}{"value": 1.0})
	req = httptest.NewRequest("PUT", "/settings/bogus_key", bytes.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
