package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeSettings(t *testing.T, w *httptest.ResponseRecorder) models.Settings {
	t.Helper()
	var resp models.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleSettings_Get_Stored(t *testing.T) {
	deps, mockDb, _ := newTestDeps()
	mockDb.GetSettingsFunc = func(ctx context.Context) (*models.Settings, error) {
		return &models.Settings{UserCurrencies: []string{"CNY"}, UserStocks: []string{"TSLA"}}, nil
	}

	w := httptest.NewRecorder()
	deps.HandleSettings(w, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeSettings(t, w)
	assert.Equal(t, []string{"CNY"}, resp.UserCurrencies)
	assert.Equal(t, []string{"TSLA"}, resp.UserStocks)
}

func TestHandleSettings_Get_FallsBackToFile(t *testing.T) {
	deps, _, _ := newTestDeps()
	path := filepath.Join(t.TempDir(), "user_settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"user_currencies": ["GBP"]}`), 0o600))
	deps.Config.SettingsFile = path

	w := httptest.NewRecorder()
	deps.HandleSettings(w, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	resp := decodeSettings(t, w)
	assert.Equal(t, []string{"GBP"}, resp.UserCurrencies)
	assert.Equal(t, []string{"AAPL", "GOOGL"}, resp.UserStocks)
}

func TestHandleSettings_Get_Defaults(t *testing.T) {
	deps, mockDb, _ := newTestDeps()
	deps.Config.SettingsFile = filepath.Join(t.TempDir(), "missing.json")
	mockDb.GetSettingsFunc = func(ctx context.Context) (*models.Settings, error) {
		return nil, errors.New("table unavailable")
	}

	w := httptest.NewRecorder()
	deps.HandleSettings(w, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DefaultSettings(), decodeSettings(t, w))
}

func TestHandleSettings_Post_Success(t *testing.T) {
	deps, mockDb, _ := newTestDeps()

	var saved models.Settings
	mockDb.SaveSettingsFunc = func(ctx context.Context, settings models.Settings) error {
		saved = settings
		return nil
	}

	body, _ := json.Marshal(map[string]any{
		"user_currencies": []string{" usd", "EUR", "usd", ""},
		"user_stocks":     []string{},
	})
	w := httptest.NewRecorder()
	deps.HandleSettings(w, httptest.NewRequest(http.MethodPost, "/api/settings", bytes.NewBuffer(body)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"USD", "EUR"}, saved.UserCurrencies)
	assert.Empty(t, saved.UserStocks)

	resp := decodeSettings(t, w)
	assert.Equal(t, []string{"AAPL", "GOOGL"}, resp.UserStocks)
}

func TestHandleSettings_Post_InvalidBody(t *testing.T) {
	deps, _, _ := newTestDeps()

	w := httptest.NewRecorder()
	deps.HandleSettings(w, httptest.NewRequest(http.MethodPost, "/api/settings", bytes.NewBufferString("invalid json")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSettings_Post_DatabaseError(t *testing.T) {
	deps, mockDb, _ := newTestDeps()
	mockDb.SaveSettingsFunc = func(ctx context.Context, settings models.Settings) error {
		return errors.New("db error")
	}

	w := httptest.NewRecorder()
	deps.HandleSettings(w, httptest.NewRequest(http.MethodPost, "/api/settings", bytes.NewBufferString(`{"user_currencies": ["USD"]}`)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleSettings_MethodNotAllowed(t *testing.T) {
	deps, _, _ := newTestDeps()

	w := httptest.NewRecorder()
	deps.HandleSettings(w, httptest.NewRequest(http.MethodDelete, "/api/settings", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
