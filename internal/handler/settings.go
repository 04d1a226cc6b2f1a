package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/rocjay1/ledger-analyzer/internal/services"
)

// HandleSettings handles GET and POST requests for dashboard settings.
func (d *Dependencies) HandleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		WriteJSON(w, http.StatusOK, d.resolveSettings(r.Context()))

	case http.MethodPost:
		var settings models.Settings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			slog.Warn("invalid settings request body", "error", err)
			WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		settings.UserCurrencies = normalizeSymbols(settings.UserCurrencies)
		settings.UserStocks = normalizeSymbols(settings.UserStocks)

		if err := d.Database.SaveSettings(r.Context(), settings); err != nil {
			slog.Error("failed to save settings", "error", err)
			WriteError(w, http.StatusInternalServerError, "Failed to save settings: "+err.Error())
			return
		}

		slog.Info("saved settings", "currencies", settings.UserCurrencies, "stocks", settings.UserStocks)
		WriteJSON(w, http.StatusOK, settings.WithDefaults())

	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// resolveSettings returns the stored settings, falling back to the settings
// file and then to the defaults. Lookup failures are logged, never returned.
func (d *Dependencies) resolveSettings(ctx context.Context) models.Settings {
	stored, err := d.Database.GetSettings(ctx)
	switch {
	case err == nil:
		return stored.WithDefaults()
	case !services.IsNotFound(err):
		slog.Warn("failed to read stored settings", "error", err)
	}

	if d.Config.SettingsFile != "" {
		fromFile, err := services.LoadSettingsFile(d.Config.SettingsFile)
		if err == nil {
			return fromFile.WithDefaults()
		}
		if !services.IsNotFound(err) {
			slog.Warn("failed to read settings file", "path", d.Config.SettingsFile, "error", err)
		}
	}
	return models.DefaultSettings()
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
