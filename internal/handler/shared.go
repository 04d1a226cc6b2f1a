package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocjay1/ledger-analyzer/internal/analysis"
	"github.com/rocjay1/ledger-analyzer/internal/config"
	"github.com/rocjay1/ledger-analyzer/internal/ledger"
	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/rocjay1/ledger-analyzer/internal/services"
)

var errNoLedger = errors.New("no ledger has been uploaded yet")

// Dependencies holds the services required by the handlers.
type Dependencies struct {
	Database DatabaseClient
	Blob     BlobClient
	Queue    QueueClient
	Email    EmailClient // nil when e-mail is not configured
	Market   analysis.MarketData
	Reports  ReportSaver
	Builder  *analysis.Builder
	Config   *config.Config
	Now      func() time.Time
}

func (d *Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Dependencies) builder() *analysis.Builder {
	if d.Builder == nil {
		d.Builder = analysis.NewBuilder(nil)
	}
	return d.Builder
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// loadTable downloads and parses the current ledger.
func (d *Dependencies) loadTable(ctx context.Context) ([]models.Transaction, error) {
	info, err := d.Database.GetCurrentLedger(ctx)
	if err != nil {
		if services.IsNotFound(err) {
			return nil, errNoLedger
		}
		return nil, fmt.Errorf("failed to look up current ledger: %w", err)
	}

	data, err := d.Blob.DownloadBytes(ctx, d.Config.LedgerContainer, info.BlobName)
	if err != nil {
		if services.IsNotFound(err) {
			return nil, errNoLedger
		}
		return nil, fmt.Errorf("failed to download ledger: %w", err)
	}

	res, err := ledger.Parse(info.Filename, data, slog.Default())
	if err != nil {
		return nil, err
	}
	return res.Transactions, nil
}

// writeLoadError maps a loadTable failure to a response.
func writeLoadError(w http.ResponseWriter, err error) {
	var loadErr *ledger.LoadError
	switch {
	case errors.Is(err, errNoLedger):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &loadErr):
		slog.Error("current ledger could not be parsed", "source", loadErr.Source, "error", loadErr.Err)
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("failed to load ledger", "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to load ledger: "+err.Error())
	}
}

// writeReportError maps a report builder failure to a response.
func writeReportError(w http.ResponseWriter, kind string, err error) {
	if errors.Is(err, analysis.ErrInvalidPeriod) || errors.Is(err, analysis.ErrInvalidLimit) {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error("failed to build report", "kind", kind, "error", err)
	WriteError(w, http.StatusInternalServerError, "Failed to build report: "+err.Error())
}

// writeReport responds with report, first persisting it when the request
// carries save=true.
func (d *Dependencies) writeReport(w http.ResponseWriter, r *http.Request, kind string, report any) {
	if r.URL.Query().Get("save") == "true" {
		if d.Reports == nil {
			WriteError(w, http.StatusServiceUnavailable, "Report storage is not configured")
			return
		}
		saved, err := d.Reports.SaveReport(r.Context(), kind, report)
		if err != nil {
			slog.Error("failed to save report", "kind", kind, "error", err)
			WriteError(w, http.StatusInternalServerError, "Failed to save report: "+err.Error())
			return
		}
		w.Header().Set("X-Report-Id", saved.ID)
		w.Header().Set("X-Report-Blob", saved.BlobName)
	}
	WriteJSON(w, http.StatusOK, report)
}

// parseDateParam reads a date or date-time query parameter, defaulting to fallback.
func parseDateParam(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	for _, layout := range []string{models.DateTimeLayout, analysis.DateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD or YYYY-MM-DD HH:MM:SS", name, raw)
}
