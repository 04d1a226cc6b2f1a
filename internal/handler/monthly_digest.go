package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocjay1/ledger-analyzer/internal/analysis"
	"github.com/rocjay1/ledger-analyzer/internal/services"
)

// digestRoundTo is the round-up step quoted in the monthly digest.
const digestRoundTo = 100

// HandleMonthlyDigest handles the timer trigger that e-mails last month's summary.
func (d *Dependencies) HandleMonthlyDigest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slog.Info("starting monthly digest")

	if d.Email == nil || d.Config.UserEmail == "" {
		slog.Warn("e-mail is not configured; skipping monthly digest")
		w.WriteHeader(http.StatusOK)
		return
	}

	table, err := d.loadTable(ctx)
	if err != nil {
		if errors.Is(err, errNoLedger) {
			slog.Info("no ledger uploaded; skipping monthly digest")
			w.WriteHeader(http.StatusOK)
			return
		}
		writeLoadError(w, err)
		return
	}

	now := d.now()
	lastMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	month := lastMonth.Format("2006-01")

	events, err := d.builder().Events(table, lastMonth, analysis.PeriodMonth)
	if err != nil {
		writeReportError(w, "events", err)
		return
	}
	cashback, err := analysis.CashbackByCategory(table, lastMonth.Year(), int(lastMonth.Month()))
	if err != nil {
		writeReportError(w, "cashback", err)
		return
	}
	roundUp, err := analysis.RoundUpSavings(month, table, digestRoundTo)
	if err != nil {
		writeReportError(w, "roundup", err)
		return
	}

	digest := services.Digest{
		Month:    month,
		Events:   events,
		Cashback: cashback,
		RoundUp:  roundUp,
		RoundTo:  digestRoundTo,
	}
	if err := d.Email.SendDigestEmail(ctx, []string{d.Config.UserEmail}, digest); err != nil {
		slog.Error("failed to send monthly digest", "month", month, "email", d.Config.UserEmail, "error", err)
		http.Error(w, "Failed to send monthly digest", http.StatusInternalServerError)
		return
	}

	slog.Info("monthly digest sent", "month", month, "email", d.Config.UserEmail)
	w.WriteHeader(http.StatusOK)
}
