package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rocjay1/ledger-analyzer/internal/analysis"
	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/shopspring/decimal"
)

const defaultRoundTo = 50

// PhoneReport lists transactions mentioning a phone number.
type PhoneReport struct {
	Matches    []models.Transaction `json:"matches"`
	TotalFound int                  `json:"total_found"`
}

// RoundUpReport is the result of the round-up savings calculator.
type RoundUpReport struct {
	Month   string          `json:"month"`
	RoundTo int             `json:"round_to"`
	Savings decimal.Decimal `json:"savings"`
}

// CashbackReport is cashback per category for one month.
type CashbackReport struct {
	Year     int                        `json:"year"`
	Month    int                        `json:"month"`
	Cashback map[string]decimal.Decimal `json:"cashback"`
}

// HandleDashboard serves the main page summary.
func (d *Dependencies) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	at, err := parseDateParam(r, "date", d.now())
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, err := d.loadTable(r.Context())
	if err != nil {
		writeLoadError(w, err)
		return
	}

	settings := d.resolveSettings(r.Context())
	dashboard, err := d.builder().Dashboard(r.Context(), table, at, settings, d.Market)
	if err != nil {
		writeReportError(w, "dashboard", err)
		return
	}
	d.writeReport(w, r, "dashboard", dashboard)
}

// HandleCategorySpend serves spend in one category over the last three months.
func (d *Dependencies) HandleCategorySpend(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		WriteError(w, http.StatusBadRequest, "Missing category parameter")
		return
	}
	asOf, err := parseDateParam(r, "date", d.now())
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, err := d.loadTable(r.Context())
	if err != nil {
		writeLoadError(w, err)
		return
	}

	report, err := d.builder().CategorySpend(table, category, asOf)
	if err != nil {
		writeReportError(w, "category", err)
		return
	}
	d.writeReport(w, r, "category", report)
}

// HandleWeekdayAverage serves mean spend per weekday, optionally limited to
// the three months before date.
func (d *Dependencies) HandleWeekdayAverage(w http.ResponseWriter, r *http.Request) {
	var asOf *time.Time
	if r.URL.Query().Get("date") != "" {
		t, err := parseDateParam(r, "date", time.Time{})
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		asOf = &t
	}

	table, err := d.loadTable(r.Context())
	if err != nil {
		writeLoadError(w, err)
		return
	}

	report, err := d.builder().WeekdayAverage(table, asOf)
	if err != nil {
		writeReportError(w, "weekday", err)
		return
	}
	d.writeReport(w, r, "weekday", report)
}

// HandleEvents serves the expense and income breakdown for a period.
func (d *Dependencies) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ref, err := parseDateParam(r, "date", d.now())
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	periodParam := r.URL.Query().Get("period")
	if periodParam == "" {
		periodParam = string(analysis.PeriodMonth)
	}
	kind, err := analysis.ParsePeriodKind(periodParam)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, err := d.loadTable(r.Context())
	if err != nil {
		writeLoadError(w, err)
		return
	}

	report, err := d.builder().Events(table, ref, kind)
	if err != nil {
		writeReportError(w, "events", err)
		return
	}
	d.writeReport(w, r, "events", report)
}

// HandleSearch serves a text search over descriptions and categories.
func (d *Dependencies) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		WriteError(w, http.StatusBadRequest, "Missing q parameter")
		return
	}

	table, err := d.loadTable(r.Context())
	if err != nil {
		writeLoadError(w, err)
		return
	}

	result := analysis.Search(query, table)
	slog.Info("search completed", "query", query, "total_found", result.TotalFound)
	d.writeReport(w, r, "search", result)
}

// HandleCashback serves cashback per category for a calendar month.
func (d *Dependencies) HandleCashback(w http.ResponseWriter, r *http.Request) {
	now := d.now()
	year, err := intParam(r, "year", now.Year())
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	month, err := intParam(r, "month", int(now.Month()))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if month < 1 || month > 12 {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid month %d: must be between 1 and 12", month))
		return
	}

	table, err := d.loadTable(r.Context())
	if err != nil {
		writeLoadError(w, err)
		return
	}

	cashback, err := analysis.CashbackByCategory(table, year, month)
	if err != nil {
		writeReportError(w, "cashback", err)
		return
	}

	report := CashbackReport{Year: year, Month: month, Cashback: make(map[string]decimal.Decimal, len(cashback))}
	for category, amount := range cashback {
		report.Cashback[category] = amount.Round(2)
	}
	d.writeReport(w, r, "cashback", report)
}

// HandleRoundUp serves the round-up savings for a month.
func (d *Dependencies) HandleRoundUp(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = d.now().Format("2006-01")
	}
	if err := analysis.ValidateMonth(month); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	roundTo, err := intParam(r, "round_to", defaultRoundTo)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, err := d.loadTable(r.Context())
	if err != nil {
		writeLoadError(w, err)
		return
	}

	savings, err := analysis.RoundUpSavings(month, table, roundTo)
	if err != nil {
		writeReportError(w, "roundup", err)
		return
	}
	d.writeReport(w, r, "roundup", RoundUpReport{Month: month, RoundTo: roundTo, Savings: savings})
}

// HandlePhones serves the transactions whose description contains a phone number.
func (d *Dependencies) HandlePhones(w http.ResponseWriter, r *http.Request) {
	table, err := d.loadTable(r.Context())
	if err != nil {
		writeLoadError(w, err)
		return
	}

	matches := analysis.FindPhoneTransactions(table)
	d.writeReport(w, r, "phones", PhoneReport{Matches: matches, TotalFound: len(matches)})
}

// HandleListReports lists saved reports, optionally of one kind.
func (d *Dependencies) HandleListReports(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	reports, err := d.Database.ListReports(r.Context(), kind)
	if err != nil {
		slog.Error("failed to list reports", "kind", kind, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to list reports: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, reports)
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", name, raw)
	}
	return v, nil
}
