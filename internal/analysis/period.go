// Package analysis filters and aggregates transaction tables into reports.
//
// Every function treats its input table as read-only and returns freshly
// allocated slices and maps.
package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rocjay1/ledger-analyzer/internal/models"
)

var (
	// ErrInvalidPeriod is returned for an unrecognised period kind.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrInvalidLimit is returned for a non-positive round-up limit.
	ErrInvalidLimit = errors.New("invalid limit")
	// ErrInvalidReduction is returned for an unrecognised reduction kind.
	ErrInvalidReduction = errors.New("invalid reduction")
)

// PeriodKind names a rule for deriving a date window from a reference date.
type PeriodKind string

const (
	PeriodWeek        PeriodKind = "week"
	PeriodMonth       PeriodKind = "month"
	PeriodYear        PeriodKind = "year"
	PeriodAll         PeriodKind = "all"
	PeriodLast3Months PeriodKind = "last_3_months"
)

// ParsePeriodKind resolves a period name. The single-letter codes W, M and Y
// used by older clients are accepted as aliases.
func ParsePeriodKind(s string) (PeriodKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "week", "w":
		return PeriodWeek, nil
	case "month", "m":
		return PeriodMonth, nil
	case "year", "y":
		return PeriodYear, nil
	case "all":
		return PeriodAll, nil
	case "last_3_months":
		return PeriodLast3Months, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DateLayout is the text form of window bounds.
const DateLayout = "2006-01-02"

// MarshalJSON renders both bounds as plain dates.
func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"start": w.Start.Format(DateLayout),
		"end":   w.End.Format(DateLayout),
	})
}

// Contains reports whether t falls on a day inside the window.
func (w Window) Contains(t time.Time) bool {
	d := truncateDay(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days returns the number of calendar days in the window.
// Bounds are UTC midnights, so Unix seconds divide into whole days.
func (w Window) Days() int {
	return int((w.End.Unix()-w.Start.Unix())/secondsPerDay) + 1
}

const secondsPerDay = 24 * 60 * 60

// WindowFor computes the window of the given kind around ref.
func WindowFor(ref time.Time, kind PeriodKind) (Window, error) {
	day := truncateDay(ref)
	switch kind {
	case PeriodWeek:
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		start := day.AddDate(0, 0, -offset)
		return Window{Start: start, End: start.AddDate(0, 0, 6)}, nil
	case PeriodMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return Window{Start: start, End: start.AddDate(0, 1, -1)}, nil
	case PeriodYear:
		return Window{
			Start: time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location()),
			End:   time.Date(day.Year(), time.December, 31, 0, 0, 0, 0, day.Location()),
		}, nil
	case PeriodLast3Months:
		return Window{Start: addMonthsClamped(day, -3), End: day}, nil
	case PeriodAll:
		return Window{Start: time.Time{}, End: day}, nil
	}
	return Window{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, kind)
}

// FilterByPeriod returns the transactions dated inside the window of kind around ref.
// Rows without a date never match.
func FilterByPeriod(table []models.Transaction, ref time.Time, kind PeriodKind) ([]models.Transaction, error) {
	w, err := WindowFor(ref, kind)
	if err != nil {
		return nil, err
	}
	return FilterByWindow(table, w), nil
}

// FilterByWindow returns the transactions dated inside w, in input order.
func FilterByWindow(table []models.Transaction, w Window) []models.Transaction {
	out := make([]models.Transaction, 0, len(table))
	for _, t := range table {
		if t.HasDate() && w.Contains(t.OperationDate) {
			out = append(out, t)
		}
	}
	return out
}

// Filter returns the transactions for which keep is true, in input order.
func Filter(table []models.Transaction, keep func(models.Transaction) bool) []models.Transaction {
	out := make([]models.Transaction, 0, len(table))
	for _, t := range table {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// truncateDay keeps the wall-clock date of t. Ledger times carry no zone, so
// days are compared as UTC dates whatever location t is in.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// addMonthsClamped shifts t by n months, clamping to the last day of the
// target month instead of overflowing into the next one.
func addMonthsClamped(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}
