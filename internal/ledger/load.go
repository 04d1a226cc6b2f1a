package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported ledger format")

// LoadError reports a ledger source that could not be read at all.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load ledger %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Result is a parsed ledger plus the data-quality problems found while parsing.
type Result struct {
	Transactions   []models.Transaction `json:"transactions"`
	MissingColumns []string             `json:"missing_columns,omitempty"`
	Errors         []string             `json:"errors,omitempty"`
}

func emptyResult() *Result {
	return &Result{Transactions: []models.Transaction{}}
}

// LoadFile reads a ledger from disk, choosing the parser by extension.
// On failure it returns an empty result together with a *LoadError.
// A nil logger falls back to slog.Default().
func LoadFile(path string, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Error("failed to read ledger file", "path", path, "error", err)
		return emptyResult(), &LoadError{Source: path, Err: err}
	}
	res, err := Parse(filepath.Base(path), content, logger)
	if err != nil {
		return res, err
	}
	logger.Info("loaded ledger", "path", path, "transactions_count", len(res.Transactions), "errors_count", len(res.Errors))
	return res, nil
}

// Parse parses ledger content, choosing the parser by the file name's extension.
// A nil logger falls back to slog.Default().
func Parse(name string, content []byte, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		res *Result
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		res, err = ParseCSV(string(content))
	case ".xlsx", ".xlsm":
		res, err = ParseXLSX(bytes.NewReader(content))
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		logger.Error("failed to parse ledger", "source", name, "error", err)
		return emptyResult(), &LoadError{Source: name, Err: err}
	}
	if len(res.MissingColumns) > 0 {
		logger.Warn("ledger is missing columns, backfilling with empty values", "source", name, "missing_columns", res.MissingColumns)
	}
	return res, nil
}

// parseRecords maps header-led rows to transactions.
// With strict set, rows shorter than the header are rejected; otherwise they are padded.
func parseRecords(records [][]string, strict bool) *Result {
	res := emptyResult()
	if len(records) == 0 {
		return res
	}

	headers := parseHeaders(records[0])
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	// Older exports name the amount column differently.
	if _, ok := index[ColumnAmount]; !ok {
		if i, ok := index[ColumnPaymentAmount]; ok {
			index[ColumnAmount] = i
		}
	}
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			res.MissingColumns = append(res.MissingColumns, col)
		}
	}

	for i, record := range records[1:] {
		rowNum := i + 2
		if isBlank(record) {
			continue
		}
		if strict && len(record) < len(headers) {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: Not enough fields", rowNum))
			continue
		}

		get := func(col string) string {
			j, ok := index[col]
			if !ok || j >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[j])
		}

		t, problems, err := mapToTransaction(get)
		for _, p := range problems {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %s", rowNum, p))
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		res.Transactions = append(res.Transactions, t)
	}
	return res
}

func parseHeaders(row []string) []string {
	headers := make([]string, len(row))
	for i, h := range row {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return headers
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// mapToTransaction builds a transaction from one row. Recoverable problems
// (bad date, bad cashback) are returned as messages; a bad amount drops the row.
func mapToTransaction(get func(string) string) (models.Transaction, []string, error) {
	var problems []string
	t := models.Transaction{
		Category:       get(ColumnCategory),
		Description:    get(ColumnDescription),
		CardLastDigits: normalizeCard(get(ColumnCardNumber)),
	}

	if dateStr := get(ColumnOperationDate); dateStr != "" {
		d, err := parseCellDate(dateStr)
		if err != nil {
			problems = append(problems, err.Error())
		} else {
			t.OperationDate = d
		}
	} else {
		problems = append(problems, "missing operation date")
	}

	amountStr := get(ColumnAmount)
	amount, err := ParseAmount(amountStr)
	if err != nil {
		return models.Transaction{}, problems, fmt.Errorf("invalid amount: %s", amountStr)
	}
	t.Amount = amount

	if cbStr := get(ColumnCashback); cbStr != "" {
		cb, err := ParseAmount(cbStr)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("invalid cashback: %s", cbStr))
		case cb.IsNegative():
			problems = append(problems, fmt.Sprintf("negative cashback: %s", cbStr))
		default:
			t.Cashback = cb
		}
	}

	return t, problems, nil
}

// parseCellDate accepts text dates and raw spreadsheet serial numbers.
func parseCellDate(s string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}
	return ParseDate(s)
}
