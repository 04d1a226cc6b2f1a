package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// phonePattern matches Russian mobile numbers such as +7 921 123-45-67.
// Separators may be any Unicode space, including the no-break space.
var phonePattern = regexp.MustCompile(`\+7[\s\p{Zs}]?\d{3}[\s\p{Zs}]?\d{3}[-\s\p{Zs}]?\d{2}[-\s\p{Zs}]?\d{2}`)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidateMonth checks that month is a YYYY-MM calendar month.
func ValidateMonth(month string) error {
	if !monthPattern.MatchString(month) {
		return fmt.Errorf("%w: month %q, expected YYYY-MM", ErrInvalidPeriod, month)
	}
	return nil
}

// SearchResult holds the transactions matching a text query.
type SearchResult struct {
	Query      string               `json:"query"`
	Matches    []models.Transaction `json:"matches"`
	TotalFound int                  `json:"total_found"`
}

// Search returns the transactions whose description or category contains
// query, compared case-insensitively under Russian case rules.
func Search(query string, table []models.Transaction) SearchResult {
	lower := cases.Lower(language.Russian)
	q := lower.String(query)

	matches := Filter(table, func(t models.Transaction) bool {
		return strings.Contains(lower.String(t.Description), q) ||
			strings.Contains(lower.String(t.Category), q)
	})
	return SearchResult{Query: query, Matches: matches, TotalFound: len(matches)}
}

// CashbackByCategory sums cashback per category for one calendar month.
func CashbackByCategory(table []models.Transaction, year int, month int) (map[string]decimal.Decimal, error) {
	inMonth := Filter(table, func(t models.Transaction) bool {
		return t.HasDate() && t.OperationDate.Year() == year && int(t.OperationDate.Month()) == month
	})
	groups, err := GroupAndReduce(inMonth, ByCategory, CashbackValue, ReduceSum)
	if err != nil {
		return nil, err
	}
	return groups.Map(), nil
}

// RoundUpSavings simulates rounding every transaction in the month given by
// monthPrefix (YYYY-MM) up to the next multiple of roundTo, and returns the
// total that would have been set aside.
func RoundUpSavings(monthPrefix string, table []models.Transaction, roundTo int) (decimal.Decimal, error) {
	if err := ValidateMonth(monthPrefix); err != nil {
		return decimal.Zero, err
	}
	if roundTo <= 0 {
		return decimal.Zero, fmt.Errorf("%w: round-to value must be positive, got %d", ErrInvalidLimit, roundTo)
	}
	limit := decimal.NewFromInt(int64(roundTo))

	saved := decimal.Zero
	for _, t := range table {
		if !t.HasDate() || !strings.HasPrefix(t.OperationDate.Format(models.DateTimeLayout), monthPrefix) {
			continue
		}
		rounded := t.Amount.Div(limit).Ceil().Mul(limit)
		saved = saved.Add(rounded.Sub(t.Amount))
	}
	return saved.Round(2), nil
}

// FindPhoneTransactions returns the transactions whose description contains a mobile number.
func FindPhoneTransactions(table []models.Transaction) []models.Transaction {
	return Filter(table, func(t models.Transaction) bool {
		return phonePattern.MatchString(t.Description)
	})
}
