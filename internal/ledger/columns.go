// Package ledger loads bank operation exports into transaction tables.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Column headers of the bank operations export.
const (
	ColumnOperationDate = "Дата операции"
	ColumnAmount        = "Сумма операции"
	ColumnPaymentAmount = "Сумма платежа"
	ColumnCategory      = "Категория"
	ColumnDescription   = "Описание"
	ColumnCashback      = "Кешбэк"
	ColumnCardNumber    = "Номер карты"
)

// RequiredColumns are backfilled with empty values when absent.
var RequiredColumns = []string{
	ColumnOperationDate,
	ColumnAmount,
	ColumnCategory,
	ColumnDescription,
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
}

// ParseDate parses an operation date in any of the supported export layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date: %q", s)
}

// ParseAmount parses a decimal that may use a comma separator and space grouping.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		case ',':
			return '.'
		case '\u2212':
			return '-'
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// normalizeCard strips the masking prefix banks put in front of the last digits.
func normalizeCard(s string) string {
	return strings.TrimLeft(strings.TrimSpace(s), "*• ")
}
