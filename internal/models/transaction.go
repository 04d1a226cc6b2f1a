package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DateTimeLayout is the canonical text form of an operation date.
const DateTimeLayout = "2006-01-02 15:04:05"

// Transaction represents a single ledger entry.
// A zero OperationDate means the source date could not be parsed.
type Transaction struct {
	OperationDate  time.Time       `json:"operation_date"`
	Amount         decimal.Decimal `json:"amount"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
	Cashback       decimal.Decimal `json:"cashback"`
	CardLastDigits string          `json:"card_last_digits,omitempty"`
}

// HasDate reports whether the operation date was parsed.
func (t Transaction) HasDate() bool {
	return !t.OperationDate.IsZero()
}

// IsExpense reports whether the transaction is an outflow.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsIncome reports whether the transaction is an inflow.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// MarshalJSON renders the operation date in DateTimeLayout, or null when it is missing.
func (t Transaction) MarshalJSON() ([]byte, error) {
	type alias Transaction
	out := struct {
		alias
		OperationDate *string `json:"operation_date"`
	}{alias: alias(t)}
	if t.HasDate() {
		s := t.OperationDate.Format(DateTimeLayout)
		out.OperationDate = &s
	}
	return json.Marshal(out)
}
