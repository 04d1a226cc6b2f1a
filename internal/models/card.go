package models

import (
	"github.com/shopspring/decimal"
)

// CashbackRate is the flat cashback rate applied to card spend on the dashboard.
var CashbackRate = decimal.NewFromFloat(0.01)

// CardSummary represents spend and cashback for a single card.
type CardSummary struct {
	LastDigits string          `json:"last_digits"`
	TotalSpent decimal.Decimal `json:"total_spent"`
	Cashback   decimal.Decimal `json:"cashback"`
}

// CalculateCashback calculates cashback earned on the card's total spend.
func (c *CardSummary) CalculateCashback() decimal.Decimal {
	return c.TotalSpent.Mul(CashbackRate)
}

// PopulateCalculatedFields fills Cashback and rounds both amounts for output.
func (c *CardSummary) PopulateCalculatedFields() {
	c.Cashback = c.CalculateCashback().Round(2)
	c.TotalSpent = c.TotalSpent.Round(2)
}
