package models

import (
	"github.com/shopspring/decimal"
)

// CurrencyRate is one currency quote. Error is set instead of Rate when the lookup failed.
type CurrencyRate struct {
	Currency string           `json:"currency"`
	Rate     *decimal.Decimal `json:"rate,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// StockPrice is one stock quote. Error is set instead of Price when the lookup failed.
type StockPrice struct {
	Stock string           `json:"stock"`
	Price *decimal.Decimal `json:"price,omitempty"`
	Error string           `json:"error,omitempty"`
}
