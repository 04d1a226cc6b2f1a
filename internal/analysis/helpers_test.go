package analysis

import (
	"time"

	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tx(when time.Time, amount string, category string) models.Transaction {
	return models.Transaction{
		OperationDate: when,
		Amount:        decimal.RequireFromString(amount),
		Category:      category,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// sampleTable is the three-row ledger used across the report tests.
func sampleTable() []models.Transaction {
	return []models.Transaction{
		{OperationDate: date(2023, 1, 1), Amount: dec("-1000"), Category: "Еда", Description: "Покупка"},
		{OperationDate: date(2023, 1, 15), Amount: dec("-500"), Category: "Еда", Description: "Кафе"},
		{OperationDate: date(2023, 2, 1), Amount: dec("-300"), Category: "Транспорт", Description: "Такси"},
	}
}
