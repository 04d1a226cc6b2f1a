package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseCSV_Valid(t *testing.T) {
	content := `Дата операции,Сумма операции,Категория,Описание,Кешбэк,Номер карты
2023-01-01 10:15:00,-1000,Еда,Покупка,10,*7197
2023-01-15,"-500,50",Еда,Кафе,,`

	res, err := ParseCSV(content)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("Expected no row errors, got: %v", res.Errors)
	}
	if len(res.Transactions) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(res.Transactions))
	}

	t1 := res.Transactions[0]
	if !t1.OperationDate.Equal(time.Date(2023, 1, 1, 10, 15, 0, 0, time.UTC)) {
		t.Errorf("Expected date 2023-01-01 10:15, got %s", t1.OperationDate)
	}
	if !t1.Amount.Equal(decimal.NewFromInt(-1000)) {
		t.Errorf("Expected Amount -1000, got %s", t1.Amount)
	}
	if t1.Category != "Еда" {
		t.Errorf("Expected Category 'Еда', got '%s'", t1.Category)
	}
	if !t1.Cashback.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected Cashback 10, got %s", t1.Cashback)
	}
	if t1.CardLastDigits != "7197" {
		t.Errorf("Expected card '7197', got '%s'", t1.CardLastDigits)
	}

	t2 := res.Transactions[1]
	if !t2.Amount.Equal(decimal.RequireFromString("-500.50")) {
		t.Errorf("Expected Amount -500.50, got %s", t2.Amount)
	}
	if !t2.Cashback.IsZero() {
		t.Errorf("Expected zero cashback, got %s", t2.Cashback)
	}
	if t2.CardLastDigits != "" {
		t.Errorf("Expected no card, got '%s'", t2.CardLastDigits)
	}
}

func TestParseCSV_Semicolon(t *testing.T) {
	content := "Дата операции;Сумма операции;Категория;Описание\n31.12.2021 16:44:00;-160,89;Супермаркеты;Колхоз\n"

	res, err := ParseCSV(content)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(res.Transactions) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(res.Transactions))
	}
	tx := res.Transactions[0]
	if !tx.OperationDate.Equal(time.Date(2021, 12, 31, 16, 44, 0, 0, time.UTC)) {
		t.Errorf("Unexpected date %s", tx.OperationDate)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("-160.89")) {
		t.Errorf("Expected Amount -160.89, got %s", tx.Amount)
	}
}

func TestParseCSV_ByteOrderMark(t *testing.T) {
	content := "\ufeffДата операции;Сумма операции;Категория;Описание\n31.12.2021 16:44:00;-160,89;Супермаркеты;Колхоз\n"

	res, err := ParseCSV(content)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(res.MissingColumns) != 0 {
		t.Fatalf("Expected header to resolve, missing: %v", res.MissingColumns)
	}
	if len(res.Transactions) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(res.Transactions))
	}
}

func TestParseCSV_StrayQuoteKeepsAllRows(t *testing.T) {
	content := "Дата операции;Сумма операции;Категория;Описание\n" +
		"01.03.2024 10:00:00;-100,00;Супермаркеты;Магнит\n" +
		"02.03.2024 11:00:00;-250,00;Супермаркеты;ООО \"Ромашка\" магазин\n" +
		"03.03.2024 12:00:00;-50,00;Транспорт;Метро\n"

	res, err := ParseCSV(content)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("Expected no row errors, got: %v", res.Errors)
	}
	if len(res.Transactions) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(res.Transactions))
	}
	if got := res.Transactions[1].Description; got != `ООО "Ромашка" магазин` {
		t.Errorf("Expected description with quotes kept, got %q", got)
	}
	if res.Transactions[2].Description != "Метро" {
		t.Errorf("Expected row after the quoted one to survive, got %+v", res.Transactions[2])
	}
}

func TestParseCSV_PaymentAmountAlias(t *testing.T) {
	content := `Дата операции,Сумма платежа,Категория,Описание
2023-01-01,1000,Еда,Продукты`

	res, err := ParseCSV(content)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(res.MissingColumns) != 0 {
		t.Errorf("Expected no missing columns, got %v", res.MissingColumns)
	}
	if !res.Transactions[0].Amount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected Amount 1000, got %s", res.Transactions[0].Amount)
	}
}

func TestParseCSV_BadDateKeepsRow(t *testing.T) {
	content := `Дата операции,Сумма операции,Категория,Описание
2023-01-01,-10,Еда,ok
bad-date,-20,Еда,broken`

	res, err := ParseCSV(content)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(res.Transactions) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(res.Transactions))
	}
	if res.Transactions[1].HasDate() {
		t.Errorf("Expected null date for unparseable row, got %s", res.Transactions[1].OperationDate)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %d: %v", len(res.Errors), res.Errors)
	}
}

func TestParseCSV_InvalidAmount(t *testing.T) {
	content := `Дата операции,Сумма операции,Категория,Описание
2023-01-01,bad,Еда,x`

	res, err := ParseCSV(content)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(res.Transactions) != 0 {
		t.Errorf("Expected row to be dropped, got %d transactions", len(res.Transactions))
	}
	if len(res.Errors) == 0 {
		t.Fatal("Expected error for invalid amount")
	}
}

func TestParseCSV_MissingColumns(t *testing.T) {
	content := `Дата операции,Сумма операции
2023-01-01,-10`

	res, err := ParseCSV(content)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(res.MissingColumns) != 2 {
		t.Fatalf("Expected 2 missing columns, got %v", res.MissingColumns)
	}
	if len(res.Transactions) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(res.Transactions))
	}
	if res.Transactions[0].Category != "" || res.Transactions[0].Description != "" {
		t.Errorf("Expected backfilled empty fields, got %+v", res.Transactions[0])
	}
}

func TestParseCSV_ShortRow(t *testing.T) {
	content := `Дата операции,Сумма операции,Категория,Описание
2023-01-01,-10`

	res, err := ParseCSV(content)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(res.Transactions) != 0 || len(res.Errors) != 1 {
		t.Errorf("Expected 1 error and no transactions, got %d/%v", len(res.Transactions), res.Errors)
	}
}

func TestParseCSV_Empty(t *testing.T) {
	res, err := ParseCSV("")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(res.Transactions) != 0 {
		t.Errorf("Expected 0 transactions, got %d", len(res.Transactions))
	}
	if len(res.Errors) != 0 {
		t.Errorf("Expected 0 errors, got %d", len(res.Errors))
	}
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	res, err := ParseCSV(`Дата операции,Сумма операции,Категория,Описание`)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(res.Transactions) != 0 {
		t.Errorf("Expected 0 transactions, got %d", len(res.Transactions))
	}
}
