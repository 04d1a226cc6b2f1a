package analysis

import (
	"context"
	"sort"
	"time"

	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/shopspring/decimal"
)

// TopTransactionsLimit is how many transactions the dashboard lists.
const TopTransactionsLimit = 5

// MarketData looks up quotes. Implementations return one entry per requested
// symbol, carrying an error marker instead of a value when a lookup fails.
type MarketData interface {
	CurrencyRates(ctx context.Context, currencies []string) []models.CurrencyRate
	StockPrices(ctx context.Context, stocks []string) []models.StockPrice
}

// TopTransaction is one dashboard row.
type TopTransaction struct {
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

// Dashboard is the main page summary.
type Dashboard struct {
	Greeting        string                `json:"greeting"`
	Period          Window                `json:"period"`
	Cards           []models.CardSummary  `json:"cards"`
	TopTransactions []TopTransaction      `json:"top_transactions"`
	CurrencyRates   []models.CurrencyRate `json:"currency_rates"`
	StockPrices     []models.StockPrice   `json:"stock_prices"`
}

// Greeting returns the salutation for the hour of t.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "Доброе утро"
	case h >= 12 && h < 17:
		return "Добрый день"
	case h >= 17 && h < 23:
		return "Добрый вечер"
	default:
		return "Доброй ночи"
	}
}

// CardSummaries totals expenses per card, ordered by card digits.
// Transactions without a card are skipped.
func CardSummaries(table []models.Transaction) ([]models.CardSummary, error) {
	withCard := Filter(table, func(t models.Transaction) bool {
		return t.CardLastDigits != ""
	})
	groups, err := GroupAndReduce(withCard, func(t models.Transaction) string {
		return t.CardLastDigits
	}, func(t models.Transaction) decimal.Decimal {
		if t.IsExpense() {
			return t.Amount.Abs()
		}
		return decimal.Zero
	}, ReduceSum)
	if err != nil {
		return nil, err
	}

	cards := make([]models.CardSummary, 0, len(groups))
	for _, g := range groups {
		card := models.CardSummary{LastDigits: g.Key, TotalSpent: g.Value}
		card.PopulateCalculatedFields()
		cards = append(cards, card)
	}
	return cards, nil
}

// TopTransactions returns the n largest transactions by magnitude.
func TopTransactions(table []models.Transaction, n int) []TopTransaction {
	sorted := make([]models.Transaction, len(table))
	copy(sorted, table)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.Abs().GreaterThan(sorted[j].Amount.Abs())
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]TopTransaction, 0, len(sorted))
	for _, t := range sorted {
		date := ""
		if t.HasDate() {
			date = t.OperationDate.Format("02.01.2006")
		}
		out = append(out, TopTransaction{
			Date:        date,
			Amount:      t.Amount.Round(2),
			Category:    t.Category,
			Description: t.Description,
		})
	}
	return out
}

// Dashboard summarises the month up to at and attaches quotes for the
// settings' currencies and stocks. A nil market yields empty quote lists.
func (b *Builder) Dashboard(ctx context.Context, table []models.Transaction, at time.Time, settings models.Settings, market MarketData) (Dashboard, error) {
	month, err := WindowFor(at, PeriodMonth)
	if err != nil {
		return Dashboard{}, err
	}
	w := Window{Start: month.Start, End: truncateDay(at)}
	subset := FilterByWindow(table, w)
	settings = settings.WithDefaults()

	cards, err := CardSummaries(subset)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		Greeting:        Greeting(at),
		Period:          w,
		Cards:           cards,
		TopTransactions: TopTransactions(subset, TopTransactionsLimit),
		CurrencyRates:   []models.CurrencyRate{},
		StockPrices:     []models.StockPrice{},
	}
	if market != nil {
		d.CurrencyRates = market.CurrencyRates(ctx, settings.UserCurrencies)
		d.StockPrices = market.StockPrices(ctx, settings.UserStocks)
	}

	b.log.Info("built dashboard",
		"at", at.Format(models.DateTimeLayout),
		"transactions_count", len(subset),
		"cards_count", len(d.Cards),
	)
	return d, nil
}
