package analysis

import (
	"log/slog"
	"time"

	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/shopspring/decimal"
)

// TopExpenseCategories is how many expense categories the events report keeps.
const TopExpenseCategories = 7

// Builder composes period filters and aggregations into reports.
type Builder struct {
	log *slog.Logger
}

// NewBuilder creates a Builder that logs to logger, or to slog.Default when nil.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{log: logger}
}

// CategorySpendReport is spend in one category over the three months before a date.
type CategorySpendReport struct {
	Category           string               `json:"category"`
	Period             Window               `json:"period"`
	TotalSpent         decimal.Decimal      `json:"total_spent"`
	TransactionCount   int                  `json:"transaction_count"`
	AverageTransaction decimal.Decimal      `json:"average_transaction"`
	Transactions       []models.Transaction `json:"transactions"`
}

// CategorySpend sums expenses in category over the last three months ending at asOf.
// Income rows in the category are ignored.
func (b *Builder) CategorySpend(table []models.Transaction, category string, asOf time.Time) (CategorySpendReport, error) {
	w, err := WindowFor(asOf, PeriodLast3Months)
	if err != nil {
		return CategorySpendReport{}, err
	}

	spend := Filter(FilterByWindow(table, w), func(t models.Transaction) bool {
		return t.Category == category && t.IsExpense()
	})
	total := Sum(spend, Amount).Abs()

	report := CategorySpendReport{
		Category:           category,
		Period:             w,
		TotalSpent:         total.Round(2),
		TransactionCount:   len(spend),
		AverageTransaction: decimal.Zero,
		Transactions:       spend,
	}
	if len(spend) > 0 {
		report.AverageTransaction = total.Div(decimal.NewFromInt(int64(len(spend)))).Round(2)
	}

	b.log.Info("built category spend report",
		"category", category,
		"as_of", asOf.Format(DateLayout),
		"transactions_count", len(spend),
		"total_spent", report.TotalSpent.String(),
	)
	return report, nil
}

// WeekdayAverage averages expense magnitude per weekday. With a non-nil asOf
// only the last three months ending there are considered.
func (b *Builder) WeekdayAverage(table []models.Transaction, asOf *time.Time) (map[string]decimal.Decimal, error) {
	subset := table
	if asOf != nil {
		var err error
		subset, err = FilterByPeriod(table, *asOf, PeriodLast3Months)
		if err != nil {
			return nil, err
		}
	}

	expenses := Filter(subset, func(t models.Transaction) bool {
		return t.HasDate() && t.IsExpense()
	})
	groups, err := GroupAndReduce(expenses, ByWeekday, AbsAmount, ReduceMean)
	if err != nil {
		return nil, err
	}

	out := make(map[string]decimal.Decimal, len(groups))
	for _, g := range groups {
		out[g.Key] = g.Value.Round(2)
	}

	b.log.Info("built weekday average report", "transactions_count", len(expenses), "weekdays", len(out))
	return out, nil
}

// CategoryAmount is one category line of the events report.
type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// EventsBlock is one side (expenses or income) of the events report.
type EventsBlock struct {
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Main        []CategoryAmount `json:"main"`
}

// EventsReport breaks a period down into expense and income categories.
type EventsReport struct {
	Period   Window      `json:"period"`
	Expenses EventsBlock `json:"expenses"`
	Income   EventsBlock `json:"income"`
}

// Events builds the expense/income breakdown for the kind window around ref.
// Expenses keep the TopExpenseCategories largest categories; income keeps all.
func (b *Builder) Events(table []models.Transaction, ref time.Time, kind PeriodKind) (EventsReport, error) {
	w, err := WindowFor(ref, kind)
	if err != nil {
		return EventsReport{}, err
	}
	subset := FilterByWindow(table, w)

	expenses := Filter(subset, models.Transaction.IsExpense)
	income := Filter(subset, models.Transaction.IsIncome)

	expenseBlock, err := eventsBlock(expenses, TopExpenseCategories)
	if err != nil {
		return EventsReport{}, err
	}
	incomeBlock, err := eventsBlock(income, 0)
	if err != nil {
		return EventsReport{}, err
	}

	b.log.Info("built events report",
		"period", string(kind),
		"reference_date", ref.Format(DateLayout),
		"expenses_count", len(expenses),
		"income_count", len(income),
	)
	return EventsReport{Period: w, Expenses: expenseBlock, Income: incomeBlock}, nil
}

// eventsBlock sums rows per category, largest first, keeping at most limit
// categories (all when limit is 0). Amounts are reported as magnitudes.
func eventsBlock(rows []models.Transaction, limit int) (EventsBlock, error) {
	groups, err := GroupAndReduce(rows, ByCategory, Amount, ReduceSum)
	if err != nil {
		return EventsBlock{}, err
	}
	groups = groups.SortByMagnitude()
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}

	main := make([]CategoryAmount, 0, len(groups))
	for _, g := range groups {
		main = append(main, CategoryAmount{Category: g.Key, Amount: g.Value.Abs().RoundBank(2)})
	}
	return EventsBlock{
		TotalAmount: Sum(rows, Amount).Abs().RoundBank(0),
		Main:        main,
	}, nil
}
