package analysis

import (
	"fmt"
	"sort"

	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/shopspring/decimal"
)

// KeyFunc extracts a grouping key from a transaction.
type KeyFunc func(models.Transaction) string

// ValueFunc extracts the number to reduce from a transaction.
type ValueFunc func(models.Transaction) decimal.Decimal

// ReduceKind selects how grouped values are combined.
type ReduceKind string

const (
	ReduceSum  ReduceKind = "sum"
	ReduceMean ReduceKind = "mean"
)

// ByCategory groups by the category label, case-sensitively.
func ByCategory(t models.Transaction) string {
	return t.Category
}

// ByWeekday groups by the English weekday name of the operation date.
func ByWeekday(t models.Transaction) string {
	return t.OperationDate.Weekday().String()
}

// Amount is the signed amount.
func Amount(t models.Transaction) decimal.Decimal {
	return t.Amount
}

// AbsAmount is the magnitude of the amount.
func AbsAmount(t models.Transaction) decimal.Decimal {
	return t.Amount.Abs()
}

// CashbackValue is the cashback earned on the transaction.
func CashbackValue(t models.Transaction) decimal.Decimal {
	return t.Cashback
}

// Group is one reduced key.
type Group struct {
	Key   string
	Value decimal.Decimal
	Count int
}

// Groups is an ordered list of reduced keys.
type Groups []Group

// Map converts the groups to a key -> value mapping.
func (g Groups) Map() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(g))
	for _, grp := range g {
		m[grp.Key] = grp.Value
	}
	return m
}

// SortByMagnitude returns a copy ordered by |Value| descending, ties broken by key.
func (g Groups) SortByMagnitude() Groups {
	out := make(Groups, len(g))
	copy(out, g)
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Value.Abs().Cmp(out[j].Value.Abs()); c != 0 {
			return c > 0
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// GroupAndReduce groups subset by key and reduces value within each group.
// The result is sorted by key.
func GroupAndReduce(subset []models.Transaction, key KeyFunc, value ValueFunc, reduce ReduceKind) (Groups, error) {
	if reduce != ReduceSum && reduce != ReduceMean {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReduction, reduce)
	}

	index := make(map[string]int)
	groups := Groups{}
	for _, t := range subset {
		k := key(t)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k, Value: decimal.Zero})
		}
		groups[i].Value = groups[i].Value.Add(value(t))
		groups[i].Count++
	}

	if reduce == ReduceMean {
		for i := range groups {
			groups[i].Value = groups[i].Value.Div(decimal.NewFromInt(int64(groups[i].Count)))
		}
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups, nil
}

// Sum adds value over the subset.
func Sum(subset []models.Transaction, value ValueFunc) decimal.Decimal {
	total := decimal.Zero
	for _, t := range subset {
		total = total.Add(value(t))
	}
	return total
}
