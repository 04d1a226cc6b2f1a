package analysis

import (
	"errors"
	"testing"

	"github.com/rocjay1/ledger-analyzer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupAndReduce_Sum(t *testing.T) {
	groups, err := GroupAndReduce(sampleTable(), ByCategory, Amount, ReduceSum)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "Еда", groups[0].Key)
	assert.True(t, groups[0].Value.Equal(dec("-1500")))
	assert.Equal(t, 2, groups[0].Count)
	assert.Equal(t, "Транспорт", groups[1].Key)
}

func TestGroupAndReduce_MeanByWeekday(t *testing.T) {
	groups, err := GroupAndReduce(sampleTable(), ByWeekday, AbsAmount, ReduceMean)
	require.NoError(t, err)

	m := groups.Map()
	assert.True(t, m["Sunday"].Equal(dec("750")), m["Sunday"].String())
	assert.True(t, m["Wednesday"].Equal(dec("300")))
}

func TestGroupAndReduce_Empty(t *testing.T) {
	groups, err := GroupAndReduce(nil, ByCategory, Amount, ReduceMean)
	require.NoError(t, err)
	assert.Empty(t, groups)
	assert.Empty(t, groups.Map())
}

func TestGroupAndReduce_InvalidReduction(t *testing.T) {
	_, err := GroupAndReduce(sampleTable(), ByCategory, Amount, ReduceKind("median"))
	assert.True(t, errors.Is(err, ErrInvalidReduction))
}

func TestGroupAndReduce_CaseSensitiveKeys(t *testing.T) {
	table := []models.Transaction{
		tx(date(2023, 1, 1), "-1", "Еда"),
		tx(date(2023, 1, 1), "-2", "еда"),
	}
	groups, err := GroupAndReduce(table, ByCategory, Amount, ReduceSum)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestGroups_SortByMagnitude(t *testing.T) {
	groups := Groups{
		{Key: "b", Value: dec("-10")},
		{Key: "a", Value: dec("-10")},
		{Key: "c", Value: dec("-30")},
	}
	sorted := groups.SortByMagnitude()
	assert.Equal(t, []string{"c", "a", "b"}, []string{sorted[0].Key, sorted[1].Key, sorted[2].Key})
	assert.Equal(t, "b", groups[0].Key, "input must not be reordered")
}
