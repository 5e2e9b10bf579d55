package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneyflow/internal/core"
)

func tx(id, categoryID, date string, amount float64) core.Transaction {
	return core.Transaction{ID: id, CategoryID: categoryID, Date: date, Amount: amount, Currency: "RUB"}
}

func ids(txs []core.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}

func TestFilterTransactionsByPeriod(t *testing.T) {
	txs := []core.Transaction{
		tx("a", "c", "2026-01-31", 1),
		tx("b", "c", "2026-02-01", 1),
		tx("c", "c", "2026-02-15", 1),
		tx("d", "c", "2026-02-28", 1),
		tx("e", "c", "2026-03-01", 1),
	}

	tests := []struct {
		name       string
		start, end string
		want       []string
	}{
		{"inclusive bounds", "2026-02-01", "2026-02-28", []string{"b", "c", "d"}},
		{"inverted bounds", "2026-02-28", "2026-02-01", []string{"b", "c", "d"}},
		{"open start", "", "2026-02-01", []string{"a", "b"}},
		{"open end", "2026-02-28", "", []string{"d", "e"}},
		{"unbounded", "", "", []string{"a", "b", "c", "d", "e"}},
		{"single day", "2026-02-15", "2026-02-15", []string{"c"}},
		{"nothing inside", "2027-01-01", "2027-12-31", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterTransactionsByPeriod(txs, tt.start, tt.end)))
		})
	}

	assert.Empty(t, FilterTransactionsByPeriod(nil, "2026-01-01", "2026-01-31"))
}

func TestFilterExpenseTransactions(t *testing.T) {
	categories := []core.Category{
		{ID: "c-exp", Name: "Food", Type: core.CategoryExpense},
		{ID: "c-inc", Name: "Salary", Type: core.CategoryIncome},
	}
	txs := []core.Transaction{
		tx("1", "c-exp", "2026-02-01", 10),
		tx("2", "c-inc", "2026-02-01", 100),
		tx("3", "missing", "2026-02-02", 5),
	}

	assert.Equal(t, []string{"1", "3"}, ids(FilterExpenseTransactions(txs, categories)))
	assert.Equal(t, []string{"2"}, ids(FilterIncomeTransactions(txs, categories)))
	assert.Equal(t, []string{"1", "2", "3"}, ids(FilterExpenseTransactions(txs, nil)))
}

func TestGroupExpensesByDay(t *testing.T) {
	txs := []core.Transaction{
		tx("1", "c", "2026-02-01", 10),
		tx("2", "c", "2026-02-03", 5),
	}
	got := GroupExpensesByDay(txs, "2026-02-01", "2026-02-03")
	assert.Equal(t, []string{"2026-02-01", "2026-02-02", "2026-02-03"}, got.Labels)
	assert.Equal(t, []float64{10, 0, 5}, got.Values)
}

func TestGroupExpensesByDaySumsSameDay(t *testing.T) {
	txs := []core.Transaction{
		tx("1", "c", "2026-02-01", 10),
		tx("2", "c", "2026-02-01", 2.5),
	}
	got := GroupExpensesByDay(txs, "2026-02-01", "2026-02-01")
	require.Equal(t, 1, got.Len())
	assert.Equal(t, []float64{12.5}, got.Values)
}

func TestGroupExpensesByDayCrossesYear(t *testing.T) {
	got := GroupExpensesByDay(nil, "2025-12-30", "2026-01-02")
	assert.Equal(t, []string{"2025-12-30", "2025-12-31", "2026-01-01", "2026-01-02"}, got.Labels)
	assert.Equal(t, []float64{0, 0, 0, 0}, got.Values)
}

func TestGroupExpensesByDayInvalidBounds(t *testing.T) {
	for _, bounds := range [][2]string{{"bad", "2026-02-01"}, {"2026-02-01", ""}, {"", ""}} {
		got := GroupExpensesByDay([]core.Transaction{tx("1", "c", "2026-02-01", 1)}, bounds[0], bounds[1])
		assert.NotNil(t, got.Labels)
		assert.NotNil(t, got.Values)
		assert.Empty(t, got.Labels)
		assert.Empty(t, got.Values)
	}
}

func TestGroupExpensesByDayInvertedSpanIsEmpty(t *testing.T) {
	got := GroupExpensesByDay(nil, "2026-02-03", "2026-02-01")
	assert.Empty(t, got.Labels)
}

func TestGroupExpensesByCategory(t *testing.T) {
	categories := []core.Category{
		{ID: "a", Name: "A", Color: "#a"},
		{ID: "b", Name: "B", Color: "#b"},
		{ID: "c", Name: "C", Color: "#c"},
		{ID: "d", Name: "D", Color: "#d"},
	}
	txs := []core.Transaction{
		tx("1", "c", "2026-02-01", 80),
		tx("2", "a", "2026-02-01", 100),
		tx("3", "d", "2026-02-01", 70),
		tx("4", "b", "2026-02-01", 90),
	}

	rows := GroupExpensesByCategory(txs, categories, 2)
	require.Len(t, rows, 3)
	assert.Equal(t, "a", *rows[0].CategoryID)
	assert.Equal(t, 100.0, rows[0].Total)
	assert.Equal(t, "#a", rows[0].Color)
	assert.Equal(t, "b", *rows[1].CategoryID)
	assert.Equal(t, 90.0, rows[1].Total)

	other := rows[2]
	assert.True(t, other.IsOther())
	assert.Nil(t, other.CategoryID)
	assert.Equal(t, OtherLabel, other.Label)
	assert.Equal(t, 150.0, other.Total)
	assert.Equal(t, OtherColor, other.Color)
}

func TestGroupExpensesByCategoryAtLimit(t *testing.T) {
	txs := []core.Transaction{
		tx("1", "a", "2026-02-01", 1),
		tx("2", "b", "2026-02-01", 2),
	}
	rows := GroupExpensesByCategory(txs, nil, 2)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.False(t, r.IsOther())
	}
}

func TestGroupExpensesByCategoryZeroLimit(t *testing.T) {
	txs := []core.Transaction{
		tx("1", "a", "2026-02-01", 1),
		tx("2", "b", "2026-02-01", 2),
	}
	for _, limit := range []int{0, -3} {
		rows := GroupExpensesByCategory(txs, nil, limit)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].IsOther())
		assert.Equal(t, 3.0, rows[0].Total)
	}

	assert.Empty(t, GroupExpensesByCategory(nil, nil, 0))
}

func TestGroupExpensesByCategoryMissingCategory(t *testing.T) {
	rows := GroupExpensesByCategory([]core.Transaction{tx("1", "ghost", "2026-02-01", 5)}, nil, DefaultCategoryLimit)
	require.Len(t, rows, 1)
	assert.Equal(t, "ghost", *rows[0].CategoryID)
	assert.Equal(t, UncategorizedLabel, rows[0].Label)
	assert.Empty(t, rows[0].Color)
}

func TestGroupExpensesByCategoryTiesKeepFirstSeenOrder(t *testing.T) {
	txs := []core.Transaction{
		tx("1", "z", "2026-02-01", 10),
		tx("2", "y", "2026-02-01", 10),
		tx("3", "x", "2026-02-01", 20),
		tx("4", "w", "2026-02-01", 10),
	}
	rows := GroupExpensesByCategory(txs, nil, DefaultCategoryLimit)
	got := make([]string, 0, len(rows))
	for _, r := range rows {
		got = append(got, *r.CategoryID)
	}
	assert.Equal(t, []string{"x", "z", "y", "w"}, got)
}

func TestSelectorsAreRepeatable(t *testing.T) {
	categories := []core.Category{{ID: "a", Name: "A", Type: core.CategoryExpense}}
	txs := []core.Transaction{
		tx("1", "a", "2026-02-01", 3),
		tx("2", "b", "2026-02-02", 4),
	}
	assert.Equal(t,
		GroupExpensesByCategory(txs, categories, 1),
		GroupExpensesByCategory(txs, categories, 1))
	assert.Equal(t,
		GroupExpensesByDay(txs, "2026-02-01", "2026-02-05"),
		GroupExpensesByDay(txs, "2026-02-01", "2026-02-05"))
	assert.Equal(t, "2026-02-01", txs[0].Date)
}
