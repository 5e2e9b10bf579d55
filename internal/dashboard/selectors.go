// Package dashboard turns raw categories and transactions into the series,
// rankings and totals shown on the finance dashboard. Every function here is
// pure: inputs are never mutated and results are freshly allocated.
package dashboard

import (
	"sort"

	"moneyflow/internal/core"
)

const (
	// DefaultCategoryLimit is the number of ranked rows kept before the
	// tail collapses into OtherLabel.
	DefaultCategoryLimit = 6
	// TopCategoriesLimit is the limit used by the summary card.
	TopCategoriesLimit = 5

	UncategorizedLabel = "Без категории"
	OtherLabel         = "Другое"
	OtherColor         = "rgba(43, 124, 255, 0.35)"
)

// DaySeries holds parallel day labels and summed values for a chart.
type DaySeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Len returns the number of days in the series.
func (s DaySeries) Len() int {
	return len(s.Labels)
}

// FilterTransactionsByPeriod keeps the transactions dated inside the
// inclusive [start, end] range. Inverted bounds are swapped and an empty
// bound is unbounded. Input order is preserved.
func FilterTransactionsByPeriod(txs []core.Transaction, start, end string) []core.Transaction {
	p := core.NormalizePeriod(core.Period{Start: start, End: end})
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if p.Start != "" && tx.Date < p.Start {
			continue
		}
		if p.End != "" && tx.Date > p.End {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// FilterExpenseTransactions drops transactions whose category is a known
// income category. Transactions pointing at a missing category are kept.
func FilterExpenseTransactions(txs []core.Transaction, categories []core.Category) []core.Transaction {
	byID := indexCategories(categories)
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if c, ok := byID[tx.CategoryID]; ok && c.Type != core.CategoryExpense {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// FilterIncomeTransactions keeps only transactions whose category is a
// known income category.
func FilterIncomeTransactions(txs []core.Transaction, categories []core.Category) []core.Transaction {
	byID := indexCategories(categories)
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if c, ok := byID[tx.CategoryID]; ok && c.Type == core.CategoryIncome {
			out = append(out, tx)
		}
	}
	return out
}

// GroupExpensesByDay sums amounts per day over every calendar day from
// start to end inclusive, with zero for days without transactions. It does
// not filter by period. An unparseable bound yields an empty series.
func GroupExpensesByDay(txs []core.Transaction, start, end string) DaySeries {
	series := DaySeries{Labels: []string{}, Values: []float64{}}
	from, ok := core.ParseISODate(start)
	if !ok {
		return series
	}
	to, ok := core.ParseISODate(end)
	if !ok {
		return series
	}

	totals := make(map[string]float64, len(txs))
	for _, tx := range txs {
		totals[tx.Date] += tx.Amount
	}

	if n := core.DaysBetween(from, to) + 1; n > 0 {
		series.Labels = make([]string, 0, n)
		series.Values = make([]float64, 0, n)
	}
	for day := from; !day.After(to); day = day.AddDays(1) {
		label := day.String()
		series.Labels = append(series.Labels, label)
		series.Values = append(series.Values, totals[label])
	}
	return series
}

// GroupExpensesByCategory sums amounts per category and ranks the rows by
// total, highest first. Ties keep the order in which categories first
// appear in txs. When there are more than limit rows, rows past the limit
// are merged into one trailing OtherLabel row with a nil CategoryID.
// A negative limit behaves like zero.
func GroupExpensesByCategory(txs []core.Transaction, categories []core.Category, limit int) []core.CategoryTotal {
	if limit < 0 {
		limit = 0
	}
	byID := indexCategories(categories)

	rows := make([]core.CategoryTotal, 0)
	position := make(map[string]int)
	for _, tx := range txs {
		i, ok := position[tx.CategoryID]
		if !ok {
			i = len(rows)
			position[tx.CategoryID] = i
			rows = append(rows, newCategoryRow(tx.CategoryID, byID))
		}
		rows[i].Total += tx.Amount
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total > rows[j].Total
	})

	if len(rows) <= limit {
		return rows
	}

	var tail float64
	for _, r := range rows[limit:] {
		tail += r.Total
	}
	out := make([]core.CategoryTotal, 0, limit+1)
	out = append(out, rows[:limit]...)
	return append(out, core.CategoryTotal{
		CategoryID: nil,
		Label:      OtherLabel,
		Total:      tail,
		Color:      OtherColor,
	})
}

// TopCategories is GroupExpensesByCategory with TopCategoriesLimit.
func TopCategories(txs []core.Transaction, categories []core.Category) []core.CategoryTotal {
	return GroupExpensesByCategory(txs, categories, TopCategoriesLimit)
}

func newCategoryRow(id string, byID map[string]core.Category) core.CategoryTotal {
	categoryID := id
	row := core.CategoryTotal{CategoryID: &categoryID, Label: UncategorizedLabel}
	if c, ok := byID[id]; ok {
		row.Label = c.Name
		row.Color = c.Color
	}
	return row
}

func indexCategories(categories []core.Category) map[string]core.Category {
	byID := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	return byID
}
