package dashboard

import (
	"sort"

	"moneyflow/internal/core"
)

// MonthTotal is the sum of amounts dated in one YYYY-MM month.
type MonthTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// MonthComparison holds the latest month with data and the one before it.
// Previous is nil when only one month has data.
type MonthComparison struct {
	Current  *MonthTotal `json:"current"`
	Previous *MonthTotal `json:"previous"`
}

// Delta returns Current minus Previous, or 0 when either is missing.
func (c MonthComparison) Delta() float64 {
	if c.Current == nil || c.Previous == nil {
		return 0
	}
	return c.Current.Total - c.Previous.Total
}

// Summary is the set of KPIs shown for a period.
type Summary struct {
	Period           core.Period          `json:"period"`
	ExpenseTotal     float64              `json:"expenseTotal"`
	IncomeTotal      float64              `json:"incomeTotal"`
	Balance          float64              `json:"balance"`
	TransactionCount int                  `json:"transactionCount"`
	ExpenseCount     int                  `json:"expenseCount"`
	Currencies       []string             `json:"currencies"`
	MultiCurrency    bool                 `json:"multiCurrency"`
	TopCategories    []core.CategoryTotal `json:"topCategories"`
	Months           MonthComparison      `json:"months"`
}

// Summarize computes the KPIs of the transactions dated inside p. Amounts
// in different currencies are added as-is; MultiCurrency flags that case.
func Summarize(txs []core.Transaction, categories []core.Category, p core.Period) Summary {
	p = core.NormalizePeriod(p)
	inPeriod := FilterTransactionsByPeriod(txs, p.Start, p.End)
	expenses := FilterExpenseTransactions(inPeriod, categories)
	income := FilterIncomeTransactions(inPeriod, categories)

	s := Summary{
		Period:           p,
		ExpenseTotal:     sumAmounts(expenses),
		IncomeTotal:      sumAmounts(income),
		TransactionCount: len(inPeriod),
		ExpenseCount:     len(expenses),
		Currencies:       Currencies(inPeriod),
		TopCategories:    TopCategories(expenses, categories),
		Months:           CompareMonths(txs),
	}
	s.Balance = s.IncomeTotal - s.ExpenseTotal
	s.MultiCurrency = len(s.Currencies) > 1
	return s
}

// Currencies lists the distinct currency codes in first-seen order.
func Currencies(txs []core.Transaction) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, tx := range txs {
		if !seen[tx.Currency] {
			seen[tx.Currency] = true
			out = append(out, tx.Currency)
		}
	}
	return out
}

// MonthlyTotals sums amounts per YYYY-MM month, oldest month first.
func MonthlyTotals(txs []core.Transaction) []MonthTotal {
	totals := make(map[string]float64)
	for _, tx := range txs {
		if len(tx.Date) < 7 {
			continue
		}
		totals[tx.Date[:7]] += tx.Amount
	}
	out := make([]MonthTotal, 0, len(totals))
	for month, total := range totals {
		out = append(out, MonthTotal{Month: month, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// CompareMonths returns the two most recent months that have data.
func CompareMonths(txs []core.Transaction) MonthComparison {
	months := MonthlyTotals(txs)
	var c MonthComparison
	if n := len(months); n > 0 {
		c.Current = &months[n-1]
		if n > 1 {
			c.Previous = &months[n-2]
		}
	}
	return c
}

// LatestTransactions returns up to n transactions, newest date first and
// newest creation first within a day. Non-positive n returns all of them.
func LatestTransactions(txs []core.Transaction, n int) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func sumAmounts(txs []core.Transaction) float64 {
	var total float64
	for _, tx := range txs {
		total += tx.Amount
	}
	return total
}
