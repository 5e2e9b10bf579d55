package http

import (
	"strconv"
	"strings"

	"moneyflow/internal/core"
)

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func sanitizeCategory(c *core.Category) {
	c.Name = sanitizeInput(c.Name)
	c.Color = sanitizeInput(c.Color)
	c.Type = core.CategoryType(strings.ToLower(sanitizeInput(string(c.Type))))
}

func sanitizeTransaction(t *core.Transaction) {
	t.CategoryID = sanitizeInput(t.CategoryID)
	t.Note = sanitizeInput(t.Note)
	t.Date = sanitizeInput(t.Date)
	t.Currency = strings.ToUpper(sanitizeInput(t.Currency))
}

func sanitizeRecurring(r *core.RecurringExpense) {
	r.CategoryID = sanitizeInput(r.CategoryID)
	r.Description = sanitizeInput(r.Description)
	r.Date = sanitizeInput(r.Date)
	r.Currency = strings.ToUpper(sanitizeInput(r.Currency))
}

// cacheKey builds the dashboard cache key for an endpoint and period.
func cacheKey(endpoint string, p core.Period, extra ...int) string {
	var b strings.Builder
	b.WriteString(endpoint)
	b.WriteByte('|')
	b.WriteString(p.Start)
	b.WriteByte('|')
	b.WriteString(p.End)
	for _, n := range extra {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
