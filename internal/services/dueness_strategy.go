// Package services holds the background business processes that run next
// to the HTTP surface, such as materializing recurring expenses.
package services

import (
	"moneyflow/internal/core"
)

// DuenessChecker decides whether a month-resolved template should be
// materialized on today.
type DuenessChecker interface {
	IsDue(item core.RecurringExpenseForMonth, today core.Date) bool
}

// MonthlyChecker treats a template as due once today reaches its scheduled
// date within the same month, until it is committed.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(item core.RecurringExpenseForMonth, today core.Date) bool {
	if item.Committed {
		return false
	}
	scheduled, ok := core.ParseISODate(item.ScheduledDate)
	if !ok {
		return false
	}
	if scheduled.Year != today.Year || scheduled.Month != today.Month {
		return false
	}
	return !today.Before(scheduled)
}
