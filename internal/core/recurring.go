package core

// ActiveIn reports whether the template applies to month. Templates without
// a start date apply to every month; otherwise the start date must not fall
// after the end of month.
func (r RecurringExpense) ActiveIn(month Date) bool {
	if r.Date == "" {
		return true
	}
	start, ok := ParseISODate(r.Date)
	if !ok {
		return false
	}
	return !start.After(month.LastOfMonth())
}

// ForMonth resolves the template against month.
func (r RecurringExpense) ForMonth(month Date, committed bool) RecurringExpenseForMonth {
	return RecurringExpenseForMonth{
		RecurringExpense: r,
		ScheduledDate:    ScheduledDate(month, r.DayOfMonth).String(),
		Committed:        committed,
	}
}

// Materialize builds the transaction a template produces for month.
func (r RecurringExpense) Materialize(month Date, defaultCurrency string) Transaction {
	return Transaction{
		ID:         NewClientID(),
		Amount:     r.Amount,
		Currency:   r.CurrencyOr(defaultCurrency),
		CategoryID: r.CategoryID,
		Note:       r.Description,
		Date:       ScheduledDate(month, r.DayOfMonth).String(),
	}
}
