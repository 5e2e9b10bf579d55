package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"moneyflow/internal/core"
	"moneyflow/internal/ports"
)

// RecurringProcessor materializes due recurring expenses into transactions
// for stores that own their data.
type RecurringProcessor struct {
	source          ports.RecurringStore
	committer       ports.RecurringCommitter
	checker         DuenessChecker
	defaultCurrency string
	notify          func(context.Context, core.Change) error
}

// NewRecurringProcessor creates a processor. notify may be nil.
func NewRecurringProcessor(source ports.RecurringStore, committer ports.RecurringCommitter, defaultCurrency string, notify func(context.Context, core.Change) error) *RecurringProcessor {
	if defaultCurrency == "" {
		defaultCurrency = core.DefaultCurrency
	}
	return &RecurringProcessor{
		source:          source,
		committer:       committer,
		checker:         MonthlyChecker{},
		defaultCurrency: defaultCurrency,
		notify:          notify,
	}
}

// ProcessDueExpenses commits every template of now's month that is due on
// now's calendar day. Failures on single templates are logged and skipped.
func (p *RecurringProcessor) ProcessDueExpenses(ctx context.Context, now time.Time) (int, error) {
	if p.source == nil || p.committer == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	today := core.DateOf(now)
	month := today.MonthKey()

	items, err := p.source.ListRecurringExpensesForMonth(ctx, month)
	if err != nil {
		return 0, fmt.Errorf("failed to list recurring expenses: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring expenses",
		"total_active", len(items),
		"processing_date", today.String())

	processedCount := 0
	for _, item := range items {
		if !p.checker.IsDue(item, today) {
			continue
		}

		tx := item.Materialize(today.FirstOfMonth(), p.defaultCurrency)
		created, err := p.committer.CommitRecurringExpense(ctx, item.ID, month, tx)
		if errors.Is(err, core.ErrAlreadyCommitted) {
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from recurring template",
				"recurring_id", item.ID,
				"description", item.Description,
				"error", err)
			continue
		}

		processedCount++
		slog.InfoContext(ctx, "Created transaction from recurring template",
			"recurring_id", item.ID,
			"transaction_id", created.ID,
			"amount", created.Amount,
			"date", created.Date)

		if p.notify != nil {
			if err := p.notify(ctx, core.Change{Entity: core.EntityTransaction, Op: core.ChangeCreate, ID: created.ID}); err != nil {
				slog.WarnContext(ctx, "Failed to publish change", "id", created.ID, "error", err)
			}
		}
	}

	slog.InfoContext(ctx, "Recurring expense processing complete",
		"processed", processedCount,
		"total_checked", len(items))

	return processedCount, nil
}
