// Package ports declares the data collaborators the finance store reads
// from and writes to. Implementations live in internal/api (REST backend),
// internal/storage (SQLite) and internal/sources/memory.
package ports

import (
	"context"

	"moneyflow/internal/core"
)

type (
	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, id string) error
	}

	// TransactionStore must accept transactions whose CategoryID matches no
	// stored category.
	TransactionStore interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	RecurringStore interface {
		// ListRecurringExpensesForMonth resolves every template active in
		// month (YYYY-MM) to its scheduled date and commit state.
		ListRecurringExpensesForMonth(ctx context.Context, month string) ([]core.RecurringExpenseForMonth, error)
		CreateRecurringExpense(ctx context.Context, r core.RecurringExpense) (core.RecurringExpense, error)
		DeleteRecurringExpense(ctx context.Context, id string) error
	}

	// Source is everything the finance store needs from a backend.
	Source interface {
		CategoryStore
		TransactionStore
		RecurringStore
	}

	// RecurringCommitter materializes a template into a transaction for a
	// month. It is only offered by stores that own the data; a remote
	// backend commits on its own schedule.
	RecurringCommitter interface {
		// CommitRecurringExpense stores t and marks recurringID as committed
		// for month in one step. It returns core.ErrAlreadyCommitted when the
		// month was already materialized.
		CommitRecurringExpense(ctx context.Context, recurringID, month string, t core.Transaction) (core.Transaction, error)
	}
)
