package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"moneyflow/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "moneyflow.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	repo.now = func() time.Time { return time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteCategoriesRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	food, err := repo.CreateCategory(ctx, core.Category{Name: "Food", Color: "#ff0000", Type: core.CategoryExpense})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreateCategory(ctx, core.Category{Name: "Salary", Type: core.CategoryIncome}); err != nil {
		t.Fatalf("create: %v", err)
	}

	food.Name = "Groceries"
	updated, err := repo.UpdateCategory(ctx, food)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CreatedAt != "2026-02-10T08:00:00Z" {
		t.Fatalf("created_at should be preserved, got %q", updated.CreatedAt)
	}

	cats, err := repo.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 2 || cats[0].Name != "Groceries" || cats[1].Type != core.CategoryIncome {
		t.Fatalf("unexpected categories: %+v", cats)
	}

	if _, err := repo.UpdateCategory(ctx, core.Category{ID: "missing", Name: "x", Type: core.CategoryExpense}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteCategory(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteTransactionsAllowDanglingCategory(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	cat, _ := repo.CreateCategory(ctx, core.Category{Name: "Food", Type: core.CategoryExpense})
	first, err := repo.CreateTransaction(ctx, core.Transaction{Amount: 10.5, Currency: "RUB", CategoryID: cat.ID, Date: "2026-02-03", Note: "lunch"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreateTransaction(ctx, core.Transaction{Amount: 3, Currency: "USD", CategoryID: "ghost", Date: "2026-02-01"}); err != nil {
		t.Fatalf("dangling category must be accepted: %v", err)
	}
	if err := repo.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	txs, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 2 || txs[0].ID != first.ID || txs[0].CategoryID != cat.ID || txs[0].Note != "lunch" {
		t.Fatalf("unexpected transactions: %+v", txs)
	}

	first.Amount = 11
	if _, err := repo.UpdateTransaction(ctx, first); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, txs[1].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	txs, _ = repo.ListTransactions(ctx)
	if len(txs) != 1 || txs[0].Amount != 11 {
		t.Fatalf("unexpected transactions after update/delete: %+v", txs)
	}

	if _, err := repo.CreateTransaction(ctx, core.Transaction{Amount: -1, Currency: "RUB", CategoryID: "c", Date: "2026-02-01"}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestSQLiteRecurringCommit(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	re, err := repo.CreateRecurringExpense(ctx, core.RecurringExpense{CategoryID: "rent", Amount: 700, DayOfMonth: 31, Description: "Rent", Currency: "EUR"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	items, err := repo.ListRecurringExpensesForMonth(ctx, "2026-02")
	if err != nil || len(items) != 1 {
		t.Fatalf("list: %v %+v", err, items)
	}
	if items[0].ScheduledDate != "2026-02-28" || items[0].Committed {
		t.Fatalf("unexpected item: %+v", items[0])
	}

	month, _ := core.ParseMonthKey("2026-02")
	tx := re.Materialize(month, core.DefaultCurrency)
	if _, err := repo.CommitRecurringExpense(ctx, re.ID, "2026-02", tx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := repo.CommitRecurringExpense(ctx, re.ID, "2026-02", re.Materialize(month, core.DefaultCurrency)); !errors.Is(err, core.ErrAlreadyCommitted) {
		t.Fatalf("expected ErrAlreadyCommitted, got %v", err)
	}
	if _, err := repo.CommitRecurringExpense(ctx, "missing", "2026-02", re.Materialize(month, core.DefaultCurrency)); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	items, _ = repo.ListRecurringExpensesForMonth(ctx, "2026-02")
	if !items[0].Committed {
		t.Fatalf("expected committed item")
	}
	txs, _ := repo.ListTransactions(ctx)
	if len(txs) != 1 || txs[0].Currency != "EUR" || txs[0].Date != "2026-02-28" {
		t.Fatalf("unexpected materialized transaction: %+v", txs)
	}

	if err := repo.DeleteRecurringExpense(ctx, re.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if items, _ := repo.ListRecurringExpensesForMonth(ctx, "2026-03"); len(items) != 0 {
		t.Fatalf("expected no items after delete, got %+v", items)
	}
}

func TestMigrationVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	repo.Close()

	v, dirty, err := MigrationVersion(path)
	if err != nil || v != 1 || dirty {
		t.Fatalf("MigrationVersion = %d, %v, %v", v, dirty, err)
	}
}
