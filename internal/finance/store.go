// Package finance keeps the in-process snapshot of categories, transactions
// and the selected month's recurring expenses, and routes every mutation
// through the configured source.
package finance

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"moneyflow/internal/core"
	"moneyflow/internal/log"
	"moneyflow/internal/ports"
)

// Notifier is told about every successful mutation.
type Notifier interface {
	Notify(ctx context.Context, change core.Change) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, change core.Change) error

func (f NotifierFunc) Notify(ctx context.Context, change core.Change) error {
	return f(ctx, change)
}

// Store serializes each mutation as source call, then reload, then notify.
// Readers get copies of the latest snapshot.
type Store struct {
	source    ports.Source
	notifiers []Notifier
	logger    *log.Logger
	changes   *log.StructuredLogger

	mu           sync.RWMutex
	categories   []core.Category
	transactions []core.Transaction
	month        string
	recurring    []core.RecurringExpenseForMonth
}

func NewStore(source ports.Source, logger *log.Logger, notifiers ...Notifier) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentFinance)
	return &Store{
		source:    source,
		notifiers: notifiers,
		logger:    logger,
		changes:   log.NewStructuredLogger(logger),
	}
}

// AddNotifier registers n for subsequent mutations.
func (s *Store) AddNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifiers = append(s.notifiers, n)
}

// Init loads categories and transactions concurrently.
func (s *Store) Init(ctx context.Context) error {
	var (
		categories   []core.Category
		transactions []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.source.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		transactions, err = s.source.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.categories = categories
	s.transactions = transactions
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Finance store loaded",
		"categories", len(categories),
		"transactions", len(transactions))
	return nil
}

// Reload refreshes categories, transactions and the tracked month.
func (s *Store) Reload(ctx context.Context) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	if month := s.Month(); month != "" {
		return s.ReloadRecurring(ctx)
	}
	return nil
}

func (s *Store) Categories() []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Category{}, s.categories...)
}

func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction{}, s.transactions...)
}

// Snapshot returns categories and transactions read under one lock.
func (s *Store) Snapshot() ([]core.Category, []core.Transaction) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Category{}, s.categories...), append([]core.Transaction{}, s.transactions...)
}

// Month returns the tracked YYYY-MM month, empty before SelectMonth.
func (s *Store) Month() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.month
}

// Recurring returns the recurring expenses of the tracked month.
func (s *Store) Recurring() []core.RecurringExpenseForMonth {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.RecurringExpenseForMonth{}, s.recurring...)
}

// SelectMonth tracks month and loads its recurring expenses. If another
// month is selected before the load finishes, the result is discarded.
func (s *Store) SelectMonth(ctx context.Context, month string) error {
	_, err := s.RecurringForMonth(ctx, month)
	return err
}

// RecurringForMonth tracks month and returns its recurring expenses as
// loaded, even when a concurrent selection discards them from the snapshot.
func (s *Store) RecurringForMonth(ctx context.Context, month string) ([]core.RecurringExpenseForMonth, error) {
	if _, ok := core.ParseMonthKey(month); !ok {
		return nil, fmt.Errorf("month %q: %w", month, core.ErrInvalidDate)
	}
	s.mu.Lock()
	s.month = month
	s.mu.Unlock()
	return s.loadRecurring(ctx, month)
}

// ReloadRecurring reloads the tracked month's recurring expenses.
func (s *Store) ReloadRecurring(ctx context.Context) error {
	month := s.Month()
	if month == "" {
		return nil
	}
	_, err := s.loadRecurring(ctx, month)
	return err
}

func (s *Store) loadRecurring(ctx context.Context, month string) ([]core.RecurringExpenseForMonth, error) {
	items, err := s.source.ListRecurringExpensesForMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("load recurring expenses for %s: %w", month, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.month != month {
		s.logger.DebugContext(ctx, "Discarding stale recurring expenses",
			log.FieldMonth, month,
			"tracked_month", s.month)
		return items, nil
	}
	s.recurring = items
	return append([]core.RecurringExpenseForMonth{}, items...), nil
}

func (s *Store) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	created, err := s.source.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	if err := s.reloadCategories(ctx); err != nil {
		return created, err
	}
	s.notify(ctx, core.Change{Entity: core.EntityCategory, Op: core.ChangeCreate, ID: created.ID})
	return created, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	updated, err := s.source.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if err := s.reloadCategories(ctx); err != nil {
		return updated, err
	}
	s.notify(ctx, core.Change{Entity: core.EntityCategory, Op: core.ChangeUpdate, ID: updated.ID})
	return updated, nil
}

func (s *Store) RemoveCategory(ctx context.Context, id string) error {
	if err := s.source.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := s.reloadCategories(ctx); err != nil {
		return err
	}
	s.notify(ctx, core.Change{Entity: core.EntityCategory, Op: core.ChangeDelete, ID: id})
	return nil
}

func (s *Store) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	created, err := s.source.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	if err := s.reloadTransactions(ctx); err != nil {
		return created, err
	}
	s.notify(ctx, core.Change{Entity: core.EntityTransaction, Op: core.ChangeCreate, ID: created.ID})
	return created, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	updated, err := s.source.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := s.reloadTransactions(ctx); err != nil {
		return updated, err
	}
	s.notify(ctx, core.Change{Entity: core.EntityTransaction, Op: core.ChangeUpdate, ID: updated.ID})
	return updated, nil
}

func (s *Store) RemoveTransaction(ctx context.Context, id string) error {
	if err := s.source.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := s.reloadTransactions(ctx); err != nil {
		return err
	}
	s.notify(ctx, core.Change{Entity: core.EntityTransaction, Op: core.ChangeDelete, ID: id})
	return nil
}

func (s *Store) AddRecurringExpense(ctx context.Context, r core.RecurringExpense) (core.RecurringExpense, error) {
	created, err := s.source.CreateRecurringExpense(ctx, r)
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("create recurring expense: %w", err)
	}
	if err := s.ReloadRecurring(ctx); err != nil {
		return created, err
	}
	s.notify(ctx, core.Change{Entity: core.EntityRecurring, Op: core.ChangeCreate, ID: created.ID})
	return created, nil
}

func (s *Store) RemoveRecurringExpense(ctx context.Context, id string) error {
	if err := s.source.DeleteRecurringExpense(ctx, id); err != nil {
		return fmt.Errorf("delete recurring expense: %w", err)
	}
	if err := s.ReloadRecurring(ctx); err != nil {
		return err
	}
	s.notify(ctx, core.Change{Entity: core.EntityRecurring, Op: core.ChangeDelete, ID: id})
	return nil
}

func (s *Store) reloadCategories(ctx context.Context) error {
	categories, err := s.source.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("reload categories: %w", err)
	}
	s.mu.Lock()
	s.categories = categories
	s.mu.Unlock()
	return nil
}

func (s *Store) reloadTransactions(ctx context.Context) error {
	transactions, err := s.source.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("reload transactions: %w", err)
	}
	s.mu.Lock()
	s.transactions = transactions
	s.mu.Unlock()
	return nil
}

// notify never fails the mutation; notifier errors are logged.
func (s *Store) notify(ctx context.Context, change core.Change) {
	s.changes.LogChange(ctx, change.Entity, change.Op, change.ID)
	s.mu.RLock()
	notifiers := append([]Notifier(nil), s.notifiers...)
	s.mu.RUnlock()
	for _, n := range notifiers {
		if err := n.Notify(ctx, change); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish change",
				log.FieldError, err,
				"entity", change.Entity,
				"op", change.Op,
				"id", change.ID)
		}
	}
}
