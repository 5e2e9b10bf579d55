package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"moneyflow/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the local embedded store. It implements ports.Source
// and ports.RecurringCommitter.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, len(rows))
	for i, c := range rows {
		out[i] = categoryFromRow(c)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if c.ID == "" {
		c.ID = core.NewClientID()
	}
	if c.CreatedAt == "" {
		c.CreatedAt = r.timestamp()
	}
	if err := r.queries.CreateCategory(ctx, categoryToRow(c)); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	slog.InfoContext(ctx, "Category saved to SQLite", "id", c.ID, "name", c.Name, "type", c.Type)
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	row, err := r.queries.UpdateCategory(ctx, categoryToRow(c))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %s: %w", c.ID, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	return categoryFromRow(row), nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	n, err := r.queries.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, len(rows))
	for i, t := range rows {
		out[i] = transactionFromRow(t)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t = r.withDefaults(t)
	if err := r.queries.CreateTransaction(ctx, transactionToRow(t)); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"amount", t.Amount,
		"currency", t.Currency,
		"category_id", t.CategoryID,
		"date", t.Date)
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	row, err := r.queries.UpdateTransaction(ctx, transactionToRow(t))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return transactionFromRow(row), nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListRecurringExpensesForMonth(ctx context.Context, month string) ([]core.RecurringExpenseForMonth, error) {
	m, ok := core.ParseMonthKey(month)
	if !ok {
		return nil, fmt.Errorf("month %q: %w", month, core.ErrInvalidDate)
	}
	rows, err := r.queries.ListRecurringExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring expenses: %w", err)
	}
	committedIDs, err := r.queries.ListCommittedForMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("list recurring commits: %w", err)
	}
	committed := make(map[string]bool, len(committedIDs))
	for _, id := range committedIDs {
		committed[id] = true
	}

	out := []core.RecurringExpenseForMonth{}
	for _, row := range rows {
		re := recurringFromRow(row)
		if !re.ActiveIn(m) {
			continue
		}
		out = append(out, re.ForMonth(m, committed[re.ID]))
	}
	return out, nil
}

func (r *SQLiteRepository) CreateRecurringExpense(ctx context.Context, re core.RecurringExpense) (core.RecurringExpense, error) {
	if err := re.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}
	if re.ID == "" {
		re.ID = core.NewClientID()
	}
	if re.Date == "" {
		re.Date = core.DateOf(r.now()).String()
	}
	if re.CreatedAt == "" {
		re.CreatedAt = r.timestamp()
	}
	if err := r.queries.CreateRecurringExpense(ctx, recurringToRow(re)); err != nil {
		return core.RecurringExpense{}, fmt.Errorf("create recurring expense: %w", err)
	}
	return re, nil
}

func (r *SQLiteRepository) DeleteRecurringExpense(ctx context.Context, id string) error {
	n, err := r.queries.DeleteRecurringExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete recurring expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recurring expense %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// CommitRecurringExpense inserts t and the commit marker in one database
// transaction.
func (r *SQLiteRepository) CommitRecurringExpense(ctx context.Context, recurringID, month string, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t = r.withDefaults(t)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	exists, err := q.RecurringExpenseExists(ctx, recurringID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("check recurring expense: %w", err)
	}
	if !exists {
		return core.Transaction{}, fmt.Errorf("recurring expense %s: %w", recurringID, core.ErrNotFound)
	}
	done, err := q.IsCommitted(ctx, recurringID, month)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("check recurring commit: %w", err)
	}
	if done {
		return core.Transaction{}, core.ErrAlreadyCommitted
	}
	if err := q.CreateTransaction(ctx, transactionToRow(t)); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	if err := q.CreateCommit(ctx, recurringID, month, t.ID, r.timestamp()); err != nil {
		return core.Transaction{}, fmt.Errorf("create recurring commit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Recurring expense committed",
		"recurring_id", recurringID,
		"month", month,
		"transaction_id", t.ID)
	return t, nil
}

func (r *SQLiteRepository) withDefaults(t core.Transaction) core.Transaction {
	if t.ID == "" {
		t.ID = core.NewClientID()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = r.timestamp()
	}
	return t
}

func (r *SQLiteRepository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

func categoryFromRow(c Category) core.Category {
	return core.Category{ID: c.ID, Name: c.Name, Color: c.Color, Type: core.CategoryType(c.Type), CreatedAt: c.CreatedAt}
}

func categoryToRow(c core.Category) Category {
	return Category{ID: c.ID, Name: c.Name, Color: c.Color, Type: string(c.Type), CreatedAt: c.CreatedAt}
}

func transactionFromRow(t Transaction) core.Transaction {
	return core.Transaction{
		ID:         t.ID,
		Amount:     t.Amount,
		Currency:   t.Currency,
		CategoryID: t.CategoryID,
		Note:       t.Note,
		Date:       t.Date,
		CreatedAt:  t.CreatedAt,
	}
}

func transactionToRow(t core.Transaction) Transaction {
	return Transaction{
		ID:         t.ID,
		Amount:     t.Amount,
		Currency:   t.Currency,
		CategoryID: t.CategoryID,
		Note:       t.Note,
		Date:       t.Date,
		CreatedAt:  t.CreatedAt,
	}
}

func recurringFromRow(r RecurringExpense) core.RecurringExpense {
	return core.RecurringExpense{
		ID:          r.ID,
		CategoryID:  r.CategoryID,
		Amount:      r.Amount,
		Currency:    r.Currency,
		DayOfMonth:  int(r.DayOfMonth),
		Date:        r.Date,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

func recurringToRow(r core.RecurringExpense) RecurringExpense {
	return RecurringExpense{
		ID:          r.ID,
		CategoryID:  r.CategoryID,
		Amount:      r.Amount,
		Currency:    r.Currency,
		DayOfMonth:  int64(r.DayOfMonth),
		Date:        r.Date,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}
