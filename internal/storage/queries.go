package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Category struct {
	ID        string
	Name      string
	Color     string
	Type      string
	CreatedAt string
}

type Transaction struct {
	ID         string
	Amount     float64
	Currency   string
	CategoryID string
	Note       string
	Date       string
	CreatedAt  string
}

type RecurringExpense struct {
	ID          string
	CategoryID  string
	Amount      float64
	Currency    string
	DayOfMonth  int64
	Date        string
	Description string
	CreatedAt   string
}

const listCategories = `SELECT id, name, color, type, created_at FROM categories ORDER BY seq`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Category{}
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name, &i.Color, &i.Type, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const createCategory = `INSERT INTO categories (id, name, color, type, created_at) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateCategory(ctx context.Context, arg Category) error {
	_, err := q.db.ExecContext(ctx, createCategory, arg.ID, arg.Name, arg.Color, arg.Type, arg.CreatedAt)
	return err
}

const updateCategory = `UPDATE categories SET name = ?, color = ?, type = ? WHERE id = ?
RETURNING id, name, color, type, created_at`

func (q *Queries) UpdateCategory(ctx context.Context, arg Category) (Category, error) {
	row := q.db.QueryRowContext(ctx, updateCategory, arg.Name, arg.Color, arg.Type, arg.ID)
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.Color, &i.Type, &i.CreatedAt)
	return i, err
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listTransactions = `SELECT id, amount, currency, category_id, note, date, created_at FROM transactions ORDER BY seq`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Transaction{}
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(&i.ID, &i.Amount, &i.Currency, &i.CategoryID, &i.Note, &i.Date, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const createTransaction = `INSERT INTO transactions (id, amount, currency, category_id, note, date, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID, arg.Amount, arg.Currency, arg.CategoryID, arg.Note, arg.Date, arg.CreatedAt)
	return err
}

const updateTransaction = `UPDATE transactions SET amount = ?, currency = ?, category_id = ?, note = ?, date = ?
WHERE id = ?
RETURNING id, amount, currency, category_id, note, date, created_at`

func (q *Queries) UpdateTransaction(ctx context.Context, arg Transaction) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, updateTransaction,
		arg.Amount, arg.Currency, arg.CategoryID, arg.Note, arg.Date, arg.ID)
	var i Transaction
	err := row.Scan(&i.ID, &i.Amount, &i.Currency, &i.CategoryID, &i.Note, &i.Date, &i.CreatedAt)
	return i, err
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listRecurringExpenses = `SELECT id, category_id, amount, currency, day_of_month, date, description, created_at
FROM recurring_expenses ORDER BY seq`

func (q *Queries) ListRecurringExpenses(ctx context.Context) ([]RecurringExpense, error) {
	rows, err := q.db.QueryContext(ctx, listRecurringExpenses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []RecurringExpense{}
	for rows.Next() {
		var i RecurringExpense
		if err := rows.Scan(&i.ID, &i.CategoryID, &i.Amount, &i.Currency, &i.DayOfMonth, &i.Date, &i.Description, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const createRecurringExpense = `INSERT INTO recurring_expenses (id, category_id, amount, currency, day_of_month, date, description, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateRecurringExpense(ctx context.Context, arg RecurringExpense) error {
	_, err := q.db.ExecContext(ctx, createRecurringExpense,
		arg.ID, arg.CategoryID, arg.Amount, arg.Currency, arg.DayOfMonth, arg.Date, arg.Description, arg.CreatedAt)
	return err
}

const recurringExpenseExists = `SELECT COUNT(*) FROM recurring_expenses WHERE id = ?`

func (q *Queries) RecurringExpenseExists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, recurringExpenseExists, id).Scan(&n)
	return n > 0, err
}

const deleteRecurringExpense = `DELETE FROM recurring_expenses WHERE id = ?`

func (q *Queries) DeleteRecurringExpense(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteRecurringExpense, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listCommittedForMonth = `SELECT recurring_id FROM recurring_commits WHERE month = ?`

func (q *Queries) ListCommittedForMonth(ctx context.Context, month string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listCommittedForMonth, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const isCommitted = `SELECT COUNT(*) FROM recurring_commits WHERE recurring_id = ? AND month = ?`

func (q *Queries) IsCommitted(ctx context.Context, recurringID, month string) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, isCommitted, recurringID, month).Scan(&n)
	return n > 0, err
}

const createCommit = `INSERT INTO recurring_commits (recurring_id, month, transaction_id, committed_at) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateCommit(ctx context.Context, recurringID, month, transactionID, committedAt string) error {
	_, err := q.db.ExecContext(ctx, createCommit, recurringID, month, transactionID, committedAt)
	return err
}
