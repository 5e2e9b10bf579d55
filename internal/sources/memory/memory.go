package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"moneyflow/internal/core"
)

// Seed is the initial content of a Store.
type Seed struct {
	Categories   []core.Category
	Transactions []core.Transaction
	Recurring    []core.RecurringExpense
}

const (
	categoriesFile   = "categories.json"
	transactionsFile = "transactions.json"
	recurringFile    = "recurring.json"
)

// Store keeps everything in insertion order behind a mutex.
type Store struct {
	mu           sync.Mutex
	categories   []core.Category
	transactions []core.Transaction
	recurring    []core.RecurringExpense
	commits      map[string]string // recurringID|month -> transaction id
	now          func() time.Time
}

func New(seed Seed) *Store {
	return &Store{
		categories:   append([]core.Category(nil), seed.Categories...),
		transactions: append([]core.Transaction(nil), seed.Transactions...),
		recurring:    append([]core.RecurringExpense(nil), seed.Recurring...),
		commits:      make(map[string]string),
		now:          time.Now,
	}
}

// NewFromFS seeds a Store from categories.json, transactions.json and
// recurring.json in fsys. Missing files leave that collection empty.
func NewFromFS(fsys fs.FS) (*Store, error) {
	var seed Seed
	if err := readJSON(fsys, categoriesFile, &seed.Categories); err != nil {
		return nil, err
	}
	if err := readJSON(fsys, transactionsFile, &seed.Transactions); err != nil {
		return nil, err
	}
	if err := readJSON(fsys, recurringFile, &seed.Recurring); err != nil {
		return nil, err
	}
	return New(seed), nil
}

// NewFromDir is NewFromFS over a directory on disk.
func NewFromDir(dir string) (*Store, error) {
	return NewFromFS(os.DirFS(dir))
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category{}, s.categories...), nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = core.NewClientID()
	}
	if c.CreatedAt == "" {
		c.CreatedAt = s.timestamp()
	}
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == c.ID {
			if c.CreatedAt == "" {
				c.CreatedAt = s.categories[i].CreatedAt
			}
			s.categories[i] = c
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("category %s: %w", c.ID, core.ErrNotFound)
}

// DeleteCategory removes the category only; transactions keep pointing at
// the old id.
func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction{}, s.transactions...), nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertTransaction(t), nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == t.ID {
			if t.CreatedAt == "" {
				t.CreatedAt = s.transactions[i].CreatedAt
			}
			s.transactions[i] = t
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, core.ErrNotFound)
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

func (s *Store) ListRecurringExpensesForMonth(_ context.Context, month string) ([]core.RecurringExpenseForMonth, error) {
	m, ok := core.ParseMonthKey(month)
	if !ok {
		return nil, fmt.Errorf("month %q: %w", month, core.ErrInvalidDate)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.RecurringExpenseForMonth{}
	for _, r := range s.recurring {
		if !r.ActiveIn(m) {
			continue
		}
		_, committed := s.commits[commitKey(r.ID, month)]
		out = append(out, r.ForMonth(m, committed))
	}
	return out, nil
}

func (s *Store) CreateRecurringExpense(_ context.Context, r core.RecurringExpense) (core.RecurringExpense, error) {
	if err := r.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = core.NewClientID()
	}
	if r.Date == "" {
		r.Date = core.DateOf(s.now()).String()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = s.timestamp()
	}
	s.recurring = append(s.recurring, r)
	return r, nil
}

func (s *Store) DeleteRecurringExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurring {
		if s.recurring[i].ID == id {
			s.recurring = append(s.recurring[:i], s.recurring[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("recurring expense %s: %w", id, core.ErrNotFound)
}

func (s *Store) CommitRecurringExpense(_ context.Context, recurringID, month string, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := commitKey(recurringID, month)
	if _, ok := s.commits[key]; ok {
		return core.Transaction{}, core.ErrAlreadyCommitted
	}
	found := false
	for _, r := range s.recurring {
		if r.ID == recurringID {
			found = true
			break
		}
	}
	if !found {
		return core.Transaction{}, fmt.Errorf("recurring expense %s: %w", recurringID, core.ErrNotFound)
	}
	t = s.insertTransaction(t)
	s.commits[key] = t.ID
	return t, nil
}

func (s *Store) insertTransaction(t core.Transaction) core.Transaction {
	if t.ID == "" {
		t.ID = core.NewClientID()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = s.timestamp()
	}
	s.transactions = append(s.transactions, t)
	return t
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func commitKey(recurringID, month string) string {
	return recurringID + "|" + month
}

func readJSON(fsys fs.FS, name string, dst any) error {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
