package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	CategoryExpense CategoryType = "expense"
	CategoryIncome  CategoryType = "income"
)

type (
	CategoryType string

	Category struct {
		ID        string       `json:"id"`
		Name      string       `json:"name"`
		Color     string       `json:"color"`
		Type      CategoryType `json:"type"`
		CreatedAt string       `json:"createdAt"`
	}

	// Transaction is a single money movement. CategoryID may reference a
	// category that no longer exists.
	Transaction struct {
		ID         string  `json:"id"`
		Amount     float64 `json:"amount"`
		Currency   string  `json:"currency"`
		CategoryID string  `json:"categoryId"`
		Note       string  `json:"note,omitempty"`
		Date       string  `json:"date"`
		CreatedAt  string  `json:"createdAt"`
	}

	// RecurringExpense is a monthly template that materializes into a
	// Transaction on DayOfMonth.
	RecurringExpense struct {
		ID          string  `json:"id"`
		CategoryID  string  `json:"categoryId"`
		Amount      float64 `json:"amount"`
		Currency    string  `json:"currency,omitempty"`
		DayOfMonth  int     `json:"dayOfMonth"`
		Date        string  `json:"date"`
		Description string  `json:"description"`
		CreatedAt   string  `json:"createdAt,omitempty"`
	}

	// RecurringExpenseForMonth is a template resolved against a month.
	RecurringExpenseForMonth struct {
		RecurringExpense
		ScheduledDate string `json:"scheduledDate"`
		Committed     bool   `json:"committed"`
	}
)

var (
	ErrNotFound          = errors.New("not found")
	ErrEmptyName         = errors.New("empty name")
	ErrInvalidType       = errors.New("invalid category type")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidCurrency   = errors.New("invalid currency")
	ErrInvalidDayOfMonth = errors.New("invalid day of month")
	ErrEmptyCategory     = errors.New("empty category")
	ErrAlreadyCommitted  = errors.New("recurring expense already committed for month")
	ErrTooLong           = errors.New("value too long")
)

// IsValid reports whether t is one of the known category types.
func (t CategoryType) IsValid() bool {
	return t == CategoryExpense || t == CategoryIncome
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return fmt.Errorf("name (max 100 characters): %w", ErrTooLong)
	}
	if !c.Type.IsValid() {
		return ErrInvalidType
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := validateAmount(t.Amount); err != nil {
		return err
	}
	if !isCurrencyCode(t.Currency) {
		return ErrInvalidCurrency
	}
	if _, ok := ParseISODate(t.Date); !ok {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if len(t.Note) > 500 {
		return fmt.Errorf("note (max 500 characters): %w", ErrTooLong)
	}
	return nil
}

func (r RecurringExpense) Validate() error {
	if err := validateAmount(r.Amount); err != nil {
		return err
	}
	if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
		return ErrInvalidDayOfMonth
	}
	if r.Currency != "" && !isCurrencyCode(r.Currency) {
		return ErrInvalidCurrency
	}
	if strings.TrimSpace(r.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if r.Date != "" {
		if _, ok := ParseISODate(r.Date); !ok {
			return ErrInvalidDate
		}
	}
	if len(r.Description) > 200 {
		return fmt.Errorf("description (max 200 characters): %w", ErrTooLong)
	}
	return nil
}

// CurrencyOr returns the template currency, or def when none was set.
func (r RecurringExpense) CurrencyOr(def string) string {
	if r.Currency == "" {
		return def
	}
	return r.Currency
}

func validateAmount(a float64) error {
	if math.IsNaN(a) || math.IsInf(a, 0) || a <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// CategoryTotal is one row of a ranked category breakdown. A nil
// CategoryID marks the synthetic row that absorbs the tail.
type CategoryTotal struct {
	CategoryID *string `json:"categoryId"`
	Label      string  `json:"label"`
	Total      float64 `json:"total"`
	Color      string  `json:"color,omitempty"`
}

// IsOther reports whether r is the synthetic tail row.
func (r CategoryTotal) IsOther() bool {
	return r.CategoryID == nil
}

// IsValidation reports whether err stems from a failed Validate call.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrEmptyName, ErrInvalidType, ErrInvalidAmount, ErrInvalidDate,
		ErrInvalidCurrency, ErrInvalidDayOfMonth, ErrEmptyCategory, ErrTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
