package internal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day format used on the wire and on the command line.
const DateLayout = "2006-01-02"

// Expense is a single expense record as returned by the API.
// Records are never edited in place: they are created or deleted.
type Expense struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"` // YYYY-MM-DD or RFC 3339, as sent by the server
}

// Day parses the record date to a calendar day (UTC midnight).
func (e Expense) Day() (time.Time, error) {
	return ParseDay(e.Date)
}

// NewExpense is the payload for creating an expense.
type NewExpense struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
}

// Budget is a spending limit for one category.
type Budget struct {
	ID       int64           `json:"id"`
	Category string          `json:"category"`
	Limit    decimal.Decimal `json:"limit"`
}

// NewBudget is the payload for creating a budget.
type NewBudget struct {
	Category string          `json:"category"`
	Limit    decimal.Decimal `json:"limit"`
}

// CategoryBudget is the budget/spent/remaining triple shown on the dashboard.
// Remaining goes negative on overspend.
type CategoryBudget struct {
	Budget    decimal.Decimal `json:"budget"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
}

// Report is the payload of the reports endpoint.
type Report struct {
	Expenses []Expense `json:"expenses"`
}

// ErrInvalidDate is returned for dates that are neither YYYY-MM-DD nor RFC 3339.
var ErrInvalidDate = errors.New("invalid date")

// DefaultCategories are the categories offered when nothing else is configured.
var DefaultCategories = []string{"Food", "Transport", "Entertainment"}

// ParseDay accepts a plain calendar date or an RFC 3339 timestamp and
// truncates it to the calendar day.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %w", ErrInvalidDate, s, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
