package internal

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Totals is a label -> amount mapping that remembers the order in which
// labels were first seen.
type Totals struct {
	labels []string
	sums   map[string]decimal.Decimal
}

// NewTotals creates an empty Totals.
func NewTotals() *Totals {
	return &Totals{sums: make(map[string]decimal.Decimal)}
}

// Add adds amount to label, appending label on first use.
func (t *Totals) Add(label string, amount decimal.Decimal) {
	cur, ok := t.sums[label]
	if !ok {
		t.labels = append(t.labels, label)
	}
	t.sums[label] = cur.Add(amount)
}

// Get returns the total for label and whether it is present.
func (t *Totals) Get(label string) (decimal.Decimal, bool) {
	v, ok := t.sums[label]
	return v, ok
}

// Len returns the number of labels.
func (t *Totals) Len() int {
	return len(t.labels)
}

// Labels returns labels in first-seen order.
func (t *Totals) Labels() []string {
	return append([]string(nil), t.labels...)
}

// Values returns totals in the same order as Labels.
func (t *Totals) Values() []decimal.Decimal {
	values := make([]decimal.Decimal, len(t.labels))
	for i, l := range t.labels {
		values[i] = t.sums[l]
	}
	return values
}

// Sum returns the total over all labels.
func (t *Totals) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range t.sums {
		sum = sum.Add(v)
	}
	return sum
}

// InvalidDate is a record that was left out of a date based aggregation.
type InvalidDate struct {
	Expense Expense
	Err     error
}

// GroupByCategory sums amounts per category. Categories that do not occur
// in records are absent from the result.
func GroupByCategory(records []Expense) *Totals {
	totals := NewTotals()
	for _, r := range records {
		totals.Add(r.Category, r.Amount)
	}
	return totals
}

// MonthLabel formats a date as short month and year, e.g. "Jan 2024".
// Labels are always English, whatever the user's locale, so they compare
// equal across machines.
func MonthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

// GroupByMonth sums amounts per month label. Records whose date cannot be
// parsed are skipped and returned so the caller can report them.
func GroupByMonth(records []Expense) (*Totals, []InvalidDate) {
	totals := NewTotals()
	var skipped []InvalidDate
	for _, r := range records {
		day, err := r.Day()
		if err != nil {
			skipped = append(skipped, InvalidDate{Expense: r, Err: err})
			continue
		}
		totals.Add(MonthLabel(day), r.Amount)
	}
	return totals, skipped
}

// ExpenseFilter narrows an expense list. Zero values mean "no filter".
type ExpenseFilter struct {
	Category string
	Date     *time.Time
}

// IsEmpty reports whether the filter lets everything through.
func (f ExpenseFilter) IsEmpty() bool {
	return f.Category == "" && f.Date == nil
}

// Matches reports whether e passes both filters.
func (f ExpenseFilter) Matches(e Expense) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Date != nil {
		day, err := e.Day()
		if err != nil {
			return false
		}
		y1, m1, d1 := day.Date()
		y2, m2, d2 := f.Date.Date()
		if y1 != y2 || m1 != m2 || d1 != d2 {
			return false
		}
	}
	return true
}

// FilterExpenses returns the records matching filter, in input order.
func FilterExpenses(records []Expense, filter ExpenseFilter) []Expense {
	result := make([]Expense, 0, len(records))
	if filter.IsEmpty() {
		return append(result, records...)
	}
	for _, r := range records {
		if filter.Matches(r) {
			result = append(result, r)
		}
	}
	return result
}

// BudgetView is the per-category budget comparison shown on the dashboard.
type BudgetView struct {
	categories []string
	entries    map[string]CategoryBudget

	// Unbudgeted holds spending in categories that have no budget.
	Unbudgeted *Totals
}

// Categories returns the budgeted categories in the order the budgets were listed.
func (v BudgetView) Categories() []string {
	return append([]string(nil), v.categories...)
}

// Get returns the entry for category.
func (v BudgetView) Get(category string) (CategoryBudget, bool) {
	e, ok := v.entries[category]
	return e, ok
}

// Len returns the number of budgeted categories.
func (v BudgetView) Len() int {
	return len(v.categories)
}

// Map returns the entries as a plain map, the same shape the dashboard endpoint returns.
func (v BudgetView) Map() map[string]CategoryBudget {
	m := make(map[string]CategoryBudget, len(v.entries))
	for k, e := range v.entries {
		m[k] = e
	}
	return m
}

// BudgetViewFromMap wraps a server-computed summary. Categories are sorted
// since the map carries no order.
func BudgetViewFromMap(m map[string]CategoryBudget) BudgetView {
	v := BudgetView{entries: make(map[string]CategoryBudget, len(m)), Unbudgeted: NewTotals()}
	for k, e := range m {
		v.entries[k] = e
		v.categories = append(v.categories, k)
	}
	sort.Strings(v.categories)
	return v
}

// CategoryBudgetView compares budgets against expenses. Several budgets for
// the same category add up. Spending without a budget is not part of the
// category list; it is collected in Unbudgeted instead.
func CategoryBudgetView(budgets []Budget, expenses []Expense) BudgetView {
	v := BudgetView{
		entries:    make(map[string]CategoryBudget),
		Unbudgeted: NewTotals(),
	}
	for _, b := range budgets {
		e, ok := v.entries[b.Category]
		if !ok {
			v.categories = append(v.categories, b.Category)
		}
		e.Budget = e.Budget.Add(b.Limit)
		v.entries[b.Category] = e
	}

	spent := GroupByCategory(expenses)
	for _, category := range spent.Labels() {
		amount, _ := spent.Get(category)
		e, ok := v.entries[category]
		if !ok {
			v.Unbudgeted.Add(category, amount)
			continue
		}
		e.Spent = amount
		v.entries[category] = e
	}

	for _, category := range v.categories {
		e := v.entries[category]
		e.Remaining = e.Budget.Sub(e.Spent)
		v.entries[category] = e
	}
	return v
}
