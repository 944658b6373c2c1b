package internal

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
)

// Output formats
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// LabeledAmount is one entry of an ordered summary in JSON output.
type LabeledAmount struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// ExpensesOutput is the JSON output of the expenses view.
type ExpensesOutput struct {
	Expenses []Expense      `json:"expenses"`
	Summary  ExpenseSummary `json:"summary"`
}

// ExpenseSummary contains aggregate statistics for a list of expenses
type ExpenseSummary struct {
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// BudgetsOutput is the JSON output of the budgets view.
type BudgetsOutput struct {
	Budgets []Budget `json:"budgets"`
}

// DashboardOutput is the JSON output of the dashboard view.
type DashboardOutput struct {
	CategoryBudgets map[string]CategoryBudget `json:"categoryBudgets"`
	Unbudgeted      []LabeledAmount           `json:"unbudgeted,omitempty"`
	Currency        string                    `json:"currency"`
}

// ReportOutput is the JSON output of the reports view.
type ReportOutput struct {
	Expenses       []Expense       `json:"expenses"`
	CategoryTotals []LabeledAmount `json:"categoryTotals"`
	MonthlyTotals  []LabeledAmount `json:"monthlyTotals"`
	SkippedIDs     []int64         `json:"skippedIds,omitempty"`
	Exported       []string        `json:"exported,omitempty"`
	Currency       string          `json:"currency"`
}

func labeledAmounts(t *Totals) []LabeledAmount {
	out := make([]LabeledAmount, 0, t.Len())
	labels := t.Labels()
	values := t.Values()
	for i := range labels {
		out = append(out, LabeledAmount{Label: labels[i], Amount: values[i]})
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

// PrintExpenses outputs expenses as a table or as JSON
func PrintExpenses(w io.Writer, expenses []Expense, format string, cur Currency) error {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}

	if format == OutputJSON {
		if expenses == nil {
			expenses = []Expense{}
		}
		return writeJSON(w, ExpensesOutput{
			Expenses: expenses,
			Summary:  ExpenseSummary{Count: len(expenses), Total: total, Currency: cur.Code},
		})
	}

	if len(expenses) == 0 {
		fmt.Fprintln(w, "No expenses.")
		return nil
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Date", "Description", "Category", "Amount"})
	for _, e := range expenses {
		t.AppendRow(table.Row{e.ID, e.Date, e.Description, e.Category, cur.Format(e.Amount)})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{"", "", "", text.Bold.Sprint("Total"), text.Bold.Sprint(cur.Format(total))})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()
	return nil
}

// PrintBudgets outputs budgets as a table or as JSON
func PrintBudgets(w io.Writer, budgets []Budget, format string, cur Currency) error {
	if format == OutputJSON {
		if budgets == nil {
			budgets = []Budget{}
		}
		return writeJSON(w, BudgetsOutput{Budgets: budgets})
	}

	if len(budgets) == 0 {
		fmt.Fprintln(w, "No budgets.")
		return nil
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Category", "Limit"})
	for _, b := range budgets {
		t.AppendRow(table.Row{b.ID, b.Category, cur.Format(b.Limit)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
	return nil
}

// PrintDashboard outputs the budget comparison. Overspent categories are
// highlighted in red.
func PrintDashboard(w io.Writer, view BudgetView, format string, cur Currency) error {
	if format == OutputJSON {
		out := DashboardOutput{CategoryBudgets: view.Map(), Currency: cur.Code}
		if view.Unbudgeted != nil && view.Unbudgeted.Len() > 0 {
			out.Unbudgeted = labeledAmounts(view.Unbudgeted)
		}
		return writeJSON(w, out)
	}

	if view.Len() == 0 {
		fmt.Fprintln(w, "No budgets.")
	} else {
		t := newTable(w)
		t.AppendHeader(table.Row{"Category", "Budget", "Spent", "Remaining"})
		for _, category := range view.Categories() {
			e, _ := view.Get(category)
			remaining := cur.Format(e.Remaining)
			if e.Remaining.IsNegative() {
				remaining = text.FgRed.Sprint(remaining)
			} else {
				remaining = text.FgGreen.Sprint(remaining)
			}
			t.AppendRow(table.Row{category, cur.Format(e.Budget), cur.Format(e.Spent), remaining})
		}
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight},
			{Number: 3, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
		})
		t.Render()
	}

	if view.Unbudgeted != nil && view.Unbudgeted.Len() > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Spending without a budget:")
		printTotals(w, "Category", view.Unbudgeted, cur)
	}
	return nil
}

// PrintReport outputs category and monthly totals. Each total is shown with
// its share of the overall amount.
func PrintReport(w io.Writer, out ReportOutput, byCategory, byMonth *Totals, format string, cur Currency) error {
	if format == OutputJSON {
		out.CategoryTotals = labeledAmounts(byCategory)
		out.MonthlyTotals = labeledAmounts(byMonth)
		out.Currency = cur.Code
		if out.Expenses == nil {
			out.Expenses = []Expense{}
		}
		return writeJSON(w, out)
	}

	fmt.Fprintf(w, "Loaded %d expenses\n\n", len(out.Expenses))
	if byCategory.Len() > 0 {
		fmt.Fprintln(w, "By category:")
		printTotals(w, "Category", byCategory, cur)
		fmt.Fprintln(w)
	}
	if byMonth.Len() > 0 {
		fmt.Fprintln(w, "By month:")
		printTotals(w, "Month", byMonth, cur)
	}
	if len(out.SkippedIDs) > 0 {
		fmt.Fprintf(w, "\n%s %d expenses with unreadable dates left out of monthly totals\n",
			text.FgYellow.Sprint("Note:"), len(out.SkippedIDs))
	}
	for _, path := range out.Exported {
		fmt.Fprintf(w, "Exported %s\n", path)
	}
	return nil
}

func printTotals(w io.Writer, labelHeader string, totals *Totals, cur Currency) {
	sum := totals.Sum()

	t := newTable(w)
	t.AppendHeader(table.Row{labelHeader, "Amount", "Share"})
	labels := totals.Labels()
	values := totals.Values()
	for i := range labels {
		share := "-"
		if !sum.IsZero() {
			share = values[i].Div(sum).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
		}
		t.AppendRow(table.Row{labels[i], cur.Format(values[i]), share})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{text.Bold.Sprint("Total"), text.Bold.Sprint(cur.Format(sum)), ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}
