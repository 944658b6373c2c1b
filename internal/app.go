package internal

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// App wires the session, the API and the views to an output stream. Each
// method corresponds to one view of the application and renders its result.
type App struct {
	Session  *Session
	API      API
	Log      *logrus.Logger
	Out      io.Writer
	Format   string
	Currency Currency
	Config   *Config
}

// Home prints the authentication state.
func (a *App) Home() error {
	fmt.Fprintln(a.Out, NewHomeView(a.Session).Status())
	return nil
}

// Login authenticates and then shows the dashboard.
func (a *App) Login(ctx context.Context, email, password string) error {
	if err := NewLoginView(a.API, a.Session, a.Log).Submit(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "Logged in.")
	return a.Dashboard(ctx, false)
}

// Logout clears the stored token.
func (a *App) Logout() error {
	NewHomeView(a.Session).Logout()
	fmt.Fprintln(a.Out, "Logged out.")
	return nil
}

// Register creates an account and returns to the home view.
func (a *App) Register(ctx context.Context, name, email, password string) error {
	if err := NewRegisterView(a.API, a.Log).Submit(ctx, name, email, password); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "Registered. You can now log in.")
	return a.Home()
}

// Dashboard shows the per-category budget comparison. With local set, the
// comparison is computed from the budget and expense lists instead of the
// dashboard endpoint.
func (a *App) Dashboard(ctx context.Context, local bool) error {
	v := NewDashboardView(a.API, a.Log)
	load := v.Load
	if local {
		load = v.LoadLocal
	}
	err := load(ctx)
	if renderErr := PrintDashboard(a.Out, v.View(), a.Format, a.Currency); renderErr != nil {
		return renderErr
	}
	return err
}

// Expenses lists expenses, optionally filtered by category and day.
func (a *App) Expenses(ctx context.Context, filter ExpenseFilter) error {
	v := NewExpensesView(a.API, a.Log)
	v.Filter = filter
	err := v.Load(ctx)
	if renderErr := PrintExpenses(a.Out, v.Visible(), a.Format, a.Currency); renderErr != nil {
		return renderErr
	}
	return err
}

// AddExpense validates and creates an expense, then shows the refreshed list.
func (a *App) AddExpense(ctx context.Context, form ExpenseForm) error {
	if a.Config != nil && form.Category != "" && !a.Config.IsKnownCategory(form.Category) {
		a.Log.WithField("category", form.Category).Warn("Expenses.Add.UnknownCategory")
	}
	v := NewExpensesView(a.API, a.Log)
	if err := v.Add(ctx, form); err != nil {
		return err
	}
	return PrintExpenses(a.Out, v.Visible(), a.Format, a.Currency)
}

// DeleteExpense deletes an expense, then shows the refreshed list.
func (a *App) DeleteExpense(ctx context.Context, id int64) error {
	v := NewExpensesView(a.API, a.Log)
	if err := v.Delete(ctx, id); err != nil {
		return err
	}
	return PrintExpenses(a.Out, v.Visible(), a.Format, a.Currency)
}

// Budgets lists budgets.
func (a *App) Budgets(ctx context.Context) error {
	v := NewBudgetsView(a.API, a.Log)
	err := v.Load(ctx)
	if renderErr := PrintBudgets(a.Out, v.Records(), a.Format, a.Currency); renderErr != nil {
		return renderErr
	}
	return err
}

// AddBudget creates a budget, then shows the refreshed list.
func (a *App) AddBudget(ctx context.Context, b NewBudget) error {
	v := NewBudgetsView(a.API, a.Log)
	if err := v.Add(ctx, b); err != nil {
		return err
	}
	return PrintBudgets(a.Out, v.Records(), a.Format, a.Currency)
}

// Reports shows category and monthly totals and exports the loaded
// expenses to the requested targets.
func (a *App) Reports(ctx context.Context, exports []ExportTarget) error {
	v := NewReportsView(a.API, a.Log)
	err := v.Load(ctx)

	out := ReportOutput{Expenses: v.Expenses()}
	for _, s := range v.Skipped() {
		out.SkippedIDs = append(out.SkippedIDs, s.Expense.ID)
	}
	if err == nil && len(exports) > 0 {
		written, exportErr := v.Export(exports)
		out.Exported = written
		err = exportErr
	}

	if renderErr := PrintReport(a.Out, out, v.ByCategory(), v.ByMonth(), a.Format, a.Currency); renderErr != nil {
		return renderErr
	}
	return err
}

// Open navigates to the view registered for path. Only views without
// required input can be opened this way.
func (a *App) Open(ctx context.Context, path string) error {
	view, err := ResolveRoute(path)
	if err != nil {
		return err
	}
	switch view {
	case "home":
		return a.Home()
	case "dashboard":
		return a.Dashboard(ctx, false)
	case "expenses":
		return a.Expenses(ctx, ExpenseFilter{})
	case "budgets":
		return a.Budgets(ctx)
	case "reports":
		return a.Reports(ctx, nil)
	default:
		return fmt.Errorf("%w: run the '%s' command instead of opening %s", ErrNeedsInput, view, path)
	}
}

// ParseFilterDate parses the --date flag. Empty means no date filter.
func ParseFilterDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	day, err := ParseDay(s)
	if err != nil {
		return nil, err
	}
	return &day, nil
}
