package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrMissingFields blocks expense creation when a form field is empty.
	ErrMissingFields = errors.New("please fill in all fields")
	// ErrInvalidAmount is returned for amounts that are not positive numbers.
	ErrInvalidAmount = errors.New("amount must be a positive number")
	// ErrUnknownRoute is returned by the navigator for paths it does not know.
	ErrUnknownRoute = errors.New("unknown route")
	// ErrNeedsInput is returned when navigating to a view that cannot run without arguments.
	ErrNeedsInput = errors.New("view needs input")
)

// IsInputError reports whether err was caused by what the user typed rather
// than by a remote call. Remote failures are logged where they happen.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrUnknownRoute) ||
		errors.Is(err, ErrNeedsInput) ||
		errors.Is(err, ErrUnknownFormat)
}

type authAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, name, email, password string) error
}

type expenseAPI interface {
	ListExpenses(ctx context.Context) ([]Expense, error)
	CreateExpense(ctx context.Context, e NewExpense) (*Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
}

type budgetAPI interface {
	ListBudgets(ctx context.Context) ([]Budget, error)
	CreateBudget(ctx context.Context, b NewBudget) (*Budget, error)
}

type dashboardAPI interface {
	GetDashboardSummary(ctx context.Context) (map[string]CategoryBudget, error)
	ListBudgets(ctx context.Context) ([]Budget, error)
	ListExpenses(ctx context.Context) ([]Expense, error)
}

type reportAPI interface {
	GetReportData(ctx context.Context) (*Report, error)
}

// API is everything the views need from the remote service. *Client implements it.
type API interface {
	authAPI
	expenseAPI
	budgetAPI
	dashboardAPI
	reportAPI
}

var _ API = (*Client)(nil)

func viewLogger(log *logrus.Logger, view string) *logrus.Entry {
	if log == nil {
		log = discardLogger()
	}
	return log.WithField(FieldView, view)
}

// HomeView shows whether a user is logged in.
type HomeView struct {
	session *Session
}

func NewHomeView(session *Session) *HomeView {
	return &HomeView{session: session}
}

// Status returns the one-line authentication state.
func (v *HomeView) Status() string {
	if v.session.IsAuthenticated() {
		return "Logged in. Available views: dashboard, expenses, budgets, reports. Use 'logout' to sign out."
	}
	return "Not logged in. Use 'login' or 'register' to get started."
}

// Logout clears the session.
func (v *HomeView) Logout() {
	v.session.Logout()
}

// LoginView exchanges credentials for a token and stores it in the session.
type LoginView struct {
	api     authAPI
	session *Session
	log     *logrus.Entry
}

func NewLoginView(api authAPI, session *Session, log *logrus.Logger) *LoginView {
	return &LoginView{api: api, session: session, log: viewLogger(log, "login")}
}

// Submit logs in. The session is only touched on success.
func (v *LoginView) Submit(ctx context.Context, email, password string) error {
	token, err := v.api.Login(ctx, email, password)
	if err != nil {
		v.log.WithError(err).Error("Login.Submit.Error")
		return err
	}
	v.session.Login(token)
	v.log.Info("Login.Submit.Complete")
	return nil
}

// RegisterView creates an account. There is no client-side validation.
type RegisterView struct {
	api authAPI
	log *logrus.Entry
}

func NewRegisterView(api authAPI, log *logrus.Logger) *RegisterView {
	return &RegisterView{api: api, log: viewLogger(log, "register")}
}

func (v *RegisterView) Submit(ctx context.Context, name, email, password string) error {
	if err := v.api.Register(ctx, name, email, password); err != nil {
		v.log.WithError(err).Error("Register.Submit.Error")
		return err
	}
	v.log.Info("Register.Submit.Complete")
	return nil
}

// ExpenseForm holds the raw values typed by the user.
type ExpenseForm struct {
	Description string
	Amount      string
	Category    string
	Date        string
}

// Validate checks the form and converts it to a create payload.
func (f ExpenseForm) Validate() (NewExpense, error) {
	if strings.TrimSpace(f.Description) == "" || strings.TrimSpace(f.Amount) == "" ||
		strings.TrimSpace(f.Category) == "" || strings.TrimSpace(f.Date) == "" {
		return NewExpense{}, ErrMissingFields
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(f.Amount))
	if err != nil || !amount.IsPositive() {
		return NewExpense{}, fmt.Errorf("%w: %q", ErrInvalidAmount, f.Amount)
	}

	day, err := ParseDay(f.Date)
	if err != nil {
		return NewExpense{}, err
	}

	return NewExpense{
		Description: strings.TrimSpace(f.Description),
		Amount:      amount,
		Category:    strings.TrimSpace(f.Category),
		Date:        day.Format(DateLayout),
	}, nil
}

// ExpensesView lists, adds and deletes expenses. It keeps the last loaded
// list; a failed call leaves it untouched.
type ExpensesView struct {
	api     expenseAPI
	log     *logrus.Entry
	records []Expense

	Filter ExpenseFilter
}

func NewExpensesView(api expenseAPI, log *logrus.Logger) *ExpensesView {
	return &ExpensesView{api: api, log: viewLogger(log, "expenses")}
}

// Load fetches the expense list.
func (v *ExpensesView) Load(ctx context.Context) error {
	records, err := v.api.ListExpenses(ctx)
	if err != nil {
		v.log.WithError(err).Error("Expenses.Load.Error")
		return err
	}
	v.records = records
	v.log.WithField(FieldCount, len(records)).Debug("Expenses.Load.Complete")
	return nil
}

// Add validates the form, creates the expense and reloads the list.
// A form with missing fields never reaches the server.
func (v *ExpensesView) Add(ctx context.Context, form ExpenseForm) error {
	payload, err := form.Validate()
	if err != nil {
		return err
	}
	if _, err := v.api.CreateExpense(ctx, payload); err != nil {
		v.log.WithError(err).Error("Expenses.Add.Error")
		return err
	}
	return v.Load(ctx)
}

// Delete removes an expense and reloads the list.
func (v *ExpensesView) Delete(ctx context.Context, id int64) error {
	if err := v.api.DeleteExpense(ctx, id); err != nil {
		v.log.WithError(err).WithField("id", id).Error("Expenses.Delete.Error")
		return err
	}
	return v.Load(ctx)
}

// Records returns the loaded expenses, unfiltered.
func (v *ExpensesView) Records() []Expense {
	return v.records
}

// Visible returns the loaded expenses that pass the current filter.
func (v *ExpensesView) Visible() []Expense {
	return FilterExpenses(v.records, v.Filter)
}

// BudgetsView lists and adds budgets.
type BudgetsView struct {
	api     budgetAPI
	log     *logrus.Entry
	records []Budget
}

func NewBudgetsView(api budgetAPI, log *logrus.Logger) *BudgetsView {
	return &BudgetsView{api: api, log: viewLogger(log, "budgets")}
}

func (v *BudgetsView) Load(ctx context.Context) error {
	records, err := v.api.ListBudgets(ctx)
	if err != nil {
		v.log.WithError(err).Error("Budgets.Load.Error")
		return err
	}
	v.records = records
	return nil
}

// Add creates a budget and reloads the list. Values are sent as given.
func (v *BudgetsView) Add(ctx context.Context, b NewBudget) error {
	if _, err := v.api.CreateBudget(ctx, b); err != nil {
		v.log.WithError(err).Error("Budgets.Add.Error")
		return err
	}
	return v.Load(ctx)
}

func (v *BudgetsView) Records() []Budget {
	return v.records
}

// DashboardView shows budget, spent and remaining per category.
type DashboardView struct {
	api  dashboardAPI
	log  *logrus.Entry
	view BudgetView
}

func NewDashboardView(api dashboardAPI, log *logrus.Logger) *DashboardView {
	return &DashboardView{
		api:  api,
		log:  viewLogger(log, "dashboard"),
		view: BudgetViewFromMap(nil),
	}
}

// Load uses the server-computed summary.
func (v *DashboardView) Load(ctx context.Context) error {
	summary, err := v.api.GetDashboardSummary(ctx)
	if err != nil {
		v.log.WithError(err).Error("Dashboard.Load.Error")
		return err
	}
	v.view = BudgetViewFromMap(summary)
	return nil
}

// LoadLocal derives the summary from the budget and expense lists. The two
// lists are fetched concurrently, each with a single request.
func (v *DashboardView) LoadLocal(ctx context.Context) error {
	var budgets []Budget
	var expenses []Expense

	// No WithContext: a failing fetch must not cancel the other one
	var g errgroup.Group
	g.Go(func() error {
		var err error
		budgets, err = v.api.ListBudgets(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = v.api.ListExpenses(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		v.log.WithError(err).Error("Dashboard.LoadLocal.Error")
		return err
	}

	v.view = CategoryBudgetView(budgets, expenses)
	return nil
}

func (v *DashboardView) View() BudgetView {
	return v.view
}

// ReportsView loads the report expenses and derives category and month totals.
type ReportsView struct {
	api        reportAPI
	log        *logrus.Entry
	expenses   []Expense
	byCategory *Totals
	byMonth    *Totals
	skipped    []InvalidDate
}

func NewReportsView(api reportAPI, log *logrus.Logger) *ReportsView {
	return &ReportsView{
		api:        api,
		log:        viewLogger(log, "reports"),
		byCategory: NewTotals(),
		byMonth:    NewTotals(),
	}
}

// Load fetches the report and recomputes the totals. Records with
// unreadable dates are logged and left out of the monthly totals.
func (v *ReportsView) Load(ctx context.Context) error {
	report, err := v.api.GetReportData(ctx)
	if err != nil {
		v.log.WithError(err).Error("Reports.Load.Error")
		return err
	}
	if v.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		v.log.Debugf("Reports.Load.Response\n%s", spew.Sdump(report))
	}

	v.expenses = report.Expenses
	v.byCategory = GroupByCategory(report.Expenses)
	v.byMonth, v.skipped = GroupByMonth(report.Expenses)
	for _, s := range v.skipped {
		v.log.WithError(s.Err).WithField("id", s.Expense.ID).Warn("Reports.Load.InvalidDate")
	}
	return nil
}

func (v *ReportsView) Expenses() []Expense {
	return v.expenses
}

func (v *ReportsView) ByCategory() *Totals {
	return v.byCategory
}

func (v *ReportsView) ByMonth() *Totals {
	return v.byMonth
}

func (v *ReportsView) Skipped() []InvalidDate {
	return v.skipped
}

// Export writes the loaded expenses for every target and returns the
// written paths. It stops at the first failing target.
func (v *ReportsView) Export(targets []ExportTarget) ([]string, error) {
	var written []string
	for _, target := range targets {
		path, err := ExportTo(target.Format, target.Dir, v.expenses)
		if err != nil {
			v.log.WithError(err).Error("Reports.Export.Error")
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// Routes maps the navigation paths to view names.
var Routes = map[string]string{
	"/":          "home",
	"/login":     "login",
	"/register":  "register",
	"/dashboard": "dashboard",
	"/expenses":  "expenses",
	"/budgets":   "budgets",
	"/reports":   "reports",
}

// ResolveRoute returns the view name for a path. Trailing slashes are ignored.
func ResolveRoute(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p != "/" {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	view, ok := Routes[p]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, path)
	}
	return view, nil
}
