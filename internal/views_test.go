package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

var _ API = (*mockAPI)(nil)

func newMockAPI(t *testing.T) *mockAPI {
	m := &mockAPI{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockAPI) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *mockAPI) Register(ctx context.Context, name, email, password string) error {
	return m.Called(ctx, name, email, password).Error(0)
}

func (m *mockAPI) ListExpenses(ctx context.Context) ([]Expense, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]Expense)
	return records, args.Error(1)
}

func (m *mockAPI) CreateExpense(ctx context.Context, e NewExpense) (*Expense, error) {
	args := m.Called(ctx, e)
	created, _ := args.Get(0).(*Expense)
	return created, args.Error(1)
}

func (m *mockAPI) DeleteExpense(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAPI) ListBudgets(ctx context.Context) ([]Budget, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]Budget)
	return records, args.Error(1)
}

func (m *mockAPI) CreateBudget(ctx context.Context, b NewBudget) (*Budget, error) {
	args := m.Called(ctx, b)
	created, _ := args.Get(0).(*Budget)
	return created, args.Error(1)
}

func (m *mockAPI) GetDashboardSummary(ctx context.Context) (map[string]CategoryBudget, error) {
	args := m.Called(ctx)
	summary, _ := args.Get(0).(map[string]CategoryBudget)
	return summary, args.Error(1)
}

func (m *mockAPI) GetReportData(ctx context.Context) (*Report, error) {
	args := m.Called(ctx)
	report, _ := args.Get(0).(*Report)
	return report, args.Error(1)
}

var errNetwork = errors.New("connection refused")

func TestLoginView_Submit(t *testing.T) {
	t.Run("stores token on success", func(t *testing.T) {
		api := newMockAPI(t)
		session := NewSession(&MemoryStorage{}, nil)
		api.On("Login", mock.Anything, "a@b.c", "pw").Return("tok", nil)

		err := NewLoginView(api, session, nil).Submit(context.Background(), "a@b.c", "pw")

		require.NoError(t, err)
		token, _ := session.Token()
		assert.Equal(t, "tok", token)
	})

	t.Run("leaves session untouched on failure", func(t *testing.T) {
		api := newMockAPI(t)
		session := NewSession(&MemoryStorage{}, nil)
		session.Login("previous")
		api.On("Login", mock.Anything, "a@b.c", "bad").Return("", &APIError{StatusCode: 401})

		err := NewLoginView(api, session, nil).Submit(context.Background(), "a@b.c", "bad")

		assert.Error(t, err)
		token, _ := session.Token()
		assert.Equal(t, "previous", token)
	})
}

func TestRegisterView_SendsValuesAsGiven(t *testing.T) {
	api := newMockAPI(t)
	api.On("Register", mock.Anything, "", "", "").Return(nil)

	assert.NoError(t, NewRegisterView(api, nil).Submit(context.Background(), "", "", ""))
}

func TestHomeView(t *testing.T) {
	session := NewSession(&MemoryStorage{}, nil)
	home := NewHomeView(session)
	assert.Contains(t, home.Status(), "Not logged in")

	session.Login("tok")
	assert.Contains(t, home.Status(), "Logged in")

	home.Logout()
	assert.False(t, session.IsAuthenticated())
}

func TestExpenseForm_Validate(t *testing.T) {
	valid := ExpenseForm{Description: "Lunch", Amount: "12.50", Category: "Food", Date: "2024-01-15"}

	tests := []struct {
		name    string
		modify  func(f *ExpenseForm)
		wantErr error
	}{
		{"valid", func(f *ExpenseForm) {}, nil},
		{"missing description", func(f *ExpenseForm) { f.Description = "" }, ErrMissingFields},
		{"blank amount", func(f *ExpenseForm) { f.Amount = "  " }, ErrMissingFields},
		{"missing category", func(f *ExpenseForm) { f.Category = "" }, ErrMissingFields},
		{"missing date", func(f *ExpenseForm) { f.Date = "" }, ErrMissingFields},
		{"amount not a number", func(f *ExpenseForm) { f.Amount = "abc" }, ErrInvalidAmount},
		{"zero amount", func(f *ExpenseForm) { f.Amount = "0" }, ErrInvalidAmount},
		{"negative amount", func(f *ExpenseForm) { f.Amount = "-5" }, ErrInvalidAmount},
		{"bad date", func(f *ExpenseForm) { f.Date = "15/01/2024" }, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.modify(&form)
			payload, err := form.Validate()
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
				assert.True(t, IsInputError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Lunch", payload.Description)
			assert.True(t, payload.Amount.Equal(amt("12.5")))
			assert.Equal(t, "2024-01-15", payload.Date)
		})
	}
}

func TestExpensesView_AddMissingFieldsSendsNothing(t *testing.T) {
	// No expectations: any call on the mock fails the test
	api := newMockAPI(t)
	v := NewExpensesView(api, nil)

	err := v.Add(context.Background(), ExpenseForm{Description: "Lunch", Amount: "10", Category: "Food"})

	assert.ErrorIs(t, err, ErrMissingFields)
	api.AssertNotCalled(t, "CreateExpense", mock.Anything, mock.Anything)
}

func TestExpensesView_AddRefetches(t *testing.T) {
	api := newMockAPI(t)
	v := NewExpensesView(api, nil)
	created := expense(5, "10", "Food", "2024-01-15")

	api.On("CreateExpense", mock.Anything, mock.MatchedBy(func(e NewExpense) bool {
		return e.Description == "Lunch" && e.Amount.Equal(amt("10")) && e.Category == "Food" && e.Date == "2024-01-15"
	})).Return(&created, nil).Once()
	api.On("ListExpenses", mock.Anything).Return([]Expense{created}, nil).Once()

	err := v.Add(context.Background(), ExpenseForm{Description: "Lunch", Amount: "10", Category: "Food", Date: "2024-01-15"})

	require.NoError(t, err)
	assert.Len(t, v.Records(), 1)
}

func TestExpensesView_DeleteRefetches(t *testing.T) {
	api := newMockAPI(t)
	v := NewExpensesView(api, nil)

	api.On("ListExpenses", mock.Anything).Return([]Expense{
		expense(1, "10", "Food", "2024-01-15"),
		expense(2, "20", "Food", "2024-01-16"),
	}, nil).Once()
	require.NoError(t, v.Load(context.Background()))

	api.On("DeleteExpense", mock.Anything, int64(1)).Return(nil).Once()
	api.On("ListExpenses", mock.Anything).Return([]Expense{
		expense(2, "20", "Food", "2024-01-16"),
	}, nil).Once()

	require.NoError(t, v.Delete(context.Background(), 1))
	require.Len(t, v.Records(), 1)
	assert.Equal(t, int64(2), v.Records()[0].ID)
}

func TestExpensesView_FailureKeepsStaleList(t *testing.T) {
	api := newMockAPI(t)
	v := NewExpensesView(api, nil)

	api.On("ListExpenses", mock.Anything).Return([]Expense{expense(1, "10", "Food", "2024-01-15")}, nil).Once()
	require.NoError(t, v.Load(context.Background()))

	api.On("DeleteExpense", mock.Anything, int64(1)).Return(errNetwork).Once()
	err := v.Delete(context.Background(), 1)

	assert.ErrorIs(t, err, errNetwork)
	assert.False(t, IsInputError(err))
	assert.Len(t, v.Records(), 1, "failed delete must not change the list")

	api.On("ListExpenses", mock.Anything).Return(nil, errNetwork).Once()
	assert.Error(t, v.Load(context.Background()))
	assert.Len(t, v.Records(), 1, "failed reload must not change the list")
}

func TestExpensesView_Visible(t *testing.T) {
	api := newMockAPI(t)
	v := NewExpensesView(api, nil)
	api.On("ListExpenses", mock.Anything).Return([]Expense{
		expense(1, "10", "Food", "2024-01-15"),
		expense(2, "20", "Transport", "2024-01-15"),
	}, nil)
	require.NoError(t, v.Load(context.Background()))

	v.Filter = ExpenseFilter{Category: "Food"}
	visible := v.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, int64(1), visible[0].ID)
	assert.Len(t, v.Records(), 2, "filtering must not drop loaded records")
}

func TestBudgetsView_Add(t *testing.T) {
	api := newMockAPI(t)
	v := NewBudgetsView(api, nil)
	b := NewBudget{Category: "Food", Limit: amt("500")}

	api.On("CreateBudget", mock.Anything, b).Return(nil, nil).Once()
	api.On("ListBudgets", mock.Anything).Return([]Budget{{ID: 1, Category: "Food", Limit: amt("500")}}, nil).Once()

	require.NoError(t, v.Add(context.Background(), b))
	assert.Len(t, v.Records(), 1)
}

func TestBudgetsView_AddFailureSkipsRefetch(t *testing.T) {
	api := newMockAPI(t)
	v := NewBudgetsView(api, nil)
	b := NewBudget{Category: "Food", Limit: amt("500")}

	api.On("CreateBudget", mock.Anything, b).Return(nil, errNetwork).Once()

	assert.ErrorIs(t, v.Add(context.Background(), b), errNetwork)
	api.AssertNotCalled(t, "ListBudgets", mock.Anything)
}

func TestDashboardView_Load(t *testing.T) {
	api := newMockAPI(t)
	v := NewDashboardView(api, nil)
	api.On("GetDashboardSummary", mock.Anything).Return(map[string]CategoryBudget{
		"Food": {Budget: amt("500"), Spent: amt("200"), Remaining: amt("300")},
	}, nil)

	require.NoError(t, v.Load(context.Background()))
	e, ok := v.View().Get("Food")
	require.True(t, ok)
	assert.True(t, e.Remaining.Equal(amt("300")))
}

func TestDashboardView_LoadLocal(t *testing.T) {
	api := newMockAPI(t)
	v := NewDashboardView(api, nil)
	api.On("ListBudgets", mock.Anything).Return([]Budget{{Category: "Food", Limit: amt("500")}}, nil).Once()
	api.On("ListExpenses", mock.Anything).Return([]Expense{
		expense(1, "120", "Food", "2024-01-15"),
		expense(2, "80", "Food", "2024-01-20"),
		expense(3, "15", "Transport", "2024-01-20"),
	}, nil).Once()

	require.NoError(t, v.LoadLocal(context.Background()))

	e, ok := v.View().Get("Food")
	require.True(t, ok)
	assert.True(t, e.Spent.Equal(amt("200")))
	assert.True(t, e.Remaining.Equal(amt("300")))
	unbudgeted, _ := v.View().Unbudgeted.Get("Transport")
	assert.True(t, unbudgeted.Equal(amt("15")))
}

func TestDashboardView_LoadLocalFailureKeepsView(t *testing.T) {
	api := newMockAPI(t)
	v := NewDashboardView(api, nil)
	api.On("GetDashboardSummary", mock.Anything).Return(map[string]CategoryBudget{
		"Food": {Budget: amt("1"), Spent: amt("0"), Remaining: amt("1")},
	}, nil)
	require.NoError(t, v.Load(context.Background()))

	// Both fetches are issued even though one fails
	api.On("ListBudgets", mock.Anything).Return(nil, errNetwork).Once()
	api.On("ListExpenses", mock.Anything).Return([]Expense{}, nil).Once()

	assert.ErrorIs(t, v.LoadLocal(context.Background()), errNetwork)
	assert.Equal(t, 1, v.View().Len())
}

func TestReportsView_Load(t *testing.T) {
	api := newMockAPI(t)
	v := NewReportsView(api, nil)
	api.On("GetReportData", mock.Anything).Return(&Report{Expenses: []Expense{
		expense(1, "50", "Food", "2024-01-15"),
		expense(2, "30", "Transport", "2024-01-20"),
		expense(3, "10", "Food", "whenever"),
	}}, nil)

	require.NoError(t, v.Load(context.Background()))

	assert.Len(t, v.Expenses(), 3)
	food, _ := v.ByCategory().Get("Food")
	assert.True(t, food.Equal(amt("60")))
	jan, _ := v.ByMonth().Get("Jan 2024")
	assert.True(t, jan.Equal(amt("80")))
	require.Len(t, v.Skipped(), 1)
	assert.Equal(t, int64(3), v.Skipped()[0].Expense.ID)
}

func TestReportsView_Export(t *testing.T) {
	api := newMockAPI(t)
	v := NewReportsView(api, nil)
	api.On("GetReportData", mock.Anything).Return(&Report{Expenses: []Expense{
		expense(1, "50", "Food", "2024-01-15"),
	}}, nil)
	require.NoError(t, v.Load(context.Background()))

	dir := t.TempDir()
	written, err := v.Export([]ExportTarget{{Format: "csv", Dir: dir}, {Format: "xlsx", Dir: dir}})

	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "expense_report.csv"), filepath.Join(dir, "expense_report.xlsx")}, written)
	for _, path := range written {
		_, statErr := os.Stat(path)
		assert.NoError(t, statErr)
	}
}

func TestReportsView_LoadFailureKeepsTotals(t *testing.T) {
	api := newMockAPI(t)
	v := NewReportsView(api, nil)
	api.On("GetReportData", mock.Anything).Return(&Report{Expenses: []Expense{
		expense(1, "50", "Food", "2024-01-15"),
	}}, nil).Once()
	require.NoError(t, v.Load(context.Background()))

	api.On("GetReportData", mock.Anything).Return(nil, errNetwork).Once()
	assert.Error(t, v.Load(context.Background()))
	assert.Equal(t, 1, v.ByCategory().Len())
}

func TestResolveRoute(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"/", "home", false},
		{"", "home", false},
		{"/login", "login", false},
		{"/register", "register", false},
		{"/dashboard", "dashboard", false},
		{"/expenses", "expenses", false},
		{"/expenses/", "expenses", false},
		{"budgets", "budgets", false},
		{"/reports", "reports", false},
		{"/settings", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ResolveRoute(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownRoute)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
