package internal

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*App, *mockAPI, *bytes.Buffer) {
	t.Helper()
	api := newMockAPI(t)
	out := &bytes.Buffer{}
	return &App{
		Session:  NewSession(&MemoryStorage{}, nil),
		API:      api,
		Log:      discardLogger(),
		Out:      out,
		Format:   OutputTable,
		Currency: GetCurrency("USD"),
		Config:   NewDefaultConfig(),
	}, api, out
}

func TestApp_LoginShowsDashboard(t *testing.T) {
	app, api, out := newTestApp(t)
	api.On("Login", mock.Anything, "a@b.c", "pw").Return("tok", nil)
	api.On("GetDashboardSummary", mock.Anything).Return(map[string]CategoryBudget{
		"Food": {Budget: amt("500"), Spent: amt("200"), Remaining: amt("300")},
	}, nil)

	require.NoError(t, app.Login(context.Background(), "a@b.c", "pw"))

	assert.True(t, app.Session.IsAuthenticated())
	assert.Contains(t, out.String(), "Logged in.")
	assert.Contains(t, out.String(), "$300.00")
}

func TestApp_LoginFailureSkipsDashboard(t *testing.T) {
	app, api, _ := newTestApp(t)
	api.On("Login", mock.Anything, "a@b.c", "pw").Return("", errNetwork)

	assert.Error(t, app.Login(context.Background(), "a@b.c", "pw"))
	api.AssertNotCalled(t, "GetDashboardSummary", mock.Anything)
	assert.False(t, app.Session.IsAuthenticated())
}

func TestApp_Logout(t *testing.T) {
	app, _, out := newTestApp(t)
	app.Session.Login("tok")

	require.NoError(t, app.Logout())
	assert.False(t, app.Session.IsAuthenticated())
	assert.Contains(t, out.String(), "Logged out.")
}

func TestApp_RegisterReturnsHome(t *testing.T) {
	app, api, out := newTestApp(t)
	api.On("Register", mock.Anything, "Ann", "ann@x.y", "pw").Return(nil)

	require.NoError(t, app.Register(context.Background(), "Ann", "ann@x.y", "pw"))
	assert.Contains(t, out.String(), "Not logged in")
}

func TestApp_ExpensesFailureStillRenders(t *testing.T) {
	app, api, out := newTestApp(t)
	api.On("ListExpenses", mock.Anything).Return(nil, errNetwork)

	assert.ErrorIs(t, app.Expenses(context.Background(), ExpenseFilter{}), errNetwork)
	assert.Equal(t, "No expenses.\n", out.String())
}

func TestApp_AddExpenseValidation(t *testing.T) {
	app, _, _ := newTestApp(t)

	err := app.AddExpense(context.Background(), ExpenseForm{Description: "Lunch"})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestApp_ReportsWithExport(t *testing.T) {
	app, api, out := newTestApp(t)
	api.On("GetReportData", mock.Anything).Return(&Report{Expenses: []Expense{
		expense(1, "50", "Food", "2024-01-15"),
	}}, nil)

	dir := t.TempDir()
	require.NoError(t, app.Reports(context.Background(), []ExportTarget{{Format: "csv", Dir: dir}}))
	assert.Contains(t, out.String(), "Exported "+filepath.Join(dir, "expense_report.csv"))
}

func TestApp_Open(t *testing.T) {
	tests := []struct {
		path    string
		setup   func(api *mockAPI)
		wantErr error
	}{
		{"/", func(api *mockAPI) {}, nil},
		{"/budgets", func(api *mockAPI) { api.On("ListBudgets", mock.Anything).Return([]Budget{}, nil) }, nil},
		{"/login", func(api *mockAPI) {}, ErrNeedsInput},
		{"/nowhere", func(api *mockAPI) {}, ErrUnknownRoute},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			app, api, _ := newTestApp(t)
			tt.setup(api)

			err := app.Open(context.Background(), tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsInputError(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseFilterDate(t *testing.T) {
	day, err := ParseFilterDate("")
	assert.NoError(t, err)
	assert.Nil(t, day)

	day, err = ParseFilterDate("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", day.Format(DateLayout))

	_, err = ParseFilterDate("yesterday")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
