package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/expense-tracker/internal"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Command params are bound to flags only. The EXPENSE_TRACKER_* variables
// configure the app, not individual commands.
var paramEnrich = boa.ParamEnricherCombine(
	boa.ParamEnricherName,
	boa.ParamEnricherShort,
	boa.ParamEnricherBool,
)

type LoginParams struct {
	Email    string `descr:"Account email"`
	Password string `descr:"Account password"`
}

// Register sends whatever was given; the server decides what is valid.
type RegisterParams struct {
	Name     string `descr:"Display name" optional:"true"`
	Email    string `descr:"Account email" optional:"true"`
	Password string `descr:"Account password" optional:"true"`
}

type DashboardParams struct {
	Local bool `descr:"Compute the comparison from the budget and expense lists instead of the dashboard endpoint" optional:"true"`
}

type ExpensesListParams struct {
	Category string `descr:"Only show expenses in this category" optional:"true"`
	Date     string `descr:"Only show expenses on this day (YYYY-MM-DD)" optional:"true"`
}

// All fields are optional here so that missing ones are reported by the
// expense form validation instead of the flag parser.
type ExpensesAddParams struct {
	Description string `descr:"What the money was spent on" optional:"true"`
	Amount      string `descr:"Amount, e.g. 12.50" optional:"true"`
	Category    string `descr:"Category, e.g. Food, Transport, Entertainment" optional:"true"`
	Date        string `descr:"Day of the expense (YYYY-MM-DD)" optional:"true"`
}

type ExpensesDeleteParams struct {
	ID int `descr:"Id of the expense to delete" positional:"true"`
}

type BudgetsAddParams struct {
	Category string `descr:"Category the budget applies to" optional:"true"`
	Limit    string `descr:"Spending limit, e.g. 500" optional:"true"`
}

type ReportsParams struct {
	Export string `descr:"Comma separated export formats (csv, xlsx, json), each optionally with a directory, e.g. csv,xlsx:/tmp" optional:"true"`
	Dir    string `descr:"Directory for exports without their own directory" default:"."`
}

type ConfigInitParams struct {
	Force bool `descr:"Overwrite an existing config file" optional:"true"`
}

type OpenParams struct {
	Path string `descr:"View path, e.g. /dashboard or /expenses" positional:"true"`
}

func newHomeCmd() *cobra.Command {
	return boa.NewCmdT[boa.NoParams]("home").
		WithParamEnrich(paramEnrich).
		WithShort("Show whether you are logged in").
		WithRunFunc(func(_ *boa.NoParams) {
			run(func(_ context.Context, app *internal.App) error {
				return app.Home()
			})
		}).
		ToCobra()
}

func newLoginCmd() *cobra.Command {
	return boa.NewCmdT[LoginParams]("login").
		WithParamEnrich(paramEnrich).
		WithShort("Log in and show the dashboard").
		WithRunFunc(func(params *LoginParams) {
			run(func(ctx context.Context, app *internal.App) error {
				return app.Login(ctx, params.Email, params.Password)
			})
		}).
		ToCobra()
}

func newLogoutCmd() *cobra.Command {
	return boa.NewCmdT[boa.NoParams]("logout").
		WithParamEnrich(paramEnrich).
		WithShort("Forget the stored login token").
		WithRunFunc(func(_ *boa.NoParams) {
			run(func(_ context.Context, app *internal.App) error {
				return app.Logout()
			})
		}).
		ToCobra()
}

func newRegisterCmd() *cobra.Command {
	return boa.NewCmdT[RegisterParams]("register").
		WithParamEnrich(paramEnrich).
		WithShort("Create an account").
		WithRunFunc(func(params *RegisterParams) {
			run(func(ctx context.Context, app *internal.App) error {
				return app.Register(ctx, params.Name, params.Email, params.Password)
			})
		}).
		ToCobra()
}

func newDashboardCmd() *cobra.Command {
	return boa.NewCmdT[DashboardParams]("dashboard").
		WithParamEnrich(paramEnrich).
		WithShort("Compare spending against budgets per category").
		WithLong("Shows budget, spent and remaining amount per category. Overspent categories have a negative remaining amount.").
		WithRunFunc(func(params *DashboardParams) {
			run(func(ctx context.Context, app *internal.App) error {
				return app.Dashboard(ctx, params.Local)
			})
		}).
		ToCobra()
}

func newExpensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "List, add and delete expenses",
		Run: func(cmd *cobra.Command, args []string) {
			run(func(ctx context.Context, app *internal.App) error {
				return app.Expenses(ctx, internal.ExpenseFilter{})
			})
		},
	}
	cmd.AddCommand(newExpensesListCmd(), newExpensesAddCmd(), newExpensesDeleteCmd())
	return cmd
}

func newExpensesListCmd() *cobra.Command {
	return boa.NewCmdT[ExpensesListParams]("list").
		WithParamEnrich(paramEnrich).
		WithShort("List expenses, optionally filtered by category and day").
		WithRunFunc(func(params *ExpensesListParams) {
			run(func(ctx context.Context, app *internal.App) error {
				day, err := internal.ParseFilterDate(params.Date)
				if err != nil {
					return err
				}
				return app.Expenses(ctx, internal.ExpenseFilter{Category: params.Category, Date: day})
			})
		}).
		ToCobra()
}

func newExpensesAddCmd() *cobra.Command {
	return boa.NewCmdT[ExpensesAddParams]("add").
		WithParamEnrich(paramEnrich).
		WithShort("Add an expense").
		WithLong("Adds an expense. Description, amount, category and date are all required.").
		WithRunFunc(func(params *ExpensesAddParams) {
			run(func(ctx context.Context, app *internal.App) error {
				return app.AddExpense(ctx, internal.ExpenseForm{
					Description: params.Description,
					Amount:      params.Amount,
					Category:    params.Category,
					Date:        params.Date,
				})
			})
		}).
		ToCobra()
}

func newExpensesDeleteCmd() *cobra.Command {
	return boa.NewCmdT[ExpensesDeleteParams]("delete").
		WithParamEnrich(paramEnrich).
		WithShort("Delete an expense by id").
		WithRunFunc(func(params *ExpensesDeleteParams) {
			run(func(ctx context.Context, app *internal.App) error {
				return app.DeleteExpense(ctx, int64(params.ID))
			})
		}).
		ToCobra()
}

func newBudgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "List and add budgets",
		Run: func(cmd *cobra.Command, args []string) {
			run(func(ctx context.Context, app *internal.App) error {
				return app.Budgets(ctx)
			})
		},
	}
	cmd.AddCommand(newBudgetsListCmd(), newBudgetsAddCmd())
	return cmd
}

func newBudgetsListCmd() *cobra.Command {
	return boa.NewCmdT[boa.NoParams]("list").
		WithParamEnrich(paramEnrich).
		WithShort("List budgets").
		WithRunFunc(func(_ *boa.NoParams) {
			run(func(ctx context.Context, app *internal.App) error {
				return app.Budgets(ctx)
			})
		}).
		ToCobra()
}

func newBudgetsAddCmd() *cobra.Command {
	return boa.NewCmdT[BudgetsAddParams]("add").
		WithParamEnrich(paramEnrich).
		WithShort("Add a budget for a category").
		WithRunFunc(func(params *BudgetsAddParams) {
			run(func(ctx context.Context, app *internal.App) error {
				limit, err := parseLimit(params.Limit)
				if err != nil {
					return err
				}
				return app.AddBudget(ctx, internal.NewBudget{Category: params.Category, Limit: limit})
			})
		}).
		ToCobra()
}

func newReportsCmd() *cobra.Command {
	return boa.NewCmdT[ReportsParams]("reports").
		WithParamEnrich(paramEnrich).
		WithShort("Show totals per category and month, and export expenses").
		WithLong("Shows spending per category and per month. With --export the loaded expenses are written to " +
			"expense_report.csv, expense_report.xlsx or expense_report.json.").
		WithRunFunc(func(params *ReportsParams) {
			run(func(ctx context.Context, app *internal.App) error {
				targets, err := internal.ParseExportTargets(params.Export, params.Dir)
				if err != nil {
					return err
				}
				return app.Reports(ctx, targets)
			})
		}).
		ToCobra()
}

func newOpenCmd() *cobra.Command {
	return boa.NewCmdT[OpenParams]("open").
		WithParamEnrich(paramEnrich).
		WithShort("Open a view by its path").
		WithLong("Opens a view by the path the web front end used: /, /dashboard, /expenses, /budgets or /reports.").
		WithRunFunc(func(params *OpenParams) {
			run(func(ctx context.Context, app *internal.App) error {
				return app.Open(ctx, params.Path)
			})
		}).
		ToCobra()
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return boa.NewCmdT[ConfigInitParams]("init").
		WithParamEnrich(paramEnrich).
		WithShort("Write a config file with the default settings").
		WithLong("Writes the default settings to the --config path, or ~/.expense-tracker/config.yaml when none is given.").
		WithRunFunc(func(params *ConfigInitParams) {
			path := cfgFile
			if path == "" {
				path = internal.DefaultConfigPath()
			}
			if err := writeDefaultConfig(path, params.Force); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Wrote default config to %s\n", path)
		}).
		ToCobra()
}

func writeDefaultConfig(path string, force bool) error {
	if path == "" {
		return errors.New("no config path: home directory unknown, pass --config")
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
	}
	return internal.NewDefaultConfig().Save(path)
}

// parseLimit accepts an empty limit as zero; the server decides whether that is valid.
func parseLimit(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	limit, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: limit %q is not a number", internal.ErrInvalidAmount, s)
	}
	return limit, nil
}
