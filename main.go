package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gigurra/expense-tracker/internal"
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	sessionFile  string
	baseURLFlag  string
	outputFormat string
	logLevel     string
	logFormat    string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "expense-tracker",
		Short: "Track expenses and budgets from the terminal",
		Long: "Terminal client for the expense tracker API. Log in once, then list and add expenses, " +
			"set budgets per category, compare spending against them and export reports as CSV or XLSX.",
		// No subcommand shows the home view
		Run: func(cmd *cobra.Command, args []string) {
			run(func(_ context.Context, app *internal.App) error {
				return app.Home()
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default ~/.expense-tracker/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "where the login token is stored (default ~/.expense-tracker/session.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "API root URL (default "+internal.DefaultBaseURL+")")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", internal.OutputTable, "output format: table or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default warn)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(
		newHomeCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newRegisterCmd(),
		newDashboardCmd(),
		newExpensesCmd(),
		newBudgetsCmd(),
		newReportsCmd(),
		newOpenCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// newApp loads configuration and builds the session, client and logger.
// Precedence: flags, then environment (and .env), then the config file.
func newApp() (*internal.App, error) {
	path := cfgFile
	explicit := path != ""
	if !explicit {
		path = internal.DefaultConfigPath()
	}
	cfg, err := internal.LoadConfigOrDefault(path, explicit)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if sessionFile != "" {
		cfg.SessionFile = sessionFile
	}
	if baseURLFlag != "" {
		cfg.BaseURL = baseURLFlag
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch outputFormat {
	case internal.OutputTable, internal.OutputJSON:
	default:
		return nil, fmt.Errorf("unknown output format: %s (available: table, json)", outputFormat)
	}

	log, err := internal.NewLogger(cfg.LogLevel, logFormat)
	if err != nil {
		return nil, err
	}

	session := internal.NewSession(internal.FileStorage{Path: cfg.SessionFile}, log)
	client, err := internal.NewClient(cfg.BaseURL, session, internal.WithLogger(log))
	if err != nil {
		return nil, err
	}

	log.WithField("baseUrl", client.BaseURL()).Debug("App.Init.Complete")

	return &internal.App{
		Session:  session,
		API:      client,
		Log:      log,
		Out:      os.Stdout,
		Format:   outputFormat,
		Currency: internal.ResolveCurrency(cfg.Currency),
		Config:   cfg,
	}, nil
}

// run builds the app and runs one view. Any failure exits with status 1.
func run(view func(ctx context.Context, app *internal.App) error) {
	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := view(context.Background(), app); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// reportError prints errors the user can act on. Failed API calls were
// already logged by the view that made them.
func reportError(err error) {
	if internal.IsInputError(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	var apiErr *internal.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == 401 {
		fmt.Fprintln(os.Stderr, "Not authorized. Run 'expense-tracker login' first.")
	}
}
