package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"expensetab/internal/cli"
	"expensetab/internal/config"
	"expensetab/internal/log"
	"expensetab/internal/services"
)

// globalFlags override configuration for a single invocation.
type globalFlags struct {
	envFile   string
	backend   string
	stateFile string
	dbPath    string
	seedFile  string
	logLevel  string
	logFormat string
}

var flags globalFlags

var rootCmd = &cobra.Command{
	Use:           "expensetab",
	Short:         "Track, import and export personal expenses",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", ".env", "Environment file to load before reading configuration")
	pf.StringVar(&flags.backend, "backend", "", "Persistence backend: memory, file or sqlite (overrides DATA_BACKEND)")
	pf.StringVar(&flags.stateFile, "state-file", "", "JSON state file (overrides STATE_FILE_PATH)")
	pf.StringVar(&flags.dbPath, "db", "", "SQLite database path (overrides SQLITE_DB_PATH)")
	pf.StringVar(&flags.seedFile, "seed", "", "YAML file with the initial categories (overrides SEED_CATEGORIES_FILE)")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	pf.StringVar(&flags.logFormat, "log-format", log.FormatPretty, "Log format: text, json or pretty")

	rootCmd.AddCommand(
		newExpensesCmd(),
		newImportCmd(),
		newExportCmd(),
		newTemplateCmd(),
		newReportCmd(),
		newDuplicatesCmd(),
		newBudgetCmd(),
		newCategoriesCmd(),
		newSheetsCmd(),
		newThemeCmd(),
	)
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := cli.LoadEnvFile(flags.envFile); err != nil {
		return nil, err
	}
	cfg := config.Load()

	pf := cmd.Flags()
	if flags.backend != "" {
		cfg.DataBackend = strings.ToLower(flags.backend)
	}
	if flags.stateFile != "" {
		cfg.StateFilePath = flags.stateFile
	}
	if flags.dbPath != "" {
		cfg.SQLiteDBPath = flags.dbPath
	}
	if flags.seedFile != "" {
		cfg.SeedCategoriesFile = flags.seedFile
	}
	if pf.Changed("log-level") || os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = flags.logLevel
	}
	if pf.Changed("log-format") || os.Getenv("LOG_FORMAT") == "" {
		cfg.LogFormat = flags.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withService opens the configured backend around fn and closes it after.
func withService(fn func(ctx context.Context, cmd *cobra.Command, svc *services.ExpenseService, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := cli.SetupLogger(cfg, cmd.ErrOrStderr()).WithComponent(log.ComponentCLI)

		ctx := cmd.Context()
		svc, err := cli.OpenService(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := svc.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		return fn(ctx, cmd, svc, args)
	}
}

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
