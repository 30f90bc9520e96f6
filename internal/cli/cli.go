package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/supplylens/supplylens/internal/domain"
	"github.com/supplylens/supplylens/internal/etl"
	"github.com/supplylens/supplylens/internal/logging"
	"github.com/supplylens/supplylens/internal/repository"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	// Global flags
	cfgFile     string
	databaseURL string
	sqlitePath  string
	dataDir     string
	batchSize   int
	logLevel    string
	clearFirst  bool

	// Global config
	cfg *Config

	rootCmd = &cobra.Command{
		Use:   "supplylens-import",
		Short: "Import trade data into the supplylens store",
		Long: `supplylens-import loads the supplylens database from its source
datasets: monthly country trade statistics and country-of-origin JSON
exports, the processed reference CSVs (company flows, HS code chapters,
country and port geocoding) and the synthetic shipment CSV.

All loads are idempotent. Records use natural keys, so re-running an
import converges on the same rows instead of duplicating them.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./supplylens-import.yaml)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "",
		"PostgreSQL connection string (default: local SQLite)")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", "",
		"SQLite database file used without --database-url")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"root directory of the trade statistics JSON tree")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0,
		"rows per upsert batch")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&clearFirst, "clear", false,
		"clear the target tables before loading")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(originCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(transactionsCmd)
	rootCmd.AddCommand(seedCmd)
}

func initConfig() error {
	var err error
	cfg, err = Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	if sqlitePath != "" {
		cfg.SQLitePath = sqlitePath
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if batchSize > 0 {
		cfg.BatchSize = batchSize
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

// openLoader builds the repository and loader from the active config.
// The caller owns the returned repository and must Close it.
func openLoader() (domain.Repository, *etl.Loader, error) {
	repoCfg := domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: cfg.SQLitePath,
	}
	if cfg.DatabaseURL != "" {
		repoCfg = domain.RepositoryConfig{
			Driver:      "postgres",
			DatabaseURL: cfg.DatabaseURL,
		}
	}

	repo, err := repository.New(repoCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	logging.Info().Str("driver", repoCfg.Driver).Msg("store opened")
	return repo, etl.NewLoader(repo, cfg.BatchSize, logging.Logger), nil
}

// clearTables empties the named tables when --clear was given.
func clearTables(cmd *cobra.Command, repo domain.Repository, tables ...string) error {
	if !clearFirst {
		return nil
	}
	if err := repo.EnsureReportingSchema(cmd.Context()); err != nil {
		return err
	}
	logging.Info().Strs("tables", tables).Msg("clearing tables")
	return repo.ClearTables(cmd.Context(), tables...)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("supplylens-import %s\n", Version)
	},
}
