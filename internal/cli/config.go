// Package cli implements the supplylens-import command-line interface.
//
// Configuration is loaded from a config file, environment variables and
// CLI flags. Flags take precedence over the environment, which takes
// precedence over the file.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for supplylens-import.
type Config struct {
	// DatabaseURL is the PostgreSQL connection string. When empty the
	// importer targets the local SQLite file instead.
	DatabaseURL string `mapstructure:"database_url"`

	// SQLitePath is the SQLite database file used without a DatabaseURL.
	SQLitePath string `mapstructure:"sqlite_path"`

	// DataDir is the root of the trade statistics JSON tree.
	DataDir string `mapstructure:"data_dir"`

	// BatchSize is the number of rows per upsert batch.
	BatchSize int `mapstructure:"batch_size"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		SQLitePath: "./supplylens.db",
		DataDir:    "./data",
		BatchSize:  1000,
		LogLevel:   "info",
	}
}

// Load reads configuration from config files and the environment.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./supplylens-import.yaml
// 3. ~/.config/supplylens/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("supplylens-import")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "supplylens"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	v.SetEnvPrefix("SUPPLYLENS")
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	// DATABASE_URL is the conventional name used by the API server and
	// hosting platforms, so honor it without the prefix too.
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && c.SQLitePath == "" {
		return fmt.Errorf("either a database URL or a SQLite path is required")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1")
	}
	return nil
}
