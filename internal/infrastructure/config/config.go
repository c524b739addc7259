// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	tolerance, err := cfg.Reconciliation.ToleranceAmount()
//	dbPath := cfg.Storage.DatabasePath
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration.
type Config struct {
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Warehouse      WarehouseConfig      `yaml:"warehouse"`
	Providers      ProvidersConfig      `yaml:"providers"`
	Storage        StorageConfig        `yaml:"storage"`
	API            APIConfig            `yaml:"api"`
	Observability  ObservabilityConfig  `yaml:"observability"`
}

// ReconciliationConfig holds the run policy values. Dates are YYYY-MM-DD;
// the statement dates may be empty when no statement coverage exists yet.
type ReconciliationConfig struct {
	Tolerance       string `yaml:"tolerance"`
	AccountingStart string `yaml:"accounting_start"`
	AccountingEnd   string `yaml:"accounting_end"`
	StatementStart  string `yaml:"statement_start"`
	StatementEnd    string `yaml:"statement_end"`
}

// ToleranceAmount parses the configured tolerance, defaulting to 0.01.
func (c ReconciliationConfig) ToleranceAmount() (decimal.Decimal, error) {
	if c.Tolerance == "" {
		return decimal.New(1, -2), nil
	}
	tolerance, err := decimal.NewFromString(c.Tolerance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tolerance %q: %w", c.Tolerance, err)
	}
	if tolerance.IsNegative() {
		return decimal.Zero, fmt.Errorf("tolerance %q must not be negative", c.Tolerance)
	}
	return tolerance, nil
}

// Dates parses the four period bounds. Accounting dates are required;
// statement dates may be empty and come back zero.
func (c ReconciliationConfig) Dates() (accStart, accEnd, stmtStart, stmtEnd time.Time, err error) {
	if accStart, err = parseDate("accounting_start", c.AccountingStart, true); err != nil {
		return
	}
	if accEnd, err = parseDate("accounting_end", c.AccountingEnd, true); err != nil {
		return
	}
	if stmtStart, err = parseDate("statement_start", c.StatementStart, false); err != nil {
		return
	}
	stmtEnd, err = parseDate("statement_end", c.StatementEnd, false)
	return
}

func parseDate(field, value string, required bool) (time.Time, error) {
	if value == "" {
		if required {
			return time.Time{}, fmt.Errorf("%s is required", field)
		}
		return time.Time{}, nil
	}
	date, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return date, nil
}

// WarehouseConfig locates the materialized order snapshot.
type WarehouseConfig struct {
	SnapshotDir string `yaml:"snapshot_dir"`
}

// ProvidersConfig holds provider-specific configuration.
type ProvidersConfig struct {
	Deliveroo ProviderConfig `yaml:"deliveroo"`
	JustEat   ProviderConfig `yaml:"justeat"`
	UberEats  ProviderConfig `yaml:"ubereats"`
}

// ProviderConfig holds per-provider settings.
type ProviderConfig struct {
	Enabled       bool   `yaml:"enabled"`
	StatementPath string `yaml:"statement_path"`
}

// StorageConfig holds database configuration.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${RECON_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() *Config {
	return &Config{
		Reconciliation: ReconciliationConfig{
			Tolerance:       getEnv("RECON_TOLERANCE", "0.01"),
			AccountingStart: os.Getenv("RECON_ACCOUNTING_START"),
			AccountingEnd:   os.Getenv("RECON_ACCOUNTING_END"),
			StatementStart:  os.Getenv("RECON_STATEMENT_START"),
			StatementEnd:    os.Getenv("RECON_STATEMENT_END"),
		},
		Warehouse: WarehouseConfig{
			SnapshotDir: getEnv("RECON_SNAPSHOT_DIR", "snapshots"),
		},
		Providers: ProvidersConfig{
			Deliveroo: ProviderConfig{
				Enabled:       true,
				StatementPath: os.Getenv("RECON_DELIVEROO_STATEMENT"),
			},
			JustEat: ProviderConfig{
				Enabled:       true,
				StatementPath: os.Getenv("RECON_JUSTEAT_STATEMENT"),
			},
			UberEats: ProviderConfig{
				Enabled:       true,
				StatementPath: os.Getenv("RECON_UBEREATS_STATEMENT"),
			},
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("RECON_DB_PATH", "orders_to_cash.db"),
		},
		API: APIConfig{
			Port: getEnvInt("RECON_API_PORT", 8080),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables.
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from the specified path, falls back to
// environment variables.
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// getEnv retrieves an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default.
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
