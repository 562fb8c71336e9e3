package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"finanse/internal/log"
)

// EnvPrefix is prepended to every environment variable, e.g. FINANSE_DATA_BACKEND.
const EnvPrefix = "FINANSE"

// Config keys, also used as YAML keys in config files.
const (
	KeyDataBackend       = "data_backend"
	KeySQLiteDBPath      = "sqlite_db_path"
	KeyMemorySeedFile    = "memory_seed_file"
	KeyLogLevel          = "log_level"
	KeyLogFormat         = "log_format"
	KeyRecurringSchedule = "recurring_schedule"
	KeyExportDir         = "export_dir"
	KeyTrendMonths       = "trend_months"
)

type Config struct {
	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// Memory backend seed (optional JSON object of key -> value)
	MemorySeedFile string

	// Logging
	LogLevel  string
	LogFormat string

	// Worker
	RecurringSchedule string

	// Export and statistics
	ExportDir   string
	TrendMonths int
}

// NewViper returns a viper instance with defaults, FINANSE_* environment
// lookup and, when configFile is set, that file loaded. Without configFile
// an optional config.yaml is read from the working directory and
// $HOME/.config/finanse.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(KeyDataBackend, "sqlite")
	v.SetDefault(KeySQLiteDBPath, "./data/finanse.db")
	v.SetDefault(KeyMemorySeedFile, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyRecurringSchedule, "0 6 * * *")
	v.SetDefault(KeyExportDir, ".")
	v.SetDefault(KeyTrendMonths, 6)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "finanse"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, defaults and env apply
	}
	return v, nil
}

// FromViper builds a Config from the resolved viper values.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		DataBackend:       strings.ToLower(strings.TrimSpace(v.GetString(KeyDataBackend))),
		SQLiteDBPath:      v.GetString(KeySQLiteDBPath),
		MemorySeedFile:    v.GetString(KeyMemorySeedFile),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFormat:         strings.ToLower(v.GetString(KeyLogFormat)),
		RecurringSchedule: v.GetString(KeyRecurringSchedule),
		ExportDir:         v.GetString(KeyExportDir),
		TrendMonths:       v.GetInt(KeyTrendMonths),
	}
}

// Load resolves configuration from defaults, an optional config file and the environment.
func Load(configFile string) (*Config, error) {
	v, err := NewViper(configFile)
	if err != nil {
		return nil, err
	}
	return FromViper(v), nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	if !slices.Contains(validBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if _, err := cron.ParseStandard(c.RecurringSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("invalid recurring schedule '%s': %v", c.RecurringSchedule, err))
	}

	if strings.TrimSpace(c.ExportDir) == "" {
		errs = append(errs, "export directory cannot be empty")
	}

	if c.TrendMonths < 1 {
		errs = append(errs, fmt.Sprintf("invalid trend months %d: must be at least 1", c.TrendMonths))
	} else if c.TrendMonths > 24 {
		errs = append(errs, fmt.Sprintf("invalid trend months %d: must be at most 24", c.TrendMonths))
	}

	// Return combined errors
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}
