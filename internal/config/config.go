package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"tempo/internal/core"
)

type Config struct {
	// HTTP Server
	Port                string
	RateLimitPerMinute  int
	ShutdownGracePeriod time.Duration

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath  string
	MemorySeedDir string

	// Backups
	BackupEnabled       bool
	BackupDir           string
	BackupRetentionDays int

	// AMQP (optional, empty URL disables events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets (optional, empty spreadsheet ID disables the mirror)
	GoogleSpreadsheetID string
	GoogleSheetName     string
	SheetsSyncInterval  time.Duration

	// Charts
	DistributionTopK int
	ChartWindowDays  int

	// Logging
	LogLevel  string
	LogFormat string
}

var (
	validBackends   = []string{"memory", "sqlite"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

func Load() *Config {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		ShutdownGracePeriod: getEnvDuration("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		DataBackend: getEnv("DATA_BACKEND", "sqlite"),

		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/activities.db"),
		MemorySeedDir: getEnv("MEMORY_SEED_DIR", "./data"),

		BackupEnabled:       getEnvBool("BACKUP_ENABLED", true),
		BackupDir:           getEnv("BACKUP_DIR", "./data/backups"),
		BackupRetentionDays: getEnvInt("BACKUP_RETENTION_DAYS", 30),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tempo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "tempo_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Activities"),
		SheetsSyncInterval:  getEnvDuration("SHEETS_SYNC_INTERVAL", 30*time.Second),

		DistributionTopK: getEnvInt("DISTRIBUTION_TOP_K", 8),
		ChartWindowDays:  getEnvInt("CHART_WINDOW_DAYS", 30),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	return cfg
}

// AMQPEnabled reports whether change events should be published.
func (c *Config) AMQPEnabled() bool { return c.AMQPURL != "" }

// SheetsEnabled reports whether the spreadsheet mirror is configured.
func (c *Config) SheetsEnabled() bool { return c.GoogleSpreadsheetID != "" }

// BackupsActive reports whether daily snapshots apply. Only the sqlite backend
// has a file to copy.
func (c *Config) BackupsActive() bool { return c.BackupEnabled && c.DataBackend == "sqlite" }

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Validate data backend
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if msg := ensureDir(filepath.Dir(c.SQLiteDBPath)); msg != "" {
			errors = append(errors, "cannot create SQLite database directory "+msg)
		}
	}

	// Validate backups
	if c.BackupsActive() {
		if c.BackupDir == "" {
			errors = append(errors, "backup directory cannot be empty when backups are enabled")
		}
		if c.BackupRetentionDays < 1 {
			errors = append(errors, fmt.Sprintf("invalid backup retention %d: must be at least 1 day", c.BackupRetentionDays))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets configuration if enabled
	if c.SheetsEnabled() {
		if strings.TrimSpace(c.GoogleSheetName) == "" {
			errors = append(errors, "Google Sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		if c.SheetsSyncInterval < time.Second {
			errors = append(errors, fmt.Sprintf("invalid sheets sync interval %v: must be at least 1 second", c.SheetsSyncInterval))
		} else if c.SheetsSyncInterval > 24*time.Hour {
			errors = append(errors, fmt.Sprintf("invalid sheets sync interval %v: must be at most 24 hours", c.SheetsSyncInterval))
		}
	}

	// Validate charts
	if c.DistributionTopK < 1 {
		errors = append(errors, fmt.Sprintf("invalid distribution top-k %d: must be at least 1", c.DistributionTopK))
	}
	if c.ChartWindowDays < 1 || c.ChartWindowDays > core.MaxWindowDays {
		errors = append(errors, fmt.Sprintf("invalid chart window %d: must be between 1 and %d days", c.ChartWindowDays, core.MaxWindowDays))
	}

	// Validate logging
	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ensureDir creates dir when missing and returns a message on failure.
func ensureDir(dir string) string {
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Sprintf("'%s': %v", dir, err)
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
