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

	"moneyflow/internal/log"
)

// Data sources.
const (
	SourceMemory = "memory"
	SourceSQLite = "sqlite"
	SourceREST   = "rest"
)

var validSources = []string{SourceMemory, SourceSQLite, SourceREST}

type Config struct {
	// HTTP Server
	Port string

	// Data source selection
	DataSource string
	DataDir    string

	// Remote REST backend
	APIBaseURL    string
	APITimeout    time.Duration
	APIMaxRetries int

	// Database
	SQLiteDBPath string

	// AMQP; an empty URL disables change notifications
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Workers
	RecurringProcessorInterval time.Duration

	// Dashboard
	DefaultCurrency string
	CategoryLimit   int

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		DataSource: getEnv("DATA_SOURCE", SourceMemory),
		DataDir:    getEnv("DATA_DIR", "data"),

		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:8080/api"),
		APITimeout:    getEnvDuration("API_TIMEOUT", 10*time.Second),
		APIMaxRetries: getEnvInt("API_MAX_RETRIES", 3),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/moneyflow.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "moneyflow"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "finance_changes"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		RecurringProcessorInterval: getEnvDuration("RECURRING_PROCESSOR_INTERVAL", time.Hour),

		DefaultCurrency: strings.ToUpper(getEnv("DEFAULT_CURRENCY", "RUB")),
		CategoryLimit:   getEnvInt("CATEGORY_LIMIT", 6),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// AMQPEnabled reports whether change notifications are configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether the Sheets mirror has a target spreadsheet.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validSources, c.DataSource) {
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of %v", c.DataSource, validSources))
	}

	switch c.DataSource {
	case SourceSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite source")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case SourceREST:
		if u, err := url.Parse(c.APIBaseURL); err != nil || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid API base URL '%s': must be an absolute URL", c.APIBaseURL))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	}

	if c.APITimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be positive", c.APITimeout))
	}
	if c.APIMaxRetries < 0 || c.APIMaxRetries > 10 {
		errors = append(errors, fmt.Sprintf("invalid API max retries %d: must be between 0 and 10", c.APIMaxRetries))
	}

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

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet is configured")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the sheets mirror")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.RecurringProcessorInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid recurring processor interval %v: must be at least 1 second", c.RecurringProcessorInterval))
	} else if c.RecurringProcessorInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid recurring processor interval %v: must be at most 24 hours", c.RecurringProcessorInterval))
	}

	if !isCurrencyCode(c.DefaultCurrency) {
		errors = append(errors, fmt.Sprintf("invalid default currency '%s': must be a 3-letter ISO 4217 code", c.DefaultCurrency))
	}

	if c.CategoryLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid category limit %d: must not be negative", c.CategoryLimit))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
