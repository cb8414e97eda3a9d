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

	"pocketledger/internal/core"
	"pocketledger/internal/ledger"
)

// Supported DATA_BACKEND values.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

var validBackends = []string{BackendMemory, BackendFile, BackendSQLite, BackendBolt}

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Ledger
	LoadMode       string
	WeekStart      string
	CategoriesFile string

	// Persistence
	DataBackend  string
	SnapshotFile string
	SQLiteDBPath string
	BoltDBPath   string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientJSON    string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenJSON     string
	GoogleOAuthTokenFile     string

	// Azure Blob backup
	BackupBlobURL   string
	BackupContainer string

	// Stats cache
	StatsCacheSize int
	StatsCacheTTL  time.Duration

	// Worker
	ReconcileInterval time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LoadMode:       getEnv("LOAD_MODE", "trust"),
		WeekStart:      getEnv("WEEK_START", "sunday"),
		CategoriesFile: getEnv("CATEGORIES_FILE", ""),

		DataBackend:  getEnv("DATA_BACKEND", BackendFile),
		SnapshotFile: getEnv("SNAPSHOT_FILE", "./data/ledger.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledger.db"),
		BoltDBPath:   getEnv("BOLT_DB_PATH", "./data/ledger.bolt"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "pocketledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenJSON:     getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),

		BackupBlobURL:   getEnv("BACKUP_BLOB_URL", ""),
		BackupContainer: getEnv("BACKUP_CONTAINER", "ledger-backups"),

		StatsCacheSize: getEnvInt("STATS_CACHE_SIZE", 64),
		StatsCacheTTL:  getEnvDuration("STATS_CACHE_TTL", 5*time.Minute),

		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", 15*time.Minute),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if _, err := ledger.ParseLoadMode(c.LoadMode); err != nil {
		errors = append(errors, err.Error())
	}
	if _, err := core.ParseWeekStart(c.WeekStart); err != nil {
		errors = append(errors, err.Error())
	}
	if c.CategoriesFile != "" {
		if _, err := os.Stat(c.CategoriesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("categories file does not exist: %s", c.CategoriesFile))
		}
	}

	// Validate data backend
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendFile:
		errors = appendPathErrors(errors, "snapshot file", c.SnapshotFile)
	case BackendSQLite:
		errors = appendPathErrors(errors, "SQLite database", c.SQLiteDBPath)
	case BackendBolt:
		errors = appendPathErrors(errors, "bolt database", c.BoltDBPath)
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

	// Sheets mirror is optional but must be complete once enabled
	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
		hasClient := c.GoogleOAuthClientJSON != "" || c.GoogleOAuthClientFile != ""
		hasToken := c.GoogleOAuthTokenJSON != "" || c.GoogleOAuthTokenFile != ""
		if hasClient != hasToken {
			errors = append(errors, "an OAuth client and an OAuth token must be provided together for the sheets mirror")
		}
	}

	if c.BackupBlobURL != "" {
		if parsedURL, err := url.Parse(c.BackupBlobURL); err != nil || parsedURL.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid backup blob URL '%s'", c.BackupBlobURL))
		}
		if c.BackupContainer == "" {
			errors = append(errors, "backup container cannot be empty when BACKUP_BLOB_URL is provided")
		}
	}

	if c.StatsCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid stats cache size %d: must be at least 1", c.StatsCacheSize))
	}
	if c.StatsCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid stats cache TTL %v: must be at least 1 second", c.StatsCacheTTL))
	}
	if c.ReconcileInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be at least 1 minute", c.ReconcileInterval))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// LedgerLoadMode returns the parsed LOAD_MODE. Call after Validate.
func (c *Config) LedgerLoadMode() ledger.LoadMode {
	m, _ := ledger.ParseLoadMode(c.LoadMode)
	return m
}

// LedgerWeekStart returns the parsed WEEK_START. Call after Validate.
func (c *Config) LedgerWeekStart() core.WeekStart {
	ws, _ := core.ParseWeekStart(c.WeekStart)
	return ws
}

// appendPathErrors checks that path is set and its directory exists or can
// be created.
func appendPathErrors(errors []string, what, path string) []string {
	if path == "" {
		return append(errors, fmt.Sprintf("%s path cannot be empty", what))
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create %s directory '%s': %v", what, dir, err))
			}
		}
	}
	return errors
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
