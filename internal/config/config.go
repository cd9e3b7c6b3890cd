// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/joho/godotenv"
)

// Ledger backends.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
	BackendNotion = "notion"
	BackendMemory = "memory"
)

// DefaultModelName is the Gemini model used when GEMINI_MODEL is unset.
const DefaultModelName = "gemini-2.5-flash"

type Config struct {
	GeminiAPIKey string
	GeminiModel  string

	LedgerBackend  string
	SheetID        string
	SheetName      string
	SQLitePath     string
	NotionToken    string
	NotionDatabase string

	OAuthClientFile string
	OAuthTokenFile  string
	OAuthPort       int

	GCSBucket         string
	ProcessedFolderID string

	AuditProject string
	AuditDataset string

	LogLevel string
}

// Load reads envFile when it exists and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = getEnv("BUDGETRAK_ENV_FILE", ".env")
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.Config("config.Load", fmt.Errorf("read %s: %w", envFile, err))
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the process environment only.
func FromEnv() *Config {
	return &Config{
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", DefaultModelName),
		LedgerBackend:     strings.ToLower(getEnv("LEDGER_BACKEND", BackendSheets)),
		SheetID:           getEnv("BUDGET_SHEET_ID", ""),
		SheetName:         getEnv("LEDGER_SHEET_NAME", "Transactions"),
		SQLitePath:        getEnv("SQLITE_DB_PATH", "./data/budgetrak.db"),
		NotionToken:       getEnv("NOTION_TOKEN", ""),
		NotionDatabase:    getEnv("NOTION_DATABASE_ID", ""),
		OAuthClientFile:   getEnv("GOOGLE_OAUTH_CLIENT_FILE", "budgetrak_credentials.json"),
		OAuthTokenFile:    getEnv("GOOGLE_OAUTH_TOKEN_FILE", "token.json"),
		OAuthPort:         getEnvInt("OAUTH_REDIRECT_PORT", 8085),
		GCSBucket:         getEnv("GCS_BUCKET", ""),
		ProcessedFolderID: getEnv("PROCESSED_FOLDER_ID", ""),
		AuditProject:      getEnv("AUDIT_BIGQUERY_PROJECT", ""),
		AuditDataset:      getEnv("AUDIT_BIGQUERY_DATASET", "budgetrak"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports every problem at once as a single config error.
func (c *Config) Validate() error {
	var problems []string

	if c.GeminiAPIKey == "" {
		problems = append(problems, "GEMINI_API_KEY is required")
	}
	if c.GeminiModel == "" {
		problems = append(problems, "GEMINI_MODEL cannot be empty")
	}

	switch c.LedgerBackend {
	case BackendSheets:
		if c.SheetID == "" {
			problems = append(problems, "BUDGET_SHEET_ID is required when using the sheets ledger")
		}
		if c.SheetName == "" {
			problems = append(problems, "LEDGER_SHEET_NAME cannot be empty when using the sheets ledger")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			problems = append(problems, "SQLITE_DB_PATH is required when using the sqlite ledger")
		}
	case BackendNotion:
		if c.NotionToken == "" {
			problems = append(problems, "NOTION_TOKEN is required when using the notion ledger")
		}
		if c.NotionDatabase == "" {
			problems = append(problems, "NOTION_DATABASE_ID is required when using the notion ledger")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid LEDGER_BACKEND %q: must be one of %v",
			c.LedgerBackend, []string{BackendSheets, BackendSQLite, BackendNotion, BackendMemory}))
	}

	if c.OAuthClientFile == "" {
		problems = append(problems, "GOOGLE_OAUTH_CLIENT_FILE cannot be empty")
	}
	if c.OAuthTokenFile == "" {
		problems = append(problems, "GOOGLE_OAUTH_TOKEN_FILE cannot be empty")
	}
	if c.OAuthPort < 1 || c.OAuthPort > 65535 {
		problems = append(problems, fmt.Sprintf("invalid OAUTH_REDIRECT_PORT %d: must be between 1 and 65535", c.OAuthPort))
	}
	if c.AuditProject != "" && c.AuditDataset == "" {
		problems = append(problems, "AUDIT_BIGQUERY_DATASET cannot be empty when AUDIT_BIGQUERY_PROJECT is set")
	}

	if len(problems) > 0 {
		return apperr.Config("config.Validate",
			fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- ")))
	}
	return nil
}

// ValidateAuth checks only what the consent flow needs.
func (c *Config) ValidateAuth() error {
	if c.OAuthClientFile == "" {
		return apperr.Config("config.ValidateAuth", errors.New("GOOGLE_OAUTH_CLIENT_FILE cannot be empty"))
	}
	if c.OAuthTokenFile == "" {
		return apperr.Config("config.ValidateAuth", errors.New("GOOGLE_OAUTH_TOKEN_FILE cannot be empty"))
	}
	return nil
}

// AuditEnabled reports whether parse runs are archived to BigQuery.
func (c *Config) AuditEnabled() bool {
	return c.AuditProject != ""
}

func getEnv(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}
