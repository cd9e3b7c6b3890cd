package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dvloznov/budgetrak/internal/apperr"
)

var configKeys = []string{
	"GEMINI_API_KEY", "GEMINI_MODEL", "LEDGER_BACKEND", "BUDGET_SHEET_ID", "LEDGER_SHEET_NAME",
	"SQLITE_DB_PATH", "NOTION_TOKEN", "NOTION_DATABASE_ID", "GOOGLE_OAUTH_CLIENT_FILE",
	"GOOGLE_OAUTH_TOKEN_FILE", "OAUTH_REDIRECT_PORT", "GCS_BUCKET", "PROCESSED_FOLDER_ID",
	"AUDIT_BIGQUERY_PROJECT", "AUDIT_BIGQUERY_DATASET", "LOG_LEVEL", "BUDGETRAK_ENV_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()
	if cfg.GeminiModel != DefaultModelName {
		t.Errorf("GeminiModel = %q, want %q", cfg.GeminiModel, DefaultModelName)
	}
	if cfg.LedgerBackend != BackendSheets {
		t.Errorf("LedgerBackend = %q, want %q", cfg.LedgerBackend, BackendSheets)
	}
	if cfg.SheetName != "Transactions" {
		t.Errorf("SheetName = %q, want Transactions", cfg.SheetName)
	}
	if cfg.OAuthPort != 8085 {
		t.Errorf("OAuthPort = %d, want 8085", cfg.OAuthPort)
	}
	if cfg.AuditEnabled() {
		t.Error("audit should be disabled without AUDIT_BIGQUERY_PROJECT")
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	clearEnv(t)

	err := FromEnv().Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, apperr.ErrConfig) {
		t.Errorf("expected config error, got %v", err)
	}
	for _, want := range []string{"GEMINI_API_KEY", "BUDGET_SHEET_ID"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err.Error(), want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name: "sheets ok",
			env:  map[string]string{"GEMINI_API_KEY": "k", "BUDGET_SHEET_ID": "sheet"},
		},
		{
			name: "sqlite does not need sheet id",
			env:  map[string]string{"GEMINI_API_KEY": "k", "LEDGER_BACKEND": "sqlite"},
		},
		{
			name:    "notion needs token and database",
			env:     map[string]string{"GEMINI_API_KEY": "k", "LEDGER_BACKEND": "notion"},
			wantErr: "NOTION_TOKEN",
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"GEMINI_API_KEY": "k", "LEDGER_BACKEND": "excel"},
			wantErr: "invalid LEDGER_BACKEND",
		},
		{
			name:    "bad port",
			env:     map[string]string{"GEMINI_API_KEY": "k", "BUDGET_SHEET_ID": "s", "OAUTH_REDIRECT_PORT": "abc"},
			wantErr: "OAUTH_REDIRECT_PORT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			err := FromEnv().Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv.Load does not override variables that are already set, even to "".
	for _, k := range []string{"GEMINI_API_KEY", "BUDGET_SHEET_ID", "LOG_LEVEL"} {
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range []string{"GEMINI_API_KEY", "BUDGET_SHEET_ID", "LOG_LEVEL"} {
			os.Unsetenv(k)
		}
	})

	path := filepath.Join(t.TempDir(), "test.env")
	content := "GEMINI_API_KEY=from-file\nBUDGET_SHEET_ID=sheet-123\nLOG_LEVEL=debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GeminiAPIKey != "from-file" || cfg.SheetID != "sheet-123" || cfg.LogLevel != "debug" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
}
