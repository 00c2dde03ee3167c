package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadValidConfig(t *testing.T) {
	t.Setenv("PORT", "8002")
	t.Setenv("ADDRESS", "127.0.0.1")
	t.Setenv("ENV", "dev")
	t.Setenv("LOG_LEVEL", "info")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8002" {
		t.Errorf("Expected port 8002, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Expected address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Expected env dev, got %s", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected log level info, got %s", cfg.LogLevel)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	for _, key := range GetEnvVars() {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Expected default env dev, got %s", cfg.Env)
	}
	if cfg.MedicinesSource != "data/medicamente_cu_boli_COMPLET.csv" {
		t.Errorf("Unexpected default medicines source %s", cfg.MedicinesSource)
	}
	if cfg.FacetsSource != "" {
		t.Errorf("Expected no default facets source, got %s", cfg.FacetsSource)
	}
	if cfg.RefreshAt != "05:00" {
		t.Errorf("Expected default refresh 05:00, got %s", cfg.RefreshAt)
	}
	if cfg.OpenAIModel != "gpt-3.5-turbo" {
		t.Errorf("Expected default model gpt-3.5-turbo, got %s", cfg.OpenAIModel)
	}
	if cfg.OpenAITimeout != 60*time.Second {
		t.Errorf("Expected default timeout 60s, got %s", cfg.OpenAITimeout)
	}
	if cfg.SessionTTL != 30*24*time.Hour {
		t.Errorf("Expected default session TTL 720h, got %s", cfg.SessionTTL)
	}
	if cfg.DownloadTimeout != 2*time.Minute {
		t.Errorf("Expected default download timeout 2m, got %s", cfg.DownloadTimeout)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"*"}) {
		t.Errorf("Expected default origins [*], got %v", cfg.AllowedOrigins)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	testCases := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{"port not a number", "PORT", "abc", "PORT must be a valid number"},
		{"port zero", "PORT", "0", "PORT must be between 1 and 65535"},
		{"port too large", "PORT", "65536", "PORT must be between 1 and 65535"},
		{"privileged port", "PORT", "80", "PORT 80 is privileged"},
		{"address", "ADDRESS", "invalid", "ADDRESS must be a valid IP address"},
		{"env", "ENV", "invalid", "ENV must be one of"},
		{"log level", "LOG_LEVEL", "invalid", "LOG_LEVEL must be one of"},
		{"retention", "LOG_RETENTION_WEEKS", "60", "LOG_RETENTION_WEEKS"},
		{"request body", "MAX_REQUEST_BODY", "-1", "MAX_REQUEST_BODY must be positive"},
		{"ftp source", "MEDICINES_SOURCE", "ftp://example.com/x.csv", "unsupported scheme"},
		{"hostless source", "DISEASES_SOURCE", "https:///x.csv", "URL has no host"},
		{"refresh clock", "REFRESH_AT", "25:00", "expected HH:MM"},
		{"openai url", "OPENAI_BASE_URL", "not a url", "OPENAI_BASE_URL"},
		{"session ttl", "SESSION_TTL", "10m", "SESSION_TTL"},
		{"download timeout", "DOWNLOAD_TIMEOUT", "0s", "DOWNLOAD_TIMEOUT"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("PORT", "8002")
			t.Setenv("ADDRESS", "127.0.0.1")
			t.Setenv("ENV", "dev")
			t.Setenv("LOG_LEVEL", "info")
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Expected error for %s=%s, got nil", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.expected) {
				t.Errorf("Expected error containing %q, got %v", tc.expected, err)
			}
		})
	}
}

func TestLoadSourcesAndOrigins(t *testing.T) {
	t.Setenv("MEDICINES_SOURCE", "https://cnas.example.ro/medicamente.csv")
	t.Setenv("FACETS_SOURCE", "/srv/data/all-filters.json")
	t.Setenv("REFRESH_AT", "23:30")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("OPENAI_TIMEOUT", "15s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.MedicinesSource != "https://cnas.example.ro/medicamente.csv" {
		t.Errorf("Unexpected medicines source %s", cfg.MedicinesSource)
	}
	if cfg.FacetsSource != "/srv/data/all-filters.json" {
		t.Errorf("Unexpected facets source %s", cfg.FacetsSource)
	}
	if cfg.RefreshAt != "23:30" {
		t.Errorf("Expected refresh 23:30, got %s", cfg.RefreshAt)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("Expected origins %v, got %v", want, cfg.AllowedOrigins)
	}
	if cfg.OpenAITimeout != 15*time.Second {
		t.Errorf("Expected timeout 15s, got %s", cfg.OpenAITimeout)
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		input    string
		expected Environment
		hasError bool
	}{
		{"dev", EnvDevelopment, false},
		{"development", EnvDevelopment, false},
		{"staging", EnvStaging, false},
		{"prod", EnvProduction, false},
		{"PRODUCTION", EnvProduction, false},
		{"test", EnvTest, false},
		{"invalid", EnvDevelopment, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			env, err := ParseEnvironment(tt.input)
			if tt.hasError {
				if err == nil {
					t.Errorf("Expected error for %s, got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error for %s: %v", tt.input, err)
			}
			if env != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, env)
			}
		})
	}
}

func TestEnvironmentString(t *testing.T) {
	tests := []struct {
		env      Environment
		expected string
	}{
		{EnvDevelopment, "dev"},
		{EnvStaging, "staging"},
		{EnvProduction, "prod"},
		{EnvTest, "test"},
	}

	for _, tt := range tests {
		if got := tt.env.String(); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}

func TestLoadDefaultCatalog(t *testing.T) {
	cat, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("Expected embedded catalog to load, got %v", err)
	}

	if cat.PrimaryColumn != "Denumire medicament" {
		t.Errorf("Unexpected primary column %q", cat.PrimaryColumn)
	}
	if cat.AllCategory != "toate" {
		t.Errorf("Expected all sentinel toate, got %s", cat.AllCategory)
	}

	tokens := cat.AgeTokens()
	expected := map[string]string{
		"copii":       "Copii",
		"adolescenti": "Adolescenți",
		"tineri":      "Tineri",
		"adulti":      "Adulți",
		"batrani":     "Bătrâni",
	}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected age tokens %v, got %v", expected, tokens)
	}

	var ids []string
	for _, c := range cat.CompensationCategories {
		ids = append(ids, c.ID)
	}
	if !reflect.DeepEqual(ids, []string{"C1", "C2", "C3", "A", "B", "D"}) {
		t.Errorf("Unexpected compensation order %v", ids)
	}

	if cat.CompensationCategories[4].Percentage != 50 {
		t.Errorf("Expected B to be 50%%, got %d", cat.CompensationCategories[4].Percentage)
	}
	if len(cat.DefaultVisibleColumns) != 4 {
		t.Errorf("Expected 4 default visible columns, got %v", cat.DefaultVisibleColumns)
	}
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		expected string
	}{
		{"malformed", "primary_column: [", "failed to parse catalog"},
		{"missing primary column", "age_column: b\ncompensation_column: c\n", "primary_column cannot be empty"},
		{
			"sentinel as id",
			"primary_column: a\nage_column: b\ncompensation_column: c\nage_categories:\n  - {id: toate, label: T, match: T}\n",
			"duplicate age category",
		},
		{
			"percentage out of range",
			"primary_column: a\nage_column: b\ncompensation_column: c\ncompensation_categories:\n  - {id: Z, percentage: 150}\n",
			"out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.expected) {
				t.Errorf("Expected error containing %q, got %v", tt.expected, err)
			}
		})
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `primary_column: Name
age_column: Age
compensation_column: List
all_category: any
age_categories:
  - {id: kids, label: Kids, match: Copii}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cat.AllCategory != "any" || cat.AgeTokens()["kids"] != "Copii" {
		t.Errorf("Unexpected catalog %+v", cat)
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing catalog file")
	}
}
