// Package config loads and validates the explorer configuration from the environment.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment is the deployment environment named by ENV.
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

// ParseEnvironment accepts the short and long spellings of an environment name.
func ParseEnvironment(value string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	}
	return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", value)
}

func (e Environment) String() string {
	return string(e)
}

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	// Data sources: http(s) URLs or local paths
	MedicinesSource string
	DiseasesSource  string
	FacetsSource    string // optional precomputed facet file
	CatalogFile     string // optional catalog.yaml, embedded default otherwise
	RefreshAt       string // daily reload time, HH:MM
	DownloadTimeout time.Duration

	StorePath  string        // SQLite file for session state
	SessionTTL time.Duration // sessions untouched for longer are pruned

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAITimeout time.Duration

	AllowedOrigins []string
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB

		MedicinesSource: getEnvWithDefault("MEDICINES_SOURCE", "data/medicamente_cu_boli_COMPLET.csv"),
		DiseasesSource:  getEnvWithDefault("DISEASES_SOURCE", "data/coduri_boala.csv"),
		FacetsSource:    os.Getenv("FACETS_SOURCE"),
		CatalogFile:     os.Getenv("CATALOG_FILE"),
		RefreshAt:       getEnvWithDefault("REFRESH_AT", "05:00"),
		DownloadTimeout: getDurationEnvWithDefault("DOWNLOAD_TIMEOUT", 2*time.Minute),

		StorePath:  getEnvWithDefault("STORE_PATH", "data/sessions.db"),
		SessionTTL: getDurationEnvWithDefault("SESSION_TTL", 30*24*time.Hour),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnvWithDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnvWithDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAITimeout: getDurationEnvWithDefault("OPENAI_TIMEOUT", 60*time.Second),

		AllowedOrigins: getListEnvWithDefault("ALLOWED_ORIGINS", []string{"*"}),
	}

	env, err := ParseEnvironment(getEnvWithDefault("ENV", "dev"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}
	cfg.Env = env

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if cfg.LogRetentionWeeks <= 0 || cfg.LogRetentionWeeks > 52 {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: must be between 1 and 52, got: %d", cfg.LogRetentionWeeks)
	}

	if cfg.MaxLogFileSize < 1024*1024 || cfg.MaxLogFileSize > 1024*1024*1024 {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: must be between 1MB and 1GB, got: %d bytes", cfg.MaxLogFileSize)
	}

	if err := validateSource(cfg.MedicinesSource); err != nil {
		return fmt.Errorf("invalid MEDICINES_SOURCE: %w", err)
	}

	if err := validateSource(cfg.DiseasesSource); err != nil {
		return fmt.Errorf("invalid DISEASES_SOURCE: %w", err)
	}

	if cfg.FacetsSource != "" {
		if err := validateSource(cfg.FacetsSource); err != nil {
			return fmt.Errorf("invalid FACETS_SOURCE: %w", err)
		}
	}

	if err := validateClock(cfg.RefreshAt); err != nil {
		return fmt.Errorf("invalid REFRESH_AT: %w", err)
	}

	if cfg.DownloadTimeout <= 0 {
		return fmt.Errorf("invalid DOWNLOAD_TIMEOUT: must be positive")
	}

	if cfg.StorePath == "" {
		return fmt.Errorf("STORE_PATH cannot be empty")
	}

	if cfg.SessionTTL < time.Hour {
		return fmt.Errorf("invalid SESSION_TTL: must be at least 1h, got: %s", cfg.SessionTTL)
	}

	if _, err := url.ParseRequestURI(cfg.OpenAIBaseURL); err != nil {
		return fmt.Errorf("invalid OPENAI_BASE_URL: %w", err)
	}

	if cfg.OpenAITimeout <= 0 {
		return fmt.Errorf("invalid OPENAI_TIMEOUT: must be positive")
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" || address == "0.0.0.0" {
		return nil
	}

	if ip := net.ParseIP(address); ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env Environment) error {
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction, EnvTest:
		return nil
	}
	return fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	switch strings.ToLower(logLevel) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("LOG_LEVEL must be one of: [debug info warn error], got: %s", logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 {
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateSource accepts http(s) URLs and non-empty local paths.
func validateSource(source string) error {
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf("source cannot be empty")
	}

	if strings.Contains(source, "://") {
		u, err := url.Parse(source)
		if err != nil {
			return fmt.Errorf("malformed URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("unsupported scheme %q", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("URL has no host")
		}
	}

	return nil
}

// validateClock checks a HH:MM wall-clock time.
func validateClock(value string) error {
	if _, err := time.Parse("15:04", value); err != nil {
		return fmt.Errorf("expected HH:MM, got %q", value)
	}
	return nil
}

// IsDevelopment reports whether the profiling endpoints may be started.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getListEnvWithDefault splits a comma-separated variable, dropping blanks.
func getListEnvWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"MEDICINES_SOURCE",
		"DISEASES_SOURCE",
		"FACETS_SOURCE",
		"CATALOG_FILE",
		"REFRESH_AT",
		"DOWNLOAD_TIMEOUT",
		"STORE_PATH",
		"SESSION_TTL",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"OPENAI_MODEL",
		"OPENAI_TIMEOUT",
		"ALLOWED_ORIGINS",
	}
}
