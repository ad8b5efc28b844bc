// Package config loads process settings from the environment and the company
// profile from a YAML file.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL           string
	HTTPPort              string
	AdminAPIKey           string
	BatchConcurrency      int
	ExportInterval        time.Duration
	ExportXLSXPath        string
	GoogleSheetsID        string
	GoogleCredentialsJSON string
	CompanyFile           string
	CompanyCUIT           string
	IndicesFile           string
	IndexImportInterval   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present; variables
// already set in the environment take precedence over it.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	return Config{
		DatabaseURL:           envOrDefault("DATABASE_URL", "bienes.db"),
		HTTPPort:              envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:           envOrDefault("ADMIN_API_KEY", ""),
		BatchConcurrency:      envOrDefaultInt("BATCH_CONCURRENCY", 4),
		ExportInterval:        envOrDefaultDuration("EXPORT_INTERVAL", 1*time.Hour),
		ExportXLSXPath:        envOrDefault("EXPORT_XLSX_PATH", ""),
		GoogleSheetsID:        envOrDefault("GOOGLE_SHEETS_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
		CompanyFile:           envOrDefault("COMPANY_FILE", "empresa.yaml"),
		CompanyCUIT:           envOrDefaultWarn("COMPANY_CUIT", ""),
		IndicesFile:           envOrDefault("INDICES_FILE", ""),
		IndexImportInterval:   envOrDefaultDuration("INDEX_IMPORT_INTERVAL", 15*time.Minute),
	}
}

// SheetsEnabled reports whether both Google Sheets settings are present.
func (c Config) SheetsEnabled() bool {
	return c.GoogleSheetsID != "" && c.GoogleCredentialsJSON != ""
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			slog.Warn("invalid positive integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
