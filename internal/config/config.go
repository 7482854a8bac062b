// Package config defines the application-level configuration: where the
// database lives, how logging behaves, and which LLM provider backs the
// AI reports. Per-project crawl settings are stored on the project itself.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`             // debug, info, warn or error
	File       string `mapstructure:"file" yaml:"file"`               // Optional log file path
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"` // Rotation threshold
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"` // Rotated files to keep
	JSON       bool   `mapstructure:"json" yaml:"json"`               // JSON lines on the console
}

// LLMConfig holds the AI report provider settings. The API key is read
// from the environment variable named by APIKeyEnv, never from the file.
type LLMConfig struct {
	Provider          string  `mapstructure:"provider" yaml:"provider"`
	Model             string  `mapstructure:"model" yaml:"model"`
	BaseURL           string  `mapstructure:"base_url" yaml:"base_url"`
	APIKeyEnv         string  `mapstructure:"api_key_env" yaml:"api_key_env"`
	InputCostPerMTok  float64 `mapstructure:"input_cost_per_mtok" yaml:"input_cost_per_mtok"`
	OutputCostPerMTok float64 `mapstructure:"output_cost_per_mtok" yaml:"output_cost_per_mtok"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// AppConfig is the root application configuration.
type AppConfig struct {
	DatabasePath string    `mapstructure:"database_path" yaml:"database_path"` // Path to SQLite database file
	Tenant       string    `mapstructure:"tenant" yaml:"tenant"`               // Tenant all commands operate as
	UserAgent    string    `mapstructure:"user_agent" yaml:"user_agent"`       // Default User-Agent for new projects
	Log          LogConfig `mapstructure:"log" yaml:"log"`
	LLM          LLMConfig `mapstructure:"llm" yaml:"llm"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		DatabasePath: "./seoaudit.db",
		Tenant:       "default",
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
		},
		LLM: LLMConfig{
			Provider:          "openai",
			Model:             "gpt-4o-mini",
			BaseURL:           "https://api.openai.com/v1",
			APIKeyEnv:         "OPENAI_API_KEY",
			InputCostPerMTok:  0.15,
			OutputCostPerMTok: 0.60,
			TimeoutSeconds:    120,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *AppConfig) Validate() error {
	if c.DatabasePath == "" {
		return ErrEmptyDatabasePath
	}
	if c.Tenant == "" {
		return ErrEmptyTenant
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return ErrInvalidLogLevel
	}

	if c.Log.File != "" && c.Log.MaxSizeMB <= 0 {
		return ErrInvalidLogRotation
	}

	return nil
}

// ResolveAPIKey returns the LLM API key from the configured environment
// variable. Empty means report generation is unavailable.
func (c *LLMConfig) ResolveAPIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// ReportsConfigured reports whether the settings are complete enough to
// call the provider.
func (c *LLMConfig) ReportsConfigured() bool {
	return c.Model != "" && c.BaseURL != "" && c.ResolveAPIKey() != ""
}

// LoadDotenv loads a .env file from the working directory into the
// process environment. A missing file is not an error.
func LoadDotenv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
