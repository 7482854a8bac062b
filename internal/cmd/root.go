// Package cmd provides the command-line interface for SEO Audit.
// It handles command parsing, configuration loading, and wiring the
// storage, runner and scheduler together.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/seoaudit/seoaudit/internal/config"
	"github.com/seoaudit/seoaudit/internal/logging"
	"github.com/seoaudit/seoaudit/internal/report"
	"github.com/seoaudit/seoaudit/internal/runner"
	"github.com/seoaudit/seoaudit/internal/storage"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "seoaudit",
	Short: "A technical SEO audit tool with scheduled crawls and AI reports",
	Long: `SEO Audit crawls websites, records pages, links, resources and
sitemaps, derives SEO issues with severities, and scores each run with a
0-100 health score. Audits can run on a daily, weekly or monthly schedule
and completed runs can be summarized by an LLM into an action report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		showConfig, _ := cmd.Flags().GetBool("show-config")
		if showConfig {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return showCurrentConfig(cfg)
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./seoaudit.yml)")
	rootCmd.PersistentFlags().StringP("database", "d", "./seoaudit.db", "Path to SQLite database file")
	rootCmd.PersistentFlags().String("tenant", "default", "Tenant all commands operate as")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-file", "", "Log file path (enables JSON file logging)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit JSON log lines on the console")

	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"database_path", "database"},
		{"tenant", "tenant"},
		{"log.level", "log-level"},
		{"log.file", "log-file"},
		{"log.json", "log-json"},
	}

	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.PersistentFlags().Lookup(bind.flagName)); err != nil {
			// Log the error but continue - non-critical for operation
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if err := config.LoadDotenv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in current directory
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("seoaudit")
	}

	viper.AutomaticEnv() // read in environment variables that match
	viper.SetEnvPrefix("SEOAUDIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, config file, environment and flags into the
// application configuration.
func loadConfig() (*config.AppConfig, error) {
	cfg := config.DefaultConfig()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func showCurrentConfig(cfg *config.AppConfig) error {
	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Printf("# Current SEO Audit Configuration\n")
	fmt.Printf("# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Printf("# Configuration file search paths: ./seoaudit.yml\n")
	fmt.Printf("# Environment variables prefix: SEOAUDIT_\n\n")

	fmt.Print(string(yamlData))

	fmt.Printf("\n# Configuration source priority:\n")
	fmt.Printf("# 1. Command-line arguments (highest priority)\n")
	fmt.Printf("# 2. Environment variables (SEOAUDIT_ prefix)\n")
	fmt.Printf("# 3. Configuration file (seoaudit.yml)\n")
	fmt.Printf("# 4. Default values (lowest priority)\n")

	return nil
}

// setupLogging installs the process default logger per the configuration.
func setupLogging(cfg *config.AppConfig) (*slog.Logger, error) {
	logCfg := logging.Config{
		Level:      logging.ParseLevel(cfg.Log.Level),
		FilePath:   cfg.Log.File,
		MaxSize:    int64(cfg.Log.MaxSizeMB),
		MaxBackups: cfg.Log.MaxBackups,
		Console:    true,
		JSON:       cfg.Log.JSON,
	}
	if err := logging.SetDefault(logCfg); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return slog.Default(), nil
}

// openStore opens the SQLite database, creating its directory if needed.
func openStore(cfg *config.AppConfig) (*storage.Store, error) {
	dbDir := filepath.Dir(cfg.DatabasePath)
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DatabasePath, err)
	}
	return store, nil
}

// newRunner builds the audit runner. The AI report generator is attached
// only when the LLM settings are complete; audits still run without it.
func newRunner(cfg *config.AppConfig, store *storage.Store, logger *slog.Logger) *runner.Runner {
	var generator *report.Generator
	if cfg.LLM.ReportsConfigured() {
		generator = report.NewGenerator(report.Config{
			Provider:          cfg.LLM.Provider,
			Model:             cfg.LLM.Model,
			BaseURL:           cfg.LLM.BaseURL,
			APIKey:            cfg.LLM.ResolveAPIKey(),
			InputCostPerMTok:  cfg.LLM.InputCostPerMTok,
			OutputCostPerMTok: cfg.LLM.OutputCostPerMTok,
			Timeout:           time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		}, store, logger)
	} else {
		logger.Debug("AI reports disabled, LLM settings incomplete")
	}

	return runner.New(store, generator, logger)
}

// bootstrap is the shared setup for commands that touch the database.
// The returned cleanup closes the store.
func bootstrap() (*config.AppConfig, *storage.Store, *slog.Logger, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}
	return cfg, store, logger, cleanup, nil
}
