package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*ReportAPIConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultReportAPIConfig
	v.SetDefault("report_api.host", "0.0.0.0")
	v.SetDefault("report_api.port", 8080)
	v.SetDefault("report_api.max_rows", 250_000)
	v.SetDefault("report_api.request_timeout", "30s")
	v.SetDefault("report_api.database_url", "")
	v.SetDefault("report_api.data_dir", "./data")

	// Bind environment variables with RPT_ prefix
	v.SetEnvPrefix("RPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Security check: reject secrets in config files
	// Secrets must be environment-only per 12-factor principles
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &ReportAPIConfig{
		Host:           v.GetString("report_api.host"),
		Port:           v.GetInt("report_api.port"),
		MaxRows:        v.GetInt("report_api.max_rows"),
		RequestTimeout: v.GetDuration("report_api.request_timeout"),
		DatabaseURL:    v.GetString("report_api.database_url"),
		DataDir:        v.GetString("report_api.data_dir"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive values for row limit and timeout.
func validateConfig(cfg *ReportAPIConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.MaxRows <= 0 {
		return fmt.Errorf("max_rows must be positive, got %d", cfg.MaxRows)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.IsSet("hmac_secret") || v.IsSet("report_api.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use RPT_HMAC_SECRET environment variable)")
	}
	return nil
}
