package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	ListenAddr    string
	SheetID       string
	DBPath        string
	CacheTTL      time.Duration
	AeroAPIKey    string
	StatusBase    string
	AlternateURLs []string
	MaxAttempts   int
	BackoffBaseMS int
	Log           LogConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from config file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("sheet_id", "")
	v.SetDefault("db_path", "lookups.db")
	v.SetDefault("cache_ttl", "0")
	v.SetDefault("aeroapi_key", "")
	v.SetDefault("status_base", "https://www.united.com")
	v.SetDefault("alternate_urls", []string{})
	v.SetDefault("max_attempts", 3)
	v.SetDefault("backoff_base_ms", 500)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/united-check")
	v.AddConfigPath(".")

	if configPath := os.Getenv("UNITED_CHECK_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	// Config file not found is fine; defaults and env vars carry it.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("UNITED_CHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		ListenAddr:    v.GetString("listen_addr"),
		SheetID:       v.GetString("sheet_id"),
		DBPath:        v.GetString("db_path"),
		CacheTTL:      v.GetDuration("cache_ttl"),
		AeroAPIKey:    v.GetString("aeroapi_key"),
		StatusBase:    v.GetString("status_base"),
		AlternateURLs: v.GetStringSlice("alternate_urls"),
		MaxAttempts:   v.GetInt("max_attempts"),
		BackoffBaseMS: v.GetInt("backoff_base_ms"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}

	if cfg.SheetID == "" {
		return fmt.Errorf("sheet_id is required")
	}

	if cfg.MaxAttempts < 2 || cfg.MaxAttempts > 5 {
		return fmt.Errorf("max_attempts must be between 2 and 5")
	}

	if cfg.BackoffBaseMS <= 0 {
		return fmt.Errorf("backoff_base_ms must be greater than 0")
	}

	if cfg.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
