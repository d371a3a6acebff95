// Package config provides configuration management for the sideways trend analyser.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"sideways-trend/internal/errors"
	"sideways-trend/internal/trend"
)

// EnvPrefix prefixes environment variables that override config values,
// e.g. SIDEWAYS_ANALYSIS_MAX_PCT_CHANGE.
const EnvPrefix = "SIDEWAYS"

// Config holds all application configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Data     DataConfig     `mapstructure:"data"`
	Store    StoreConfig    `mapstructure:"store"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Dir      string         `mapstructure:"-"`
}

// AnalysisConfig holds search defaults.
type AnalysisConfig struct {
	MaxPctChange float64 `mapstructure:"max_pct_change"`
	Algorithm    string  `mapstructure:"algorithm"` // "divide", "naive"
}

// DataConfig describes the layout of price files.
type DataConfig struct {
	DateColumn  string `mapstructure:"date_column"`
	CloseColumn string `mapstructure:"close_column"`
	DateFormat  string `mapstructure:"date_format"` // Go time layout
	PriceScale  int32  `mapstructure:"price_scale"` // decimals, 2 for cents
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       bool   `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/sideways-trend"
	}
	return filepath.Join(home, ".config", "sideways-trend")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.max_pct_change", 5.0)
	v.SetDefault("analysis.algorithm", string(trend.DivideAndConquer))
	v.SetDefault("data.date_column", "Date")
	v.SetDefault("data.close_column", "Close")
	v.SetDefault("data.date_format", "02-Jan-06")
	v.SetDefault("data.price_scale", 2)
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 30)
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a commented template and defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// A .env file in the working directory is optional.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Dir = configDir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	pct := c.Analysis.MaxPctChange
	if math.IsNaN(pct) || math.IsInf(pct, 0) || pct < 0 {
		return errors.NewValidationError("analysis.max_pct_change", pct, "must be a finite, non-negative percentage")
	}
	if _, err := trend.ParseAlgorithm(c.Analysis.Algorithm); err != nil {
		return errors.NewValidationError("analysis.algorithm", c.Analysis.Algorithm, "must be 'divide' or 'naive'")
	}
	if strings.TrimSpace(c.Data.DateColumn) == "" {
		return errors.NewValidationError("data.date_column", c.Data.DateColumn, "must not be empty")
	}
	if strings.TrimSpace(c.Data.CloseColumn) == "" {
		return errors.NewValidationError("data.close_column", c.Data.CloseColumn, "must not be empty")
	}
	if strings.TrimSpace(c.Data.DateFormat) == "" {
		return errors.NewValidationError("data.date_format", c.Data.DateFormat, "must not be empty")
	}
	if c.Data.PriceScale < 0 || c.Data.PriceScale > 8 {
		return errors.NewValidationError("data.price_scale", c.Data.PriceScale, "must be between 0 and 8")
	}
	return nil
}

// Algorithm returns the configured search algorithm.
func (c *Config) Algorithm() trend.Algorithm {
	alg, _ := trend.ParseAlgorithm(c.Analysis.Algorithm)
	return alg
}

// StorePath returns the SQLite database path.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(c.Dir, "sideways.db")
}

// LogPath returns the rotating log file path.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir, "logs", "sideways.log")
}
