// Package config loads and persists the opsboard service configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DBConfig holds storage settings.
type DBConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// WorkingHoursConfig describes the business-hours window used when
// deriving task start times. When disabled, derivation falls back to
// naive clock arithmetic.
type WorkingHoursConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	DayStart string `mapstructure:"day_start" yaml:"day_start"`
	DayEnd   string `mapstructure:"day_end" yaml:"day_end"`
}

// CalendarConfig describes the day-timeline view window and the
// overload advisory threshold.
type CalendarConfig struct {
	WindowStart       string `mapstructure:"window_start" yaml:"window_start"`
	WindowEnd         string `mapstructure:"window_end" yaml:"window_end"`
	FallbackStart     string `mapstructure:"fallback_start" yaml:"fallback_start"`
	OverloadThreshold int    `mapstructure:"overload_threshold" yaml:"overload_threshold"`
}

// AppConfig is the top-level service configuration.
type AppConfig struct {
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	DB           DBConfig           `mapstructure:"db" yaml:"db"`
	LogLevel     string             `mapstructure:"log_level" yaml:"log_level"`
	WorkingHours WorkingHoursConfig `mapstructure:"working_hours" yaml:"working_hours"`
	Calendar     CalendarConfig     `mapstructure:"calendar" yaml:"calendar"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/opsboard/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "opsboard", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server:   ServerConfig{Addr: ":8080"},
		DB:       DBConfig{Path: defaultDBPath()},
		LogLevel: "info",
		WorkingHours: WorkingHoursConfig{
			Enabled:  false,
			DayStart: "09:00",
			DayEnd:   "17:00",
		},
		Calendar: CalendarConfig{
			WindowStart:       "06:00",
			WindowEnd:         "22:00",
			FallbackStart:     "09:00",
			OverloadThreshold: 3,
		},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "opsboard.db")
	}
	return filepath.Join(home, ".local", "share", "opsboard", "opsboard.db")
}

// Load reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("db.path", defaultDBPath())
	v.SetDefault("log_level", "info")
	v.SetDefault("working_hours.enabled", false)
	v.SetDefault("working_hours.day_start", "09:00")
	v.SetDefault("working_hours.day_end", "17:00")
	v.SetDefault("calendar.window_start", "06:00")
	v.SetDefault("calendar.window_end", "22:00")
	v.SetDefault("calendar.fallback_start", "09:00")
	v.SetDefault("calendar.overload_threshold", 3)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func Save(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("db", cfg.DB)
	v.Set("log_level", cfg.LogLevel)
	v.Set("working_hours", cfg.WorkingHours)
	v.Set("calendar", cfg.Calendar)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
