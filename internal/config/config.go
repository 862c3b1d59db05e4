// Package config provides configuration management for availcheck.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Defaults applied to missing or zero-valued settings.
const (
	DefaultWindow           = "24h"
	DefaultHealthyThreshold = 75.0
	DefaultReportName       = "agent_availability_report"
	DefaultLogLevel         = "info"
)

// DefaultConfigDir returns the default config directory (~/.availcheck).
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".availcheck"), nil
}

// DefaultConfigPath returns the default config file path (~/.availcheck/config.yml).
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// Config holds the availcheck configuration.
type Config struct {
	// DataDir holds the baseline database. Empty means the config directory.
	DataDir string `yaml:"data_dir,omitempty"`
	// ReportsDir receives generated reports. Empty means the working directory.
	ReportsDir       string  `yaml:"reports_dir,omitempty"`
	Window           string  `yaml:"window,omitempty"`
	HealthyThreshold float64 `yaml:"healthy_threshold,omitempty"`
	ReportName       string  `yaml:"report_name,omitempty"`
	LogLevel         string  `yaml:"log_level,omitempty"`
}

// Default returns a config with every setting at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Window == "" {
		c.Window = DefaultWindow
	}
	if c.HealthyThreshold == 0 {
		c.HealthyThreshold = DefaultHealthyThreshold
	}
	if c.ReportName == "" {
		c.ReportName = DefaultReportName
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	window, err := time.ParseDuration(c.Window)
	if err != nil {
		return fmt.Errorf("window %q is not a duration: %w", c.Window, err)
	}
	if window <= 0 {
		return errors.New("window must be positive")
	}
	if c.HealthyThreshold < 0 || c.HealthyThreshold > 100 {
		return fmt.Errorf("healthy_threshold must be between 0 and 100, got %v", c.HealthyThreshold)
	}
	if strings.ContainsAny(c.ReportName, `/\`) {
		return fmt.Errorf("report_name must be a file name, got %q", c.ReportName)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// WindowDuration returns the parsed freshness window, or 0 when it is invalid.
func (c *Config) WindowDuration() time.Duration {
	d, err := time.ParseDuration(c.Window)
	if err != nil {
		return 0
	}
	return d
}

// ResolveDataDir returns DataDir, falling back to the default config directory.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return expandHome(c.DataDir)
	}
	return DefaultConfigDir()
}

// ResolveReportsDir returns ReportsDir, falling back to the working directory.
func (c *Config) ResolveReportsDir() (string, error) {
	if c.ReportsDir != "" {
		return expandHome(c.ReportsDir)
	}
	return os.Getwd()
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Load reads the configuration from the given path.
// If the file does not exist, the defaults are returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// Save writes the configuration to the given path, creating directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Marshal returns the YAML form of the configuration.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
