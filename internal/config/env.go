package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment selects the log output format.
type Environment string

const (
	// EnvDevelopment writes human-readable console logs.
	EnvDevelopment Environment = "development"
	// EnvProduction writes JSON logs.
	EnvProduction Environment = "production"
)

// Environment variables that override file settings.
const (
	EnvVarEnvironment      = "AVAILCHECK_ENV"
	EnvVarDataDir          = "AVAILCHECK_DATA_DIR"
	EnvVarReportsDir       = "AVAILCHECK_REPORTS_DIR"
	EnvVarWindow           = "AVAILCHECK_WINDOW"
	EnvVarHealthyThreshold = "AVAILCHECK_HEALTHY_THRESHOLD"
	EnvVarLogLevel         = "AVAILCHECK_LOG_LEVEL"
)

// LoadEnvironment reads AVAILCHECK_ENV, defaulting to development.
func LoadEnvironment() Environment {
	env := Environment(strings.ToLower(strings.TrimSpace(os.Getenv(EnvVarEnvironment))))
	switch env {
	case EnvDevelopment, EnvProduction:
		return env
	default:
		return EnvDevelopment
	}
}

// ApplyEnv overrides settings from AVAILCHECK_* environment variables.
// Unset or unparseable values leave the current setting in place.
func (c *Config) ApplyEnv() {
	if v := getEnv(EnvVarDataDir); v != "" {
		c.DataDir = v
	}
	if v := getEnv(EnvVarReportsDir); v != "" {
		c.ReportsDir = v
	}
	if v := getEnv(EnvVarWindow); v != "" {
		c.Window = v
	}
	c.HealthyThreshold = getEnvFloat(EnvVarHealthyThreshold, c.HealthyThreshold)
	if v := getEnv(EnvVarLogLevel); v != "" {
		c.LogLevel = v
	}
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// getEnvFloat reads a float from an environment variable, returning the default if unset or invalid.
func getEnvFloat(key string, defaultVal float64) float64 {
	val := getEnv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}
