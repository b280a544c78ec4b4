// Package config provides configuration loading and validation for the API
// server. It uses koanf to merge environment variables with optional file
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database. Empty means the in-memory stores are used, which is the
	// development and test default.
	DatabaseURL string `koanf:"database_url"`

	// Redis. Empty disables the trending cache and its health check.
	RedisURL string `koanf:"redis_url"`

	// JWT Authentication. Empty disables bearer-token viewer extraction;
	// the viewer then comes from the viewer_id query parameter only.
	JWTSecret string `koanf:"jwt_secret"`

	// RankingCalibrationPath points at an optional JSON file overriding
	// the default ranking weights and thresholds.
	RankingCalibrationPath string `koanf:"ranking_calibration_path"`
}

// Configuration validation errors.
var (
	ErrInvalidPort     = errors.New("PORT must be a valid integer")
	ErrPortOutOfRange  = errors.New("PORT must be between 1 and 65535")
	ErrInvalidRedisURL = errors.New("REDIS_URL must be a redis:// URL")
)

// Default values for non-secret configuration.
const (
	DefaultPort = 8080
	DefaultEnv  = "development"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if
// valid). If a config file path is provided and the file cannot be loaded,
// an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Try FEEDRANK_PORT first, then PORT for container platforms.
	port, portErr := getEnvIntOrDefaultMulti([]string{"FEEDRANK_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	cfg := &Config{
		Port:                   port,
		Env:                    getEnvOrDefaultMulti([]string{"FEEDRANK_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:            getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisURL:               getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		JWTSecret:              getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		RankingCalibrationPath: getEnvOrKoanf("RANKING_CALIBRATION_PATH", k, "ranking_calibration_path"),
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// Validate checks the configuration for invalid values. The database and
// Redis URLs are optional, so validation only rejects malformed values.
func (c *Config) Validate() []error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrPortOutOfRange)
	}

	if c.RedisURL != "" && len(c.RedisURL) < len("redis://") {
		errs = append(errs, ErrInvalidRedisURL)
	}

	return errs
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or
// default. Returns an error if an environment variable is set but cannot be
// parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}
