package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// Dashboard
	Variant        string        `yaml:"variant"` // accounts | curp
	LogBufferLimit int           `yaml:"log_buffer_limit"`
	DetailCacheTTL time.Duration `yaml:"detail_cache_ttl"`

	// Backend
	BackendURL     string        `yaml:"backend_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Polling
	BaselineInterval time.Duration `yaml:"baseline_interval"`
	LogPollInterval  time.Duration `yaml:"log_poll_interval"`
	SessionCeiling   time.Duration `yaml:"session_ceiling"`

	// Server
	ServerPort string `yaml:"server_port"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text | json
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Variant:          "curp",
		LogBufferLimit:   500,
		DetailCacheTTL:   2 * time.Second,
		BackendURL:       "http://localhost:8000",
		RequestTimeout:   30 * time.Second,
		BaselineInterval: 10 * time.Second,
		LogPollInterval:  2 * time.Second,
		SessionCeiling:   60 * time.Second,
		ServerPort:       "8080",
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load loads configuration from the optional YAML file named by CONFIG_FILE,
// then applies environment variable overrides
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Variant = getEnv("DASHBOARD_VARIANT", cfg.Variant)
	cfg.LogBufferLimit = getEnvAsInt("LOG_BUFFER_LIMIT", cfg.LogBufferLimit)
	cfg.DetailCacheTTL = getEnvAsDuration("DETAIL_CACHE_TTL", cfg.DetailCacheTTL)
	cfg.BackendURL = getEnv("BACKEND_URL", cfg.BackendURL)
	cfg.RequestTimeout = getEnvAsDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.BaselineInterval = getEnvAsDuration("BASELINE_INTERVAL", cfg.BaselineInterval)
	cfg.LogPollInterval = getEnvAsDuration("LOG_POLL_INTERVAL", cfg.LogPollInterval)
	cfg.SessionCeiling = getEnvAsDuration("SESSION_CEILING", cfg.SessionCeiling)
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	return cfg, cfg.Validate()
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	var errs []error
	if c.BackendURL == "" {
		errs = append(errs, errors.New("BACKEND_URL is required"))
	}
	if c.Variant != "accounts" && c.Variant != "curp" {
		errs = append(errs, fmt.Errorf("DASHBOARD_VARIANT must be accounts or curp, got %q", c.Variant))
	}
	for name, d := range map[string]time.Duration{
		"REQUEST_TIMEOUT":   c.RequestTimeout,
		"BASELINE_INTERVAL": c.BaselineInterval,
		"LOG_POLL_INTERVAL": c.LogPollInterval,
		"SESSION_CEILING":   c.SessionCeiling,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
