package config

import (
	"os"
	"strconv"
	"time"

	"datalens/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	Data    DataConfig
	Logging LoggingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// DataConfig holds data processing settings
type DataConfig struct {
	// MaxColumns bounds how many columns one analysis request may carry.
	MaxColumns int
	// MaxRows bounds the per-column value count accepted at the boundary.
	MaxRows int
	// DefaultAlpha is the significance level used when a request omits one.
	DefaultAlpha float64
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			MaxBodyBytes:    getInt64("SERVER_MAX_BODY_BYTES", 32<<20),
		},
		Data: DataConfig{
			MaxColumns:   getInt("DATA_MAX_COLUMNS", 200),
			MaxRows:      getInt("DATA_MAX_ROWS", 500000),
			DefaultAlpha: getFloat("DATA_DEFAULT_ALPHA", 0.05),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return errors.ConfigInvalid("PORT must not be empty")
	}
	if c.Data.MaxColumns <= 0 {
		return errors.ConfigInvalid("DATA_MAX_COLUMNS must be positive")
	}
	if c.Data.MaxRows <= 0 {
		return errors.ConfigInvalid("DATA_MAX_ROWS must be positive")
	}
	if c.Data.DefaultAlpha <= 0 || c.Data.DefaultAlpha >= 1 {
		return errors.ConfigInvalid("DATA_DEFAULT_ALPHA must be in (0, 1)")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
