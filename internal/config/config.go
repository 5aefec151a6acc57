package config

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/nodeshim/internal/shared/paths"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Sandbox   SandboxConfig
	Registry  RegistryConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// SandboxConfig holds script execution configuration.
type SandboxConfig struct {
	BaseDirectory string        `envconfig:"BASE_DIR" default:"C:\\workspace"`
	Timeout       time.Duration `envconfig:"SANDBOX_TIMEOUT" default:"5s"`
	PoolSize      int           `envconfig:"SANDBOX_POOL_SIZE" default:"4"`
}

// RegistryConfig holds module registry configuration.
type RegistryConfig struct {
	MaxDepth         int    `envconfig:"MAX_REQUIRE_DEPTH" default:"5"`
	ProgressInterval int    `envconfig:"PROGRESS_INTERVAL" default:"50"`
	ManifestPath     string `envconfig:"MANIFEST_PATH"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Sandbox: SandboxConfig{
			BaseDirectory: `C:\workspace`,
			Timeout:       5 * time.Second,
			PoolSize:      4,
		},
		Registry: RegistryConfig{
			MaxDepth:         5,
			ProgressInterval: 50,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate rejects values the sandbox cannot run with.
func (c *Config) Validate() error {
	if _, err := paths.ParseBase(c.Sandbox.BaseDirectory); err != nil {
		return fmt.Errorf("invalid BASE_DIR: %w", err)
	}
	if c.Sandbox.Timeout <= 0 {
		return fmt.Errorf("invalid SANDBOX_TIMEOUT: %s", c.Sandbox.Timeout)
	}
	if c.Sandbox.PoolSize <= 0 {
		return fmt.Errorf("invalid SANDBOX_POOL_SIZE: %d", c.Sandbox.PoolSize)
	}
	if c.Registry.MaxDepth <= 0 {
		return fmt.Errorf("invalid MAX_REQUIRE_DEPTH: %d", c.Registry.MaxDepth)
	}
	if c.Registry.ProgressInterval <= 0 {
		return fmt.Errorf("invalid PROGRESS_INTERVAL: %d", c.Registry.ProgressInterval)
	}
	return nil
}
