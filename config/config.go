// Package config loads collector settings from defaults, a YAML file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/blogem/devlog-collector/models"
)

// Environment variables read by Load
const (
	EnvConfig   = "DEVLOG_CONFIG"
	EnvHost     = "DEVLOG_HOST"
	EnvPort     = "DEVLOG_PORT"
	EnvCapacity = "DEVLOG_CAPACITY"
	EnvMaxConns = "DEVLOG_MAX_CONNS"
	EnvAuditDB  = "DEVLOG_AUDIT_DB"
	EnvQuiet    = "DEVLOG_QUIET"
)

// Config is the collector configuration
type Config struct {
	Host           string                   `yaml:"host"`
	Port           int                      `yaml:"port"`
	Capacity       int                      `yaml:"capacity"`
	MaxConnections int                      `yaml:"max_connections"` // 0 means unlimited
	AuditDB        string                   `yaml:"audit_db"`
	Quiet          bool                     `yaml:"quiet"`
	Dashboard      models.DashboardSettings `yaml:"dashboard"`
}

// Default returns built-in defaults
func Default() Config {
	return Config{
		Host:     "0.0.0.0",
		Port:     8081,
		Capacity: 1000,
		Dashboard: models.DashboardSettings{
			Title:          "Debug Log Dashboard",
			RefreshSeconds: 5,
			Recent:         50,
		},
	}
}

// Addr returns the listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load builds the configuration from defaults, the YAML file at path (if any),
// a .env file in the working directory (if present) and the environment.
// An empty path falls back to $DEVLOG_CONFIG.
// The result is not validated; callers layer their own overrides first and
// then call Validate.
func Load(path string) (Config, error) {
	// A missing .env is normal; anything else is worth failing on
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFile reads a YAML configuration file on top of the defaults
func LoadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Host = v
	}

	// PORT is honoured for compatibility with hosting platforms
	for _, key := range []string{"PORT", EnvPort} {
		if v := os.Getenv(key); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			cfg.Port = port
		}
	}

	if v := os.Getenv(EnvCapacity); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvCapacity, v, err)
		}
		cfg.Capacity = n
	}

	if v := os.Getenv(EnvMaxConns); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxConns, v, err)
		}
		cfg.MaxConnections = n
	}

	if v := os.Getenv(EnvAuditDB); v != "" {
		cfg.AuditDB = v
	}

	if v := os.Getenv(EnvQuiet); v != "" {
		quiet, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvQuiet, v, err)
		}
		cfg.Quiet = quiet
	}

	return nil
}

// Validate checks the configuration for values the server cannot run with
func (c Config) Validate() error {
	var problems []string

	if c.Port < 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", c.Port))
	}
	if c.Capacity <= 0 {
		problems = append(problems, "capacity must be positive")
	}
	if c.MaxConnections < 0 {
		problems = append(problems, "max_connections must not be negative")
	}
	if c.Dashboard.RefreshSeconds <= 0 {
		problems = append(problems, "dashboard.refresh_seconds must be positive")
	}
	if c.Dashboard.Recent <= 0 {
		problems = append(problems, "dashboard.recent must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
	}
	return nil
}
