package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for motcheck-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (database password, DVSA credentials) must only come from environment
// variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"5000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Storage selects the repository implementation: "postgres" or "memory".
	// The in-memory store is for demos and tests only; nothing survives restart.
	Storage string `yaml:"storage" env:"STORAGE_DRIVER" env-default:"postgres"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// DVSA MOT History API configuration
	DVSA DVSAConfig `yaml:"dvsa"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"motcheck"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"motcheck_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// DVSAConfig holds credentials and endpoints for the DVSA MOT History API.
// ClientID, ClientSecret, TokenURL and APIKey are all required before any
// upstream call is made; the service starts without them but lookup requests
// return 503 until they are configured.
type DVSAConfig struct {
	ClientID     string `yaml:"-" env:"DVSA_CLIENT_ID"`     // Secret - not in YAML
	ClientSecret string `yaml:"-" env:"DVSA_CLIENT_SECRET"` // Secret - not in YAML
	TokenURL     string `yaml:"-" env:"DVSA_TOKEN_URL"`     // Full token URL with tenant ID included
	APIKey       string `yaml:"-" env:"DVSA_API_KEY"`       // Secret - not in YAML
	BaseURL      string `yaml:"base_url" env:"DVSA_BASE_URL" env-default:"https://history.mot.api.gov.uk"`
	Scope        string `yaml:"scope" env:"DVSA_SCOPE" env-default:"https://tapi.dvsa.gov.uk/.default"`
	// TimeoutSeconds bounds a single upstream request (token or lookup).
	TimeoutSeconds int `yaml:"timeout_seconds" env:"DVSA_TIMEOUT_SECONDS" env-default:"15"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The YAML file is optional; when absent, configuration comes from the
// environment alone. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if cfg.Storage != "postgres" && cfg.Storage != "memory" {
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage)
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Configured reports whether all four DVSA credentials are present.
func (c *DVSAConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.TokenURL != "" && c.APIKey != ""
}

// Timeout returns the upstream request timeout as a duration.
func (c *DVSAConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
