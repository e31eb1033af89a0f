package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for raidscribe-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys, verifier tokens) must only come from
// environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// AI model endpoint used for extraction and name inference
	AI AIConfig `yaml:"ai"`

	// Identity resolution tuning
	Resolution ResolutionConfig `yaml:"resolution"`

	// Secondary evidence sources (optional; empty URL disables a verifier)
	Verifiers VerifierConfig `yaml:"verifiers"`

	// Roster CSV directory
	RosterDir string `yaml:"roster_dir" env:"ROSTER_DIR" env-default:"rosters"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"raidscribe"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"raidscribe_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// AIConfig holds the OpenAI-compatible endpoint used for LLM calls.
type AIConfig struct {
	BaseURL string `yaml:"base_url" env:"AI_BASE_URL" env-default:""`
	Model   string `yaml:"model" env:"AI_MODEL" env-default:""`
	APIKey  string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML

	// InferenceTimeoutSeconds bounds each name-inference call.
	InferenceTimeoutSeconds int `yaml:"inference_timeout_seconds" env:"AI_INFERENCE_TIMEOUT_SECONDS" env-default:"30"`
}

// IsAvailable returns true if an AI endpoint is configured.
func (c *AIConfig) IsAvailable() bool {
	return c.BaseURL != "" && c.Model != ""
}

// InferenceTimeout returns the per-call inference bound as a duration.
func (c *AIConfig) InferenceTimeout() time.Duration {
	return time.Duration(c.InferenceTimeoutSeconds) * time.Second
}

// ResolutionConfig tunes the staged name-resolution pipeline.
type ResolutionConfig struct {
	FuzzyThreshold       float64 `yaml:"fuzzy_threshold" env:"RESOLUTION_FUZZY_THRESHOLD" env-default:"0.85"`
	ReviewThreshold      float64 `yaml:"review_threshold" env:"RESOLUTION_REVIEW_THRESHOLD" env-default:"0.85"`
	MaxAlternatives      int     `yaml:"max_alternatives" env:"RESOLUTION_MAX_ALTERNATIVES" env-default:"3"`
	Concurrency          int     `yaml:"concurrency" env:"RESOLUTION_CONCURRENCY" env-default:"4"`
	VerifyTimeoutSeconds int     `yaml:"verify_timeout_seconds" env:"RESOLUTION_VERIFY_TIMEOUT_SECONDS" env-default:"10"`
}

// VerifyTimeout returns the per-check verifier bound as a duration.
func (c *ResolutionConfig) VerifyTimeout() time.Duration {
	return time.Duration(c.VerifyTimeoutSeconds) * time.Second
}

// VerifierConfig holds endpoints for the secondary evidence sources. A
// verifier with an empty base URL is disabled; resolution then proceeds on
// roster evidence alone.
type VerifierConfig struct {
	ChatBaseURL     string `yaml:"chat_base_url" env:"VERIFIER_CHAT_BASE_URL" env-default:""`
	ChatToken       string `yaml:"-" env:"VERIFIER_CHAT_TOKEN"` // Secret - not in YAML
	CalendarBaseURL string `yaml:"calendar_base_url" env:"VERIFIER_CALENDAR_BASE_URL" env-default:""`
	CalendarToken   string `yaml:"-" env:"VERIFIER_CALENDAR_TOKEN"` // Secret - not in YAML
}

// Load reads configuration from config.yaml with environment variable
// overrides. When config.yaml is absent, configuration comes from the
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

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Resolution.FuzzyThreshold <= 0 || c.Resolution.FuzzyThreshold > 1 {
		return fmt.Errorf("resolution.fuzzy_threshold must be in (0, 1], got %v", c.Resolution.FuzzyThreshold)
	}
	if c.Resolution.ReviewThreshold <= 0 || c.Resolution.ReviewThreshold > 1 {
		return fmt.Errorf("resolution.review_threshold must be in (0, 1], got %v", c.Resolution.ReviewThreshold)
	}
	if c.Resolution.MaxAlternatives <= 0 {
		return fmt.Errorf("resolution.max_alternatives must be positive, got %d", c.Resolution.MaxAlternatives)
	}
	if c.Resolution.Concurrency <= 0 {
		return fmt.Errorf("resolution.concurrency must be positive, got %d", c.Resolution.Concurrency)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
