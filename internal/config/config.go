package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPPort    int    `envconfig:"HTTP_PORT" default:"8080"`

	// Suggestion client. In production the orchestrator posts to SuggestEndpoint;
	// empty means this server's own /api/tasks/categorize route on HTTPPort.
	SuggestEndpoint string        `envconfig:"SUGGEST_ENDPOINT"`
	SuggestTimeout  time.Duration `envconfig:"SUGGEST_TIMEOUT" default:"10s"`

	// Anthropic. Without a key /api/tasks/categorize answers 503 with the fallback.
	AnthropicAPIKey      string  `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL     string  `envconfig:"ANTHROPIC_BASE_URL" default:"https://api.anthropic.com/v1"`
	AnthropicModel       string  `envconfig:"ANTHROPIC_MODEL" default:"claude-3-7-sonnet-20250219"`
	AnthropicMaxTokens   int     `envconfig:"ANTHROPIC_MAX_TOKENS" default:"1000"`
	AnthropicTemperature float64 `envconfig:"ANTHROPIC_TEMPERATURE" default:"0.3"`

	// Categorization
	CategorizeRetries   int           `envconfig:"CATEGORIZE_RETRIES" default:"3"`
	CategorizeCacheSize int           `envconfig:"CATEGORIZE_CACHE_SIZE" default:"256"`
	CategorizeCacheTTL  time.Duration `envconfig:"CATEGORIZE_CACHE_TTL" default:"10m"`

	// Todo store
	ProjectsFile       string `envconfig:"PROJECTS_FILE"`         // optional YAML seed
	MaxTasksPerProject int    `envconfig:"MAX_TASKS_PER_PROJECT"` // 0 = environment default

	// HTTP surface
	CORSOrigins    string `envconfig:"CORS_ORIGINS"`
	RateLimitRPS   int    `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int    `envconfig:"RATE_LIMIT_BURST" default:"40"`
	SessionSecret  string `envconfig:"SESSION_SECRET"` // HS256 key for the session cookie; empty = anonymous
}

// IsDevelopment reports whether the development environment is selected.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// AnthropicEnabled returns true if a model API key is configured.
func (c *Config) AnthropicEnabled() bool {
	return c.AnthropicAPIKey != ""
}

// SessionEnabled returns true if session cookies are verified.
func (c *Config) SessionEnabled() bool {
	return c.SessionSecret != ""
}

// TaskLimit returns the per-project task limit, defaulting by environment.
func (c *Config) TaskLimit() int {
	if c.MaxTasksPerProject > 0 {
		return c.MaxTasksPerProject
	}
	if c.IsDevelopment() {
		return 3
	}
	return 100
}

// CategorizeEndpoint returns the URL the production suggestion client posts to.
func (c *Config) CategorizeEndpoint() string {
	if c.SuggestEndpoint != "" {
		return c.SuggestEndpoint
	}
	return fmt.Sprintf("http://127.0.0.1:%d/api/tasks/categorize", c.HTTPPort)
}

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Validate checks values envconfig cannot. The environment selector itself is
// validated where the suggestion service is constructed.
func (c *Config) Validate() error {
	var problems []string
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL %q is not a valid level", c.LogLevel))
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		problems = append(problems, fmt.Sprintf("HTTP_PORT %d out of range", c.HTTPPort))
	}
	if c.AnthropicTemperature < 0 || c.AnthropicTemperature > 1 {
		problems = append(problems, fmt.Sprintf("ANTHROPIC_TEMPERATURE %v must be within [0,1]", c.AnthropicTemperature))
	}
	if c.AnthropicMaxTokens < 1 {
		problems = append(problems, "ANTHROPIC_MAX_TOKENS must be positive")
	}
	if c.CategorizeCacheSize < 0 {
		problems = append(problems, "CATEGORIZE_CACHE_SIZE must not be negative")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		problems = append(problems, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return LoadWithPrefix("")
}

// LoadWithPrefix reads configuration with a prefix.
func LoadWithPrefix(prefix string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		if prefix == "" {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return nil, fmt.Errorf("loading config with prefix %s: %w", prefix, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
