package app

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the dashboard client.
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`

	// APIBaseURL points at the backend REST API, including the /api prefix.
	APIBaseURL  string        `envconfig:"API_BASE_URL" default:"http://localhost:5000/api"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// RedisAddr is optional; when empty sessions are kept in memory.
	RedisAddr  string        `envconfig:"REDIS_ADDR" default:""`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	StubAddr string `envconfig:"STUB_ADDR" default:":5000"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, errors.New("api base url must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the client runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
