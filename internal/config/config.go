// Package config loads configuration for the admin client and the mock
// backend from environment variables, an optional .env file and, for the
// backend, command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Client holds the admin client settings.
type Client struct {
	// APIBaseURL is the backend base URL every endpoint is resolved against.
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8080/api"`

	// SessionFile is where the session cookie jar is persisted between runs.
	SessionFile string `env:"SESSION_FILE" envDefault:".mineadmin-session.json"`

	// LogLevel is the zap level for client diagnostics.
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`

	// IsDev shows the original error next to the friendly message.
	IsDev bool `env:"DEV" envDefault:"false"`

	// HTTPTimeout bounds each request; zero leaves it to the transport.
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"0s"`

	// CAFile is an optional PEM bundle trusted for an HTTPS backend.
	CAFile string `env:"CA_FILE"`

	// RetryAttempts enables the retry policy when greater than one.
	RetryAttempts int `env:"RETRY_ATTEMPTS" envDefault:"1"`
}

// Sanitize normalizes values loaded from the environment.
func (c *Client) Sanitize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.HTTPTimeout < 0 {
		c.HTTPTimeout = 0
	}
	if c.RetryAttempts < 1 {
		c.RetryAttempts = 1
	}
	if c.RetryAttempts > 5 {
		c.RetryAttempts = 5
	}
}

// Server holds the mock backend settings.
type Server struct {
	// Address is the listening address (ip:port).
	Address string `env:"SERVER_ADDRESS" envDefault:"localhost:8080"`

	// LogLevel is the zap level for request logging.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// SessionTTL is how long a login session stays valid.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// CleanupInterval is how often expired sessions are swept.
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"10m"`

	// DatabaseDSN selects Postgres session storage; empty keeps sessions in
	// memory.
	DatabaseDSN string `env:"DATABASE_DSN"`

	// Environment is reported by the info endpoint.
	Environment string `env:"APP_ENV" envDefault:"development"`

	// SecureCookies marks the session cookie Secure.
	SecureCookies bool `env:"SECURE_COOKIES" envDefault:"false"`

	// AdminEmail and AdminPassword seed the first administrator.
	AdminEmail    string `env:"SEED_ADMIN_EMAIL"    envDefault:"admin@example.com"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD" envDefault:"admin12345"`
}

// Sanitize applies guardrails to the loaded server values.
func (s *Server) Sanitize() {
	if s.SessionTTL <= 0 {
		s.SessionTTL = 24 * time.Hour
	}
	if s.CleanupInterval <= 0 {
		s.CleanupInterval = 10 * time.Minute
	}
}

// loadDotEnv loads .env if present. A missing file is not an error.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("load .env file: %w", err)
		}
	}
	return nil
}

// LoadClient reads the client configuration once at startup.
func LoadClient() (Client, error) {
	if err := loadDotEnv(); err != nil {
		return Client{}, err
	}

	var cfg Client
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse client config: %w", err)
	}
	cfg.Sanitize()

	if cfg.APIBaseURL == "" {
		return cfg, errors.New("API_BASE_URL must not be empty")
	}
	return cfg, nil
}

// LoadServer reads the backend configuration from the environment and then
// applies command-line overrides from args.
func LoadServer(args []string) (Server, error) {
	if err := loadDotEnv(); err != nil {
		return Server{}, err
	}

	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse server config: %w", err)
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.Address, "a", cfg.Address, "run on ip:port server")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "session lifetime")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "postgres DSN for session storage")
	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("parse flags: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}
