package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the server configuration read from the environment
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	BaseURL string `env:"BLOG_BASE_URL" envDefault:"http://localhost:8080"`

	DBDriver   string `env:"BLOG_DB_DRIVER" envDefault:"sqlite"`
	DBDSN      string `env:"BLOG_DB_DSN" envDefault:"blog.db"`
	DBLogLevel string `env:"BLOG_DB_LOG_LEVEL" envDefault:"warn"`

	// Default for development only - should be set in production
	JWTSecret string        `env:"JWT_SECRET" envDefault:"blog-dev-secret-change-in-production"`
	TokenTTL  time.Duration `env:"BLOG_TOKEN_TTL" envDefault:"24h"`

	AdminEmail    string `env:"BLOG_ADMIN_EMAIL" envDefault:"admin@blog.local"`
	AdminName     string `env:"BLOG_ADMIN_NAME" envDefault:"Admin"`
	AdminPassword string `env:"BLOG_ADMIN_PASSWORD" envDefault:"changeme"`

	SiteTitle      string `env:"BLOG_SITE_TITLE" envDefault:"Black & White"`
	HighlightStyle string `env:"BLOG_HIGHLIGHT_STYLE" envDefault:"friendly"`
	Timezone       string `env:"BLOG_TIMEZONE" envDefault:"UTC"`
	Language       string `env:"BLOG_LANGUAGE" envDefault:"en"`
}

// Load parses the environment into a Config and validates it
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that env tags cannot express
func (c Config) Validate() error {
	switch strings.ToLower(c.DBDriver) {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if _, err := language.Parse(c.Language); err != nil {
		return fmt.Errorf("invalid language %q: %w", c.Language, err)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}
	return nil
}

// Location returns the timezone used for archives and displayed dates.
// Falls back to UTC when the name cannot be resolved.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LanguageTag returns the display language, English if unparseable
func (c Config) LanguageTag() language.Tag {
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// Addr returns the listen address for the HTTP server
func (c Config) Addr() string {
	return ":" + c.Port
}
