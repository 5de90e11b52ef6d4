// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/meli-client/internal/meli"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the top-level application configuration.
type Config struct {
	Meli      MeliConfig      `yaml:"meli"`
	Store     StoreConfig     `yaml:"store"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MeliConfig defines the marketplace application credentials and hosts.
type MeliConfig struct {
	BaseURL      string `yaml:"base_url"`
	TokenURL     string `yaml:"token_url"`
	AuthURL      string `yaml:"auth_url"`
	Site         string `yaml:"site"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	// AccessToken and ExpiresAt seed a token obtained elsewhere.
	AccessToken string          `yaml:"access_token"`
	ExpiresAt   time.Time       `yaml:"expires_at"`
	RedirectURI string          `yaml:"redirect_uri"`
	Timeout     time.Duration   `yaml:"timeout"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines client-side rate limiting. A zero PerSecond
// disables the limiter and a zero DailyLimit disables the quota.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// StoreConfig selects where refreshed credentials are persisted.
type StoreConfig struct {
	Driver   string         `yaml:"driver"` // memory, sqlite, postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig defines the SQLite database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig defines PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s pool_max_conns=%d",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode, d.PoolSize,
	)
}

// TelemetryConfig defines the OTLP trace exporter. An empty Endpoint
// disables export.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// LoadEnvFile loads variables from a dotenv file into the process
// environment without overriding ones already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data, decodes it and validates
// the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Environment converts the meli section into a client environment.
func (m *MeliConfig) Environment() meli.Environment {
	return meli.Environment{
		BaseURL:  m.BaseURL,
		TokenURL: m.TokenURL,
		AuthURL:  m.AuthURL,
		Site:     meli.Site(m.Site),
	}
}

// ClientConfig converts the meli section into a client configuration.
func (m *MeliConfig) ClientConfig() meli.Config {
	return meli.Config{
		Environment:  m.Environment(),
		ClientID:     m.ClientID,
		ClientSecret: m.ClientSecret,
		RefreshToken: m.RefreshToken,
		AccessToken:  m.AccessToken,
		ExpiresAt:    m.ExpiresAt,
	}
}

func applyDefaults(cfg *Config) {
	applyMeliDefaults(&cfg.Meli)
	applyStoreDefaults(&cfg.Store)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyLoggingDefaults(&cfg.Logging)
}

func applyMeliDefaults(m *MeliConfig) {
	if m.BaseURL == "" {
		m.BaseURL = meli.DefaultBaseURL
	}
	if m.Site == "" {
		m.Site = string(meli.SiteBrazil)
	}
	if m.Timeout == 0 {
		m.Timeout = meli.Timeout
	}
	if m.RateLimit.PerSecond > 0 && m.RateLimit.Burst == 0 {
		m.RateLimit.Burst = 10
	}
}

func applyStoreDefaults(s *StoreConfig) {
	if s.Driver == "" {
		s.Driver = DriverMemory
	}
	if s.SQLite.Path == "" {
		s.SQLite.Path = "meli.db"
	}
	if s.Postgres.Port == 0 {
		s.Postgres.Port = 5432
	}
	if s.Postgres.SSLMode == "" {
		s.Postgres.SSLMode = "disable"
	}
	if s.Postgres.PoolSize == 0 {
		s.Postgres.PoolSize = 4
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.ServiceName == "" {
		t.ServiceName = "meli-client"
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Meli.ClientID == "" {
		errs = append(errs, fmt.Errorf("meli.client_id is required"))
	}
	if cfg.Meli.ClientSecret == "" {
		errs = append(errs, fmt.Errorf("meli.client_secret is required"))
	}
	if site, err := meli.ParseSite(cfg.Meli.Site); err != nil {
		errs = append(errs, fmt.Errorf("meli.site: %w", err))
	} else {
		cfg.Meli.Site = string(site)
	}
	if cfg.Meli.Timeout < 0 {
		errs = append(errs, fmt.Errorf("meli.timeout must not be negative"))
	}
	if cfg.Meli.RateLimit.PerSecond < 0 || cfg.Meli.RateLimit.DailyLimit < 0 {
		errs = append(errs, fmt.Errorf("meli.rate_limit values must not be negative"))
	}

	switch cfg.Store.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if cfg.Store.Postgres.Host == "" {
			errs = append(errs, fmt.Errorf("store.postgres.host is required when driver is postgres"))
		}
		if cfg.Store.Postgres.Name == "" {
			errs = append(errs, fmt.Errorf("store.postgres.name is required when driver is postgres"))
		}
		if cfg.Store.Postgres.User == "" {
			errs = append(errs, fmt.Errorf("store.postgres.user is required when driver is postgres"))
		}
	default:
		errs = append(
			errs,
			fmt.Errorf(
				"store.driver must be one of: memory, sqlite, postgres (got %q)",
				cfg.Store.Driver,
			),
		)
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json (got %q)", cfg.Logging.Format))
	}

	return errors.Join(errs...)
}
