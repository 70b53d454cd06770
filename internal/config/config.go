package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderJWT    = "jwt"
	ProviderRemote = "remote"

	// MemoryDatabaseURL selects the in-process event store instead of Postgres.
	MemoryDatabaseURL = "memory://"
)

type Config struct {
	Server      ServerConfig   `yaml:"server"`
	Database    DatabaseConfig `yaml:"database"`
	Auth        AuthConfig     `yaml:"auth"`
	CORS        CORSConfig     `yaml:"cors"`
	Frontend    FrontendConfig `yaml:"frontend"`
	Logging     LoggingConfig  `yaml:"logging"`
	Tracing     TracingConfig  `yaml:"tracing"`
	Environment string         `yaml:"environment"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	AuthToken      string `yaml:"auth_token"`
	MaxConnections int    `yaml:"max_connections"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

type AuthConfig struct {
	Provider    string        `yaml:"provider"`
	SecretKey   string        `yaml:"secret_key"`
	ProviderURL string        `yaml:"provider_url"`
	Issuer      string        `yaml:"issuer"`
	Timeout     time.Duration `yaml:"timeout"`
}

// CORSConfig holds the cross-origin policy. An empty AllowedOrigins list
// means every origin is allowed.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type FrontendConfig struct {
	PublishableKey string `yaml:"publishable_key"`
	APIBaseURL     string `yaml:"api_base_url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Database: DatabaseConfig{
			MaxConnections: 10,
			MigrateOnStart: true,
		},
		Auth: AuthConfig{
			Provider: ProviderJWT,
			Timeout:  10 * time.Second,
		},
		Frontend: FrontendConfig{
			APIBaseURL: "/api",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Exporter:    "stdout",
			ServiceName: "eventboard",
			SampleRate:  1.0,
		},
		Environment: "development",
	}
}

// LoadFile is Read followed by Validate.
func LoadFile(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read decodes the YAML file at path (when non-empty) over the defaults and
// then applies environment overrides. The result is not validated.
func Read(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)

	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.AuthToken = getEnv("DATABASE_AUTH_TOKEN", cfg.Database.AuthToken)
	cfg.Database.MaxConnections = getEnvInt("DATABASE_MAX_CONNECTIONS", cfg.Database.MaxConnections)
	cfg.Database.MigrateOnStart = getEnvBool("MIGRATE_ON_START", cfg.Database.MigrateOnStart)

	cfg.Auth.Provider = strings.ToLower(getEnv("IDENTITY_PROVIDER", cfg.Auth.Provider))
	cfg.Auth.SecretKey = getEnv("IDENTITY_SECRET_KEY", cfg.Auth.SecretKey)
	cfg.Auth.ProviderURL = getEnv("IDENTITY_PROVIDER_URL", cfg.Auth.ProviderURL)
	cfg.Auth.Issuer = getEnv("IDENTITY_ISSUER", cfg.Auth.Issuer)
	if seconds := getEnvInt("IDENTITY_TIMEOUT_SECONDS", 0); seconds > 0 {
		cfg.Auth.Timeout = time.Duration(seconds) * time.Second
	}

	if origins, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		cfg.CORS.AllowedOrigins = parseCSV(origins)
	}

	cfg.Frontend.PublishableKey = getEnv("IDENTITY_PUBLISHABLE_KEY", cfg.Frontend.PublishableKey)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	cfg.Tracing.Enabled = getEnvBool("TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = getEnv("TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.ServiceName = getEnv("TRACING_SERVICE_NAME", cfg.Tracing.ServiceName)
	cfg.Tracing.OTLPEndpoint = getEnv("TRACING_OTLP_ENDPOINT", cfg.Tracing.OTLPEndpoint)
	cfg.Tracing.SampleRate = getEnvFloat("TRACING_SAMPLE_RATE", cfg.Tracing.SampleRate)

	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
}

func (c Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("IDENTITY_SECRET_KEY is required")
	}
	switch c.Auth.Provider {
	case ProviderJWT:
	case ProviderRemote:
		if c.Auth.ProviderURL == "" {
			return fmt.Errorf("IDENTITY_PROVIDER_URL is required when IDENTITY_PROVIDER=remote")
		}
	default:
		return fmt.Errorf("unsupported IDENTITY_PROVIDER %q (must be %q or %q)", c.Auth.Provider, ProviderJWT, ProviderRemote)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Server.Port)
	}
	return nil
}

// UsesMemoryStore reports whether the in-process event store is selected.
func (d DatabaseConfig) UsesMemoryStore() bool {
	return strings.HasPrefix(d.URL, MemoryDatabaseURL)
}

// ConnString returns the database URL with AuthToken applied as the password.
func (d DatabaseConfig) ConnString() (string, error) {
	if d.AuthToken == "" {
		return d.URL, nil
	}
	parsed, err := url.Parse(d.URL)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	username := ""
	if parsed.User != nil {
		username = parsed.User.Username()
	}
	parsed.User = url.UserPassword(username, d.AuthToken)
	return parsed.String(), nil
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || part == "*" {
			continue
		}
		out = append(out, part)
	}
	return out
}
