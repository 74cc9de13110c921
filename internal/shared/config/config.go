package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Belvo     BelvoConfig
	TLS       TLSConfig
	Telemetry TelemetryConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port         string   `envconfig:"PORT" default:"8080"`
	Host         string   `envconfig:"HOST" default:"0.0.0.0"`
	AllowedHosts []string `envconfig:"ALLOWED_HOSTS"`
}

type DatabaseConfig struct {
	Driver   string `envconfig:"DB_DRIVER" default:"postgres"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"finlink"`
	Password string `envconfig:"DB_PASSWORD"`
	DBName   string `envconfig:"DB_NAME" default:"finlink"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	// Path is the database file used when Driver is sqlite3.
	Path string `envconfig:"DB_PATH" default:"finlink.db"`
}

type JWTConfig struct {
	Secret     string        `envconfig:"SECRET_KEY"`
	Algorithm  string        `envconfig:"ALGORITHM" default:"HS256"`
	AccessTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"30m"`
	RefreshTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`
}

// BelvoConfig holds the service-level credentials this backend uses
// against the aggregator. They never belong to an end user.
type BelvoConfig struct {
	BaseURL        string        `envconfig:"BELVO_BASE_URL"`
	Host           string        `envconfig:"BELVO_HOST"`
	SecretID       string        `envconfig:"BELVO_SECRET_ID"`
	SecretPassword string        `envconfig:"BELVO_SECRET_PASSWORD"`
	Timeout        time.Duration `envconfig:"BELVO_TIMEOUT" default:"30s"`
}

type TLSConfig struct {
	Enabled      bool   `envconfig:"TLS_ENABLED" default:"false"`
	CertPath     string `envconfig:"TLS_CERT_PATH"`
	KeyPath      string `envconfig:"TLS_KEY_PATH"`
	RedirectHTTP bool   `envconfig:"TLS_REDIRECT_HTTP" default:"false"`
}

type TelemetryConfig struct {
	Enabled      bool   `envconfig:"OTEL_ENABLED" default:"false"`
	ServiceName  string `envconfig:"OTEL_SERVICE_NAME" default:"finlink-api"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_ENDPOINT" default:"localhost:4317"`
	MetricsPort  string `envconfig:"METRICS_PORT" default:"9464"`
	Environment  string `envconfig:"ENVIRONMENT" default:"development"`
}

type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEVELOPMENT" default:"false"`
}

var supportedAlgorithms = map[string]bool{
	"HS256": true,
	"HS384": true,
	"HS512": true,
}

var supportedDrivers = map[string]bool{
	"postgres": true,
	"sqlite3":  true,
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := process(&cfg.Server, &cfg.Database, &cfg.JWT, &cfg.Belvo, &cfg.TLS, &cfg.Telemetry, &cfg.Log); err != nil {
		return nil, err
	}

	cfg.Server.AllowedHosts = trimHosts(cfg.Server.AllowedHosts)
	cfg.JWT.Algorithm = strings.ToUpper(cfg.JWT.Algorithm)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDatabase reads only the database and log sections. Admin commands use
// it so they run without the API's secrets.
func LoadDatabase() (*Config, error) {
	var cfg Config
	if err := process(&cfg.Database, &cfg.Log); err != nil {
		return nil, err
	}

	if err := cfg.Database.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func process(sections ...any) error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	if !supportedAlgorithms[c.JWT.Algorithm] {
		return fmt.Errorf("ALGORITHM %q is not supported (use HS256, HS384 or HS512)", c.JWT.Algorithm)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_TTL must be positive")
	}
	if c.Belvo.BaseURL == "" {
		return fmt.Errorf("BELVO_BASE_URL is required")
	}
	if c.Belvo.Timeout <= 0 {
		return fmt.Errorf("BELVO_TIMEOUT must be positive")
	}
	if err := c.Database.validate(); err != nil {
		return err
	}

	if c.TLS.Enabled {
		if c.TLS.CertPath == "" {
			return fmt.Errorf("TLS_CERT_PATH is required when TLS_ENABLED=true")
		}
		if c.TLS.KeyPath == "" {
			return fmt.Errorf("TLS_KEY_PATH is required when TLS_ENABLED=true")
		}
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if !supportedDrivers[c.Driver] {
		return fmt.Errorf("DB_DRIVER %q is not supported (use postgres or sqlite3)", c.Driver)
	}
	return nil
}

// ConnectionString renders the DSN for the configured driver.
func (c *DatabaseConfig) ConnectionString() string {
	if c.Driver == "sqlite3" {
		return c.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dsnValue(c.Host), c.Port, dsnValue(c.User), dsnValue(c.Password), dsnValue(c.DBName), dsnValue(c.SSLMode),
	)
}

// dsnValue quotes a lib/pq key/value parameter when it is empty or holds
// whitespace, quotes or backslashes.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n\r'\\") {
		return v
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
	return "'" + escaped + "'"
}

func trimHosts(hosts []string) []string {
	var out []string
	for _, host := range hosts {
		host = strings.TrimSpace(host)
		if host != "" {
			out = append(out, host)
		}
	}
	return out
}
