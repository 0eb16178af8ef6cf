package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string        `mapstructure:"PORT"`
	Env                string        `mapstructure:"ENV"`
	StorageDriver      string        `mapstructure:"STORAGE_DRIVER"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32         `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir      string        `mapstructure:"MIGRATIONS_DIR"`
	AuthSigningKey     string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer         string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience       string        `mapstructure:"AUTH_AUDIENCE"`
	CORSOrigins        []string      `mapstructure:"CORS_ORIGINS"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	RateLimitRPS       float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit          string        `mapstructure:"BODY_LIMIT"`
	JoinStrategy       string        `mapstructure:"JOIN_STRATEGY"`
	Timezone           string        `mapstructure:"TIMEZONE"`
	ClinicName         string        `mapstructure:"CLINIC_NAME"`
	ClinicPhone        string        `mapstructure:"CLINIC_PHONE"`
	ClinicEmail        string        `mapstructure:"CLINIC_EMAIL"`
	ExportDir          string        `mapstructure:"EXPORT_DIR"`
	ShareWebhookURL    string        `mapstructure:"SHARE_WEBHOOK_URL"`
	ShareWebhookSecret string        `mapstructure:"SHARE_WEBHOOK_SECRET"`
	SeedDemoData       bool          `mapstructure:"SEED_DEMO_DATA"`
}

var keys = []string{
	"PORT", "ENV", "STORAGE_DRIVER", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"MIGRATIONS_DIR", "AUTH_SIGNING_KEY", "AUTH_ISSUER", "AUTH_AUDIENCE", "CORS_ORIGINS",
	"REQUEST_TIMEOUT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "BODY_LIMIT", "JOIN_STRATEGY",
	"TIMEZONE", "CLINIC_NAME", "CLINIC_PHONE", "CLINIC_EMAIL", "EXPORT_DIR",
	"SHARE_WEBHOOK_URL", "SHARE_WEBHOOK_SECRET", "SEED_DEMO_DATA",
}

// Load reads configuration from the environment, optionally seeded by a
// .env file in the working directory, and validates it.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORAGE_DRIVER", "memory")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("AUTH_ISSUER", "clinicdesk")
	v.SetDefault("AUTH_AUDIENCE", "clinicdesk-api")
	v.SetDefault("CORS_ORIGINS", "http://localhost:8081")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("JOIN_STRATEGY", "name")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("CLINIC_NAME", "City Clinic & Hospital")
	v.SetDefault("CLINIC_PHONE", "+91 98765 43210")
	v.SetDefault("CLINIC_EMAIL", "info@cityclinic.com")
	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("SEED_DEMO_DATA", false)

	// AutomaticEnv alone does not make Unmarshal see unset-default keys.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// A missing .env is normal outside local development.
	if err := v.ReadInConfig(); err != nil && !envFileMissing(err) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Env values arrive as one comma-separated string.
	if len(cfg.CORSOrigins) <= 1 {
		cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.JoinStrategy = strings.ToLower(strings.TrimSpace(cfg.JoinStrategy))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envFileMissing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate rejects configurations the server cannot run safely with.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER is \"postgres\"")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be \"memory\" or \"postgres\", got %q", c.StorageDriver)
	}

	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required when ENV is %q", c.Env)
	}
	if c.AuthSigningKey != "" && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes, got %d", len(c.AuthSigningKey))
	}

	if c.JoinStrategy != "name" && c.JoinStrategy != "id" {
		return fmt.Errorf("JOIN_STRATEGY must be \"name\" or \"id\", got %q", c.JoinStrategy)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must not be negative")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.ShareWebhookURL != "" && c.ShareWebhookSecret == "" {
		return fmt.Errorf("SHARE_WEBHOOK_SECRET is required when SHARE_WEBHOOK_URL is set")
	}
	return nil
}

// Location resolves TIMEZONE, which decides what "today" means for the
// dashboard and for rendered dates.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
