// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// StateBackend selects where settings and memoized values live:
	// "postgres" (Postgres config store + Valkey memo) or "memory".
	StateBackend string

	// Blob storage for uploaded images and compiled stylesheets.
	StorageDriver string // "local", "s3", "minio", "memory"
	StorageDir    string

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// ImageBackend selects the background image processor: "vips" or "go".
	ImageBackend string

	// AdminTokenHash is a bcrypt hash of the bearer token that unlocks the
	// mutating theming endpoints.
	AdminTokenHash string

	// Built-in theming defaults used when no override is stored.
	DefaultName   string
	DefaultURL    string
	DefaultSlogan string
	DefaultColor  string

	DefaultLanguage string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "cloudtheme"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "cloudtheme"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		StateBackend: envOrDefault("STATE_BACKEND", "postgres"),

		StorageDriver: envOrDefault("STORAGE_DRIVER", "local"),
		StorageDir:    envOrDefault("STORAGE_DIR", "data/appdata"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "cloudtheme-appdata"),

		MinioEndpoint:  envOrDefault("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    envOrDefault("MINIO_BUCKET", "cloudtheme-appdata"),
		MinioUseSSL:    strings.EqualFold(os.Getenv("MINIO_USE_SSL"), "true"),

		ImageBackend: envOrDefault("IMAGE_BACKEND", "vips"),

		AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),

		DefaultName:   envOrDefault("THEMING_DEFAULT_NAME", "Cloud"),
		DefaultURL:    envOrDefault("THEMING_DEFAULT_URL", "https://cloud.example.com"),
		DefaultSlogan: envOrDefault("THEMING_DEFAULT_SLOGAN", "a safe home for all your data"),
		DefaultColor:  envOrDefault("THEMING_DEFAULT_COLOR", "#0082c9"),

		DefaultLanguage: envOrDefault("DEFAULT_LANGUAGE", "en"),
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.AdminTokenHash == "" {
			return nil, fmt.Errorf("ADMIN_TOKEN_HASH must be set in production")
		}
	}

	switch cfg.StateBackend {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("unknown STATE_BACKEND %q", cfg.StateBackend)
	}

	switch cfg.StorageDriver {
	case "local", "s3", "minio", "memory":
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
