package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// StorageKind selects the blob backend. The decision is made once at
// startup and never changes at runtime.
type StorageKind string

const (
	StorageMinIO      StorageKind = "minio"
	StorageFilesystem StorageKind = "filesystem"
	StorageMemory     StorageKind = "memory"
)

// MetadataKind selects where file records live.
type MetadataKind string

const (
	MetadataPostgres MetadataKind = "postgres"
	MetadataMemory   MetadataKind = "memory"
)

// Config aggregates runtime configuration for the filestore API.
type Config struct {
	Server   ServerConfig
	Metadata MetadataConfig
	Postgres PostgresConfig
	Storage  StorageConfig
	MinIO    MinIOConfig
	Metrics  MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MetadataConfig selects the metadata store implementation.
type MetadataConfig struct {
	Kind MetadataKind
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// StorageConfig selects the blob backend and its filesystem root.
type StorageConfig struct {
	Kind StorageKind
	Root string
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying
// defaults and validating the backend selections.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("FILESTORE_API_HOST", "0.0.0.0"),
			Port:         getInt("FILESTORE_API_PORT", 8080),
			ReadTimeout:  getDuration("FILESTORE_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("FILESTORE_API_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("FILESTORE_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Metadata: MetadataConfig{
			Kind: MetadataKind(strings.ToLower(getString("METADATA_STORE", "postgres"))),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "filestore_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "filestore"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
		},
		Storage: StorageConfig{
			Kind: StorageKind(strings.ToLower(getString("STORAGE_TYPE", "minio"))),
			Root: getString("STORAGE_ROOT", "./data/blobs"),
		},
		MinIO: MinIOConfig{
			Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getString("MINIO_ROOT_USER", "filestore"),
			SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
			Bucket:          getString("MINIO_BUCKET", "filestore"),
			UseSSL:          getBool("MINIO_USE_SSL", false),
			Region:          getString("MINIO_REGION", ""),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("FILESTORE_METRICS_PATH", "/metrics"),
		},
	}

	switch cfg.Storage.Kind {
	case StorageMinIO, StorageFilesystem, StorageMemory:
	default:
		return Config{}, fmt.Errorf("unknown storage type %q", cfg.Storage.Kind)
	}

	switch cfg.Metadata.Kind {
	case MetadataPostgres, MetadataMemory:
	default:
		return Config{}, fmt.Errorf("unknown metadata store %q", cfg.Metadata.Kind)
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
