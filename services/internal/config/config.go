package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Archive drivers.
const (
	ArchiveNone = "none"
	ArchiveFS   = "fs"
	ArchiveS3   = "s3"
)

// Config holds runtime configuration for the schedule ingestion pipeline.
type Config struct {
	DatabaseURL    string        `env:"DATABASE_URL"`
	Timezone       string        `env:"SCHEDULE_TZ" envDefault:"Local"`
	BulkDir        string        `env:"SCHEDULE_BULK_DIR"`
	AdminPI        string        `env:"SCHEDULE_ADMIN_PI"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"text"`
	Archive        ArchiveConfig

	// Location is resolved from Timezone by Parse.
	Location *time.Location `env:"-"`
}

// ArchiveConfig selects where raw uploads are kept.
type ArchiveConfig struct {
	Driver      string `env:"ARCHIVE_DRIVER" envDefault:"none"`
	Dir         string `env:"ARCHIVE_DIR" envDefault:"./archive"`
	S3Bucket    string `env:"ARCHIVE_S3_BUCKET"`
	S3Region    string `env:"ARCHIVE_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"ARCHIVE_S3_ENDPOINT"`
	S3PathStyle bool   `env:"ARCHIVE_S3_PATH_STYLE"`
	S3AccessKey string `env:"ARCHIVE_S3_ACCESS_KEY_ID"`
	S3SecretKey string `env:"ARCHIVE_S3_SECRET_ACCESS_KEY"`
	S3KeyPrefix string `env:"ARCHIVE_S3_PREFIX" envDefault:"uploads"`
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")
	return Parse()
}

// Parse decodes the process environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Wrap(err, "parse environment")
	}

	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	loc, err := time.LoadLocation(strings.TrimSpace(cfg.Timezone))
	if err != nil {
		return cfg, errors.Wrap(err, "invalid SCHEDULE_TZ")
	}
	cfg.Location = loc

	if cfg.BulkDir == "" {
		cfg.BulkDir = filepath.Join(os.TempDir(), "obsadmin-bulk")
	}
	if cfg.RequestTimeout <= 0 {
		return cfg, errors.Errorf("invalid REQUEST_TIMEOUT: %s", cfg.RequestTimeout)
	}

	switch cfg.Archive.Driver {
	case ArchiveNone, ArchiveFS:
	case ArchiveS3:
		if cfg.Archive.S3Bucket == "" {
			return cfg, errors.New("ARCHIVE_S3_BUCKET is required for ARCHIVE_DRIVER=s3")
		}
	default:
		return cfg, errors.Errorf("invalid ARCHIVE_DRIVER: %s", cfg.Archive.Driver)
	}

	return cfg, nil
}
