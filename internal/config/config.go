// Package config loads pdfcore runtime configuration from PDFCORE_*
// environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every variable name.
const Prefix = "PDFCORE_"

// StorageDriver identifies the distribution store backend.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // process memory only (default)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// ArchiveDriver identifies the session archive backend.
type ArchiveDriver string

const (
	ArchiveFilesystem ArchiveDriver = "fs"
	ArchiveS3         ArchiveDriver = "s3"
	ArchiveMemory     ArchiveDriver = "memory"
)

// Storage selects and locates the distribution store.
//
//	PDFCORE_STORAGE_DRIVER: memory|sqlite|postgres (default memory)
//	PDFCORE_STORAGE_SQLITE_PATH: sqlite file (default ./pdfcore.db)
//	PDFCORE_STORAGE_POSTGRES_DSN: postgres DSN when driver=postgres
type Storage struct {
	Driver      StorageDriver `env:"DRIVER" envDefault:"memory"`
	SQLitePath  string        `env:"SQLITE_PATH" envDefault:"pdfcore.db"`
	PostgresDSN string        `env:"POSTGRES_DSN"`
}

// Archive selects and locates the session archive.
//
//	PDFCORE_ARCHIVE_DRIVER: fs|s3|memory (default fs)
//	PDFCORE_ARCHIVE_FS_ROOT: directory root when driver=fs (default ./sessions)
//	PDFCORE_ARCHIVE_S3_BUCKET: bucket, required when driver=s3
//	PDFCORE_ARCHIVE_S3_REGION: region (default us-east-1)
//	PDFCORE_ARCHIVE_S3_ENDPOINT: custom endpoint, e.g. MinIO
//	PDFCORE_ARCHIVE_S3_PATH_STYLE: true|false (default false)
type Archive struct {
	Driver      ArchiveDriver `env:"DRIVER" envDefault:"fs"`
	FSRoot      string        `env:"FS_ROOT" envDefault:"sessions"`
	S3Bucket    string        `env:"S3_BUCKET"`
	S3Region    string        `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string        `env:"S3_ENDPOINT"`
	S3PathStyle bool          `env:"S3_PATH_STYLE" envDefault:"false"`
}

// Config is the full runtime configuration.
type Config struct {
	Storage    Storage    `envPrefix:"STORAGE_"`
	Archive    Archive    `envPrefix:"ARCHIVE_"`
	Resolution int        `env:"RESOLUTION" envDefault:"300"`
	LogLevel   slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		Storage:    Storage{Driver: StorageMemory, SQLitePath: "pdfcore.db"},
		Archive:    Archive{Driver: ArchiveFilesystem, FSRoot: "sessions", S3Region: "us-east-1"},
		Resolution: 300,
		LogLevel:   slog.LevelInfo,
	}
}

// Load reads the process environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom reads variables from environ instead of the process environment.
// Keys carry the PDFCORE_ prefix.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

// Environ returns the PDFCORE_* subset of os.Environ as a map.
func Environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, Prefix) {
			out[k] = v
		}
	}
	return out
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown drivers, missing backend locations, and a curve
// resolution below two samples.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("%sSTORAGE_POSTGRES_DSN required for postgres driver", Prefix)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Archive.Driver {
	case ArchiveFilesystem, ArchiveMemory:
	case ArchiveS3:
		if c.Archive.S3Bucket == "" {
			return fmt.Errorf("%sARCHIVE_S3_BUCKET required for s3 driver", Prefix)
		}
	default:
		return fmt.Errorf("unknown archive driver %q", c.Archive.Driver)
	}
	if c.Resolution < 2 {
		return fmt.Errorf("resolution must be at least 2, got %d", c.Resolution)
	}
	return nil
}
