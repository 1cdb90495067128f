// Package config loads server configuration from the environment and builds
// the service dependency graph. Store clients and the connection pool are
// constructed once here and injected into the service; nothing reaches for
// globals.
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parkroll/mediastore/pkg/mediastore"
	"github.com/parkroll/mediastore/pkg/mediastore/repo/memory"
	repopg "github.com/parkroll/mediastore/pkg/mediastore/repo/postgres"
	fsstorage "github.com/parkroll/mediastore/pkg/mediastore/storage/fs"
	memorystorage "github.com/parkroll/mediastore/pkg/mediastore/storage/memory"
	s3storage "github.com/parkroll/mediastore/pkg/mediastore/storage/s3"
	"github.com/parkroll/mediastore/pkg/mediastore/urlstrategy"
)

// ServerConfig is the top-level configuration, populated from environment
// variables via cleanenv.
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	// RepositoryType selects the metadata store: "postgres" or "memory".
	RepositoryType string `env:"REPOSITORY_TYPE" env-default:"postgres"`

	// StorageBackend selects the blob store: "s3", "fs" or "memory".
	StorageBackend string `env:"STORAGE_BACKEND" env-default:"s3"`

	// CDNBaseURL, when set, derives image URLs from the CDN instead of the
	// S3 public URL format.
	CDNBaseURL string `env:"CDN_BASE_URL" env-default:""`

	// MigrationsPath is the file:// source passed to golang-migrate.
	MigrationsPath string `env:"MIGRATIONS_PATH" env-default:"file://migrations"`

	JWTSecret string `env:"JWT_SECRET" env-default:""`

	Upload UploadConfig
	DB     DbConfig
	S3     S3Config
	FS     FsConfig
}

// UploadConfig bounds what a single upload request may carry.
type UploadConfig struct {
	MaxFiles    int   `env:"UPLOAD_MAX_FILES" env-default:"10"`
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_BYTES" env-default:"10485760"`
}

type DbConfig struct {
	Port     uint16 `env:"MEDIA_PG_PORT" env-default:"5432"`
	Host     string `env:"MEDIA_PG_HOST" env-default:"localhost"`
	Name     string `env:"MEDIA_PG_NAME" env-default:"mediastore_db"`
	User     string `env:"MEDIA_PG_USER" env-default:"mediastore"`
	Password string `env:"MEDIA_PG_PASSWORD" env-default:"pwd"`
	SSLMode  string `env:"MEDIA_PG_SSLMODE" env-default:"disable"`
}

type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:""`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	Bucket          string `env:"AWS_S3_BUCKET" env-default:"mediastore-bucket"`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
	CreateBucket    bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"false"`
}

type FsConfig struct {
	BaseDir string `env:"FS_BASE_DIR" env-default:"./data/storage"`
}

// DatabaseURL renders the postgres connection string.
func (c DbConfig) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// Validate checks the configuration for inconsistencies.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.RepositoryType != "postgres" && c.RepositoryType != "memory" {
		return errors.New("repository_type must be 'postgres' or 'memory'")
	}
	switch c.StorageBackend {
	case "s3", "fs", "memory":
	default:
		return errors.New("storage_backend must be 's3', 'fs' or 'memory'")
	}
	if c.Upload.MaxFiles <= 0 || c.Upload.MaxFileSize <= 0 {
		return errors.New("upload limits must be positive")
	}
	return nil
}

// NewDbPool opens and pings a pgx connection pool.
func NewDbPool(ctx context.Context, dbConfig DbConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dbConfig.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// BuildRepository constructs the configured metadata repository. The
// returned pool is non-nil only for postgres; the caller owns closing it.
func (c *ServerConfig) BuildRepository(ctx context.Context) (mediastore.Repository, *pgxpool.Pool, error) {
	switch c.RepositoryType {
	case "memory":
		return memory.New(), nil, nil
	case "postgres":
		pool, err := NewDbPool(ctx, c.DB)
		if err != nil {
			return nil, nil, err
		}
		return repopg.NewWithPool(pool), pool, nil
	default:
		return nil, nil, fmt.Errorf("unknown repository type %q", c.RepositoryType)
	}
}

// BuildBlobStore constructs the configured blob storage backend.
func (c *ServerConfig) BuildBlobStore(ctx context.Context) (mediastore.BlobStore, error) {
	switch c.StorageBackend {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{BaseDir: c.FS.BaseDir})
	case "s3":
		return s3storage.New(ctx, s3storage.Config{
			Region:                 c.S3.Region,
			Bucket:                 c.S3.Bucket,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               c.S3.Endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			CreateBucketIfNotExist: c.S3.CreateBucket,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

// BuildURLStrategy picks the URL strategy: CDN when configured, otherwise
// the S3 public URL format.
func (c *ServerConfig) BuildURLStrategy() urlstrategy.Strategy {
	if c.CDNBaseURL != "" {
		return urlstrategy.NewCDN(c.CDNBaseURL)
	}
	return urlstrategy.NewS3Public(c.S3.Bucket, c.S3.Region)
}
