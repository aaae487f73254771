package storage

import (
	"context"
	"time"
)

// Storage is the object store used for user uploads.
// Browsers upload directly to the bucket through presigned PUT URLs; the
// server only signs, resolves and deletes keys.
type Storage interface {
	// PresignUpload returns a URL the client can PUT the object body to.
	PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)

	// URL returns a public URL, or a presigned GET URL when requested.
	URL(ctx context.Context, key string, opts ...URLOption) (string, error)

	// Head returns object metadata or ErrNotFound.
	Head(ctx context.Context, key string) (*FileInfo, error)

	Delete(ctx context.Context, key string) error
}

// Config holds S3-compatible storage settings.
type Config struct {
	Region    string `env:"AWS_REGION" envDefault:"us-east-1"`
	Bucket    string `env:"AWS_BUCKET"`
	AccessKey string `env:"AWS_ACCESS_KEY_ID"`
	SecretKey string `env:"AWS_SECRET_ACCESS_KEY"`

	// Endpoint overrides the AWS endpoint (MinIO, LocalStack).
	Endpoint string `env:"AWS_ENDPOINT"`

	// PublicURL is a CDN prefix used instead of the bucket URL.
	PublicURL string `env:"AWS_PUBLIC_URL"`

	// PathStyle is required by most S3-compatible servers.
	PathStyle bool `env:"AWS_PATH_STYLE" envDefault:"false"`
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

func (c *Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	return nil
}

// FileInfo describes a stored object.
type FileInfo struct {
	Key         string
	ContentType string
	Size        int64
}

const DefaultRegion = "us-east-1"
