package blob

import (
	"context"
	"fmt"
)

// Type names a storage backend.
type Type string

const (
	TypeFS  Type = "fs"
	TypeS3  Type = "s3"
	TypeGCS Type = "gcs"
)

// Config selects and configures a backend.
type Config struct {
	Type Type
	Dir  string

	S3Bucket   string
	S3Region   string
	S3Endpoint string
	S3Prefix   string

	GCSBucket string
	GCSPrefix string
}

// New creates the store described by cfg.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Type {
	case TypeFS, "":
		return NewFileStore(cfg.Dir)
	case TypeS3:
		region := cfg.S3Region
		if region == "" {
			region = "us-east-1"
		}
		return NewS3Store(ctx, S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   cfg.S3Prefix,
		})
	case TypeGCS:
		return newGCSStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
