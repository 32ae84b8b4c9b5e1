//go:build gcp

package blob

import "context"

func newGCSStore(ctx context.Context, cfg Config) (Store, error) {
	return NewGCSStore(ctx, GCSConfig{Bucket: cfg.GCSBucket, Prefix: cfg.GCSPrefix})
}
