//go:build !gcp

package blob

import (
	"context"
	"errors"
)

func newGCSStore(ctx context.Context, cfg Config) (Store, error) {
	return nil, errors.New("gcs storage requires a build with -tags gcp")
}
