//go:build gcp

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSStore implements Store using Google Cloud Storage.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// GCSConfig holds configuration for GCSStore.
type GCSConfig struct {
	Bucket string
	Prefix string
}

// NewGCSStore creates a new GCS-backed upload store. Credentials come from
// application default credentials.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *GCSStore) object(name string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.prefix + name)
}

func (s *GCSStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	w := s.object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write failed for %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close failed for %s: %w", name, err)
	}
	return nil
}

func (s *GCSStore) Open(ctx context.Context, name string) (io.ReadCloser, Info, error) {
	if err := ValidateName(name); err != nil {
		return nil, Info{}, err
	}
	r, err := s.object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, Info{}, ErrNotFound
		}
		return nil, Info{}, fmt.Errorf("gcs get failed for %s: %w", name, err)
	}
	info := Info{
		Name:        name,
		Size:        r.Attrs.Size,
		ContentType: r.Attrs.ContentType,
		ModTime:     r.Attrs.LastModified,
	}
	return r, info, nil
}

func (s *GCSStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	err := s.object(name).Delete(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("gcs delete failed for %s: %w", name, err)
	}
	return nil
}

// Close closes the GCS client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
