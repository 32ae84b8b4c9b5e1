package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore is a filesystem-backed implementation of Store.
type FileStore struct {
	root string
}

// NewFileStore creates the upload directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload dir: %w", err)
	}
	//nolint:gosec // G301: uploaded images are served publicly
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure upload dir: %w", err)
	}
	return &FileStore{root: abs}, nil
}

// Root returns the absolute upload directory.
func (s *FileStore) Root() string {
	return s.root
}

// resolve maps name to a path inside root.
func (s *FileStore) resolve(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	path := filepath.Join(s.root, name)
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return path, nil
}

func (s *FileStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write upload: %w", err)
	}
	//nolint:gosec // G302: uploaded images are served publicly
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to commit upload: %w", err)
	}
	return nil
}

func (s *FileStore) Open(ctx context.Context, name string) (io.ReadCloser, Info, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, Info{}, err
	}
	fi, err := s.regularFile(path)
	if err != nil {
		return nil, Info{}, err
	}
	f, err := os.Open(path) //nolint:gosec // name validated by resolve
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Info{}, ErrNotFound
		}
		return nil, Info{}, err
	}
	return f, Info{Name: name, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if _, err := s.regularFile(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

// regularFile stats path without following symlinks.
func (s *FileStore) regularFile(path string) (os.FileInfo, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat upload: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return nil, ErrNotFound
	}
	return fi, nil
}
