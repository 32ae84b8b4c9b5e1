// Package blob stores uploaded image files.
package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates no regular file exists under the name.
	ErrNotFound = errors.New("file not found")

	// ErrInvalidName indicates a name that carries separators or traversal
	// sequences. It is reported before any storage access.
	ErrInvalidName = errors.New("invalid file name")

	// ErrOutsideRoot indicates a name that resolves outside the store root.
	ErrOutsideRoot = errors.New("path escapes upload directory")
)

// Info describes a stored file.
type Info struct {
	Name        string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Store defines the contract for uploaded file storage. Names are flat: a
// name never contains a path separator.
type Store interface {
	// Put stores data under name, replacing nothing: names are generated
	// by the caller and assumed unique.
	Put(ctx context.Context, name string, data []byte, contentType string) error
	// Open returns a reader for the named file.
	Open(ctx context.Context, name string) (io.ReadCloser, Info, error)
	// Delete removes the named file. Missing files yield ErrNotFound.
	Delete(ctx context.Context, name string) error
}

// ValidateName rejects names that are empty or contain traversal sequences
// or path separators.
func ValidateName(name string) error {
	switch {
	case name == "":
		return ErrInvalidName
	case strings.Contains(name, ".."):
		return ErrInvalidName
	case strings.ContainsAny(name, "/\\\x00"):
		return ErrInvalidName
	}
	return nil
}
