// Package storage persists the client document locally
package storage

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/meur/tiermaker/internal/models"
)

// ErrCorrupt indicates a stored document could not be decoded
var ErrCorrupt = errors.New("stored document is corrupt")

// Backend names accepted by Open
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// DocumentStore loads and saves whole documents by key
type DocumentStore interface {
	Load(key string) (models.Document, bool, error)
	Save(key string, doc models.Document) error
	Delete(key string) error
	Close() error
}

// Open returns the store for backend rooted at path. For sqlite path is the
// database file, for json it is a directory
func Open(backend, path string, log *zap.Logger) (DocumentStore, error) {
	switch backend {
	case BackendSQLite, "":
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "tiermaker.db")
		}
		if err := ensureDir(filepath.Dir(path)); err != nil {
			return nil, err
		}
		return NewSQLite(path, log)
	case BackendJSON:
		return NewFileStore(path, log)
	default:
		return nil, fmt.Errorf("unsupported state backend: %s", backend)
	}
}
