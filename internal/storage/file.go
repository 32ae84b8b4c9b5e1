package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/meur/tiermaker/internal/models"
)

// FileStore keeps each document as a JSON file in a directory
type FileStore struct {
	dir string
	log *zap.Logger
}

// NewFileStore creates the directory if needed and returns a store over it
func NewFileStore(dir string, log *zap.Logger) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{dir: dir, log: log.With(zap.String("state_dir", dir))}, nil
}

// Load reads the document saved under key
func (s *FileStore) Load(key string) (models.Document, bool, error) {
	path := s.pathFor(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Debug("document load miss", zap.String("key", key))
			return models.Document{}, false, nil
		}
		return models.Document{}, false, fmt.Errorf("load %s: %w", key, err)
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn("document decode failed", zap.String("key", key), zap.Error(err))
		return models.Document{}, false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return doc, true, nil
}

// Save writes the document atomically through a temp file and rename
func (s *FileStore) Save(key string, doc models.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(s.dir, "state-*.json")
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.pathFor(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", key, err)
	}
	s.log.Debug("document saved", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// Delete removes the file for key; a missing file is not an error
func (s *FileStore) Delete(key string) error {
	err := os.Remove(s.pathFor(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close is a no-op
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) pathFor(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".json")
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "default"
	}
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to ensure state dir: %w", err)
	}
	return nil
}
