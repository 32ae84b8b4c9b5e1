package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/meur/tiermaker/internal/models"
)

// SQLiteStore keeps documents in a single SQLite table, one row per key
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

// NewSQLite opens (or creates) the SQLite database at dbPath
func NewSQLite(dbPath string, log *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store, err := NewSQLiteWithDB(db, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteWithDB wraps an already opened database
func NewSQLiteWithDB(db *sql.DB, log *zap.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	store := &SQLiteStore{db: db, log: log}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// migrate runs database migrations
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			key TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Load returns the document stored under key. ok is false when nothing has
// been saved yet
func (s *SQLiteStore) Load(key string) (models.Document, bool, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM documents WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		s.log.Debug("document load miss", zap.String("key", key))
		return models.Document{}, false, nil
	}
	if err != nil {
		return models.Document{}, false, fmt.Errorf("load %s: %w", key, err)
	}

	var doc models.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		s.log.Warn("document decode failed", zap.String("key", key), zap.Error(err))
		return models.Document{}, false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return doc, true, nil
}

// Save replaces the document stored under key
func (s *SQLiteStore) Save(key string, doc models.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO documents (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, key, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	s.log.Debug("document saved", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// Delete removes the document stored under key
func (s *SQLiteStore) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM documents WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
