package storage

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meur/tiermaker/internal/models"
)

func sampleDocument() models.Document {
	tierID := "tier-s"
	doc := models.NewDocument()
	doc.Step = models.StepSortItems
	doc.Tiers = []models.Tier{{ID: tierID, Label: "S", Color: "#ff0000", Items: []string{"a.png"}}}
	doc.Items["a.png"] = models.Item{ID: "a.png", Name: "A", Image: "http://localhost:5000/uploads/a.png", TierID: &tierID}
	doc.Items["b.png"] = models.Item{ID: "b.png", Name: "B", Image: "/uploads/b.png"}
	return doc
}

func TestStoresRoundTrip(t *testing.T) {
	for _, backend := range []string{BackendSQLite, BackendJSON} {
		t.Run(backend, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state")
			if backend == BackendSQLite {
				path += ".db"
			}
			store, err := Open(backend, path, nil)
			require.NoError(t, err)
			defer store.Close()

			_, ok, err := store.Load(models.StorageKey)
			require.NoError(t, err)
			assert.False(t, ok)

			doc := sampleDocument()
			require.NoError(t, store.Save(models.StorageKey, doc))

			got, ok, err := store.Load(models.StorageKey)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, doc, got)

			doc.ShowImporter = false
			require.NoError(t, store.Save(models.StorageKey, doc))
			got, _, err = store.Load(models.StorageKey)
			require.NoError(t, err)
			assert.False(t, got.ShowImporter)

			require.NoError(t, store.Delete(models.StorageKey))
			_, ok, err = store.Load(models.StorageKey)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open("etcd", t.TempDir(), nil)
	assert.Error(t, err)
}

func TestFileStoreLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tierlist.json"), []byte("{not-json"), 0o600))

	_, _, err = store.Load(models.StorageKey)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFileStoreSanitizesKey(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save("../escape", models.NewDocument()))

	_, err = os.Stat(filepath.Join(dir, "___escape.json"))
	assert.NoError(t, err)
}

func TestDocumentJSONShape(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(models.StorageKey, sampleDocument()))

	raw, err := os.ReadFile(filepath.Join(dir, "tierlist.json"))
	require.NoError(t, err)
	for _, key := range []string{`"step"`, `"tiers"`, `"items"`, `"showImporter"`, `"tierId": null`, `"tierId": "tier-s"`, `"label"`} {
		assert.Contains(t, string(raw), key)
	}
}

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS documents")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := NewSQLiteWithDB(db, nil)
	require.NoError(t, err)
	return store, mock
}

func TestSQLiteStoreLoadQueryError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM documents WHERE key = ?")).
		WithArgs(models.StorageKey).
		WillReturnError(errors.New("disk I/O error"))

	_, ok, err := store.Load(models.StorageKey)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreLoadCorrupt(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM documents WHERE key = ?")).
		WithArgs(models.StorageKey).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow("{not-json"))

	_, _, err := store.Load(models.StorageKey)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreSaveError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO documents").
		WithArgs(models.StorageKey, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("database is locked"))

	err := store.Save(models.StorageKey, models.NewDocument())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreMigrationError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("read-only database"))

	_, err = NewSQLiteWithDB(db, nil)
	assert.Error(t, err)
}
