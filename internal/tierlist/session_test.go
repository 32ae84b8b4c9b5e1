package tierlist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meur/tiermaker/internal/board"
	"github.com/meur/tiermaker/internal/client"
	"github.com/meur/tiermaker/internal/models"
	"github.com/meur/tiermaker/internal/storage"
	"github.com/meur/tiermaker/internal/upload"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeUploader struct {
	uploads   []client.UploadRequest
	deleted   []string
	uploadErr error
	deleteErr error
}

func (f *fakeUploader) Upload(_ context.Context, in client.UploadRequest) (models.UploadResponse, error) {
	if f.uploadErr != nil {
		return models.UploadResponse{}, f.uploadErr
	}
	f.uploads = append(f.uploads, in)
	id := fmt.Sprintf("file-%d.png", len(f.uploads))
	return models.UploadResponse{ID: id, ImageURL: "http://api.test/uploads/" + id}, nil
}

func (f *fakeUploader) Delete(_ context.Context, filename string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, filename)
	return nil
}

type staticChecker struct{ err error }

func (c staticChecker) Health(context.Context) error { return c.err }

func newSession(t *testing.T, up *fakeUploader) (*Session, storage.DocumentStore) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	opts := Options{APIURL: "http://api.test/"}
	if up != nil {
		opts.Uploader = up
	}
	return NewSession(store, opts), store
}

func TestLoadDefaultDocument(t *testing.T) {
	s, _ := newSession(t, nil)
	doc, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, models.NewDocument(), doc)
}

func TestLoadCorruptStartsFresh(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, models.StorageKey+".json"), []byte("{"), 0o600))

	doc, err := NewSession(store, Options{}).Load()
	require.NoError(t, err)
	assert.Equal(t, models.NewDocument(), doc)
}

func TestLoadNormalizesLegacyURLs(t *testing.T) {
	s, store := newSession(t, nil)
	doc := models.NewDocument()
	doc.Items["a"] = models.Item{ID: "a", Name: "A", Image: "/uploads/a.png"}
	doc.Items["b"] = models.Item{ID: "b", Name: "B", Image: "data:image/png;base64,AAAA"}
	require.NoError(t, store.Save(models.StorageKey, doc))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/uploads/a.png", loaded.Items["a"].Image)
	assert.Equal(t, "data:image/png;base64,AAAA", loaded.Items["b"].Image)
}

func TestTierWorkflowPersists(t *testing.T) {
	s, store := newSession(t, nil)

	_, ok, err := s.AddTier("  ", "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.ValidateTiers()
	assert.ErrorIs(t, err, board.ErrNoTiers)

	tierS, ok, err := s.AddTier("S", "#ff7f7f")
	require.NoError(t, err)
	require.True(t, ok)
	tierA, _, err := s.AddTier("A", "")
	require.NoError(t, err)
	assert.Equal(t, board.DefaultTierColor, tierA.Color)

	doc, err := s.MoveTier(tierA.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, tierA.ID, doc.Tiers[0].ID)

	doc, err = s.ValidateTiers()
	require.NoError(t, err)
	assert.Equal(t, models.StepSortItems, doc.Step)

	doc, err = s.ToggleImporter()
	require.NoError(t, err)
	assert.False(t, doc.ShowImporter)

	stored, found, err := store.Load(models.StorageKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.StepSortItems, stored.Step)
	assert.Len(t, stored.Tiers, 2)
	assert.Equal(t, tierS.ID, stored.Tiers[1].ID)
}

func TestImportAssignAndDeleteTier(t *testing.T) {
	up := &fakeUploader{}
	s, _ := newSession(t, up)

	tier, _, err := s.AddTier("S", "")
	require.NoError(t, err)

	item, err := s.ImportImage(context.Background(), ImportRequest{Filename: "cat.png", Data: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultItemName, item.Name)
	assert.Equal(t, "file-1.png", item.ID)
	require.Len(t, up.uploads, 1)
	assert.Equal(t, "image/png", up.uploads[0].ContentType)

	doc, err := s.Assign(item.ID, &tier.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{item.ID}, doc.Tiers[0].Items)
	require.NotNil(t, doc.Items[item.ID].TierID)

	doc, err = s.DeleteTier(tier.ID)
	require.NoError(t, err)
	assert.Empty(t, doc.Tiers)
	assert.Nil(t, doc.Items[item.ID].TierID)
	assert.NoError(t, board.Check(doc))
}

func TestImportRejectedLocally(t *testing.T) {
	up := &fakeUploader{}
	s, _ := newSession(t, up)

	_, err := s.ImportImage(context.Background(), ImportRequest{Filename: "notes.txt", Data: []byte("hello")})
	assert.ErrorIs(t, err, upload.ErrUnsupportedType)

	big := make([]byte, upload.MaxSize+1)
	_, err = s.ImportImage(context.Background(), ImportRequest{Filename: "big.png", ContentType: "image/png", Data: big})
	assert.ErrorIs(t, err, upload.ErrTooLarge)

	assert.Empty(t, up.uploads)
}

func TestImportRefusedWhileServiceDown(t *testing.T) {
	up := &fakeUploader{}
	store, err := storage.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	mon := client.NewMonitor(staticChecker{err: client.ErrServiceDown}, time.Hour, nil)
	require.False(t, mon.Check(context.Background()))

	s := NewSession(store, Options{Uploader: up, Monitor: mon, APIURL: "http://api.test"})
	_, err = s.ImportImage(context.Background(), ImportRequest{Filename: "a.png", Data: pngHeader})
	assert.ErrorIs(t, err, client.ErrServiceDown)
	assert.Empty(t, up.uploads)
}

func TestUploadFailureMarksServiceDown(t *testing.T) {
	up := &fakeUploader{uploadErr: fmt.Errorf("%w: connection refused", client.ErrServiceDown)}
	store, err := storage.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	mon := client.NewMonitor(staticChecker{}, time.Hour, nil)

	s := NewSession(store, Options{Uploader: up, Monitor: mon, APIURL: "http://api.test"})
	_, err = s.ImportImage(context.Background(), ImportRequest{Filename: "a.png", Data: pngHeader})
	assert.ErrorIs(t, err, client.ErrServiceDown)
	assert.False(t, mon.Up())

	doc, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Items)
}

func TestDeleteItemRemovesRemoteFile(t *testing.T) {
	up := &fakeUploader{}
	s, _ := newSession(t, up)

	item, err := s.ImportImage(context.Background(), ImportRequest{Filename: "a.png", Data: pngHeader})
	require.NoError(t, err)

	doc, err := s.DeleteItem(context.Background(), item.ID, false)
	require.NoError(t, err)
	assert.NotContains(t, doc.Items, item.ID)
	assert.Equal(t, []string{"file-1.png"}, up.deleted)

	// Second delete is a no-op and does not call the server again.
	_, err = s.DeleteItem(context.Background(), item.ID, false)
	require.NoError(t, err)
	assert.Len(t, up.deleted, 1)
}

func TestDeleteItemRemoteFailure(t *testing.T) {
	up := &fakeUploader{}
	s, _ := newSession(t, up)
	item, err := s.ImportImage(context.Background(), ImportRequest{Filename: "a.png", Data: pngHeader})
	require.NoError(t, err)

	up.deleteErr = &client.APIError{Status: 500, Message: "Failed to delete file"}
	doc, err := s.DeleteItem(context.Background(), item.ID, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemoteDelete))
	assert.Contains(t, doc.Items, item.ID)

	doc, err = s.DeleteItem(context.Background(), item.ID, true)
	require.NoError(t, err)
	assert.NotContains(t, doc.Items, item.ID)
}

func TestDeleteItemSkipsRemoteForDataURLs(t *testing.T) {
	up := &fakeUploader{deleteErr: errors.New("should not be called")}
	s, store := newSession(t, up)
	doc := models.NewDocument()
	doc.Items["d"] = models.Item{ID: "d", Name: "D", Image: "data:image/png;base64,AAAA"}
	require.NoError(t, store.Save(models.StorageKey, doc))

	out, err := s.DeleteItem(context.Background(), "d", false)
	require.NoError(t, err)
	assert.Empty(t, out.Items)
}

func TestUploadedFilename(t *testing.T) {
	cases := map[string]string{
		"http://localhost:5000/uploads/abc.png": "abc.png",
		"https://cdn.example/uploads/x/y.webp":  "y.webp",
		"/uploads/abc.png":                      "",
		"data:image/png;base64,AAAA":            "",
		"http://localhost:5000/images/abc.png":  "",
		"http://localhost:5000/uploads/":        "",
		"":                                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, UploadedFilename(in), in)
	}
}

func TestSeedOnlyFillsEmptyList(t *testing.T) {
	s, _ := newSession(t, nil)

	doc, seeded, err := s.Seed(models.DefaultTiers())
	require.NoError(t, err)
	assert.True(t, seeded)
	require.Len(t, doc.Tiers, len(models.DefaultTiers()))
	assert.Equal(t, "S", doc.Tiers[0].Label)

	doc, seeded, err = s.Seed(models.DefaultTiers())
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Len(t, doc.Tiers, len(models.DefaultTiers()))

	doc, err = s.Reset()
	require.NoError(t, err)
	assert.Empty(t, doc.Tiers)
	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, models.NewDocument(), loaded)
}

func TestDeleteItemWithoutAPIURLStaysLocal(t *testing.T) {
	up := &fakeUploader{deleteErr: errors.New("should not be called")}
	store, err := storage.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	doc := models.NewDocument()
	doc.Items["a"] = models.Item{ID: "a", Name: "A", Image: "/uploads/a.png"}
	require.NoError(t, store.Save(models.StorageKey, doc))

	s := NewSession(store, Options{Uploader: up})
	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a.png", loaded.Items["a"].Image)

	out, err := s.DeleteItem(context.Background(), "a", false)
	require.NoError(t, err)
	assert.Empty(t, out.Items)
}
