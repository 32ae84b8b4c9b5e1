// Package tierlist runs user actions against the persisted tier list: load
// the document, apply a board command, round-trip images through the upload
// service when needed, save.
package tierlist

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/meur/tiermaker/internal/board"
	"github.com/meur/tiermaker/internal/client"
	"github.com/meur/tiermaker/internal/models"
	"github.com/meur/tiermaker/internal/storage"
	"github.com/meur/tiermaker/internal/upload"
)

// ErrRemoteDelete wraps a failed server-side image delete. The local item is
// kept unless the caller forces the delete.
var ErrRemoteDelete = errors.New("remote image delete failed")

// Uploader is the part of the upload client the session needs.
type Uploader interface {
	Upload(ctx context.Context, in client.UploadRequest) (models.UploadResponse, error)
	Delete(ctx context.Context, filename string) error
}

// Session is a sequence of user actions over one stored document.
type Session struct {
	store    storage.DocumentStore
	engine   *board.Engine
	uploader Uploader
	monitor  *client.Monitor
	apiURL   string
	log      *zap.Logger
}

// Options configures a Session. Uploader and Monitor may be nil for
// offline use; image imports then fail with client.ErrServiceDown.
type Options struct {
	Engine   *board.Engine
	Uploader Uploader
	Monitor  *client.Monitor
	APIURL   string
	Logger   *zap.Logger
}

// NewSession creates a session over store.
func NewSession(store storage.DocumentStore, opts Options) *Session {
	s := &Session{
		store:    store,
		engine:   opts.Engine,
		uploader: opts.Uploader,
		monitor:  opts.Monitor,
		apiURL:   strings.TrimRight(opts.APIURL, "/"),
		log:      opts.Logger,
	}
	if s.engine == nil {
		s.engine = board.New()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Load returns the stored document, or the default one when nothing usable
// is stored. Legacy relative image URLs are made absolute and the
// assignment invariant is repaired.
func (s *Session) Load() (models.Document, error) {
	doc, found, err := s.store.Load(models.StorageKey)
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		s.log.Warn("stored tier list is unreadable, starting fresh", zap.Error(err))
		return models.NewDocument(), nil
	case err != nil:
		return models.Document{}, fmt.Errorf("load tier list: %w", err)
	case !found:
		return models.NewDocument(), nil
	}
	NormalizeImageURLs(&doc, s.apiURL)
	return board.Normalize(doc), nil
}

func (s *Session) save(doc models.Document) error {
	if err := s.store.Save(models.StorageKey, doc); err != nil {
		return fmt.Errorf("save tier list: %w", err)
	}
	return nil
}

// Apply loads the document, runs cmd and saves the result.
func (s *Session) Apply(cmd board.Command) (models.Document, error) {
	doc, err := s.Load()
	if err != nil {
		return models.Document{}, err
	}
	next, err := s.engine.Apply(doc, cmd)
	if err != nil {
		return doc, err
	}
	if err := s.save(next); err != nil {
		return doc, err
	}
	return next, nil
}

// Reset replaces the stored document with the default one.
func (s *Session) Reset() (models.Document, error) {
	doc := models.NewDocument()
	if err := s.save(doc); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// Seed adds the given tiers when the list has none. It reports whether
// anything was added.
func (s *Session) Seed(presets []models.TierPreset) (models.Document, bool, error) {
	doc, err := s.Load()
	if err != nil {
		return models.Document{}, false, err
	}
	if len(doc.Tiers) > 0 {
		return doc, false, nil
	}
	for _, p := range presets {
		if doc, err = s.engine.Apply(doc, board.AddTier{Label: p.Label, Color: p.Color}); err != nil {
			return models.Document{}, false, err
		}
	}
	if err := s.save(doc); err != nil {
		return models.Document{}, false, err
	}
	return doc, len(doc.Tiers) > 0, nil
}

// AddTier appends a tier and returns it. An empty label changes nothing and
// returns ok=false.
func (s *Session) AddTier(label, color string) (tier models.Tier, ok bool, err error) {
	before, err := s.Load()
	if err != nil {
		return models.Tier{}, false, err
	}
	doc, err := s.Apply(board.AddTier{Label: label, Color: color})
	if err != nil {
		return models.Tier{}, false, err
	}
	if len(doc.Tiers) == len(before.Tiers) {
		return models.Tier{}, false, nil
	}
	return doc.Tiers[len(doc.Tiers)-1], true, nil
}

// DeleteTier removes a tier; its items go back to the unassigned pool.
func (s *Session) DeleteTier(tierID string) (models.Document, error) {
	return s.Apply(board.DeleteTier{TierID: tierID})
}

// MoveTier changes a tier's priority.
func (s *Session) MoveTier(tierID string, index int) (models.Document, error) {
	return s.Apply(board.MoveTier{TierID: tierID, Index: index})
}

// ValidateTiers moves on from building tiers to sorting items.
func (s *Session) ValidateTiers() (models.Document, error) {
	return s.Apply(board.ValidateTiers{})
}

// ToggleImporter flips the importer visibility flag.
func (s *Session) ToggleImporter() (models.Document, error) {
	return s.Apply(board.ToggleImporter{})
}

// Assign puts an item in a tier, or back in the pool when tierID is nil.
func (s *Session) Assign(itemID string, tierID *string) (models.Document, error) {
	return s.Apply(board.Assign{ItemID: itemID, TierID: tierID})
}

// ImportRequest is one image to add as an item.
type ImportRequest struct {
	Filename    string
	ContentType string
	Data        []byte
	Name        string
	Description string
}

// ImportImage checks the image locally, uploads it and adds the resulting
// item to the unassigned pool.
func (s *Session) ImportImage(ctx context.Context, in ImportRequest) (models.Item, error) {
	if in.ContentType == "" {
		in.ContentType = upload.TypeByExtension(in.Filename, in.Data)
	}
	if err := upload.Precheck(int64(len(in.Data)), in.ContentType); err != nil {
		return models.Item{}, fmt.Errorf("%s: %w", in.Filename, err)
	}
	if s.uploader == nil {
		return models.Item{}, client.ErrServiceDown
	}
	if s.monitor != nil && !s.monitor.Up() {
		return models.Item{}, client.ErrServiceDown
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = models.DefaultItemName
	}
	resp, err := s.uploader.Upload(ctx, client.UploadRequest{
		Filename:    in.Filename,
		ContentType: upload.NormalizeType(in.ContentType),
		Data:        in.Data,
		Name:        name,
		Description: in.Description,
	})
	if err != nil {
		s.noteFailure(err)
		return models.Item{}, fmt.Errorf("upload %s: %w", in.Filename, err)
	}

	item := models.Item{
		ID:          resp.ID,
		Name:        name,
		Description: in.Description,
		Image:       resp.ImageURL,
	}
	if _, err := s.Apply(board.AddItem{Item: item}); err != nil {
		return models.Item{}, err
	}
	s.log.Info("image imported", zap.String("item", item.ID), zap.String("name", item.Name))
	return item, nil
}

// DeleteItem removes an item. When its image lives on the upload server the
// stored file is deleted first; if that fails the item is kept and the error
// wraps ErrRemoteDelete, unless force is set. Deleting a missing item is a
// no-op.
func (s *Session) DeleteItem(ctx context.Context, itemID string, force bool) (models.Document, error) {
	doc, err := s.Load()
	if err != nil {
		return models.Document{}, err
	}
	item, ok := doc.Items[itemID]
	if !ok {
		return doc, nil
	}

	if name := UploadedFilename(item.Image); name != "" && s.uploader != nil && s.apiURL != "" {
		if err := s.uploader.Delete(ctx, name); err != nil {
			s.noteFailure(err)
			if !force {
				return doc, fmt.Errorf("%w: %s: %v", ErrRemoteDelete, name, err)
			}
			s.log.Warn("remote delete failed, deleting locally", zap.String("file", name), zap.Error(err))
		}
	}
	return s.Apply(board.DeleteItem{ItemID: itemID})
}

// noteFailure tells the monitor when a request could not reach the server.
func (s *Session) noteFailure(err error) {
	if s.monitor != nil && errors.Is(err, client.ErrServiceDown) {
		s.monitor.MarkDown()
	}
}

// UploadedFilename returns the stored file name of an image URL served from
// /uploads/, or "" for anything else (data URLs, foreign paths).
func UploadedFilename(image string) string {
	u, err := url.Parse(image)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	if !strings.HasPrefix(u.Path, "/uploads/") {
		return ""
	}
	name := path.Base(u.Path)
	if name == "uploads" || name == "/" || name == "." {
		return ""
	}
	return name
}

// NormalizeImageURLs prefixes images stored as bare /uploads/ paths with
// apiURL. Without an API URL the document is left as is.
func NormalizeImageURLs(doc *models.Document, apiURL string) {
	if apiURL == "" {
		return
	}
	for id, item := range doc.Items {
		if strings.HasPrefix(item.Image, "/uploads/") {
			item.Image = apiURL + item.Image
			doc.Items[id] = item
		}
	}
}
