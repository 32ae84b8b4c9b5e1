// Package board owns every state transition of a tier list document.
//
// All changes go through Engine.Apply, which takes the current document and a
// command and returns a new document. The input document is never modified.
// Tier member lists are the source of truth for assignments; each item's
// TierID is re-derived from them after every command.
package board

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meur/tiermaker/internal/models"
)

// Engine applies commands to documents.
type Engine struct {
	strict bool
	newID  func() string
	log    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrict makes commands that reference unknown tiers or items fail
// instead of degrading to a no-op or an unassignment.
func WithStrict(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// WithLogger sets the logger used for debug output.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithIDFunc overrides identifier generation for new tiers and items.
func WithIDFunc(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// New creates an Engine. By default it is lenient and generates UUIDs.
func New(opts ...Option) *Engine {
	e := &Engine{
		newID: func() string { return uuid.New().String() },
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strict reports whether the engine rejects unknown references.
func (e *Engine) Strict() bool {
	return e.strict
}

// Apply runs cmd against a copy of doc and returns the resulting document.
// On error the original document is returned unchanged.
func (e *Engine) Apply(doc models.Document, cmd Command) (models.Document, error) {
	next := doc.Clone()
	if next.Items == nil {
		next.Items = map[string]models.Item{}
	}
	if next.Tiers == nil {
		next.Tiers = []models.Tier{}
	}

	if err := cmd.apply(e, &next); err != nil {
		return doc, err
	}

	reconcile(&next)
	return next, nil
}

// Normalize repairs a document loaded from storage so that the assignment
// invariant holds. It is Apply with no command.
func Normalize(doc models.Document) models.Document {
	next := doc.Clone()
	if next.Items == nil {
		next.Items = map[string]models.Item{}
	}
	if next.Tiers == nil {
		next.Tiers = []models.Tier{}
	}
	if next.Step < models.StepBuildTiers {
		next.Step = models.StepBuildTiers
	}
	reconcile(&next)
	return next
}

// reconcile drops member IDs that name no item or that already appeared in
// an earlier tier, then derives every item's TierID from membership.
func reconcile(doc *models.Document) {
	owner := make(map[string]string, len(doc.Items))
	for i := range doc.Tiers {
		t := &doc.Tiers[i]
		kept := make([]string, 0, len(t.Items))
		for _, id := range t.Items {
			if _, ok := doc.Items[id]; !ok {
				continue
			}
			if _, dup := owner[id]; dup {
				continue
			}
			owner[id] = t.ID
			kept = append(kept, id)
		}
		t.Items = kept
	}

	for id, item := range doc.Items {
		if tierID, ok := owner[id]; ok {
			item.TierID = &tierID
		} else {
			item.TierID = nil
		}
		doc.Items[id] = item
	}
}

// removeMember strips itemID from every tier's member list.
func removeMember(doc *models.Document, itemID string) {
	for i := range doc.Tiers {
		t := &doc.Tiers[i]
		kept := t.Items[:0]
		for _, id := range t.Items {
			if id != itemID {
				kept = append(kept, id)
			}
		}
		t.Items = kept
	}
}
