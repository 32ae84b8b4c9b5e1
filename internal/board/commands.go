package board

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/meur/tiermaker/internal/models"
)

// DefaultTierColor is used when a tier is added without a color.
const DefaultTierColor = "#ff0000"

// Command is a single state transition understood by Engine.Apply.
type Command interface {
	apply(e *Engine, doc *models.Document) error
}

// AddTier appends a new tier at the lowest priority. An empty label is
// ignored.
type AddTier struct {
	Label string
	Color string
}

func (c AddTier) apply(e *Engine, doc *models.Document) error {
	label := strings.TrimSpace(c.Label)
	if label == "" {
		return nil
	}
	color := strings.TrimSpace(c.Color)
	if color == "" {
		color = DefaultTierColor
	}
	doc.Tiers = append(doc.Tiers, models.Tier{
		ID:    e.newID(),
		Label: label,
		Color: color,
		Items: []string{},
	})
	return nil
}

// DeleteTier removes a tier. Its former members become unassigned.
type DeleteTier struct {
	TierID string
}

func (c DeleteTier) apply(e *Engine, doc *models.Document) error {
	idx := doc.FindTier(c.TierID)
	if idx < 0 {
		if e.strict {
			return fmt.Errorf("delete tier %s: %w", c.TierID, ErrUnknownTier)
		}
		return nil
	}
	doc.Tiers = append(doc.Tiers[:idx], doc.Tiers[idx+1:]...)
	return nil
}

// MoveTier changes the priority of a tier. Index is clamped to the valid range.
type MoveTier struct {
	TierID string
	Index  int
}

func (c MoveTier) apply(e *Engine, doc *models.Document) error {
	from := doc.FindTier(c.TierID)
	if from < 0 {
		if e.strict {
			return fmt.Errorf("move tier %s: %w", c.TierID, ErrUnknownTier)
		}
		return nil
	}
	to := c.Index
	if to < 0 {
		to = 0
	}
	if to > len(doc.Tiers)-1 {
		to = len(doc.Tiers) - 1
	}
	tier := doc.Tiers[from]
	doc.Tiers = append(doc.Tiers[:from], doc.Tiers[from+1:]...)
	doc.Tiers = append(doc.Tiers[:to], append([]models.Tier{tier}, doc.Tiers[to:]...)...)
	return nil
}

// ValidateTiers finishes the build step and moves on to sorting items.
type ValidateTiers struct{}

func (ValidateTiers) apply(e *Engine, doc *models.Document) error {
	if len(doc.Tiers) == 0 {
		return ErrNoTiers
	}
	if doc.Step < models.StepSortItems {
		doc.Step = models.StepSortItems
	}
	return nil
}

// ToggleImporter flips the importer visibility flag.
type ToggleImporter struct{}

func (ToggleImporter) apply(e *Engine, doc *models.Document) error {
	doc.ShowImporter = !doc.ShowImporter
	return nil
}

// AddItem stores an item. New items are always unassigned.
type AddItem struct {
	Item models.Item
}

func (c AddItem) apply(e *Engine, doc *models.Document) error {
	item := c.Item.Clone()
	if item.ID == "" {
		item.ID = e.newID()
	}
	if strings.TrimSpace(item.Name) == "" {
		item.Name = models.DefaultItemName
	}
	item.TierID = nil
	removeMember(doc, item.ID)
	doc.Items[item.ID] = item
	return nil
}

// Assign moves an item into a tier, or out of every tier when TierID is nil.
// In lenient mode an unknown tier unassigns the item.
type Assign struct {
	ItemID string
	TierID *string
}

func (c Assign) apply(e *Engine, doc *models.Document) error {
	item, ok := doc.Items[c.ItemID]
	if !ok {
		if e.strict {
			return fmt.Errorf("assign %s: %w", c.ItemID, ErrUnknownItem)
		}
		removeMember(doc, c.ItemID)
		return nil
	}

	target := -1
	if c.TierID != nil {
		target = doc.FindTier(*c.TierID)
		if target < 0 {
			if e.strict {
				return fmt.Errorf("assign %s to %s: %w", c.ItemID, *c.TierID, ErrUnknownTier)
			}
			e.log.Debug("assign to missing tier, unassigning",
				zap.String("item", c.ItemID),
				zap.String("tier", *c.TierID))
		}
	}

	removeMember(doc, c.ItemID)
	item.TierID = nil
	if target >= 0 {
		t := &doc.Tiers[target]
		t.Items = append(t.Items, c.ItemID)
		tierID := t.ID
		item.TierID = &tierID
	}
	doc.Items[c.ItemID] = item
	return nil
}

// DeleteItem removes an item from its tier and from the item mapping.
// Deleting a missing item is a no-op.
type DeleteItem struct {
	ItemID string
}

func (c DeleteItem) apply(e *Engine, doc *models.Document) error {
	removeMember(doc, c.ItemID)
	delete(doc.Items, c.ItemID)
	return nil
}
