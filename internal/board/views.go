package board

import (
	"sort"

	"github.com/meur/tiermaker/internal/models"
)

// Unassigned returns the items that sit in no tier, ordered by name then ID.
func Unassigned(doc models.Document) []models.Item {
	var out []models.Item
	for _, item := range doc.Items {
		if item.TierID == nil {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Members returns the items of a tier in tier order. Unknown tiers yield nil.
func Members(doc models.Document, tierID string) []models.Item {
	idx := doc.FindTier(tierID)
	if idx < 0 {
		return nil
	}
	out := make([]models.Item, 0, len(doc.Tiers[idx].Items))
	for _, id := range doc.Tiers[idx].Items {
		if item, ok := doc.Items[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

// Check verifies the assignment invariant: an item has a TierID exactly when
// it appears in one tier's member list, and that tier carries the same ID.
func Check(doc models.Document) error {
	owner := make(map[string]string)
	for _, t := range doc.Tiers {
		for _, id := range t.Items {
			if _, ok := doc.Items[id]; !ok {
				return &InvariantError{ItemID: id, Reason: "member of tier " + t.ID + " but not in item mapping"}
			}
			if prev, dup := owner[id]; dup {
				return &InvariantError{ItemID: id, Reason: "member of tiers " + prev + " and " + t.ID}
			}
			owner[id] = t.ID
		}
	}
	for id, item := range doc.Items {
		tierID, member := owner[id]
		switch {
		case item.TierID == nil && member:
			return &InvariantError{ItemID: id, Reason: "unassigned but member of tier " + tierID}
		case item.TierID != nil && !member:
			return &InvariantError{ItemID: id, Reason: "assigned to " + *item.TierID + " but member of no tier"}
		case item.TierID != nil && *item.TierID != tierID:
			return &InvariantError{ItemID: id, Reason: "assigned to " + *item.TierID + " but member of tier " + tierID}
		}
	}
	return nil
}
