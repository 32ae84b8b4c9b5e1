package models

// DefaultItemName is used when an image is imported without a name
const DefaultItemName = "Untitled"

// Item represents an uploaded image that can be ranked in a tier list
type Item struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       string  `json:"image"`  // Absolute URL, /uploads/ path or data URL
	TierID      *string `json:"tierId"` // nil = unassigned
}

// Assigned reports whether the item sits in a tier
func (i Item) Assigned() bool {
	return i.TierID != nil
}

// Clone returns a copy that shares no pointers with i
func (i Item) Clone() Item {
	if i.TierID != nil {
		id := *i.TierID
		i.TierID = &id
	}
	return i
}
