package models

// StorageKey is the fixed key the client document is persisted under
const StorageKey = "tierlist"

// Workflow steps of a document
const (
	StepBuildTiers = 1
	StepSortItems  = 2
)

// Document is the whole client-side state, persisted as a single blob
type Document struct {
	Step         int             `json:"step"`
	Tiers        []Tier          `json:"tiers"`
	Items        map[string]Item `json:"items"`
	ShowImporter bool            `json:"showImporter"`
}

// Tier represents a single tier in a tier list
type Tier struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Color string   `json:"color"`
	Items []string `json:"items"` // Item IDs in order
}

// NewDocument returns the state a fresh client starts with
func NewDocument() Document {
	return Document{
		Step:         StepBuildTiers,
		Tiers:        []Tier{},
		Items:        map[string]Item{},
		ShowImporter: true,
	}
}

// Clone returns a deep copy of the document
func (d Document) Clone() Document {
	out := Document{
		Step:         d.Step,
		Tiers:        make([]Tier, len(d.Tiers)),
		Items:        make(map[string]Item, len(d.Items)),
		ShowImporter: d.ShowImporter,
	}
	for i, t := range d.Tiers {
		t.Items = append([]string{}, t.Items...)
		out.Tiers[i] = t
	}
	for id, item := range d.Items {
		out.Items[id] = item.Clone()
	}
	return out
}

// FindTier returns the index of the tier with the given ID, or -1
func (d Document) FindTier(id string) int {
	for i, t := range d.Tiers {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// TierPreset is a label/color pair used to seed new tier lists
type TierPreset struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// DefaultTiers returns standard S-F tier configuration
func DefaultTiers() []TierPreset {
	return []TierPreset{
		{Label: "S", Color: "#ff7f7f"},
		{Label: "A", Color: "#ffbf7f"},
		{Label: "B", Color: "#ffff7f"},
		{Label: "C", Color: "#7fff7f"},
		{Label: "D", Color: "#7fbfff"},
		{Label: "F", Color: "#ff7fff"},
	}
}
