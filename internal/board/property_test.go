package board

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/meur/tiermaker/internal/models"
)

// decodeOp turns a generated integer into a command over a small pool of
// tiers and items so that sequences collide often.
func decodeOp(v int, doc models.Document) Command {
	arg := v / 8
	itemID := fmt.Sprintf("item-%d", arg%5)
	tierID := func() *string {
		if len(doc.Tiers) == 0 || arg%7 == 0 {
			return nil
		}
		if arg%11 == 0 {
			missing := "missing"
			return &missing
		}
		id := doc.Tiers[arg%len(doc.Tiers)].ID
		return &id
	}
	switch v % 8 {
	case 0:
		return AddTier{Label: fmt.Sprintf("T%d", arg)}
	case 1:
		if len(doc.Tiers) == 0 {
			return ToggleImporter{}
		}
		return DeleteTier{TierID: doc.Tiers[arg%len(doc.Tiers)].ID}
	case 2:
		return AddItem{Item: models.Item{ID: itemID, Name: itemID}}
	case 3:
		return DeleteItem{ItemID: itemID}
	case 4:
		if len(doc.Tiers) == 0 {
			return ToggleImporter{}
		}
		return MoveTier{TierID: doc.Tiers[arg%len(doc.Tiers)].ID, Index: arg % 4}
	default:
		return Assign{ItemID: itemID, TierID: tierID()}
	}
}

func TestAssignmentInvariantHoldsForAnySequence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("invariant holds after every command", prop.ForAll(
		func(ops []int) bool {
			e := New(WithIDFunc(sequentialIDs()))
			doc := models.NewDocument()
			for _, v := range ops {
				next, err := e.Apply(doc, decodeOp(v, doc))
				if err != nil {
					return false
				}
				if Check(next) != nil {
					return false
				}
				doc = next
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 10000)),
	))

	properties.Property("deleted tiers leave no assigned items behind", prop.ForAll(
		func(ops []int) bool {
			e := New(WithIDFunc(sequentialIDs()))
			doc := models.NewDocument()
			for _, v := range ops {
				doc, _ = e.Apply(doc, decodeOp(v, doc))
			}
			for _, tier := range doc.Tiers {
				members := append([]string{}, tier.Items...)
				next, err := e.Apply(doc, DeleteTier{TierID: tier.ID})
				if err != nil {
					return false
				}
				for _, id := range members {
					if next.Items[id].TierID != nil {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 10000)),
	))

	properties.TestingRun(t)
}
