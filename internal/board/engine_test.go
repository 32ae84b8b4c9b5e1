package board

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meur/tiermaker/internal/models"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func strPtr(s string) *string { return &s }

// fixture returns a document holding tier S and one unassigned item X.
func fixture(t *testing.T, e *Engine) (models.Document, string) {
	t.Helper()
	doc, err := e.Apply(models.NewDocument(), AddTier{Label: "S", Color: "#ff0000"})
	require.NoError(t, err)
	doc, err = e.Apply(doc, AddItem{Item: models.Item{ID: "x.png", Name: "X", Image: "http://localhost:5000/uploads/x.png"}})
	require.NoError(t, err)
	require.Len(t, doc.Tiers, 1)
	return doc, doc.Tiers[0].ID
}

func TestAssignToTier(t *testing.T) {
	e := New(WithIDFunc(sequentialIDs()))
	doc, sID := fixture(t, e)

	doc, err := e.Apply(doc, Assign{ItemID: "x.png", TierID: strPtr(sID)})
	require.NoError(t, err)

	assert.Equal(t, []string{"x.png"}, doc.Tiers[0].Items)
	require.NotNil(t, doc.Items["x.png"].TierID)
	assert.Equal(t, sID, *doc.Items["x.png"].TierID)
	assert.Empty(t, Unassigned(doc))
	assert.NoError(t, Check(doc))
}

func TestAssignToNilUnassigns(t *testing.T) {
	e := New(WithIDFunc(sequentialIDs()))
	doc, sID := fixture(t, e)

	doc, err := e.Apply(doc, Assign{ItemID: "x.png", TierID: strPtr(sID)})
	require.NoError(t, err)
	doc, err = e.Apply(doc, Assign{ItemID: "x.png", TierID: nil})
	require.NoError(t, err)

	assert.Empty(t, doc.Tiers[0].Items)
	assert.Nil(t, doc.Items["x.png"].TierID)
	unassigned := Unassigned(doc)
	require.Len(t, unassigned, 1)
	assert.Equal(t, "x.png", unassigned[0].ID)
	assert.NoError(t, Check(doc))
}

func TestReassignMovesBetweenTiers(t *testing.T) {
	e := New(WithIDFunc(sequentialIDs()))
	doc, sID := fixture(t, e)
	doc, err := e.Apply(doc, AddTier{Label: "A", Color: "#00ff00"})
	require.NoError(t, err)
	aID := doc.Tiers[1].ID

	doc, err = e.Apply(doc, Assign{ItemID: "x.png", TierID: strPtr(sID)})
	require.NoError(t, err)
	doc, err = e.Apply(doc, Assign{ItemID: "x.png", TierID: strPtr(aID)})
	require.NoError(t, err)

	assert.Empty(t, doc.Tiers[0].Items)
	assert.Equal(t, []string{"x.png"}, doc.Tiers[1].Items)
	assert.Equal(t, aID, *doc.Items["x.png"].TierID)
}

func TestAssignSameTierTwiceKeepsSingleMembership(t *testing.T) {
	e := New(WithIDFunc(sequentialIDs()))
	doc, sID := fixture(t, e)

	for i := 0; i < 3; i++ {
		var err error
		doc, err = e.Apply(doc, Assign{ItemID: "x.png", TierID: strPtr(sID)})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"x.png"}, doc.Tiers[0].Items)
}

func TestAssignUnknownTierLenient(t *testing.T) {
	e := New(WithIDFunc(sequentialIDs()))
	doc, sID := fixture(t, e)
	doc, err := e.Apply(doc, Assign{ItemID: "x.png", TierID: strPtr(sID)})
	require.NoError(t, err)

	doc, err = e.Apply(doc, Assign{ItemID: "x.png", TierID: strPtr("missing")})
	require.NoError(t, err)
	assert.Nil(t, doc.Items["x.png"].TierID)
	assert.Empty(t, doc.Tiers[0].Items)
}

func TestAssignUnknownTierStrict(t *testing.T) {
	e := New(WithIDFunc(sequentialIDs()), WithStrict(true))
	doc, sID := fixture(t, e)
	doc, err := e.Apply(doc, Assign{ItemID: "x.png", TierID: strPtr(sID)})
	require.NoError(t, err)

	next, err := e.Apply(doc, Assign{ItemID: "x.png", TierID: strPtr("missing")})
	require.ErrorIs(t, err, ErrUnknownTier)
	assert.Equal(t, doc, next)
	assert.Equal(t, sID, *next.Items["x.png"].TierID)

	_, err = e.Apply(doc, Assign{ItemID: "ghost", TierID: strPtr(sID)})
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestAssignUnknownItemLenientIsNoop(t *testing.T) {
	e := New(WithIDFunc(sequentialIDs()))
	doc, sID := fixture(t, e)

	next, err := e.Apply(doc, Assign{ItemID: "ghost", TierID: strPtr(sID)})
	require.NoError(t, err)
	assert.Equal(t, doc, next)
}

func TestDeleteTierUnassignsMembers(t *testing.T) {
	e := New(WithIDFunc(sequentialIDs()))
	doc, sID := fixture(t, e)
	doc, err := e.Apply(doc, Assign{ItemID: "x.png", TierID: strPtr(sID)})
	require.NoError(t, err)

	doc, err = e.Apply(doc, DeleteTier{TierID: sID})
	require.NoError(t, err)

	assert.Empty(t, doc.Tiers)
	assert.Equal(t, -1, doc.FindTier(sID))
	assert.Nil(t, doc.Items["x.png"].TierID)
	assert.Len(t, Unassigned(doc), 1)
	assert.NoError(t, Check(doc))
}

func TestDeleteItem(t *testing.T) {
	e := New(WithIDFunc(sequentialIDs()))
	doc, sID := fixture(t, e)
	doc, err := e.Apply(doc, Assign{ItemID: "x.png", TierID: strPtr(sID)})
	require.NoError(t, err)

	doc, err = e.Apply(doc, DeleteItem{ItemID: "x.png"})
	require.NoError(t, err)
	assert.NotContains(t, doc.Items, "x.png")
	assert.Empty(t, doc.Tiers[0].Items)

	again, err := e.Apply(doc, DeleteItem{ItemID: "x.png"})
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	e := New(WithIDFunc(sequentialIDs()))
	doc, sID := fixture(t, e)
	before := doc.Clone()

	_, err := e.Apply(doc, Assign{ItemID: "x.png", TierID: strPtr(sID)})
	require.NoError(t, err)
	_, err = e.Apply(doc, DeleteTier{TierID: sID})
	require.NoError(t, err)

	assert.Equal(t, before, doc)
}

func TestAddTierIgnoresEmptyLabel(t *testing.T) {
	e := New(WithIDFunc(sequentialIDs()))
	doc, err := e.Apply(models.NewDocument(), AddTier{Label: "  "})
	require.NoError(t, err)
	assert.Empty(t, doc.Tiers)

	doc, err = e.Apply(doc, AddTier{Label: "B"})
	require.NoError(t, err)
	require.Len(t, doc.Tiers, 1)
	assert.Equal(t, DefaultTierColor, doc.Tiers[0].Color)
	assert.Equal(t, []string{}, doc.Tiers[0].Items)
}

func TestMoveTier(t *testing.T) {
	e := New(WithIDFunc(sequentialIDs()))
	doc := models.NewDocument()
	for _, label := range []string{"S", "A", "B"} {
		var err error
		doc, err = e.Apply(doc, AddTier{Label: label})
		require.NoError(t, err)
	}
	bID := doc.Tiers[2].ID

	doc, err := e.Apply(doc, MoveTier{TierID: bID, Index: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "S", "A"}, labels(doc))

	doc, err = e.Apply(doc, MoveTier{TierID: bID, Index: 99})
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "A", "B"}, labels(doc))
}

func labels(doc models.Document) []string {
	out := make([]string, 0, len(doc.Tiers))
	for _, t := range doc.Tiers {
		out = append(out, t.Label)
	}
	return out
}

func TestValidateTiers(t *testing.T) {
	e := New(WithIDFunc(sequentialIDs()))
	_, err := e.Apply(models.NewDocument(), ValidateTiers{})
	assert.ErrorIs(t, err, ErrNoTiers)

	doc, err := e.Apply(models.NewDocument(), AddTier{Label: "S"})
	require.NoError(t, err)
	doc, err = e.Apply(doc, ValidateTiers{})
	require.NoError(t, err)
	assert.Equal(t, models.StepSortItems, doc.Step)
}

func TestToggleImporter(t *testing.T) {
	e := New()
	doc, err := e.Apply(models.NewDocument(), ToggleImporter{})
	require.NoError(t, err)
	assert.False(t, doc.ShowImporter)
	doc, err = e.Apply(doc, ToggleImporter{})
	require.NoError(t, err)
	assert.True(t, doc.ShowImporter)
}

func TestAddItemForcesUnassigned(t *testing.T) {
	e := New(WithIDFunc(sequentialIDs()))
	doc, err := e.Apply(models.NewDocument(), AddItem{Item: models.Item{TierID: strPtr("nope")}})
	require.NoError(t, err)
	require.Len(t, doc.Items, 1)
	for id, item := range doc.Items {
		assert.Equal(t, "id-1", id)
		assert.Nil(t, item.TierID)
		assert.Equal(t, models.DefaultItemName, item.Name)
	}
}

func TestNormalizeRepairsLoadedDocument(t *testing.T) {
	doc := models.Document{
		Tiers: []models.Tier{
			{ID: "s", Label: "S", Items: []string{"a", "ghost", "a"}},
			{ID: "b", Label: "B", Items: []string{"a", "c"}},
		},
		Items: map[string]models.Item{
			"a": {ID: "a", TierID: strPtr("b")},
			"c": {ID: "c"},
			"d": {ID: "d", TierID: strPtr("s")},
		},
	}
	require.Error(t, Check(doc))

	fixed := Normalize(doc)
	require.NoError(t, Check(fixed))
	assert.Equal(t, models.StepBuildTiers, fixed.Step)
	assert.Equal(t, []string{"a"}, fixed.Tiers[0].Items)
	assert.Equal(t, []string{"c"}, fixed.Tiers[1].Items)
	assert.Equal(t, "s", *fixed.Items["a"].TierID)
	assert.Equal(t, "b", *fixed.Items["c"].TierID)
	assert.Nil(t, fixed.Items["d"].TierID)
}

func TestMembersAndUnassignedOrder(t *testing.T) {
	e := New(WithIDFunc(sequentialIDs()))
	doc, sID := fixture(t, e)
	for _, name := range []string{"b", "a"} {
		var err error
		doc, err = e.Apply(doc, AddItem{Item: models.Item{ID: name + ".png", Name: name}})
		require.NoError(t, err)
	}
	doc, err := e.Apply(doc, Assign{ItemID: "b.png", TierID: strPtr(sID)})
	require.NoError(t, err)
	doc, err = e.Apply(doc, Assign{ItemID: "x.png", TierID: strPtr(sID)})
	require.NoError(t, err)

	members := Members(doc, sID)
	require.Len(t, members, 2)
	assert.Equal(t, "b.png", members[0].ID)
	assert.Equal(t, "x.png", members[1].ID)
	assert.Nil(t, Members(doc, "missing"))

	unassigned := Unassigned(doc)
	require.Len(t, unassigned, 1)
	assert.Equal(t, "a.png", unassigned[0].ID)
}

func TestCheckReportsInvariantError(t *testing.T) {
	doc := models.Document{
		Tiers: []models.Tier{{ID: "s", Items: []string{}}},
		Items: map[string]models.Item{"a": {ID: "a", TierID: strPtr("s")}},
	}
	err := Check(doc)
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "a", invErr.ItemID)
}
