package relindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/targetview/internal/types"
)

func fixture() ([]types.Item, []types.Relationship) {
	items := []types.Item{
		{ID: "app1", Lens: "applications", Name: "CheckoutApp"},
		{ID: "plat1", Lens: "platforms", Name: "PaymentsPlatform"},
		{ID: "plat2", Lens: "platforms", Name: "LegacyLedger"},
		{ID: "cap1", Lens: "capabilities", Name: "Payments"},
	}
	rels := []types.Relationship{
		{ID: "r1", FromLens: "applications", FromItemID: "app1", ToLens: "platforms", ToItemID: "plat1"},
		{ID: "r2", FromLens: "platforms", FromItemID: "plat2", ToLens: "applications", ToItemID: "app1"},
		{ID: "r3", FromLens: "platforms", FromItemID: "plat1", ToLens: "capabilities", ToItemID: "cap1"},
	}
	return items, rels
}

func TestBuildCoversBothDirections(t *testing.T) {
	items, rels := fixture()
	idx := Build(items, rels)

	got := idx.Neighbors("app1")
	require.Len(t, got, 2)
	assert.Equal(t, "plat1", got[0].OtherItemID)
	assert.Equal(t, "plat2", got[1].OtherItemID, "stored direction must not matter")
	assert.Equal(t, types.LensKey("platforms"), got[1].OtherLens)

	back := idx.Neighbors("plat2")
	require.Len(t, back, 1)
	assert.Equal(t, "app1", back[0].OtherItemID)
	assert.Equal(t, "r2", back[0].Relationship.ID)
}

func TestNeighborsLensFilter(t *testing.T) {
	items, rels := fixture()
	idx := Build(items, rels)

	got := idx.Neighbors("plat1", "capabilities")
	require.Len(t, got, 1)
	assert.Equal(t, "cap1", got[0].OtherItemID)

	assert.Len(t, idx.Neighbors("plat1", "applications", "capabilities"), 2)
	assert.Empty(t, idx.Neighbors("plat1", "teams"))
	assert.Empty(t, idx.Neighbors("unknown"))
}

func TestBuildDropsDanglingReferences(t *testing.T) {
	items, rels := fixture()
	rels = append(rels,
		types.Relationship{ID: "r4", FromLens: "applications", FromItemID: "app1", ToLens: "platforms", ToItemID: "ghost"},
		types.Relationship{ID: "r5", FromLens: "platforms", FromItemID: "ghost2", ToLens: "applications", ToItemID: "app1"},
	)

	idx := Build(items, rels)
	assert.Equal(t, 2, idx.Dropped())
	assert.Len(t, idx.Neighbors("app1"), 2, "dangling edges must not appear")
	assert.Empty(t, idx.Neighbors("ghost"))
}

func TestFromRelationshipsPassesThroughUnknownIDs(t *testing.T) {
	_, rels := fixture()
	rels = append(rels, types.Relationship{ID: "r4", FromLens: "applications", FromItemID: "app1", ToLens: "platforms", ToItemID: "ghost"})

	idx := FromRelationships(rels)
	assert.Equal(t, 0, idx.Dropped())
	got := idx.Neighbors("ghost")
	require.Len(t, got, 1)
	assert.Equal(t, types.LensKey("applications"), got[0].OtherLens)
}

func TestResolvedLensWins(t *testing.T) {
	items := []types.Item{
		{ID: "a", Lens: "applications", Name: "A"},
		{ID: "b", Lens: "platforms", Name: "B"},
	}
	// Stored lens is stale; the item's lens is authoritative
	rels := []types.Relationship{{ID: "r", FromLens: "applications", FromItemID: "a", ToLens: "teams", ToItemID: "b"}}

	idx := Build(items, rels)
	got := idx.Neighbors("a", "platforms")
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].OtherItemID)
}

func TestSelfLoopRecordedOnce(t *testing.T) {
	items := []types.Item{{ID: "a", Lens: "applications", Name: "A"}}
	rels := []types.Relationship{{ID: "r", FromLens: "applications", FromItemID: "a", ToLens: "applications", ToItemID: "a"}}

	idx := Build(items, rels)
	assert.Equal(t, 1, idx.Degree("a"))
}

func TestNilIndex(t *testing.T) {
	var idx *Index
	assert.Nil(t, idx.Neighbors("a"))
	assert.Equal(t, 0, idx.Degree("a"))
	assert.Equal(t, 0, idx.Dropped())
}
