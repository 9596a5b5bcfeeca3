package classify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/targetview/internal/deduplication"
	"github.com/archlens/targetview/internal/relindex"
	"github.com/archlens/targetview/internal/types"
)

const (
	apps      types.LensKey = "applications"
	platforms types.LensKey = "platforms"
)

func names(items []types.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func rel(id, from, to string, status types.RelationshipStatus) types.Relationship {
	return types.Relationship{ID: id, FromLens: apps, FromItemID: from, ToLens: platforms, ToItemID: to, LifecycleStatus: status}
}

func run(items []types.Item, rels []types.Relationship, filter string) []types.ClassificationResult {
	return Classify(Input{
		Items:         items,
		Index:         relindex.Build(items, rels),
		PrimaryLens:   apps,
		SecondaryLens: platforms,
		FilterItemID:  filter,
	})
}

func TestRuleTable(t *testing.T) {
	tests := []struct {
		item        types.LifecycleStatus
		rel         types.RelationshipStatus
		wantCurrent bool
		wantTarget  bool
	}{
		{types.StatusInvest, types.RelExisting, true, true},
		{types.StatusInvest, types.RelPlannedToAdd, true, true},
		{types.StatusInvest, types.RelPlannedToRemove, true, false},
		{types.StatusDivest, types.RelNone, true, true},
		{types.StatusDivest, types.RelPlannedToRemove, true, false},
		{types.StatusStable, types.RelNone, true, true},
		{types.StatusNone, types.RelPlannedToAdd, false, true},
		{types.StatusNone, types.RelPlannedToRemove, true, false},
		{types.StatusNone, types.RelExisting, true, true},
		{types.StatusNone, types.RelNone, true, true},
		{types.StatusPlan, types.RelExisting, false, true},
		{types.StatusPlan, types.RelPlannedToRemove, false, false},
		{types.StatusEmerging, types.RelPlannedToAdd, false, true},
		{"Retired", types.RelPlannedToAdd, false, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.item.Label(), tt.rel.Effective()), func(t *testing.T) {
			current, target := Rule(tt.item, tt.rel)
			assert.Equal(t, tt.wantCurrent, current, "current")
			assert.Equal(t, tt.wantTarget, target, "target")
		})
	}
}

func TestScenarioStableExisting(t *testing.T) {
	items := []types.Item{
		{ID: "a1", Lens: apps, Name: "CheckoutApp"},
		{ID: "p1", Lens: platforms, Name: "PaymentsPlatform", LifecycleStatus: types.StatusStable},
	}
	got := run(items, []types.Relationship{rel("r1", "a1", "p1", types.RelExisting)}, "")

	require.Len(t, got, 1)
	assert.Equal(t, "CheckoutApp", got[0].PrimaryItem.Name)
	assert.Equal(t, []string{"PaymentsPlatform"}, names(got[0].CurrentItems))
	assert.Equal(t, []string{"PaymentsPlatform"}, names(got[0].TargetItems))
}

func TestScenarioPlannedToAdd(t *testing.T) {
	items := []types.Item{
		{ID: "a1", Lens: apps, Name: "CheckoutApp"},
		{ID: "p2", Lens: platforms, Name: "NewGateway"},
	}
	got := run(items, []types.Relationship{rel("r1", "a1", "p2", types.RelPlannedToAdd)}, "")

	require.Len(t, got, 1)
	assert.Empty(t, got[0].CurrentItems)
	assert.Equal(t, []string{"NewGateway"}, names(got[0].TargetItems))
}

func TestScenarioDivestPlannedToRemove(t *testing.T) {
	items := []types.Item{
		{ID: "a1", Lens: apps, Name: "CheckoutApp"},
		{ID: "p3", Lens: platforms, Name: "LegacyLedger", LifecycleStatus: types.StatusDivest},
	}
	got := run(items, []types.Relationship{rel("r1", "a1", "p3", types.RelPlannedToRemove)}, "")

	require.Len(t, got, 1)
	assert.Equal(t, []string{"LegacyLedger"}, names(got[0].CurrentItems))
	assert.Empty(t, got[0].TargetItems)
}

func TestBothSidesPersistence(t *testing.T) {
	items := []types.Item{{ID: "a1", Lens: apps, Name: "CheckoutApp"}}
	var rels []types.Relationship
	for i, st := range []types.LifecycleStatus{types.StatusInvest, types.StatusDivest, types.StatusStable} {
		for j, rs := range []types.RelationshipStatus{types.RelExisting, types.RelNone} {
			id := fmt.Sprintf("p%d%d", i, j)
			items = append(items, types.Item{ID: id, Lens: platforms, Name: "Platform " + id, LifecycleStatus: st})
			rels = append(rels, rel("r"+id, "a1", id, rs))
		}
	}

	got := run(items, rels, "")
	require.Len(t, got, 1)
	assert.Len(t, got[0].CurrentItems, 6)
	assert.Len(t, got[0].TargetItems, 6)
}

func TestPrimaryOrderingAndSecondaryOrdering(t *testing.T) {
	items := []types.Item{
		{ID: "a2", Lens: apps, Name: "beta"},
		{ID: "a1", Lens: apps, Name: "Alpha"},
		{ID: "a3", Lens: apps, Name: "Alpha"},
		{ID: "p2", Lens: platforms, Name: "Zeta"},
		{ID: "p1", Lens: platforms, Name: "eta"},
	}
	rels := []types.Relationship{
		rel("r1", "a1", "p2", types.RelNone),
		rel("r2", "a1", "p1", types.RelNone),
	}

	got := run(items, rels, "")
	require.Len(t, got, 3)
	assert.Equal(t, "a1", got[0].PrimaryItem.ID, "ties break on id")
	assert.Equal(t, "a3", got[1].PrimaryItem.ID)
	assert.Equal(t, "a2", got[2].PrimaryItem.ID)
	assert.Equal(t, []string{"eta", "Zeta"}, names(got[0].CurrentItems))
	assert.Empty(t, got[1].CurrentItems)
}

func TestDuplicateEdgesLastWins(t *testing.T) {
	items := []types.Item{
		{ID: "a1", Lens: apps, Name: "CheckoutApp"},
		{ID: "p1", Lens: platforms, Name: "Gateway"},
	}
	rels := []types.Relationship{
		rel("r1", "a1", "p1", types.RelExisting),
		rel("r2", "a1", "p1", types.RelPlannedToAdd),
	}

	got := run(items, rels, "")
	require.Len(t, got, 1)
	assert.Empty(t, got[0].CurrentItems, "the later Planned to add edge decides")
	assert.Equal(t, []string{"Gateway"}, names(got[0].TargetItems))
	assert.False(t, deduplication.HasDuplicates(got[0].TargetItems))
}

func TestReverseDirectionEdge(t *testing.T) {
	items := []types.Item{
		{ID: "a1", Lens: apps, Name: "CheckoutApp"},
		{ID: "p1", Lens: platforms, Name: "Gateway", LifecycleStatus: types.StatusInvest},
	}
	rels := []types.Relationship{{ID: "r1", FromLens: platforms, FromItemID: "p1", ToLens: apps, ToItemID: "a1"}}

	got := run(items, rels, "")
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Gateway"}, names(got[0].CurrentItems))
}

func TestFilterItem(t *testing.T) {
	items := []types.Item{
		{ID: "a1", Lens: apps, Name: "CheckoutApp"},
		{ID: "a2", Lens: apps, Name: "Storefront"},
		{ID: "a3", Lens: apps, Name: "Backoffice"},
		{ID: "p1", Lens: platforms, Name: "Gateway"},
		{ID: "t1", Lens: "teams", Name: "Payments Team"},
	}
	rels := []types.Relationship{
		rel("r1", "a1", "p1", types.RelNone),
		rel("r2", "a2", "p1", types.RelNone),
		{ID: "r3", FromLens: "teams", FromItemID: "t1", ToLens: apps, ToItemID: "a3"},
	}

	t.Run("filter in another lens", func(t *testing.T) {
		got := run(items, rels, "t1")
		require.Len(t, got, 1)
		assert.Equal(t, "Backoffice", got[0].PrimaryItem.Name)
	})

	t.Run("filter is a secondary item", func(t *testing.T) {
		got := run(items, rels, "p1")
		require.Len(t, got, 2)
		assert.Equal(t, "CheckoutApp", got[0].PrimaryItem.Name)
		assert.Equal(t, "Storefront", got[1].PrimaryItem.Name)
	})

	t.Run("filter in primary lens includes itself", func(t *testing.T) {
		got := run(items, rels, "a2")
		require.Len(t, got, 1)
		assert.Equal(t, "Storefront", got[0].PrimaryItem.Name)
		assert.Equal(t, []string{"Gateway"}, names(got[0].CurrentItems))
	})

	t.Run("unresolved filter yields empty result", func(t *testing.T) {
		got := run(items, rels, "missing")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestUnknownLensAndEmptyInput(t *testing.T) {
	got := Classify(Input{PrimaryLens: "nope", SecondaryLens: platforms})
	assert.NotNil(t, got)
	assert.Empty(t, got)

	items := []types.Item{{ID: "a1", Lens: apps, Name: "CheckoutApp"}}
	got = Classify(Input{Items: items, Index: relindex.Build(items, nil), PrimaryLens: apps, SecondaryLens: "nope"})
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].CurrentItems)
	assert.Empty(t, got[0].CurrentItems)
}

func TestDanglingRelationshipIgnored(t *testing.T) {
	items := []types.Item{
		{ID: "a1", Lens: apps, Name: "CheckoutApp"},
		{ID: "p1", Lens: platforms, Name: "Gateway"},
	}
	rels := []types.Relationship{
		rel("r1", "a1", "p1", types.RelNone),
		rel("r2", "a1", "ghost", types.RelNone),
	}

	got := run(items, rels, "")
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Gateway"}, names(got[0].CurrentItems))
}

func TestClassifyIsIdempotent(t *testing.T) {
	items := []types.Item{
		{ID: "a1", Lens: apps, Name: "CheckoutApp"},
		{ID: "a2", Lens: apps, Name: "Storefront"},
		{ID: "p1", Lens: platforms, Name: "Gateway", LifecycleStatus: types.StatusEmerging},
		{ID: "p2", Lens: platforms, Name: "Ledger", LifecycleStatus: types.StatusDivest},
	}
	rels := []types.Relationship{
		rel("r1", "a1", "p1", types.RelPlannedToAdd),
		rel("r2", "a1", "p2", types.RelPlannedToRemove),
		rel("r3", "a2", "p2", types.RelNone),
	}

	assert.Equal(t, run(items, rels, ""), run(items, rels, ""))
}
