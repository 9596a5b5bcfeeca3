package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/targetview/internal/types"
)

func setupTestDB(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), ".targetview", "test.db")

	store, err := New(dbPath)
	require.NoError(t, err)

	return store, func() { _ = store.Close() }
}

// seed creates the applications/platforms lenses and returns them
func seed(t *testing.T, ctx context.Context, store *SQLiteStorage) {
	t.Helper()
	require.NoError(t, store.CreateLens(ctx, &types.Lens{Key: "applications", Label: "Applications", Order: 1}))
	require.NoError(t, store.CreateLens(ctx, &types.Lens{Key: "platforms", Label: "Platforms", Order: 2}))
}

func newItem(t *testing.T, ctx context.Context, store *SQLiteStorage, lens types.LensKey, name string, status types.LifecycleStatus) *types.Item {
	t.Helper()
	it := &types.Item{Lens: lens, Name: name, LifecycleStatus: status}
	require.NoError(t, store.CreateItem(ctx, it))
	return it
}

func TestLenses(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	seed(t, ctx, store)

	lenses, err := store.ListLenses(ctx)
	require.NoError(t, err)
	require.Len(t, lenses, 2)
	assert.Equal(t, types.LensKey("applications"), lenses[0].Key)
	assert.Equal(t, "Platforms", lenses[1].Label)

	err = store.CreateLens(ctx, &types.Lens{Key: "applications", Label: "Again"})
	assert.ErrorIs(t, err, types.ErrDuplicate)

	err = store.CreateLens(ctx, &types.Lens{Key: "bad key", Label: "x"})
	assert.Error(t, err)

	assert.ErrorIs(t, store.DeleteLens(ctx, "nope"), types.ErrNotFound)
}

func TestCreateAndGetItem(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	seed(t, ctx, store)

	it := &types.Item{
		Lens:            "applications",
		Name:            "Ledger",
		LifecycleStatus: types.StatusInvest,
		Parent:          "Core Banking",
		Description:     "General ledger",
	}
	require.NoError(t, store.CreateItem(ctx, it))
	assert.NotEmpty(t, it.ID, "ID is generated")

	got, err := store.GetItem(ctx, it.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ledger", got.Name)
	assert.Equal(t, types.StatusInvest, got.LifecycleStatus)
	assert.Equal(t, "Core Banking", got.Parent)
	assert.False(t, got.CreatedAt.IsZero())

	found, err := store.FindItem(ctx, "applications", "Ledger")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, it.ID, found.ID)

	missing, err := store.GetItem(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateItemConstraints(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	seed(t, ctx, store)

	newItem(t, ctx, store, "applications", "Ledger", types.StatusStable)

	tests := []struct {
		name    string
		item    types.Item
		wantErr error
	}{
		{"duplicate name in lens", types.Item{Lens: "applications", Name: "Ledger"}, types.ErrDuplicate},
		{"unknown lens", types.Item{Lens: "teams", Name: "Ops"}, types.ErrNotFound},
		{"empty name", types.Item{Lens: "applications", Name: " "}, nil},
		{"bad status", types.Item{Lens: "applications", Name: "X", LifecycleStatus: "Retired"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := tt.item
			err := store.CreateItem(ctx, &it)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	// Same name in another lens is allowed
	newItem(t, ctx, store, "platforms", "Ledger", types.StatusNone)
}

func TestUpdateItem(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	seed(t, ctx, store)

	it := newItem(t, ctx, store, "applications", "Ledger", types.StatusStable)
	newItem(t, ctx, store, "applications", "Accounts", types.StatusStable)

	require.NoError(t, store.UpdateItem(ctx, it.ID, map[string]interface{}{
		"lifecycle_status": types.StatusDivest,
		"parent":           "Finance",
	}))

	got, err := store.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDivest, got.LifecycleStatus)
	assert.Equal(t, "Finance", got.Parent)

	tests := []struct {
		name    string
		id      string
		updates map[string]interface{}
		wantErr error
	}{
		{"unknown field", it.ID, map[string]interface{}{"lens": "platforms"}, nil},
		{"invalid status", it.ID, map[string]interface{}{"lifecycle_status": "Retired"}, nil},
		{"non-string value", it.ID, map[string]interface{}{"parent": 3}, nil},
		{"name collision", it.ID, map[string]interface{}{"name": "Accounts"}, types.ErrDuplicate},
		{"missing item", "nope", map[string]interface{}{"parent": "x"}, types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.UpdateItem(ctx, tt.id, tt.updates)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestListItemsFilter(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	seed(t, ctx, store)

	newItem(t, ctx, store, "applications", "beta", types.StatusStable)
	newItem(t, ctx, store, "applications", "Alpha", types.StatusPlan)
	newItem(t, ctx, store, "platforms", "Mainframe", types.StatusDivest)

	all, err := store.ListItems(ctx, types.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alpha", all[0].Name, "names sort case-insensitively within a lens")
	assert.Equal(t, "beta", all[1].Name)

	lens := types.LensKey("platforms")
	byLens, err := store.ListItems(ctx, types.ItemFilter{Lens: &lens})
	require.NoError(t, err)
	require.Len(t, byLens, 1)
	assert.Equal(t, "Mainframe", byLens[0].Name)

	status := types.StatusPlan
	byStatus, err := store.ListItems(ctx, types.ItemFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "Alpha", byStatus[0].Name)

	limited, err := store.ListItems(ctx, types.ItemFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRelationships(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	seed(t, ctx, store)

	app := newItem(t, ctx, store, "applications", "Ledger", types.StatusStable)
	p1 := newItem(t, ctx, store, "platforms", "Mainframe", types.StatusDivest)
	p2 := newItem(t, ctx, store, "platforms", "Cloud", types.StatusInvest)

	rel := &types.Relationship{FromItemID: app.ID, ToItemID: p1.ID, LifecycleStatus: types.RelPlannedToRemove}
	require.NoError(t, store.CreateRelationship(ctx, rel))
	assert.NotEmpty(t, rel.ID)
	assert.Equal(t, types.LensKey("applications"), rel.FromLens, "lens filled from item")
	assert.Equal(t, types.LensKey("platforms"), rel.ToLens)

	bare := &types.Relationship{FromItemID: p2.ID, ToItemID: app.ID}
	require.NoError(t, store.CreateRelationship(ctx, bare))

	rels, err := store.ListRelationships(ctx)
	require.NoError(t, err)
	require.Len(t, rels, 2)
	byID := map[string]types.Relationship{}
	for _, r := range rels {
		byID[r.ID] = r
	}
	assert.Equal(t, types.RelPlannedToRemove, byID[rel.ID].LifecycleStatus)
	assert.Equal(t, types.RelNone, byID[bare.ID].LifecycleStatus, "absent status stays absent")

	require.NoError(t, store.UpdateRelationshipStatus(ctx, bare.ID, types.RelPlannedToAdd))
	assert.Error(t, store.UpdateRelationshipStatus(ctx, bare.ID, "Plan"))
	assert.ErrorIs(t, store.UpdateRelationshipStatus(ctx, "nope", types.RelExisting), types.ErrNotFound)

	// Duplicate edge
	err = store.CreateRelationship(ctx, &types.Relationship{FromItemID: app.ID, ToItemID: p1.ID})
	assert.ErrorIs(t, err, types.ErrDuplicate)

	// The reverse edge is the same undirected link
	err = store.CreateRelationship(ctx, &types.Relationship{FromItemID: p1.ID, ToItemID: app.ID})
	assert.ErrorIs(t, err, types.ErrDuplicate)
	err = store.CreateRelationship(ctx, &types.Relationship{FromItemID: app.ID, ToItemID: p2.ID})
	assert.ErrorIs(t, err, types.ErrDuplicate)

	// Missing endpoint
	err = store.CreateRelationship(ctx, &types.Relationship{FromItemID: app.ID, ToItemID: "ghost"})
	assert.ErrorIs(t, err, types.ErrNotFound)

	// Mismatched lens
	err = store.CreateRelationship(ctx, &types.Relationship{FromItemID: app.ID, FromLens: "platforms", ToItemID: p2.ID})
	assert.Error(t, err)

	// Deleting an item cascades to its relationships
	require.NoError(t, store.DeleteItem(ctx, p1.ID))
	rels, err = store.ListRelationships(ctx)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, bare.ID, rels[0].ID)

	require.NoError(t, store.DeleteRelationship(ctx, bare.ID))
	assert.ErrorIs(t, store.DeleteRelationship(ctx, bare.ID), types.ErrNotFound)
}

func TestDeleteLensCascades(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	seed(t, ctx, store)

	app := newItem(t, ctx, store, "applications", "Ledger", types.StatusStable)
	p := newItem(t, ctx, store, "platforms", "Mainframe", types.StatusStable)
	require.NoError(t, store.CreateRelationship(ctx, &types.Relationship{FromItemID: app.ID, ToItemID: p.ID}))

	require.NoError(t, store.DeleteLens(ctx, "platforms"))

	items, err := store.ListItems(ctx, types.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, app.ID, items[0].ID)

	rels, err := store.ListRelationships(ctx)
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestConfig(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	value, err := store.GetConfig(ctx, "view.primary_lens")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, store.SetConfig(ctx, "view.primary_lens", "applications"))
	require.NoError(t, store.SetConfig(ctx, "view.primary_lens", "teams"))

	value, err = store.GetConfig(ctx, "view.primary_lens")
	require.NoError(t, err)
	assert.Equal(t, "teams", value)
}

func TestReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	store, err := New(dbPath)
	require.NoError(t, err)
	seed(t, ctx, store)
	newItem(t, ctx, store, "applications", "Ledger", types.StatusStable)
	require.NoError(t, store.Close())

	// Migrations are already recorded; reopening must not fail or rewrite data
	store, err = New(dbPath)
	require.NoError(t, err)
	defer store.Close()

	items, err := store.ListItems(ctx, types.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Ledger", items[0].Name)
}

func TestInMemory(t *testing.T) {
	store, err := New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	seed(t, ctx, store)
	lenses, err := store.ListLenses(ctx)
	require.NoError(t, err)
	assert.Len(t, lenses, 2)
}
