package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/targetview/internal/types"
)

// setupTestDB connects to TV_TEST_PG_URL and empties the domain tables.
// Tests skip when no database is available.
func setupTestDB(t *testing.T) *PostgresStorage {
	t.Helper()
	url := os.Getenv("TV_TEST_PG_URL")
	if url == "" {
		t.Skip("TV_TEST_PG_URL not set - requires running PostgreSQL")
	}

	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.URL = url
	store, err := New(ctx, cfg)
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.pool.Exec(ctx, `TRUNCATE relationships, items, lenses, config`)
	require.NoError(t, err)
	return store
}

func TestPostgresItemsAndRelationships(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.CreateLens(ctx, &types.Lens{Key: "applications", Label: "Applications", Order: 1}))
	require.NoError(t, store.CreateLens(ctx, &types.Lens{Key: "platforms", Label: "Platforms", Order: 2}))
	assert.ErrorIs(t, store.CreateLens(ctx, &types.Lens{Key: "platforms", Label: "P"}), types.ErrDuplicate)

	app := &types.Item{Lens: "applications", Name: "Ledger", LifecycleStatus: types.StatusStable}
	require.NoError(t, store.CreateItem(ctx, app))
	plat := &types.Item{Lens: "platforms", Name: "Mainframe", LifecycleStatus: types.StatusDivest}
	require.NoError(t, store.CreateItem(ctx, plat))

	err := store.CreateItem(ctx, &types.Item{Lens: "applications", Name: "Ledger"})
	assert.ErrorIs(t, err, types.ErrDuplicate)
	err = store.CreateItem(ctx, &types.Item{Lens: "teams", Name: "Ops"})
	assert.ErrorIs(t, err, types.ErrNotFound)

	got, err := store.FindItem(ctx, "applications", "Ledger")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, app.ID, got.ID)
	assert.Equal(t, types.StatusStable, got.LifecycleStatus)

	require.NoError(t, store.UpdateItem(ctx, app.ID, map[string]interface{}{"parent": "Core Banking"}))
	got, err = store.GetItem(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "Core Banking", got.Parent)

	rel := &types.Relationship{FromItemID: app.ID, ToItemID: plat.ID}
	require.NoError(t, store.CreateRelationship(ctx, rel))
	err = store.CreateRelationship(ctx, &types.Relationship{FromItemID: plat.ID, ToItemID: app.ID})
	assert.ErrorIs(t, err, types.ErrDuplicate, "reverse edge")
	require.NoError(t, store.UpdateRelationshipStatus(ctx, rel.ID, types.RelPlannedToRemove))

	rels, err := store.ListRelationships(ctx)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, types.RelPlannedToRemove, rels[0].LifecycleStatus)
	assert.Equal(t, types.LensKey("platforms"), rels[0].ToLens)

	require.NoError(t, store.DeleteLens(ctx, "platforms"))
	rels, err = store.ListRelationships(ctx)
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestPostgresConfig(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	value, err := store.GetConfig(ctx, "view.primary_lens")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, store.SetConfig(ctx, "view.primary_lens", "applications"))
	value, err = store.GetConfig(ctx, "view.primary_lens")
	require.NoError(t, err)
	assert.Equal(t, "applications", value)
}
