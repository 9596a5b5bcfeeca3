package view

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/archlens/targetview/internal/layout"
	"github.com/archlens/targetview/internal/types"
)

const (
	apps      types.LensKey = "applications"
	platforms types.LensKey = "platforms"
	domains   types.LensKey = "domains"
)

func testSnapshot() types.Snapshot {
	return types.Snapshot{
		Lenses: []types.Lens{
			{Key: apps, Label: "Applications", Order: 1},
			{Key: platforms, Label: "Platforms", Order: 2},
			{Key: domains, Label: "Business Domains", Order: 3},
		},
		Items: []types.Item{
			{ID: "a1", Lens: apps, Name: "CheckoutApp"},
			{ID: "p1", Lens: platforms, Name: "PaymentsPlatform", LifecycleStatus: types.StatusStable, Parent: "Core Banking"},
			{ID: "p2", Lens: platforms, Name: "NewGateway"},
			{ID: "p3", Lens: platforms, Name: "LegacyLedger", LifecycleStatus: types.StatusDivest, Parent: "Core Banking"},
			{ID: "d1", Lens: domains, Name: "Payments"},
		},
		Relationships: []types.Relationship{
			{ID: "r1", FromLens: apps, FromItemID: "a1", ToLens: platforms, ToItemID: "p1", LifecycleStatus: types.RelExisting},
			{ID: "r2", FromLens: apps, FromItemID: "a1", ToLens: platforms, ToItemID: "p2", LifecycleStatus: types.RelPlannedToAdd},
			{ID: "r3", FromLens: apps, FromItemID: "a1", ToLens: platforms, ToItemID: "p3", LifecycleStatus: types.RelPlannedToRemove},
			{ID: "r4", FromLens: platforms, FromItemID: "p1", ToLens: domains, ToItemID: "d1"},
			{ID: "r5", FromLens: apps, FromItemID: "a1", ToLens: platforms, ToItemID: "ghost"},
		},
	}
}

func testQuery() Query {
	return Query{
		PrimaryLens:   apps,
		SecondaryLens: platforms,
		Display:       layout.DefaultDisplayOptions(),
		Metrics:       layout.DefaultMetrics(),
	}
}

func names(items []types.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestViewOperations(t *testing.T) {
	v := New(testSnapshot())
	assert.Equal(t, 1, v.DroppedRelationships())

	results := v.Classify(apps, platforms, "")
	require.Len(t, results, 1)
	assert.Equal(t, []string{"LegacyLedger", "PaymentsPlatform"}, names(results[0].CurrentItems))
	assert.Equal(t, []string{"NewGateway", "PaymentsPlatform"}, names(results[0].TargetItems))

	agg := v.Aggregate(results, types.RollupSpec{Mode: types.RollupRelation, Lens: domains, FilterMode: types.FilterOnlyRelated})
	require.Len(t, agg, 1)
	require.Len(t, agg[0].RollupGroups, 1)
	assert.Equal(t, "Payments", agg[0].RollupGroups[0].Label)
	assert.Equal(t, 2, agg[0].HiddenCount)
	assert.Nil(t, results[0].RollupGroups, "aggregation returns copies")

	geo := v.Project(agg, layout.DisplayOptions{MinorText: layout.MinorNone, ColumnView: layout.ViewBoth, RollupMode: types.RollupRelation}, layout.DefaultMetrics())
	assert.Equal(t, 2, geo.BoxCount())
}

func TestRecomputePublishes(t *testing.T) {
	e := NewEngine(&EngineConfig{HistorySize: 10})
	q := testQuery()
	q.Rollup = types.RollupSpec{Mode: types.RollupAttribute, FilterMode: types.FilterShowSecondary}

	res, err := e.Recompute(context.Background(), testSnapshot(), q)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, uint64(1), res.Generation)
	assert.Same(t, res, e.Latest())

	require.Len(t, res.Classification, 1)
	labels := []string{}
	for _, g := range res.Classification[0].RollupGroups {
		labels = append(labels, g.Label)
	}
	assert.Equal(t, []string{"Core Banking", types.NoParentLabel}, labels)

	require.NotEmpty(t, res.Geometry.Columns)
	assert.Equal(t, "Applications", res.Geometry.Columns[0].Label)
	assert.Equal(t, types.RollupAttribute, res.Geometry.Options.RollupMode)

	hist := e.History()
	require.Len(t, hist, 1)
	assert.Equal(t, OutcomePublished, hist[0].Outcome)
	assert.Equal(t, res.RequestID, hist[0].RequestID)
}

func TestRecomputeRelationTitle(t *testing.T) {
	e := NewEngine(nil)
	q := testQuery()
	q.Rollup = types.RollupSpec{Mode: types.RollupRelation, Lens: domains, FilterMode: types.FilterOnlyRelated}

	res, err := e.Recompute(context.Background(), testSnapshot(), q)
	require.NoError(t, err)
	require.Len(t, res.Geometry.Columns, 4)
	assert.Equal(t, "Business Domains", res.Geometry.Columns[1].Label)
}

func TestRecomputeSuperseded(t *testing.T) {
	e := NewEngine(nil)
	snap := testSnapshot()

	var inner *Result
	var innerErr error
	e.beforePublish = func(gen uint64) {
		if gen != 1 {
			return
		}
		// A newer request starts and finishes while the first is publishing
		inner, innerErr = e.Recompute(context.Background(), snap, testQuery())
	}

	outer, err := e.Recompute(context.Background(), snap, testQuery())
	assert.ErrorIs(t, err, ErrSuperseded)
	require.NotNil(t, outer)
	assert.Equal(t, uint64(1), outer.Generation)

	require.NoError(t, innerErr)
	assert.Equal(t, uint64(2), inner.Generation)
	assert.Same(t, inner, e.Latest(), "superseded results are never published")

	hist := e.History()
	require.Len(t, hist, 2)
	assert.Equal(t, OutcomePublished, hist[0].Outcome)
	assert.Equal(t, uint64(2), hist[0].Generation)
	assert.Equal(t, OutcomeSuperseded, hist[1].Outcome)
}

func TestRecomputeCanceled(t *testing.T) {
	e := NewEngine(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Recompute(ctx, testSnapshot(), testQuery())
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, e.Latest())
	require.Len(t, e.History(), 1)
	assert.Equal(t, OutcomeCanceled, e.History()[0].Outcome)
}

func TestRecomputeInvalidQuery(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Query)
	}{
		{"missing primary", func(q *Query) { q.PrimaryLens = "" }},
		{"relation without lens", func(q *Query) {
			q.Rollup = types.RollupSpec{Mode: types.RollupRelation, FilterMode: types.FilterOnlyRelated}
		}},
		{"bad column view", func(q *Query) { q.Display.ColumnView = "diagonal" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(nil)
			q := testQuery()
			tt.mutate(&q)
			_, err := e.Recompute(context.Background(), testSnapshot(), q)
			assert.Error(t, err)
			assert.Zero(t, e.Generation(), "invalid queries never take a generation")
		})
	}
}

func TestRecomputeUnknownLensIsEmpty(t *testing.T) {
	e := NewEngine(nil)
	q := testQuery()
	q.PrimaryLens = "unknown"

	res, err := e.Recompute(context.Background(), testSnapshot(), q)
	require.NoError(t, err)
	assert.Empty(t, res.Classification)
	assert.Zero(t, res.Geometry.BoxCount())
}

func TestRecomputeConcurrentLastWins(t *testing.T) {
	e := NewEngine(&EngineConfig{HistorySize: 5})
	snap := testSnapshot()

	var g errgroup.Group
	const n = 20
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := e.Recompute(context.Background(), snap, testQuery())
			if err != nil && !errors.Is(err, ErrSuperseded) {
				return fmt.Errorf("unexpected error: %w", err)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, uint64(n), e.Generation())
	require.NotNil(t, e.Latest())
	assert.Equal(t, uint64(n), e.Latest().Generation)
	assert.Len(t, e.History(), 5)
}

func TestRecomputeIsDeterministic(t *testing.T) {
	e := NewEngine(nil)
	a, err := e.Recompute(context.Background(), testSnapshot(), testQuery())
	require.NoError(t, err)
	b, err := e.Recompute(context.Background(), testSnapshot(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, a.Classification, b.Classification)
	assert.Equal(t, a.Geometry, b.Geometry)
	assert.NotEqual(t, a.RequestID, b.RequestID)
}
