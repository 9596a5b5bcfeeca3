// Package view is the entry point for computing a Target View.
//
// A View wraps one immutable snapshot of the domain store together with its
// relationship index and exposes the three pure operations: Classify,
// Aggregate and Project. Engine sequences repeated recomputations for callers
// that change their selection faster than results can be rendered.
package view

import (
	"github.com/archlens/targetview/internal/classify"
	"github.com/archlens/targetview/internal/layout"
	"github.com/archlens/targetview/internal/relindex"
	"github.com/archlens/targetview/internal/rollup"
	"github.com/archlens/targetview/internal/types"
)

// View answers queries over a single snapshot. It is read-only after New
// and safe for concurrent use.
type View struct {
	snapshot types.Snapshot
	index    *relindex.Index
}

// New indexes the snapshot's relationships once for all later queries
func New(snapshot types.Snapshot) *View {
	return &View{
		snapshot: snapshot,
		index:    relindex.Build(snapshot.Items, snapshot.Relationships),
	}
}

// Snapshot returns the snapshot the view was built from
func (v *View) Snapshot() types.Snapshot {
	return v.snapshot
}

// DroppedRelationships is the number of relationships whose endpoints did not
// resolve to an item in the snapshot
func (v *View) DroppedRelationships() int {
	return v.index.Dropped()
}

// Classify splits the secondary items related to each primary item into
// Current and Target sets. filterItemID may be empty.
func (v *View) Classify(primary, secondary types.LensKey, filterItemID string) []types.ClassificationResult {
	return classify.Classify(classify.Input{
		Items:         v.snapshot.Items,
		Index:         v.index,
		PrimaryLens:   primary,
		SecondaryLens: secondary,
		FilterItemID:  filterItemID,
	})
}

// Aggregate adds rollup groups to classification results
func (v *View) Aggregate(results []types.ClassificationResult, spec types.RollupSpec) []types.ClassificationResult {
	return rollup.Aggregate(results, rollup.Input{
		Spec:  spec,
		Items: v.snapshot.Items,
		Index: v.index,
	})
}

// Project lays out aggregated results
func (v *View) Project(results []types.ClassificationResult, opts layout.DisplayOptions, m layout.Metrics) *layout.Geometry {
	return layout.ProjectResults(results, opts, m)
}

// titled fills the display titles from lens labels
func (v *View) titled(q Query) layout.DisplayOptions {
	opts := q.Display
	if opts.PrimaryTitle == "" {
		if l, ok := v.snapshot.Lens(q.PrimaryLens); ok {
			opts.PrimaryTitle = l.DisplayLabel()
		}
	}
	if opts.RollupTitle == "" && q.Rollup.Mode == types.RollupRelation {
		if l, ok := v.snapshot.Lens(q.Rollup.Lens); ok {
			opts.RollupTitle = l.DisplayLabel()
		}
	}
	opts.RollupMode = q.Rollup.Mode
	return opts
}
