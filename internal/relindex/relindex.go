// Package relindex builds an adjacency index over the flat relationship list.
//
// Relationships are stored directed but are traversed as undirected edges:
// every relationship is recorded under both of its endpoints, so a lookup for
// either item returns the other side. The index is built in a single pass and
// is read-only afterwards, which makes it safe to share between goroutines.
package relindex

import (
	"github.com/archlens/targetview/internal/types"
)

// Neighbor is one edge as seen from a given item
type Neighbor struct {
	OtherItemID  string
	OtherLens    types.LensKey
	Relationship types.Relationship
}

// Index maps item id to the relationships touching that item
type Index struct {
	adjacency map[string][]Neighbor
	dropped   int
}

// Build indexes rels against the given items. A relationship with an endpoint
// that does not resolve to one of items is dropped. The lens recorded for the
// other side is the resolved item's lens.
func Build(items []types.Item, rels []types.Relationship) *Index {
	known := make(map[string]types.LensKey, len(items))
	for _, it := range items {
		known[it.ID] = it.Lens
	}

	idx := &Index{adjacency: make(map[string][]Neighbor, len(items))}
	for _, rel := range rels {
		fromLens, okFrom := known[rel.FromItemID]
		toLens, okTo := known[rel.ToItemID]
		if !okFrom || !okTo {
			idx.dropped++
			continue
		}
		idx.add(rel, fromLens, toLens)
	}
	return idx
}

// FromRelationships indexes rels without resolving endpoints. Unknown ids are
// passed through with the lenses stored on the relationship.
func FromRelationships(rels []types.Relationship) *Index {
	idx := &Index{adjacency: make(map[string][]Neighbor)}
	for _, rel := range rels {
		if rel.FromItemID == "" || rel.ToItemID == "" {
			idx.dropped++
			continue
		}
		idx.add(rel, rel.FromLens, rel.ToLens)
	}
	return idx
}

func (idx *Index) add(rel types.Relationship, fromLens, toLens types.LensKey) {
	idx.adjacency[rel.FromItemID] = append(idx.adjacency[rel.FromItemID], Neighbor{
		OtherItemID:  rel.ToItemID,
		OtherLens:    toLens,
		Relationship: rel,
	})
	// A self loop is recorded once
	if rel.FromItemID == rel.ToItemID {
		return
	}
	idx.adjacency[rel.ToItemID] = append(idx.adjacency[rel.ToItemID], Neighbor{
		OtherItemID:  rel.FromItemID,
		OtherLens:    fromLens,
		Relationship: rel,
	})
}

// Neighbors returns the edges touching itemID in relationship order. When
// lenses are given only neighbours in one of those lenses are returned. The
// returned slice is freshly allocated.
func (idx *Index) Neighbors(itemID string, lenses ...types.LensKey) []Neighbor {
	if idx == nil {
		return nil
	}
	all := idx.adjacency[itemID]
	out := make([]Neighbor, 0, len(all))
	for _, n := range all {
		if len(lenses) > 0 && !containsLens(lenses, n.OtherLens) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Degree returns the number of edges touching itemID
func (idx *Index) Degree(itemID string) int {
	if idx == nil {
		return 0
	}
	return len(idx.adjacency[itemID])
}

// Dropped returns how many relationships were skipped during construction
func (idx *Index) Dropped() int {
	if idx == nil {
		return 0
	}
	return idx.dropped
}

func containsLens(lenses []types.LensKey, lens types.LensKey) bool {
	for _, l := range lenses {
		if l == lens {
			return true
		}
	}
	return false
}
