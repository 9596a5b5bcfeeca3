// Package classify splits the secondary items related to each primary item
// into a Current state set and a Target state set.
//
// The split is driven by two independent lifecycle annotations: the secondary
// item's own status and the status of the relationship connecting it to the
// primary item. An item may land in both sets; most items persist across a
// state transition.
package classify

import (
	"github.com/archlens/targetview/internal/deduplication"
	"github.com/archlens/targetview/internal/relindex"
	"github.com/archlens/targetview/internal/types"
)

// Input describes one classification query
type Input struct {
	Items         []types.Item
	Index         *relindex.Index
	PrimaryLens   types.LensKey
	SecondaryLens types.LensKey
	// FilterItemID restricts the primary items to those related to this item
	FilterItemID string
}

// Classify computes the Current/Target split for every selected primary item.
// It never fails: unknown lenses or an unresolved filter item yield an empty
// result. Results are ordered by primary item name, then id.
func Classify(in Input) []types.ClassificationResult {
	byID := make(map[string]types.Item, len(in.Items))
	for _, it := range in.Items {
		byID[it.ID] = it
	}

	primaries := selectPrimaries(in, byID)
	if len(primaries) == 0 {
		return []types.ClassificationResult{}
	}
	types.SortByName(primaries)

	resolver := deduplication.NewResolver()
	results := make([]types.ClassificationResult, 0, len(primaries))
	for _, p := range primaries {
		current, target := split(p, in, byID)
		types.SortByName(current)
		types.SortByName(target)
		results = append(results, types.ClassificationResult{
			PrimaryItem:  p,
			CurrentItems: orEmpty(resolver.Items(current)),
			TargetItems:  orEmpty(resolver.Items(target)),
		})
	}
	return results
}

// selectPrimaries returns the primary-lens items in scope for the query
func selectPrimaries(in Input, byID map[string]types.Item) []types.Item {
	if in.FilterItemID == "" {
		var out []types.Item
		for _, it := range in.Items {
			if it.Lens == in.PrimaryLens {
				out = append(out, it)
			}
		}
		return out
	}

	filter, ok := byID[in.FilterItemID]
	if !ok {
		return nil
	}

	seen := make(map[string]struct{})
	var out []types.Item
	add := func(it types.Item) {
		if _, dup := seen[it.ID]; dup {
			return
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}

	if filter.Lens == in.PrimaryLens {
		add(filter)
	}
	for _, n := range in.Index.Neighbors(filter.ID, in.PrimaryLens) {
		if it, ok := byID[n.OtherItemID]; ok && it.Lens == in.PrimaryLens {
			add(it)
		}
	}
	return out
}

// split walks the primary item's secondary-lens neighbours and applies the
// rule table. When several relationships connect the same pair the last one
// examined decides the relationship status.
func split(primary types.Item, in Input, byID map[string]types.Item) (current, target []types.Item) {
	var order []string
	status := make(map[string]types.RelationshipStatus)
	for _, n := range in.Index.Neighbors(primary.ID, in.SecondaryLens) {
		other, ok := byID[n.OtherItemID]
		if !ok || other.Lens != in.SecondaryLens {
			continue
		}
		if _, seen := status[other.ID]; !seen {
			order = append(order, other.ID)
		}
		status[other.ID] = n.Relationship.LifecycleStatus
	}

	for _, id := range order {
		it := byID[id]
		inCurrent, inTarget := Rule(it.LifecycleStatus, status[id])
		if inCurrent {
			current = append(current, it)
		}
		if inTarget {
			target = append(target, it)
		}
	}
	return current, target
}

func orEmpty(items []types.Item) []types.Item {
	if items == nil {
		return []types.Item{}
	}
	return items
}
