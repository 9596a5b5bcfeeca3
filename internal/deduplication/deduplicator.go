package deduplication

import (
	"fmt"

	"github.com/archlens/targetview/internal/types"
)

// ItemKey returns the dedup key for an item: its id, or its name for
// synthetic nodes without an id
func ItemKey(it types.Item) string {
	if it.ID == "" {
		return "name:" + it.Name
	}
	return "id:" + it.ID
}

// Stats counts what a resolver has seen across all calls
type Stats struct {
	// Inputs is the total number of items or groups passed in
	Inputs int `json:"inputs"`

	// Unique is the total number of items or groups returned
	Unique int `json:"unique"`

	// Duplicates is the number of entries dropped or merged
	Duplicates int `json:"duplicates"`
}

// Validate checks that the counters add up
func (s Stats) Validate() error {
	if s.Inputs < 0 || s.Unique < 0 || s.Duplicates < 0 {
		return fmt.Errorf("stats cannot be negative (inputs=%d unique=%d duplicates=%d)",
			s.Inputs, s.Unique, s.Duplicates)
	}
	if s.Unique+s.Duplicates != s.Inputs {
		return fmt.Errorf("unique (%d) + duplicates (%d) does not match inputs (%d)",
			s.Unique, s.Duplicates, s.Inputs)
	}
	return nil
}

// Resolver deduplicates item lists and rollup groups and keeps running
// statistics. A Resolver is not safe for concurrent use; allocate one per
// computation pass.
type Resolver struct {
	stats Stats
}

// NewResolver creates a resolver with zeroed statistics
func NewResolver() *Resolver {
	return &Resolver{}
}

// Stats returns the statistics accumulated so far
func (r *Resolver) Stats() Stats {
	return r.stats
}

// Items returns items with later duplicates removed. The input is not
// modified; the result is always a fresh slice (nil for empty input).
func (r *Resolver) Items(items []types.Item) []types.Item {
	return r.Union(items)
}

// Union concatenates lists and removes duplicates, first occurrence wins
func (r *Resolver) Union(lists ...[]types.Item) []types.Item {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	if total == 0 {
		return nil
	}

	seen := make(map[string]struct{}, total)
	out := make([]types.Item, 0, total)
	for _, l := range lists {
		for _, it := range l {
			key := ItemKey(it)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, it)
		}
	}

	r.stats.Inputs += total
	r.stats.Unique += len(out)
	r.stats.Duplicates += total - len(out)
	return out
}

// Groups merges groups that share a rollup key. The first group's label,
// item and flags are kept and the item lists of later groups are unioned in.
func (r *Resolver) Groups(groups []types.RollupGroup) []types.RollupGroup {
	if len(groups) == 0 {
		return nil
	}

	pos := make(map[string]int, len(groups))
	out := make([]types.RollupGroup, 0, len(groups))
	for _, g := range groups {
		key := g.Key.String()
		if i, ok := pos[key]; ok {
			out[i].CurrentItems = append(out[i].CurrentItems, g.CurrentItems...)
			out[i].TargetItems = append(out[i].TargetItems, g.TargetItems...)
			continue
		}
		pos[key] = len(out)
		g.CurrentItems = append([]types.Item(nil), g.CurrentItems...)
		g.TargetItems = append([]types.Item(nil), g.TargetItems...)
		out = append(out, g)
	}

	r.stats.Inputs += len(groups)
	r.stats.Unique += len(out)
	r.stats.Duplicates += len(groups) - len(out)

	for i := range out {
		out[i].CurrentItems = r.Items(out[i].CurrentItems)
		out[i].TargetItems = r.Items(out[i].TargetItems)
	}
	return out
}

// UniqueItems is a convenience wrapper for one-off calls
func UniqueItems(items []types.Item) []types.Item {
	return NewResolver().Items(items)
}

// Union is a convenience wrapper for one-off calls
func Union(lists ...[]types.Item) []types.Item {
	return NewResolver().Union(lists...)
}

// HasDuplicates reports whether any key occurs more than once
func HasDuplicates(items []types.Item) bool {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		key := ItemKey(it)
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
	}
	return false
}
