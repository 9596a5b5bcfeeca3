// Package deduplication provides the union/dedup resolver for derived item lists.
//
// # Overview
//
// Several computation branches re-derive overlapping item collections: the
// plain Current/Target classification, the attribute rollup's ungrouped set
// and the relation rollup's ungrouped set. Before any list leaves the
// aggregator it passes through this package, which guarantees that every
// exposed list contains each item at most once.
//
// # Keys
//
// Real items are keyed by id. Synthetic nodes have no id (the attribute
// rollup's bucket nodes) and are keyed by name instead:
//
//	id:<item id>       real item
//	name:<bucket name> synthetic node
//
// Rollup groups are keyed by their types.RollupKey, which already separates
// the two variants.
//
// # Ordering
//
// Deduplication is order preserving: the first occurrence of a key wins and
// later occurrences are dropped. Callers sort afterwards when they need a
// canonical order.
//
// # Usage
//
//	r := deduplication.NewResolver()
//	current := r.Items(classified.CurrentItems)
//	ungrouped := r.Union(attrUngrouped, relUngrouped)
//	log.Printf("[DEBUG] dedup: %d in, %d duplicates", r.Stats().Inputs, r.Stats().Duplicates)
package deduplication
