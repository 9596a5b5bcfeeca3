// Package rollup regroups each primary item's classified secondary items by a
// third dimension.
//
// Two strategies exist and exactly one applies per call:
//
//   - attribute: group by the secondary item's free-text Parent field; items
//     without a parent fall into the "(No Parent)" bucket
//   - relation: group by the items of a third lens that each secondary item is
//     related to; an item with no such relation is ungrouped and an item with
//     several relations joins several groups
//
// The filter mode then decides what happens to the ungrouped items:
// only-related drops them from the visible groups (they are still counted in
// HiddenCount) and show-secondary surfaces them as a trailing bucket.
package rollup

import (
	"sort"
	"strings"

	"github.com/archlens/targetview/internal/deduplication"
	"github.com/archlens/targetview/internal/relindex"
	"github.com/archlens/targetview/internal/types"
)

// Input carries the lookup structures shared by every primary item
type Input struct {
	Spec  types.RollupSpec
	Items []types.Item
	Index *relindex.Index
}

// membership records which group keys a secondary item belongs to
type membership struct {
	groups    map[string]*groupAcc
	order     []string
	ungrouped map[string]struct{}
}

type groupAcc struct {
	key     types.RollupKey
	label   string
	item    *types.Item
	members map[string]struct{}
}

// Aggregate returns copies of results with RollupGroups, UngroupedItems and
// HiddenCount filled. The inputs are never modified. With no rollup mode the
// copies carry no groups. An unrecognised filter mode behaves as only-related.
func Aggregate(results []types.ClassificationResult, in Input) []types.ClassificationResult {
	out := make([]types.ClassificationResult, len(results))
	if !in.Spec.Mode.IsValid() || in.Spec.Mode == types.RollupNone {
		for i, r := range results {
			out[i] = copyResult(r)
		}
		return out
	}

	byID := make(map[string]types.Item, len(in.Items))
	for _, it := range in.Items {
		byID[it.ID] = it
	}

	for i, r := range results {
		out[i] = aggregateOne(r, in, byID)
	}
	return out
}

func aggregateOne(r types.ClassificationResult, in Input, byID map[string]types.Item) types.ClassificationResult {
	resolver := deduplication.NewResolver()
	res := copyResult(r)
	res.RollupGroups = nil
	res.UngroupedItems = nil
	res.HiddenCount = 0
	res.CurrentItems = orEmpty(resolver.Items(res.CurrentItems))
	res.TargetItems = orEmpty(resolver.Items(res.TargetItems))

	var m *membership
	switch in.Spec.Mode {
	case types.RollupAttribute:
		m = byAttribute(res.Secondary())
	case types.RollupRelation:
		m = byRelation(res.Secondary(), in.Spec.Lens, in.Index, byID)
	}

	groups := make([]types.RollupGroup, 0, len(m.order))
	for _, key := range m.order {
		acc := m.groups[key]
		groups = append(groups, types.RollupGroup{
			Key:          acc.key,
			Label:        acc.label,
			Item:         acc.item,
			CurrentItems: subset(res.CurrentItems, acc.members),
			TargetItems:  subset(res.TargetItems, acc.members),
		})
	}
	sortGroups(groups)

	ungroupedCurrent := subset(res.CurrentItems, m.ungrouped)
	ungroupedTarget := subset(res.TargetItems, m.ungrouped)
	if in.Spec.FilterMode == types.FilterShowSecondary {
		if len(m.ungrouped) > 0 {
			label := types.UngroupedLabel
			if in.Spec.Mode == types.RollupAttribute {
				label = types.NoParentLabel
			}
			groups = append(groups, types.RollupGroup{
				Key:          types.KeyByName(label),
				Label:        label,
				Ungrouped:    true,
				CurrentItems: ungroupedCurrent,
				TargetItems:  ungroupedTarget,
			})
		}
		ungrouped := resolver.Union(ungroupedCurrent, ungroupedTarget)
		types.SortByName(ungrouped)
		res.UngroupedItems = orEmpty(ungrouped)
	} else {
		res.HiddenCount = len(m.ungrouped)
	}

	res.RollupGroups = resolver.Groups(groups)
	for i := range res.RollupGroups {
		res.RollupGroups[i].CurrentItems = orEmpty(res.RollupGroups[i].CurrentItems)
		res.RollupGroups[i].TargetItems = orEmpty(res.RollupGroups[i].TargetItems)
	}
	return res
}

// byAttribute buckets items by their Parent field
func byAttribute(secondary []types.Item) *membership {
	m := newMembership()
	for _, it := range secondary {
		parent := strings.TrimSpace(it.Parent)
		if parent == "" || parent == types.NoParentLabel {
			m.ungrouped[it.ID] = struct{}{}
			continue
		}
		m.join(types.KeyByName(parent), parent, nil, it.ID)
	}
	return m
}

// byRelation builds the secondary ↔ third-lens map and turns every third-lens
// item into a group of the secondary items related to it
func byRelation(secondary []types.Item, lens types.LensKey, idx *relindex.Index, byID map[string]types.Item) *membership {
	m := newMembership()
	related := make(map[string][]string, len(secondary)) // secondary id -> third-lens ids
	for _, it := range secondary {
		for _, n := range idx.Neighbors(it.ID, lens) {
			other, ok := byID[n.OtherItemID]
			if !ok || other.Lens != lens || other.ID == it.ID {
				continue
			}
			related[it.ID] = append(related[it.ID], other.ID)
			m.join(types.KeyByItem(other.ID), other.Name, &other, it.ID)
		}
		if len(related[it.ID]) == 0 {
			m.ungrouped[it.ID] = struct{}{}
		}
	}
	return m
}

func newMembership() *membership {
	return &membership{
		groups:    make(map[string]*groupAcc),
		ungrouped: make(map[string]struct{}),
	}
}

func (m *membership) join(key types.RollupKey, label string, item *types.Item, memberID string) {
	k := key.String()
	acc, ok := m.groups[k]
	if !ok {
		acc = &groupAcc{key: key, label: label, item: item, members: make(map[string]struct{})}
		m.groups[k] = acc
		m.order = append(m.order, k)
	}
	acc.members[memberID] = struct{}{}
}

// subset keeps the items whose id is in members, preserving order
func subset(items []types.Item, members map[string]struct{}) []types.Item {
	out := make([]types.Item, 0, len(members))
	for _, it := range items {
		if _, ok := members[it.ID]; ok {
			out = append(out, it)
		}
	}
	return out
}

// sortGroups orders groups alphabetically by label; the ungrouped bucket is
// appended by the caller after sorting
func sortGroups(groups []types.RollupGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		li, lj := strings.ToLower(groups[i].Label), strings.ToLower(groups[j].Label)
		if li != lj {
			return li < lj
		}
		if groups[i].Label != groups[j].Label {
			return groups[i].Label < groups[j].Label
		}
		return groups[i].Key.String() < groups[j].Key.String()
	})
}

func copyResult(r types.ClassificationResult) types.ClassificationResult {
	out := types.ClassificationResult{
		PrimaryItem:  r.PrimaryItem,
		CurrentItems: append([]types.Item{}, r.CurrentItems...),
		TargetItems:  append([]types.Item{}, r.TargetItems...),
		HiddenCount:  r.HiddenCount,
	}
	if r.UngroupedItems != nil {
		out.UngroupedItems = append([]types.Item{}, r.UngroupedItems...)
	}
	if r.RollupGroups != nil {
		out.RollupGroups = make([]types.RollupGroup, len(r.RollupGroups))
		for i, g := range r.RollupGroups {
			g.CurrentItems = append([]types.Item{}, g.CurrentItems...)
			g.TargetItems = append([]types.Item{}, g.TargetItems...)
			out.RollupGroups[i] = g
		}
	}
	return out
}

func orEmpty(items []types.Item) []types.Item {
	if items == nil {
		return []types.Item{}
	}
	return items
}
