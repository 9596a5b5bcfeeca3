package types

import (
	"fmt"
	"strings"
)

// RollupKeyKind discriminates the RollupKey variants
type RollupKeyKind int

const (
	// RollupKeyItem keys a group by a related item (relation rollup)
	RollupKeyItem RollupKeyKind = iota + 1
	// RollupKeyName keys a group by a literal bucket name (attribute rollup)
	RollupKeyName
)

// RollupKey identifies a rollup group: either an item id or a bucket name.
// The zero value is invalid.
type RollupKey struct {
	kind  RollupKeyKind
	value string
}

// KeyByItem builds a key for a group formed around a related item
func KeyByItem(itemID string) RollupKey {
	return RollupKey{kind: RollupKeyItem, value: itemID}
}

// KeyByName builds a key for a literal attribute bucket
func KeyByName(label string) RollupKey {
	return RollupKey{kind: RollupKeyName, value: label}
}

// Kind returns the variant
func (k RollupKey) Kind() RollupKeyKind { return k.kind }

// ItemID returns the item id for RollupKeyItem keys
func (k RollupKey) ItemID() (string, bool) {
	if k.kind != RollupKeyItem {
		return "", false
	}
	return k.value, true
}

// Name returns the bucket name for RollupKeyName keys
func (k RollupKey) Name() (string, bool) {
	if k.kind != RollupKeyName {
		return "", false
	}
	return k.value, true
}

// IsZero reports whether the key was never set
func (k RollupKey) IsZero() bool { return k.kind == 0 }

// String returns a stable, variant-qualified form usable as a map key
func (k RollupKey) String() string {
	switch k.kind {
	case RollupKeyItem:
		return "item:" + k.value
	case RollupKeyName:
		return "name:" + k.value
	}
	return ""
}

// MarshalText renders the key for JSON/YAML output
func (k RollupKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// RollupMode selects how secondary items are regrouped
type RollupMode string

const (
	RollupNone      RollupMode = ""
	RollupAttribute RollupMode = "attribute"
	RollupRelation  RollupMode = "relation"
)

// IsValid checks if the rollup mode value is valid
func (m RollupMode) IsValid() bool {
	switch m {
	case RollupNone, RollupAttribute, RollupRelation:
		return true
	}
	return false
}

// FilterMode governs visibility of secondary items outside every rollup group
type FilterMode string

const (
	FilterOnlyRelated   FilterMode = "only-related"
	FilterShowSecondary FilterMode = "show-secondary"
)

// IsValid checks if the filter mode value is valid
func (m FilterMode) IsValid() bool {
	switch m {
	case FilterOnlyRelated, FilterShowSecondary:
		return true
	}
	return false
}

// Bucket labels for secondary items that belong to no rollup group
const (
	NoParentLabel  = "(No Parent)"
	UngroupedLabel = "(Ungrouped)"
)

// RollupSpec describes the optional third grouping dimension
type RollupSpec struct {
	Mode       RollupMode `json:"mode" yaml:"mode"`
	Lens       LensKey    `json:"lens,omitempty" yaml:"lens,omitempty"` // relation mode only
	FilterMode FilterMode `json:"filter_mode" yaml:"filter_mode"`
}

// Validate checks that the rollup settings are consistent
func (s RollupSpec) Validate() error {
	if !s.Mode.IsValid() {
		return fmt.Errorf("invalid rollup mode: %s", s.Mode)
	}
	if s.Mode == RollupNone {
		return nil
	}
	if !s.FilterMode.IsValid() {
		return fmt.Errorf("invalid filter mode: %q", s.FilterMode)
	}
	if s.Mode == RollupRelation && strings.TrimSpace(string(s.Lens)) == "" {
		return fmt.Errorf("relation rollup requires a lens")
	}
	if s.Mode == RollupAttribute && s.Lens != "" {
		return fmt.Errorf("attribute rollup does not take a lens (got %s)", s.Lens)
	}
	return nil
}

// RollupGroup is one group of a primary item's secondary items
type RollupGroup struct {
	Key          RollupKey `json:"key"`
	Label        string    `json:"label"`
	Item         *Item     `json:"item,omitempty"` // the related third-lens item, relation rollup only
	Ungrouped    bool      `json:"ungrouped,omitempty"`
	CurrentItems []Item    `json:"current_items"`
	TargetItems  []Item    `json:"target_items"`
}

// Size returns the number of distinct items across both lists
func (g *RollupGroup) Size() int {
	seen := make(map[string]struct{}, len(g.CurrentItems)+len(g.TargetItems))
	for _, it := range g.CurrentItems {
		seen[it.ID] = struct{}{}
	}
	for _, it := range g.TargetItems {
		seen[it.ID] = struct{}{}
	}
	return len(seen)
}

// ClassificationResult is the Current/Target split for one primary item
type ClassificationResult struct {
	PrimaryItem    Item          `json:"primary_item"`
	CurrentItems   []Item        `json:"current_items"`
	TargetItems    []Item        `json:"target_items"`
	RollupGroups   []RollupGroup `json:"rollup_groups,omitempty"`
	UngroupedItems []Item        `json:"ungrouped_items,omitempty"`
	// HiddenCount is the number of distinct secondary items left out of the
	// visible groups in only-related mode
	HiddenCount int `json:"hidden_count,omitempty"`
}

// Secondary returns the distinct classified secondary items, current first
func (r *ClassificationResult) Secondary() []Item {
	seen := make(map[string]struct{}, len(r.CurrentItems)+len(r.TargetItems))
	var out []Item
	for _, list := range [][]Item{r.CurrentItems, r.TargetItems} {
		for _, it := range list {
			if _, ok := seen[it.ID]; ok {
				continue
			}
			seen[it.ID] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}
