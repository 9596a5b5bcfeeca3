package types

import (
	"fmt"
	"strings"
	"time"
)

// LensKey identifies a lens (an analytical dimension such as "applications")
type LensKey string

// Lens is a named analytical dimension that items belong to
type Lens struct {
	Key   LensKey `json:"key" yaml:"key"`
	Label string  `json:"label" yaml:"label"`
	Order int     `json:"order" yaml:"order"` // display sequence only
}

// Validate checks if the lens has valid field values
func (l *Lens) Validate() error {
	if strings.TrimSpace(string(l.Key)) == "" {
		return fmt.Errorf("lens key is required")
	}
	if strings.ContainsAny(string(l.Key), " \t\n") {
		return fmt.Errorf("lens key cannot contain whitespace (got %q)", l.Key)
	}
	if l.Label == "" {
		return fmt.Errorf("lens label is required")
	}
	return nil
}

// DisplayLabel returns the label, falling back to the key
func (l Lens) DisplayLabel() string {
	if l.Label != "" {
		return l.Label
	}
	return string(l.Key)
}

// LifecycleStatus is an item's own lifecycle state
type LifecycleStatus string

const (
	StatusPlan     LifecycleStatus = "Plan"
	StatusEmerging LifecycleStatus = "Emerging"
	StatusInvest   LifecycleStatus = "Invest"
	StatusDivest   LifecycleStatus = "Divest"
	StatusStable   LifecycleStatus = "Stable"
	StatusNone     LifecycleStatus = "" // "No Status"
)

// NoStatusLabel is shown wherever an item has no lifecycle status
const NoStatusLabel = "No Status"

// IsValid checks if the status value is valid (empty means no status)
func (s LifecycleStatus) IsValid() bool {
	switch s {
	case StatusPlan, StatusEmerging, StatusInvest, StatusDivest, StatusStable, StatusNone:
		return true
	}
	return false
}

// Label returns the display label, "No Status" for an absent status
func (s LifecycleStatus) Label() string {
	if s == StatusNone {
		return NoStatusLabel
	}
	return string(s)
}

// ParseLifecycleStatus accepts the canonical names case-insensitively.
// "No Status" and "none" map to the empty status.
func ParseLifecycleStatus(s string) (LifecycleStatus, error) {
	trimmed := strings.TrimSpace(s)
	switch strings.ToLower(trimmed) {
	case "", "none", strings.ToLower(NoStatusLabel):
		return StatusNone, nil
	}
	for _, st := range []LifecycleStatus{StatusPlan, StatusEmerging, StatusInvest, StatusDivest, StatusStable} {
		if strings.EqualFold(trimmed, string(st)) {
			return st, nil
		}
	}
	return StatusNone, fmt.Errorf("invalid lifecycle status: %s", s)
}

// RelationshipStatus is the transition annotation carried by a relationship
type RelationshipStatus string

const (
	RelPlannedToAdd    RelationshipStatus = "Planned to add"
	RelPlannedToRemove RelationshipStatus = "Planned to remove"
	RelExisting        RelationshipStatus = "Existing"
	RelNone            RelationshipStatus = "" // treated as Existing
)

// IsValid checks if the relationship status value is valid
func (s RelationshipStatus) IsValid() bool {
	switch s {
	case RelPlannedToAdd, RelPlannedToRemove, RelExisting, RelNone:
		return true
	}
	return false
}

// Effective returns the status used for classification: absent means Existing
func (s RelationshipStatus) Effective() RelationshipStatus {
	if s == RelNone {
		return RelExisting
	}
	return s
}

// ParseRelationshipStatus accepts the canonical names case-insensitively,
// plus the short forms "add", "remove" and "existing".
func ParseRelationshipStatus(s string) (RelationshipStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return RelNone, nil
	case "add", strings.ToLower(string(RelPlannedToAdd)):
		return RelPlannedToAdd, nil
	case "remove", strings.ToLower(string(RelPlannedToRemove)):
		return RelPlannedToRemove, nil
	case "existing":
		return RelExisting, nil
	}
	return RelNone, fmt.Errorf("invalid relationship status: %s", s)
}

// MigrateRelationshipStatus maps a relationship status written with the legacy
// item vocabulary (Plan/Emerging/Invest/Divest/Stable) to the transition
// vocabulary. Absent becomes Existing, "Plan" becomes "Planned to add" and
// every other legacy value becomes Existing. Values already in the transition
// vocabulary are returned unchanged. The mapping is lossy for Divest.
func MigrateRelationshipStatus(legacy string) RelationshipStatus {
	switch RelationshipStatus(legacy) {
	case RelPlannedToAdd, RelPlannedToRemove, RelExisting:
		return RelationshipStatus(legacy)
	}
	if legacy == string(StatusPlan) {
		return RelPlannedToAdd
	}
	return RelExisting
}

// Item is an architecture entity belonging to exactly one lens
type Item struct {
	ID               string          `json:"id" yaml:"id"`
	Lens             LensKey         `json:"lens" yaml:"lens"`
	Name             string          `json:"name" yaml:"name"`
	LifecycleStatus  LifecycleStatus `json:"lifecycle_status,omitempty" yaml:"lifecycle_status,omitempty"`
	Parent           string          `json:"parent,omitempty" yaml:"parent,omitempty"` // free-text grouping label
	Description      string          `json:"description,omitempty" yaml:"description,omitempty"`
	BusinessContact  string          `json:"business_contact,omitempty" yaml:"business_contact,omitempty"`
	TechnicalContact string          `json:"technical_contact,omitempty" yaml:"technical_contact,omitempty"`
	CreatedAt        time.Time       `json:"created_at" yaml:"-"`
	UpdatedAt        time.Time       `json:"updated_at" yaml:"-"`
}

// Validate checks if the item has valid field values
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(i.Name) > 200 {
		return fmt.Errorf("name must be 200 characters or less (got %d)", len(i.Name))
	}
	if i.Lens == "" {
		return fmt.Errorf("lens is required")
	}
	if !i.LifecycleStatus.IsValid() {
		return fmt.Errorf("invalid lifecycle status: %s", i.LifecycleStatus)
	}
	return nil
}

// Relationship is an edge between two items. It is stored directed but
// traversed as undirected.
type Relationship struct {
	ID              string             `json:"id" yaml:"id"`
	FromLens        LensKey            `json:"from_lens" yaml:"from_lens"`
	FromItemID      string             `json:"from_item_id" yaml:"from_item_id"`
	ToLens          LensKey            `json:"to_lens" yaml:"to_lens"`
	ToItemID        string             `json:"to_item_id" yaml:"to_item_id"`
	LifecycleStatus RelationshipStatus `json:"lifecycle_status,omitempty" yaml:"lifecycle_status,omitempty"`
	CreatedAt       time.Time          `json:"created_at" yaml:"-"`
}

// Validate checks if the relationship has valid field values
func (r *Relationship) Validate() error {
	if r.FromItemID == "" || r.ToItemID == "" {
		return fmt.Errorf("both endpoints are required")
	}
	if r.FromLens == "" || r.ToLens == "" {
		return fmt.Errorf("both endpoint lenses are required")
	}
	if !r.LifecycleStatus.IsValid() {
		return fmt.Errorf("invalid relationship status: %s", r.LifecycleStatus)
	}
	return nil
}

// Other returns the endpoint opposite to itemID. ok is false when itemID is
// not an endpoint of the relationship.
func (r Relationship) Other(itemID string) (otherID string, otherLens LensKey, ok bool) {
	switch itemID {
	case r.FromItemID:
		return r.ToItemID, r.ToLens, true
	case r.ToItemID:
		return r.FromItemID, r.FromLens, true
	}
	return "", "", false
}

// Snapshot is a read-only copy of the domain store contents
type Snapshot struct {
	Lenses        []Lens         `json:"lenses" yaml:"lenses"`
	Items         []Item         `json:"items" yaml:"items"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
}

// ItemsByID indexes the snapshot items by id
func (s *Snapshot) ItemsByID() map[string]Item {
	byID := make(map[string]Item, len(s.Items))
	for _, it := range s.Items {
		byID[it.ID] = it
	}
	return byID
}

// Lens returns the lens with the given key
func (s *Snapshot) Lens(key LensKey) (Lens, bool) {
	for _, l := range s.Lenses {
		if l.Key == key {
			return l, true
		}
	}
	return Lens{}, false
}

// ItemFilter is used to filter item queries
type ItemFilter struct {
	Lens   *LensKey
	Status *LifecycleStatus
	Parent *string
	Limit  int
}
