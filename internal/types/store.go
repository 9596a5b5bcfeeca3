package types

import (
	"fmt"
	"strings"
)

// allowedItemUpdateFields lists the item columns a store update may touch
var allowedItemUpdateFields = map[string]bool{
	"name":              true,
	"lifecycle_status":  true,
	"parent":            true,
	"description":       true,
	"business_contact":  true,
	"technical_contact": true,
}

// ValidateItemUpdate checks the field map passed to a store's UpdateItem.
// Values must be strings (or a LifecycleStatus for lifecycle_status).
func ValidateItemUpdate(updates map[string]interface{}) error {
	for key, value := range updates {
		// Prevent SQL injection by validating field names
		if !allowedItemUpdateFields[key] {
			return fmt.Errorf("invalid field for update: %s", key)
		}
		var str string
		switch v := value.(type) {
		case string:
			str = v
		case LifecycleStatus:
			str = string(v)
		default:
			return fmt.Errorf("field %s must be a string (got %T)", key, value)
		}
		switch key {
		case "name":
			if strings.TrimSpace(str) == "" || len(str) > 200 {
				return fmt.Errorf("name must be 1-200 characters")
			}
		case "lifecycle_status":
			if !LifecycleStatus(str).IsValid() {
				return fmt.Errorf("invalid lifecycle status: %s", str)
			}
		}
	}
	return nil
}

// ResolveEndpoints fills the endpoint lenses of r from the stored items when
// left empty and checks them otherwise. A nil item means it does not exist.
func (r *Relationship) ResolveEndpoints(from, to *Item) error {
	if from == nil {
		return fmt.Errorf("item %s: %w", r.FromItemID, ErrNotFound)
	}
	if to == nil {
		return fmt.Errorf("item %s: %w", r.ToItemID, ErrNotFound)
	}
	if r.FromItemID == r.ToItemID {
		return fmt.Errorf("an item cannot be related to itself")
	}
	if r.FromLens == "" {
		r.FromLens = from.Lens
	}
	if r.ToLens == "" {
		r.ToLens = to.Lens
	}
	if r.FromLens != from.Lens || r.ToLens != to.Lens {
		return fmt.Errorf("relationship lenses %s/%s do not match items (%s/%s)",
			r.FromLens, r.ToLens, from.Lens, to.Lens)
	}
	return nil
}
