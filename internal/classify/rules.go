package classify

import (
	"github.com/archlens/targetview/internal/types"
)

// Rule decides Current and Target membership for one related item.
//
// Rows are evaluated in order and the first match wins:
//
//	item status               relationship        current  target
//	Invest / Divest / Stable  any                 yes      yes, unless Planned to remove
//	(none)                    Planned to add      no       yes
//	(none)                    Planned to remove   yes      no
//	(none)                    Existing / absent   yes      yes
//	Plan / Emerging           any                 no       yes, unless Planned to remove
//
// A status outside the vocabulary is treated as no status.
func Rule(item types.LifecycleStatus, rel types.RelationshipStatus) (current, target bool) {
	rel = rel.Effective()

	switch item {
	case types.StatusInvest, types.StatusDivest, types.StatusStable:
		return true, rel != types.RelPlannedToRemove
	case types.StatusPlan, types.StatusEmerging:
		return false, rel != types.RelPlannedToRemove
	}

	switch rel {
	case types.RelPlannedToAdd:
		return false, true
	case types.RelPlannedToRemove:
		return true, false
	}
	return true, true
}
