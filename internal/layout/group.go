package layout

import (
	"sort"
	"strings"

	"github.com/archlens/targetview/internal/types"
)

// PrimaryGroup is a run of classification results drawn under one section
// heading. An empty Label draws no heading.
type PrimaryGroup struct {
	Label   string
	Results []types.ClassificationResult
}

// Single wraps all results in one unlabeled group
func Single(results []types.ClassificationResult) []PrimaryGroup {
	return []PrimaryGroup{{Results: results}}
}

// GroupByParent sections results by the primary item's Parent. Sections are
// ordered by label with "(No Parent)" last; results keep their input order
// within a section.
func GroupByParent(results []types.ClassificationResult) []PrimaryGroup {
	index := make(map[string]int)
	var groups []PrimaryGroup
	var orphans []types.ClassificationResult

	for _, r := range results {
		parent := strings.TrimSpace(r.PrimaryItem.Parent)
		if parent == "" || parent == types.NoParentLabel {
			orphans = append(orphans, r)
			continue
		}
		i, ok := index[parent]
		if !ok {
			i = len(groups)
			index[parent] = i
			groups = append(groups, PrimaryGroup{Label: parent})
		}
		groups[i].Results = append(groups[i].Results, r)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		li, lj := strings.ToLower(groups[i].Label), strings.ToLower(groups[j].Label)
		if li != lj {
			return li < lj
		}
		return groups[i].Label < groups[j].Label
	})

	if len(orphans) > 0 {
		groups = append(groups, PrimaryGroup{Label: types.NoParentLabel, Results: orphans})
	}
	return groups
}
