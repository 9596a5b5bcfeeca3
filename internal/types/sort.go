package types

import (
	"sort"
	"strings"
)

// LessByName orders items by name (case-insensitive, then exact), ties by id
func LessByName(a, b Item) bool {
	la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if la != lb {
		return la < lb
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}

// SortByName sorts items in place with LessByName
func SortByName(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return LessByName(items[i], items[j])
	})
}
