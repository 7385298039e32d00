package core

import (
	"strings"
	"unicode/utf8"
)

// matchEntry finds the product an imported entry refers to and returns its
// index, or -1.
//
// Entries read under an aisle heading must match name and aisle exactly
// (ignoring case). Entries with no aisle context come from the older
// name-only format and fall back through three tiers: exact name, then
// products whose name contains or is contained in the entry, preferring the
// closest length and the earliest product on ties.
func matchEntry(products []Product, name, aisle string, hasAisle bool) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1
	}

	if hasAisle {
		aisle = strings.TrimSpace(aisle)
		for i, p := range products {
			if strings.EqualFold(p.Name, name) && strings.EqualFold(p.Aisle, aisle) {
				return i
			}
		}
		return -1
	}

	for i, p := range products {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}

	needle := strings.ToLower(name)
	needleLen := utf8.RuneCountInString(name)
	best, bestDiff := -1, 0
	for i, p := range products {
		hay := strings.ToLower(p.Name)
		if !strings.Contains(hay, needle) && !strings.Contains(needle, hay) {
			continue
		}
		diff := utf8.RuneCountInString(p.Name) - needleLen
		if diff < 0 {
			diff = -diff
		}
		if best == -1 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}
