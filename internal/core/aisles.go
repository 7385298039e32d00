package core

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var aislePrefix = regexp.MustCompile(`^(\d+)\s+(.+)$`)

// Sorter orders aisle labels and product names for a locale.
//
// A collate.Collator is not safe for concurrent use, so each call builds
// its own from the stored tag.
type Sorter struct {
	tag language.Tag
}

// NewSorter returns a Sorter for locale (a BCP 47 tag such as "es").
// Unparseable tags fall back to the root collation order.
func NewSorter(locale string) *Sorter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	return &Sorter{tag: tag}
}

func (s *Sorter) collator() *collate.Collator {
	return collate.New(s.tag)
}

// CompareAisles orders two aisle labels. When both start with a number the
// numbers decide; equal numbers and unnumbered labels use collation.
func (s *Sorter) CompareAisles(a, b string) int {
	return compareAisles(s.collator(), a, b)
}

func compareAisles(c *collate.Collator, a, b string) int {
	an, aok := leadingNumber(a)
	bn, bok := leadingNumber(b)
	if aok && bok && an != bn {
		if an < bn {
			return -1
		}
		return 1
	}
	return c.CompareString(a, b)
}

// SortAisles sorts labels in display order.
func (s *Sorter) SortAisles(labels []string) {
	c := s.collator()
	sort.SliceStable(labels, func(i, j int) bool {
		return compareAisles(c, labels[i], labels[j]) < 0
	})
}

// SortByName sorts products by name using locale collation.
func (s *Sorter) SortByName(products []Product) {
	c := s.collator()
	sort.SliceStable(products, func(i, j int) bool {
		return c.CompareString(products[i].Name, products[j].Name) < 0
	})
}

// Aisles returns the distinct aisle labels of products in display order.
func (s *Sorter) Aisles(products []Product) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, p := range products {
		if !seen[p.Aisle] {
			seen[p.Aisle] = true
			labels = append(labels, p.Aisle)
		}
	}
	s.SortAisles(labels)
	return labels
}

// AisleGroup is the checked products of one aisle.
type AisleGroup struct {
	Aisle    string
	Products []Product
}

// GroupChecked groups the checked products by aisle: groups in display
// order, products alphabetical within each group.
func (s *Sorter) GroupChecked(products []Product) []AisleGroup {
	byAisle := make(map[string][]Product)
	for _, p := range products {
		if p.Checked {
			byAisle[p.Aisle] = append(byAisle[p.Aisle], p)
		}
	}

	labels := make([]string, 0, len(byAisle))
	for a := range byAisle {
		labels = append(labels, a)
	}
	s.SortAisles(labels)

	groups := make([]AisleGroup, 0, len(labels))
	for _, a := range labels {
		ps := byAisle[a]
		s.SortByName(ps)
		groups = append(groups, AisleGroup{Aisle: a, Products: ps})
	}
	return groups
}

// AisleTitle renders "1 Lácteos" as "1 - Lácteos"; other labels are
// returned unchanged.
func AisleTitle(label string) string {
	m := aislePrefix.FindStringSubmatch(label)
	if m == nil {
		return label
	}
	return m[1] + " - " + m[2]
}

func leadingNumber(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// isDelimiterNoise reports whether s is empty or made only of delim runes.
func isDelimiterNoise(s string, delim rune) bool {
	return strings.TrimSpace(strings.Trim(s, string(delim))) == ""
}
