package core

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ObservationsHeading introduces the free-text block of a text snapshot.
const ObservationsHeading = "OBSERVACIONES:"

var entryPattern = regexp.MustCompile(`^-\s*(.+?)\s*\((\d+)\)\s*$`)

// EncodeSnapshotText writes the checked products of snap in the
// re-importable text format:
//
//	1 Lácteos:
//	- Leche (2)
//
//	3 Bebidas:
//	- Agua (1)
//
//	OBSERVACIONES:
//	comprar temprano
//
// Aisles follow display order and products are alphabetical within each.
func EncodeSnapshotText(w io.Writer, snap Snapshot, s *Sorter) error {
	bw := bufio.NewWriter(w)

	for i, g := range s.GroupChecked(snap.Products) {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "%s:\n", g.Aisle)
		for _, p := range g.Products {
			fmt.Fprintf(bw, "- %s (%d)\n", p.Name, p.Quantity)
		}
	}

	if obs := strings.TrimRight(snap.Observations, "\n"); obs != "" {
		fmt.Fprintf(bw, "\n%s\n%s\n", ObservationsHeading, obs)
	}

	return bw.Flush()
}

// TextImportResult summarizes a text snapshot import.
type TextImportResult struct {
	Found     int      `json:"found"`
	Updated   int      `json:"updated"`
	Unmatched []string `json:"unmatched,omitempty"`
}

type textEntry struct {
	name     string
	aisle    string
	hasAisle bool
	quantity int
}

type parsedText struct {
	entries         []textEntry
	observations    []string
	hasObservations bool
}

func parseSnapshotText(r io.Reader) (parsedText, error) {
	var out parsedText
	var aisle string
	var hasAisle bool

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		raw := strings.TrimRight(sc.Text(), "\r")
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if out.hasObservations {
			out.observations = append(out.observations, raw)
			continue
		}

		// An entry always ends in "(qty)", so a label like "- Varios:" is
		// an aisle heading even though it starts with a dash.
		m := entryPattern.FindStringSubmatch(line)
		switch {
		case strings.EqualFold(line, ObservationsHeading):
			out.hasObservations = true
		case m != nil:
			qty, err := strconv.Atoi(m[2])
			if err != nil {
				qty = MaxQuantity
			}
			out.entries = append(out.entries, textEntry{
				name:     m[1],
				aisle:    aisle,
				hasAisle: hasAisle,
				quantity: qty,
			})
		case strings.HasSuffix(line, ":"):
			aisle = strings.TrimSpace(strings.TrimSuffix(line, ":"))
			hasAisle = true
		}
	}
	if err := sc.Err(); err != nil {
		return parsedText{}, fmt.Errorf("read text snapshot: %w", err)
	}
	return out, nil
}

// applyText resets products and applies parsed entries to them.
func applyText(products []Product, parsed parsedText) TextImportResult {
	for i := range products {
		products[i].reset()
	}

	res := TextImportResult{Found: len(parsed.entries)}
	for _, e := range parsed.entries {
		idx := matchEntry(products, e.name, e.aisle, e.hasAisle)
		if idx < 0 {
			res.Unmatched = append(res.Unmatched, e.name)
			continue
		}
		products[idx].SetQuantity(e.quantity)
		res.Updated++
	}
	return res
}
