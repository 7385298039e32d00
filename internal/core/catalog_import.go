package core

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jszwec/csvutil"
)

// catalogRow is one data row of a catalog file. Columns past the second are
// ignored.
type catalogRow struct {
	Aisle   string `csv:"Pasillo"`
	Product string `csv:"Artículo"`
}

var catalogHeader = []string{"Pasillo", "Artículo"}

// ImportOptions controls catalog parsing.
type ImportOptions struct {
	Delimiter    rune
	DefaultAisle string
}

func (o ImportOptions) withDefaults() ImportOptions {
	if o.Delimiter == 0 {
		o.Delimiter = ';'
	}
	if strings.TrimSpace(o.DefaultAisle) == "" {
		o.DefaultAisle = DefaultAisle
	}
	return o
}

// ImportError reports a catalog source that could not produce a catalog.
// The caller's existing catalog must be left as it was.
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog import: %s: %v", e.Reason, e.Err)
	}
	return "catalog import: " + e.Reason
}

func (e *ImportError) Unwrap() error { return e.Err }

// Import failure reasons.
const (
	ReasonEmptySource = "catalog source is empty"
	ReasonNoDataRows  = "catalog has no data rows"
	ReasonNoProducts  = "no valid products found"
	ReasonMalformed   = "malformed catalog source"
)

// IsImportError reports whether err is (or wraps) an *ImportError.
func IsImportError(err error) bool {
	var ie *ImportError
	return errors.As(err, &ie)
}

// ParseCatalog reads delimited catalog text. The first row is a header and
// is discarded; each later row contributes (aisle, product) from its first
// two fields. Rows without a product are dropped and blank aisles become
// opts.DefaultAisle. Every product gets a fresh ID and an empty selection.
func ParseCatalog(r io.Reader, opts ImportOptions) (Catalog, error) {
	opts = opts.withDefaults()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ImportError{Reason: "read catalog source", Err: err}
	}
	data = sanitizeUTF8(bytes.TrimPrefix(data, utf8BOM))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ImportError{Reason: ReasonEmptySource}
	}

	records, err := readRecords(data, opts.Delimiter)
	if err != nil {
		return nil, &ImportError{Reason: ReasonMalformed, Err: err}
	}
	if len(records) < 2 {
		return nil, &ImportError{Reason: ReasonNoDataRows}
	}

	dec, err := csvutil.NewDecoder(&fixedWidthReader{rows: records[1:], width: len(catalogHeader)}, catalogHeader...)
	if err != nil {
		return nil, &ImportError{Reason: ReasonMalformed, Err: err}
	}

	var catalog Catalog
	for {
		var row catalogRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, &ImportError{Reason: ReasonMalformed, Err: err}
		}

		name := strings.TrimSpace(row.Product)
		if isDelimiterNoise(name, opts.Delimiter) {
			continue
		}
		aisle := strings.TrimSpace(row.Aisle)
		if isDelimiterNoise(aisle, opts.Delimiter) {
			aisle = opts.DefaultAisle
		}

		catalog = append(catalog, Product{
			ID:    uuid.NewString(),
			Name:  name,
			Aisle: aisle,
		})
	}

	if len(catalog) == 0 {
		return nil, &ImportError{Reason: ReasonNoProducts}
	}
	return catalog, nil
}

// WriteCatalog writes products as delimited text with a header row, in a
// form ParseCatalog reads back.
func WriteCatalog(w io.Writer, products []Product, delim rune) error {
	if delim == 0 {
		delim = ';'
	}
	cw := csv.NewWriter(w)
	cw.Comma = delim

	enc := csvutil.NewEncoder(cw)
	for _, p := range products {
		if err := enc.Encode(catalogRow{Aisle: p.Aisle, Product: p.Name}); err != nil {
			return fmt.Errorf("encode catalog row %q: %w", p.Name, err)
		}
	}
	if len(products) == 0 {
		if err := enc.EncodeHeader(catalogRow{}); err != nil {
			return fmt.Errorf("encode catalog header: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readRecords splits data into lines and parses each one on its own, so a
// stray quote can never pull later rows into one field.
func readRecords(data []byte, delim rune) ([][]string, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)

	var out [][]string
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		r := csv.NewReader(strings.NewReader(line))
		r.Comma = delim
		r.FieldsPerRecord = -1
		r.LazyQuotes = true

		rec, err := r.Read()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if isEmptyRow(rec) {
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// fixedWidthReader feeds rows to csvutil padded or truncated to width, so
// short and long catalog rows decode instead of failing the field count.
type fixedWidthReader struct {
	rows  [][]string
	width int
	next  int
}

func (r *fixedWidthReader) Read() ([]string, error) {
	if r.next >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.next]
	r.next++

	out := make([]string, r.width)
	copy(out, row)
	return out, nil
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	return bytes.ToValidUTF8(data, []byte("�"))
}

// isEmptyRow reports whether every field is blank. A row of bare delimiters
// (";;") is not empty: it has fields, just no content, and still counts as
// a data row when deciding if the source has any.
func isEmptyRow(row []string) bool {
	return len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "")
}
