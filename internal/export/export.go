// Package export renders the checked products of a list as downloadable
// documents. Every format reads a [Document] and never mutates it.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/JonMunkholm/shoplist/internal/core"
)

var (
	ErrNothingSelected = errors.New("nothing selected to export")
	ErrUnknownFormat   = errors.New("unknown export format")
)

// DefaultTitle heads every document unless Document.Title is set.
const DefaultTitle = "Lista de Compras"

// Document is the read-only input of a format.
type Document struct {
	Title    string
	User     string
	Date     time.Time
	Snapshot core.Snapshot
	Sorter   *core.Sorter
	Layout   Layout
}

func (d Document) title() string {
	if strings.TrimSpace(d.Title) == "" {
		return DefaultTitle
	}
	return d.Title
}

func (d Document) user() string {
	if d.User == "" {
		return core.AnonymousName
	}
	return d.User
}

func (d Document) date() time.Time {
	if d.Date.IsZero() {
		return time.Now()
	}
	return d.Date
}

func (d Document) sorter() *core.Sorter {
	if d.Sorter == nil {
		return core.NewSorter("es")
	}
	return d.Sorter
}

// Groups returns the checked products grouped by aisle in display order.
func (d Document) Groups() []core.AisleGroup {
	return d.sorter().GroupChecked(d.Snapshot.Products)
}

// Write renders doc in the format registered under key.
func Write(w io.Writer, key string, doc Document) (Format, error) {
	f, ok := Get(key)
	if !ok {
		return Format{}, fmt.Errorf("%w: %q", ErrUnknownFormat, key)
	}
	if f.RequiresSelection && len(doc.Snapshot.Checked()) == 0 {
		return f, ErrNothingSelected
	}
	if err := f.Render(w, doc); err != nil {
		return f, fmt.Errorf("render %s: %w", f.Key, err)
	}
	return f, nil
}

// Filename names a download: Lista_Compras_<user>_<dd-mm-yyyy>.<ext>.
func Filename(user string, date time.Time, ext string) string {
	if user == "" {
		user = core.AnonymousName
	}
	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, user)
	return fmt.Sprintf("Lista_Compras_%s_%s.%s", safe, date.Format("02-01-2006"), strings.TrimPrefix(ext, "."))
}

// WriteFile renders doc into dir under its Filename and returns the path.
// Nothing is written when rendering fails.
func WriteFile(dir, key string, doc Document) (string, error) {
	var buf bytes.Buffer
	f, err := Write(&buf, key, doc)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, Filename(doc.user(), doc.date(), f.Extension))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
