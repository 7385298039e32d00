package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/shoplist/internal/core"
)

var testDate = time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)

func testDocument() Document {
	return Document{
		User: "ana",
		Date: testDate,
		Snapshot: core.Snapshot{
			Products: []core.Product{
				{ID: "1", Name: "Yogur", Aisle: "1 Lácteos", Checked: true, Quantity: 1},
				{ID: "2", Name: "Agua", Aisle: "3 Bebidas", Checked: true, Quantity: 6},
				{ID: "3", Name: "Leche", Aisle: "1 Lácteos", Checked: true, Quantity: 2},
				{ID: "4", Name: "Pan", Aisle: "2 Panadería"},
			},
			Observations: "ir temprano",
		},
	}
}

func productGroups(sizes ...int) []core.AisleGroup {
	groups := make([]core.AisleGroup, len(sizes))
	for i, n := range sizes {
		g := core.AisleGroup{Aisle: fmt.Sprintf("%d Pasillo", i+1)}
		for j := 0; j < n; j++ {
			g.Products = append(g.Products, core.Product{Name: fmt.Sprintf("p%d-%d", i, j), Checked: true, Quantity: 1})
		}
		groups[i] = g
	}
	return groups
}

// =============================================================================
// Pagination
// =============================================================================

func TestPaginate_ProductThreshold(t *testing.T) {
	layout := DefaultLayout()
	layout.PageHeight = 10000 // never run out of space

	pages := Paginate(productGroups(30, 30), layout)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if got := pages[0].Products(); got != 50 {
		t.Errorf("page 1 has %d products, want 50", got)
	}
	if got := pages[1].Products(); got != 10 {
		t.Errorf("page 2 has %d products, want 10", got)
	}
	if first := pages[1].Lines[0]; first.Kind != LineProduct || first.Y != layout.ContinueY {
		t.Errorf("page 2 starts with %+v, want a product at y=%v", first, layout.ContinueY)
	}
}

func TestPaginate_HeadingCheckedBeforePlacement(t *testing.T) {
	layout := DefaultLayout()
	layout.PageHeight = 10000

	pages := Paginate(productGroups(50, 1), layout)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if first := pages[1].Lines[0]; first.Kind != LineHeading || first.Aisle != "2 Pasillo" {
		t.Errorf("page 2 starts with %+v, want the second heading", first)
	}
}

func TestPaginate_VerticalSpace(t *testing.T) {
	layout := Layout{
		ProductsPerPage: 50,
		PageHeight:      60,
		StartY:          30,
		ContinueY:       15,
		LineHeight:      5,
		GroupGap:        2,
		HeadingReserve:  15,
		RowReserve:      10,
	}

	// y: heading 30, rows 35 40 45 50, row at 55 > 60-10 breaks.
	pages := Paginate(productGroups(6), layout)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if got := pages[0].Products(); got != 4 {
		t.Errorf("page 1 has %d products, want 4", got)
	}
	for _, p := range pages {
		for _, l := range p.Lines {
			if l.Kind == LineProduct && l.Y > layout.PageHeight-layout.RowReserve {
				t.Errorf("product placed at y=%v inside the reserved space", l.Y)
			}
		}
	}
}

func TestPaginate_Empty(t *testing.T) {
	pages := Paginate(nil, Layout{})
	if len(pages) != 1 || len(pages[0].Lines) != 0 {
		t.Errorf("Paginate(nil) = %+v, want one empty page", pages)
	}
}

// =============================================================================
// Formats
// =============================================================================

func TestRenderChecklist(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderChecklist(&buf, testDocument()); err != nil {
		t.Fatalf("RenderChecklist() error = %v", err)
	}

	want := "Lista de Compras\nUsuario: ana\nFecha: 05/03/2026\n\n" +
		"1 - Lácteos\n[ ] Leche x2\n[ ] Yogur\n\n" +
		"3 - Bebidas\n[ ] Agua x6\n\n"
	if buf.String() != want {
		t.Errorf("RenderChecklist() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestRenderSnapshot(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSnapshot(&buf, testDocument()); err != nil {
		t.Fatalf("RenderSnapshot() error = %v", err)
	}

	want := "1 Lácteos:\n- Leche (2)\n- Yogur (1)\n\n3 Bebidas:\n- Agua (6)\n\nOBSERVACIONES:\nir temprano\n"
	if buf.String() != want {
		t.Errorf("RenderSnapshot() =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestBuildPDF(t *testing.T) {
	doc := testDocument()
	for i := 0; i < 60; i++ {
		doc.Snapshot.Products = append(doc.Snapshot.Products,
			core.Product{ID: fmt.Sprint("x", i), Name: fmt.Sprintf("Producto %02d", i), Aisle: "4 Varios", Checked: true, Quantity: 1})
	}

	pdf, err := buildPDF(doc)
	if err != nil {
		t.Fatalf("buildPDF() error = %v", err)
	}
	if got := pdf.PageCount(); got != 2 {
		t.Errorf("PageCount() = %d, want 2", got)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}

// =============================================================================
// Registry and Write
// =============================================================================

func TestRegistry(t *testing.T) {
	if got := strings.Join(Keys(), ","); got != "pdf,snapshot,txt" {
		t.Errorf("Keys() = %q", got)
	}

	f, ok := Get("pdf")
	if !ok || f.ContentType != "application/pdf" || !f.RequiresSelection {
		t.Errorf("Get(pdf) = %+v, %v", f, ok)
	}

	defer func() {
		if recover() == nil {
			t.Error("Register(duplicate) did not panic")
		}
	}()
	Register(Format{Key: "pdf", Render: RenderPDF})
}

func TestWrite(t *testing.T) {
	empty := Document{Snapshot: core.Snapshot{Products: []core.Product{{Name: "Pan", Aisle: "2 Panadería"}}}}

	tests := []struct {
		name    string
		key     string
		doc     Document
		wantErr error
	}{
		{"unknown format", "docx", testDocument(), ErrUnknownFormat},
		{"pdf without selection", "pdf", empty, ErrNothingSelected},
		{"txt without selection", "txt", empty, ErrNothingSelected},
		{"snapshot without selection", "snapshot", empty, nil},
		{"txt", "txt", testDocument(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, err := Write(&buf, tt.key, tt.doc)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Write() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		user string
		ext  string
		want string
	}{
		{"ana", "pdf", "Lista_Compras_ana_05-03-2026.pdf"},
		{"", ".txt", "Lista_Compras_anonymous_05-03-2026.txt"},
		{"José/../x", "pdf", "Lista_Compras_José____x_05-03-2026.pdf"},
	}
	for _, tt := range tests {
		if got := Filename(tt.user, testDate, tt.ext); got != tt.want {
			t.Errorf("Filename(%q, %q) = %q, want %q", tt.user, tt.ext, got, tt.want)
		}
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteFile(dir, "txt", testDocument())
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if want := filepath.Join(dir, "Lista_Compras_ana_05-03-2026.txt"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "Lista de Compras\n") {
		t.Errorf("file starts with %q", data[:min(len(data), 20)])
	}

	empty := testDocument()
	empty.Snapshot = core.Snapshot{}
	if _, err := WriteFile(dir, "pdf", empty); !errors.Is(err, ErrNothingSelected) {
		t.Errorf("WriteFile(empty) error = %v, want ErrNothingSelected", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d files, want 1", len(entries))
	}
}
