package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/JonMunkholm/shoplist/internal/core"
)

// RenderChecklist writes doc as a printable plain-text checklist:
//
//	Lista de Compras
//	Usuario: ana
//	Fecha: 17/10/2026
//
//	1 - Lácteos
//	[ ] Leche x2
func RenderChecklist(w io.Writer, doc Document) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\nUsuario: %s\nFecha: %s\n\n", doc.title(), doc.user(), doc.date().Format("02/01/2006"))

	for _, g := range doc.Groups() {
		fmt.Fprintln(bw, core.AisleTitle(g.Aisle))
		for _, p := range g.Products {
			if p.Quantity > 1 {
				fmt.Fprintf(bw, "[ ] %s x%d\n", p.Name, p.Quantity)
			} else {
				fmt.Fprintf(bw, "[ ] %s\n", p.Name)
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// RenderSnapshot writes doc in the re-importable text format.
func RenderSnapshot(w io.Writer, doc Document) error {
	return core.EncodeSnapshotText(w, doc.Snapshot, doc.sorter())
}
