package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/JonMunkholm/shoplist/internal/core"
)

const (
	pdfPageWidth = 210.0
	pdfMarginX   = 20.0
	pdfTextX     = 28.0
	pdfBoxSize   = 4.0
)

// RenderPDF writes doc as an A4 checklist.
func RenderPDF(w io.Writer, doc Document) error {
	pdf, err := buildPDF(doc)
	if err != nil {
		return err
	}
	return pdf.Output(w)
}

func buildPDF(doc Document) (*gofpdf.Fpdf, error) {
	layout := doc.Layout.withDefaults()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(doc.title(), true)
	pdf.SetCreationDate(doc.date())

	// Core fonts are cp1252; Spanish labels need translating.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pages := Paginate(doc.Groups(), layout)
	for i, page := range pages {
		pdf.AddPage()
		if i == 0 {
			writeHeader(pdf, tr, doc)
		}
		for _, line := range page.Lines {
			switch line.Kind {
			case LineHeading:
				pdf.SetFont("Helvetica", "B", 11)
				pdf.Text(pdfMarginX, line.Y, tr(core.AisleTitle(line.Aisle)))
			case LineProduct:
				writeProduct(pdf, tr, line)
			}
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	return pdf, nil
}

func writeHeader(pdf *gofpdf.Fpdf, tr func(string) string, doc Document) {
	title := tr(doc.title())
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text((pdfPageWidth-pdf.GetStringWidth(title))/2, 10, title)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(pdfMarginX, 18, tr("Usuario: "+doc.user()))
	pdf.Text(pdfMarginX, 23, "Fecha: "+doc.date().Format("02/01/2006"))
}

func writeProduct(pdf *gofpdf.Fpdf, tr func(string) string, line Line) {
	pdf.SetFont("Helvetica", "", 9)
	pdf.Rect(pdfMarginX, line.Y-3, pdfBoxSize, pdfBoxSize, "D")

	name := tr(line.Product.Name)
	pdf.Text(pdfTextX, line.Y, name)
	if line.Product.Quantity > 1 {
		pdf.Text(pdfTextX+pdf.GetStringWidth(name)+5, line.Y, fmt.Sprintf("x%d", line.Product.Quantity))
	}
}
