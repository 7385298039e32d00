package export

import "github.com/JonMunkholm/shoplist/internal/core"

// Layout holds the page geometry in millimetres.
type Layout struct {
	ProductsPerPage int
	PageHeight      float64
	StartY          float64 // first line on the first page
	ContinueY       float64 // first line on later pages
	LineHeight      float64
	GroupGap        float64
	HeadingReserve  float64 // space a heading needs above the bottom edge
	RowReserve      float64 // space a product row needs above the bottom edge
}

// DefaultLayout fits about fifty products on an A4 page.
func DefaultLayout() Layout {
	return Layout{
		ProductsPerPage: 50,
		PageHeight:      297,
		StartY:          30,
		ContinueY:       15,
		LineHeight:      5,
		GroupGap:        2,
		HeadingReserve:  15,
		RowReserve:      10,
	}
}

func (l Layout) withDefaults() Layout {
	d := DefaultLayout()
	if l.ProductsPerPage <= 0 {
		l.ProductsPerPage = d.ProductsPerPage
	}
	if l.PageHeight <= 0 {
		l.PageHeight = d.PageHeight
	}
	if l.StartY <= 0 {
		l.StartY = d.StartY
	}
	if l.ContinueY <= 0 {
		l.ContinueY = d.ContinueY
	}
	if l.LineHeight <= 0 {
		l.LineHeight = d.LineHeight
	}
	if l.GroupGap < 0 {
		l.GroupGap = 0
	}
	if l.HeadingReserve <= 0 {
		l.HeadingReserve = d.HeadingReserve
	}
	if l.RowReserve <= 0 {
		l.RowReserve = d.RowReserve
	}
	return l
}

type LineKind int

const (
	LineHeading LineKind = iota
	LineProduct
)

// Line is one positioned line of output.
type Line struct {
	Kind    LineKind
	Y       float64
	Aisle   string
	Product core.Product
}

// Page is the lines placed on one page.
type Page struct {
	Lines []Line
}

// Products returns the number of product lines on the page.
func (p Page) Products() int {
	n := 0
	for _, l := range p.Lines {
		if l.Kind == LineProduct {
			n++
		}
	}
	return n
}

// Paginate places groups on pages. A new page starts before a heading or a
// product when the page already holds ProductsPerPage products, or when the
// line would fall inside the reserved space at the bottom of the page. Both
// conditions are checked independently. A heading is not repeated when its
// group continues on the next page.
func Paginate(groups []core.AisleGroup, layout Layout) []Page {
	layout = layout.withDefaults()

	var pages []Page
	cur := Page{}
	y := layout.StartY
	count := 0

	breakPage := func() {
		pages = append(pages, cur)
		cur = Page{}
		y = layout.ContinueY
		count = 0
	}
	full := func(reserve float64) bool {
		return count >= layout.ProductsPerPage || y > layout.PageHeight-reserve
	}

	for _, g := range groups {
		if full(layout.HeadingReserve) {
			breakPage()
		}
		cur.Lines = append(cur.Lines, Line{Kind: LineHeading, Y: y, Aisle: g.Aisle})
		y += layout.LineHeight

		for _, p := range g.Products {
			if full(layout.RowReserve) {
				breakPage()
			}
			cur.Lines = append(cur.Lines, Line{Kind: LineProduct, Y: y, Aisle: g.Aisle, Product: p})
			y += layout.LineHeight
			count++
		}
		y += layout.GroupGap
	}

	if len(cur.Lines) > 0 || len(pages) == 0 {
		pages = append(pages, cur)
	}
	return pages
}
