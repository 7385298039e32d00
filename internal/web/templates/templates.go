// Package templates renders the server-side HTML fragments and pages.
// Components live in .templ files; run `templ generate` after editing them.
package templates

// ListItem is one product line of the printable list.
type ListItem struct {
	Name     string
	Quantity int
}

// ListGroup is an aisle heading with its products.
type ListGroup struct {
	Title string
	Items []ListItem
}

// ListPageData feeds ListPage.
type ListPageData struct {
	Title        string
	User         string
	Date         string
	Groups       []ListGroup
	Observations string
}
