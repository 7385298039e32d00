package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/shoplist/internal/core"
	"github.com/JonMunkholm/shoplist/internal/export"
	"github.com/JonMunkholm/shoplist/internal/web/templates"
)

// handleListPage renders the printable checklist of {user}. Links to this
// page are shared, so it is addressed by name rather than by header.
func (s *Server) handleListPage(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "user")

	id := core.Anonymous()
	if !strings.EqualFold(name, core.AnonymousName) {
		var err error
		if id, err = s.service.Login(r.Context(), name); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	snap, err := s.service.Snapshot(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	doc := export.Document{Snapshot: snap, Sorter: s.service.Sorter()}
	var groups []templates.ListGroup
	for _, g := range doc.Groups() {
		lg := templates.ListGroup{Title: core.AisleTitle(g.Aisle)}
		for _, p := range g.Products {
			lg.Items = append(lg.Items, templates.ListItem{Name: p.Name, Quantity: p.Quantity})
		}
		groups = append(groups, lg)
	}

	title := s.cfg.Export.Title
	if title == "" {
		title = export.DefaultTitle
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = templates.ListPage(templates.ListPageData{
		Title:        title,
		User:         id.Name,
		Date:         time.Now().Format("02/01/2006"),
		Groups:       groups,
		Observations: snap.Observations,
	}).Render(r.Context(), w)
	if err != nil {
		s.respondError(w, r, err)
	}
}
