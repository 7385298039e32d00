package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/JonMunkholm/shoplist/internal/core"
	"github.com/JonMunkholm/shoplist/internal/export"
)

type listResponse struct {
	User         string         `json:"user"`
	Aisles       []string       `json:"aisles"`
	Products     []core.Product `json:"products"`
	Observations string         `json:"observations"`
	Checked      int            `json:"checked"`
}

// handleGetList returns the caller's list, products in display order.
func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	sess, err := s.service.Open(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	snap := sess.Snapshot()
	aisles := sess.Aisles()
	writeJSON(w, listResponse{
		User:         id.Name,
		Aisles:       aisles,
		Products:     displayOrder(s.service.Sorter(), aisles, snap.Products),
		Observations: snap.Observations,
		Checked:      len(snap.Checked()),
	})
}

// displayOrder sorts products by aisle position, then by name.
func displayOrder(sorter *core.Sorter, aisles []string, products []core.Product) []core.Product {
	pos := make(map[string]int, len(aisles))
	for i, a := range aisles {
		pos[a] = i
	}
	out := append([]core.Product{}, products...)
	sorter.SortByName(out)
	sort.SliceStable(out, func(i, j int) bool {
		return pos[out[i].Aisle] < pos[out[j].Aisle]
	})
	return out
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.respondOutcome(w, r)(s.service.Toggle(r.Context(), identity(r), urlParam(r, "ref")))
}

// handleSetQuantity accepts {"value": 3} or {"value": "3"}. Strings are read
// the way a form field is: leading digits count, anything else is zero.
func (s *Server) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value json.RawMessage `json:"value"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	ref := urlParam(r, "ref")
	var v any
	if err := json.Unmarshal(req.Value, &v); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: quantity: %v", errBadInput, err))
		return
	}

	switch val := v.(type) {
	case float64:
		q := int(math.Max(0, math.Min(val, core.MaxQuantity)))
		s.respondOutcome(w, r)(s.service.SetQuantity(r.Context(), identity(r), ref, q))
	case string:
		s.respondOutcome(w, r)(s.service.SetQuantityString(r.Context(), identity(r), ref, val))
	case nil:
		s.respondOutcome(w, r)(s.service.SetQuantity(r.Context(), identity(r), ref, 0))
	default:
		s.respondError(w, r, fmt.Errorf("%w: quantity must be a number or a string", errBadInput))
	}
}

func (s *Server) handleSetAisle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Aisle string `json:"aisle"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOutcome(w, r)(s.service.SetAisle(r.Context(), identity(r), urlParam(r, "ref"), req.Aisle))
}

func (s *Server) handleSetObservations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Observations string `json:"observations"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOutcome(w, r)(s.service.SetObservations(r.Context(), identity(r), req.Observations))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.respondOutcome(w, r)(s.service.ClearAll(r.Context(), identity(r)))
}

// handleReset purges the saved list. ?reload=true refills it from the
// catalog.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	reload, _ := strconv.ParseBool(r.URL.Query().Get("reload"))
	s.respondOutcome(w, r)(s.service.Reset(r.Context(), identity(r), reload))
}

func (s *Server) handleShowAll(w http.ResponseWriter, r *http.Request) {
	s.respondOutcome(w, r)(s.service.ShowAll(r.Context(), identity(r)))
}

// handleImportList applies an uploaded text snapshot to the caller's list.
func (s *Server) handleImportList(w http.ResponseWriter, r *http.Request) {
	var out core.Outcome
	err := s.imports.Do(r.Context(), func() error {
		data, err := s.readUpload(w, r)
		if err != nil {
			return err
		}
		out, err = s.service.ImportText(r.Context(), identity(r), bytes.NewReader(data))
		return err
	})
	s.respondOutcome(w, r)(out, err)
}

// handleExport renders the caller's list as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	snap, err := s.service.Snapshot(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	layout := export.DefaultLayout()
	layout.ProductsPerPage = s.cfg.Export.ProductsPerPage
	now := time.Now()

	var buf bytes.Buffer
	f, err := export.Write(&buf, urlParam(r, "format"), export.Document{
		Title:    s.cfg.Export.Title,
		User:     id.Name,
		Date:     now,
		Snapshot: snap,
		Sorter:   s.service.Sorter(),
		Layout:   layout,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := export.Filename(id.Name, now, f.Extension)
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// respondOutcome returns a writer for a service (Outcome, error) pair.
func (s *Server) respondOutcome(w http.ResponseWriter, r *http.Request) func(core.Outcome, error) {
	return func(out core.Outcome, err error) {
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, out)
	}
}
