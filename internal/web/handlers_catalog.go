package web

import (
	"bytes"
	"net/http"

	"github.com/JonMunkholm/shoplist/internal/core"
)

type catalogResponse struct {
	Products []core.Product `json:"products"`
	Aisles   []string       `json:"aisles"`
}

type productRequest struct {
	Name  string `json:"name"`
	Aisle string `json:"aisle"`
}

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	products := s.service.Catalog()
	if products == nil {
		products = core.Catalog{}
	}
	writeJSON(w, catalogResponse{Products: products, Aisles: s.service.Aisles()})
}

// handleImportCatalog replaces the master catalog with an uploaded file. A
// rejected file leaves the current catalog in place.
func (s *Server) handleImportCatalog(w http.ResponseWriter, r *http.Request) {
	var summary core.CatalogSummary
	err := s.imports.Do(r.Context(), func() error {
		data, err := s.readUpload(w, r)
		if err != nil {
			return err
		}
		summary, err = s.service.ImportCatalog(r.Context(), identity(r), bytes.NewReader(data))
		return err
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// handleExportCatalog downloads the master catalog in the import format.
func (s *Server) handleExportCatalog(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.service.ExportCatalog(&buf); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="catalogo.csv"`)
	w.Write(buf.Bytes())
}

func (s *Server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	out, err := s.service.AddProduct(r.Context(), identity(r), req.Name, req.Aisle)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, out)
}

func (s *Server) handleEditProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondOutcome(w, r)(s.service.EditProduct(r.Context(), identity(r), urlParam(r, "ref"), req.Name, req.Aisle))
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	s.respondOutcome(w, r)(s.service.DeleteProduct(r.Context(), identity(r), urlParam(r, "ref")))
}
