package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/shoplist/internal/core"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// identity returns the identity resolved by the identity middleware.
func identity(r *http.Request) core.Identity {
	return core.IdentityFromContext(r.Context())
}

// urlParam returns the decoded value of a route parameter. Product and user
// names may arrive still escaped.
func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if dec, err := url.PathUnescape(v); err == nil {
		return dec
	}
	return v
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadInput, err)
	}
	return nil
}

// readUpload returns the uploaded text: the "file" part of a multipart form,
// or the raw request body otherwise.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	maxSize := s.cfg.Server.MaxUploadSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return io.ReadAll(r.Body)
	}

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errBadInput, err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	defer file.Close()
	return io.ReadAll(file)
}
