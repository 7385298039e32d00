package web

import (
	"net/http"

)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.service.Users(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, users)
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	u, err := s.service.AddUser(r.Context(), identity(r), req.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, u)
}

// handleRenameUser renames {name} to the body's name and moves their list.
func (s *Server) handleRenameUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	u, err := s.service.RenameUser(r.Context(), identity(r), urlParam(r, "name"), req.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteUser(r.Context(), identity(r), urlParam(r, "name")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
