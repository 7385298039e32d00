package web

import (
	"net/http"

	"github.com/JonMunkholm/shoplist/internal/core"
	"github.com/JonMunkholm/shoplist/internal/logging"
)

type sessionResponse struct {
	Name         string            `json:"name"`
	Anonymous    bool              `json:"anonymous"`
	Capabilities []core.Capability `json:"capabilities"`
}

func newSessionResponse(id core.Identity) sessionResponse {
	caps := id.Caps
	if caps == nil {
		caps = []core.Capability{}
	}
	return sessionResponse{Name: id.Name, Anonymous: id.IsAnonymous(), Capabilities: caps}
}

// handleSession reports the identity the request resolved to.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, newSessionResponse(identity(r)))
}

// handleLogin checks a user name. The client sends the returned name in the
// identity header from then on.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	id, err := s.service.Login(r.Context(), req.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("login", "user", id.Name)
	writeJSON(w, newSessionResponse(id))
}

// handleLogout drops the cached list of the current identity.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	if !id.IsAnonymous() {
		s.service.Close(id)
	}
	w.WriteHeader(http.StatusNoContent)
}
