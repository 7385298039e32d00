package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical detail and the request ID, then
// mapped through core.MapError to a user-facing message and code. API
// requests get JSON, fragment requests (HX-Request) an HTML alert, and
// everything else plain text.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/shoplist/internal/core"
	"github.com/JonMunkholm/shoplist/internal/export"
	"github.com/JonMunkholm/shoplist/internal/logging"
	"github.com/JonMunkholm/shoplist/internal/web/templates"
)

var (
	errNoFile   = errors.New("no file provided")
	errBadInput = errors.New("invalid request body")
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the mapped message with the status that
// fits the error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, status)
	case wantsJSON(r):
		respondErrorJSON(w, userMsg, status)
	default:
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", status)
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrUnknownUser):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrUserExists), errors.Is(err, core.ErrUserLimit):
		return http.StatusConflict
	case errors.Is(err, core.ErrReservedName),
		errors.Is(err, core.ErrInvalidUser),
		errors.Is(err, core.ErrInvalidProduct),
		errors.Is(err, errNoFile),
		errors.Is(err, errBadInput),
		core.IsImportError(err):
		return http.StatusBadRequest
	case errors.Is(err, export.ErrNothingSelected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, export.ErrUnknownFormat):
		return http.StatusNotFound
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client expects a JSON error body. API
// routes always do.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
