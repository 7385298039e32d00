// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/shoplist/internal/logging"
)

// Logger logs one structured entry per request. It runs inside chi's
// RequestID middleware so every entry carries the request ID.
//
// Log fields:
//   - method, path, route: the request and the matched route pattern
//   - status, bytes: what was written back
//   - duration_ms: time spent in the handler chain
//   - ip: client address after TrustedRealIP
//   - user: the identity header, empty for anonymous requests
//
// 5xx responses are logged at error level and 4xx at warn.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := wrap(w)

		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		switch {
		case ww.status >= 500:
			level = slog.LevelError
		case ww.status >= 400:
			level = slog.LevelWarn
		}

		logging.FromContext(r.Context()).Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", routePattern(r),
			"status", ww.status,
			"bytes", ww.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
			"user", r.Header.Get(UserHeader),
		)
	})
}

// RequestObserver records request metrics.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Metrics reports every request to obs, labelled by route pattern.
func Metrics(obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := wrap(w)

			next.ServeHTTP(ww, r)

			obs.ObserveRequest(r.Method, routePattern(r), ww.status, time.Since(start))
		})
	}
}

// routePattern returns the chi pattern that matched r, once routing is done.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture the status code and
// the number of bytes written.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func wrap(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
