// Package web serves the shopping list over HTTP: a JSON API, a printable
// list page and the static front end.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/JonMunkholm/shoplist/internal/config"
	"github.com/JonMunkholm/shoplist/internal/core"
	"github.com/JonMunkholm/shoplist/internal/metrics"
	mw "github.com/JonMunkholm/shoplist/internal/web/middleware"
)

var errRateLimited = errors.New("rate limit exceeded")

// Server is the HTTP server for the shopping list.
type Server struct {
	service *core.Service
	cfg     *config.Config
	metrics *metrics.Metrics
	assets  *Assets
	imports *core.ImportLimiter
	limiter *rateLimiter
	router  *chi.Mux
	server  *http.Server
}

// NewServer wires the router. m may be nil, in which case /metrics is not
// served.
func NewServer(service *core.Service, cfg *config.Config, m *metrics.Metrics) (*Server, error) {
	assets, err := NewAssets(cfg.Static.Dir)
	if err != nil {
		return nil, err
	}

	s := &Server{
		service: service,
		cfg:     cfg,
		metrics: m,
		assets:  assets,
		imports: core.NewImportLimiter(core.DefaultMaxConcurrentImports, core.DefaultImportWait),
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	if s.metrics != nil {
		s.router.Use(mw.Metrics(s.metrics))
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if len(s.cfg.Security.AllowedOrigins) > 0 {
		s.router.Use(cors.New(cors.Options{
			AllowedOrigins:   s.cfg.Security.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", mw.UserHeader, middleware.RequestIDHeader},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}).Handler)
	}

	if s.cfg.Rate.Enabled {
		s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.limiter.middleware(s.respondError))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	// Everything below knows who is asking.
	s.router.Group(func(r chi.Router) {
		r.Use(mw.Identity(s.service, s.respondError))

		r.Get("/list/{user}", s.handleListPage)

		r.Route("/api", func(r chi.Router) {
			r.Get("/session", s.handleSession)
			r.Post("/session", s.handleLogin)
			r.Delete("/session", s.handleLogout)

			r.Route("/list", func(r chi.Router) {
				r.Get("/", s.handleGetList)
				r.Post("/items/{ref}/toggle", s.handleToggle)
				r.Put("/items/{ref}/quantity", s.handleSetQuantity)
				r.Put("/items/{ref}/aisle", s.handleSetAisle)
				r.Put("/observations", s.handleSetObservations)
				r.Post("/clear", s.handleClear)
				r.Post("/reset", s.handleReset)
				r.Post("/show-all", s.handleShowAll)
				r.Post("/import", s.handleImportList)
				r.Get("/export/{format}", s.handleExport)
			})

			r.Route("/catalog", func(r chi.Router) {
				r.With(mw.RequireCapability(core.CapImportCatalog, s.respondError)).
					Post("/import", s.handleImportCatalog)

				r.Group(func(r chi.Router) {
					r.Use(mw.RequireCapability(core.CapEditMaster, s.respondError))
					r.Get("/", s.handleGetCatalog)
					r.Get("/export", s.handleExportCatalog)
					r.Post("/products", s.handleAddProduct)
					r.Put("/products/{ref}", s.handleEditProduct)
					r.Delete("/products/{ref}", s.handleDeleteProduct)
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(mw.RequireCapability(core.CapManageUsers, s.respondError))
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleAddUser)
				r.Put("/{name}", s.handleRenameUser)
				r.Delete("/{name}", s.handleDeleteUser)
			})
		})
	})

	// Front end files.
	s.router.Handle("/*", s.assets)
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, lets running imports finish and stops
// the rate limiter's sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	if drainErr := s.imports.WaitForDrain(ctx); drainErr != nil {
		slog.Warn("imports still running at shutdown", "active", s.imports.ActiveCount())
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: blob:")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON. Encoding errors are only logged since
// the header is already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
