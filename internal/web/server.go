package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vbonduro/clawmap/internal/identity"
	"github.com/vbonduro/clawmap/internal/metrics"
	"github.com/vbonduro/clawmap/internal/render"
	"github.com/vbonduro/clawmap/internal/service"
	"github.com/vbonduro/clawmap/internal/store"
)

const (
	sessionCookie   = "session"
	shutdownTimeout = 10 * time.Second
)

type Server struct {
	app       *service.App
	auth      *identity.Service
	metrics   *metrics.Metrics
	templates embed.FS
	mux       *http.ServeMux
	tmplFuncs template.FuncMap
	logger    *slog.Logger
}

func NewServer(app *service.App, auth *identity.Service, m *metrics.Metrics, tmpl embed.FS, logger *slog.Logger) *Server {
	funcs := render.Funcs()
	funcs["categories"] = categoryOptions
	funcs["listingTypes"] = listingTypeOptions

	s := &Server{
		app:       app,
		auth:      auth,
		metrics:   m,
		templates: tmpl,
		mux:       http.NewServeMux(),
		logger:    logger,
		tmplFuncs: funcs,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/map", http.StatusSeeOther)
	})

	s.mux.HandleFunc("GET /map", s.handleMap)
	s.mux.HandleFunc("POST /map/click", s.handleMapClick)
	s.mux.HandleFunc("GET /api/markers", s.handleMarkers)
	s.mux.HandleFunc("GET /geocode", s.handleGeocode)
	s.mux.HandleFunc("GET /spots/{id}", s.handleSpotDetail)
	s.mux.HandleFunc("POST /spots", s.handleCreateSpot)
	s.mux.HandleFunc("POST /spots/{id}", s.handleUpdateSpot)
	s.mux.HandleFunc("DELETE /spots/{id}", s.handleDeleteSpot)

	s.mux.HandleFunc("GET /calendar", s.handleCalendar)

	s.mux.HandleFunc("GET /help", s.handleListHelp)
	s.mux.HandleFunc("POST /help", s.handleCreateHelp)
	s.mux.HandleFunc("POST /help/{id}", s.handleUpdateHelp)
	s.mux.HandleFunc("DELETE /help/{id}", s.handleDeleteHelp)

	s.mux.HandleFunc("GET /creations", s.handleListCreations)
	s.mux.HandleFunc("POST /creations", s.handleCreateCreation)
	s.mux.HandleFunc("POST /creations/{id}", s.handleUpdateCreation)
	s.mux.HandleFunc("DELETE /creations/{id}", s.handleDeleteCreation)

	s.mux.HandleFunc("GET /auth/session", s.handleSession)
	s.mux.HandleFunc("POST /auth/anonymous", s.handleSignInAnonymously)
	s.mux.HandleFunc("POST /auth/signup", s.handleSignUp)
	s.mux.HandleFunc("POST /auth/signin", s.handleSignIn)
	s.mux.HandleFunc("POST /auth/upgrade", s.handleUpgrade)
	s.mux.HandleFunc("POST /auth/signout", s.handleSignOut)

	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline' https://unpkg.com https://maps.googleapis.com; "+
				"style-src 'self' 'unsafe-inline' https://unpkg.com https://fonts.googleapis.com; "+
				"font-src https://fonts.gstatic.com; "+
				"img-src 'self' data: https:; "+
				"connect-src 'self' https://maps.googleapis.com")
		next.ServeHTTP(w, r)
	})
}

// authenticate resolves the session cookie or bearer token into the request
// context. Missing or invalid tokens leave the viewer signed out.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		viewer, err := s.auth.Authenticate(token)
		if err != nil {
			s.logger.Debug("ignoring session token", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		ctx := identity.WithViewer(r.Context(), viewer)
		ctx = store.WithAccessToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		// The mux records the matched pattern on r; unmatched paths share one
		// label so arbitrary URLs cannot grow the metric.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(r.Method, route, rec.status, elapsed)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.authenticate(requestLogger(s.logger, s.metrics, securityHeaders(s.mux))).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// renderPage parses and executes a full-page template set.
func (s *Server) renderPage(w http.ResponseWriter, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.ExecuteTemplate(w, "base", data)
}

// renderPartial executes the named {{define}} block from file.
func (s *Server) renderPartial(w http.ResponseWriter, file, name string, data any) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, file)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.ExecuteTemplate(w, name, data)
}

// isHTMX reports whether r wants a fragment. Boosted navigation swaps the
// whole body, so it gets the full page.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-Boosted") != "true"
}
