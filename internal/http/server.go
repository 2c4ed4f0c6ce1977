// Package http serves the work-log UI: login, entry form, monthly records
// view and the JSON lookups the form uses.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/sessions"

	"worklog/internal/catalog"
	"worklog/internal/services"
	appweb "worklog/web"
)

// Catalogs is the slice of the reference cache the handlers need.
type Catalogs interface {
	Persons(ctx context.Context) catalog.PersonDirectory
	WorkCodes(ctx context.Context) catalog.WorkCodeIndex
	Processes(ctx context.Context) catalog.PriceList
}

// Authenticator verifies a person's PIN against the reference data.
type Authenticator interface {
	Login(ctx context.Context, personID int, pin string) (catalog.Person, error)
}

type Server struct {
	http.Server
	templates *template.Template
	sessions  *sessions.CookieStore

	catalogs Catalogs
	auth     Authenticator
	months   *services.MonthViewService
	records  *services.RecordService

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr, sessionSecret string, catalogs Catalogs, auth Authenticator, months *services.MonthViewService, records *services.RecordService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		sessions:    newSessionStore(sessionSecret),
		catalogs:    catalogs,
		auth:        auth,
		months:      months,
		records:     records,
		rateLimiter: newRateLimiter(),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /auth/login", s.withSecurityHeaders(s.handleLoginPage))
	mux.HandleFunc("POST /auth/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("POST /auth/logout", s.withSecurityHeaders(s.handleLogout))

	mux.HandleFunc("GET /{$}", s.withSecurityHeaders(s.requireLogin(s.handleEntryForm)))
	mux.HandleFunc("POST /{$}", s.withSecurityHeaders(s.requireLogin(s.handleCreateRecord)))

	mux.HandleFunc("GET /records", s.withSecurityHeaders(s.requireLogin(s.handleRecords)))
	mux.HandleFunc("GET /records/{year}/{month}", s.withSecurityHeaders(s.requireLogin(s.handleRecords)))
	mux.HandleFunc("GET /edit_record/{id}", s.withSecurityHeaders(s.requireLogin(s.handleEditForm)))
	mux.HandleFunc("POST /edit_record/{id}", s.withSecurityHeaders(s.requireLogin(s.handleEditRecord)))
	mux.HandleFunc("POST /delete_record/{id}", s.withSecurityHeaders(s.requireLogin(s.handleDeleteRecord)))

	mux.HandleFunc("GET /api/get_worknames", s.withSecurityHeaders(s.requireLogin(s.handleWorkNames)))
	mux.HandleFunc("GET /api/get_unitprice", s.withSecurityHeaders(s.requireLogin(s.handleUnitPrice)))

	return s
}

// Shutdown stops the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
