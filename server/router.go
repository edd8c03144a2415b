package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/blogem/devlog-collector/controllers"
	appmiddleware "github.com/blogem/devlog-collector/middleware"
	"github.com/blogem/devlog-collector/repositories"
)

// RouterOptions configures the optional parts of the router
type RouterOptions struct {
	// Quiet disables the per-request access log
	Quiet bool

	// Audit records mutating requests when set
	Audit repositories.AuditRepository
}

// NewRouter configures all routes
func NewRouter(ctrl *controllers.Controllers, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	if !opts.Quiet {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	if opts.Audit != nil {
		r.Use(appmiddleware.AuditLogger(opts.Audit))
	}

	// Unknown paths and unsupported methods are both plain 404s
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.With(appmiddleware.DecompressBody).Post("/log", ctrl.Logs.Ingest)
	r.Get("/", ctrl.Dashboard.Index)
	r.Get("/logs", ctrl.Logs.Export)
	r.Get("/clear", ctrl.Logs.Clear)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status": "healthy", "service": "devlog-collector"}`)
	})

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Endpoint not found", http.StatusNotFound)
}
