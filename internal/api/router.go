// Package api serves region pages over HTTP: page creation, filter changes,
// and the derived datasets the presentation layer renders.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/rentrisk/internal/page"
	"github.com/sells-group/rentrisk/internal/region"
)

// Options configures the router.
type Options struct {
	CORSOrigins    []string
	RateLimitQPS   float64 // zero disables rate limiting
	RateLimitBurst int
	MetricsPath    string
	Metrics        http.Handler // nil disables the metrics route
	// OnRequest is called after every request with the matched route
	// pattern and the response status.
	OnRequest func(route string, status int, elapsed time.Duration)
	// OnRateLimited is called for every request the limiter rejects.
	OnRateLimited func()
}

// Server holds the handlers' dependencies.
type Server struct {
	catalog *region.Catalog
	pages   *page.Registry
}

// NewRouter builds the HTTP handler for the explorer API.
func NewRouter(catalog *region.Catalog, pages *page.Registry, opts Options) http.Handler {
	s := &Server{catalog: catalog, pages: pages}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.OnRequest))
	r.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}
	if opts.RateLimitQPS > 0 {
		r.Use(RateLimit(opts.RateLimitQPS, opts.RateLimitBurst, opts.OnRateLimited))
	}

	r.Get("/health", s.health)
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, opts.Metrics)
	}

	r.Route("/regions", func(r chi.Router) {
		r.Get("/", s.listRegions)
		r.Route("/{region}", func(r chi.Router) {
			r.Get("/controls", s.controls)
			r.Get("/summary", s.summary)
			r.Post("/pages", s.createPage)
		})
	})
	r.Route("/pages/{id}", func(r chi.Router) {
		r.Get("/", s.getPage)
		r.Delete("/", s.deletePage)
		r.Patch("/filters", s.updateFilters)
		r.Get("/choropleth", s.choropleth)
	})

	return r
}
