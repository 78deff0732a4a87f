// Package server exposes the landing page, the address search proxy, lead
// submission and the score stream over HTTP.
package server

import (
	"context"
	"encoding/json"
	"io/fs"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/listing-signal/signal-web/internal/address"
	"github.com/listing-signal/signal-web/internal/flow"
	"github.com/listing-signal/signal-web/internal/lead"
	"github.com/listing-signal/signal-web/internal/signal"
	"github.com/listing-signal/signal-web/internal/site"
)

// AddressLookup resolves free-text address queries.
type AddressLookup interface {
	Search(ctx context.Context, query string) ([]address.Suggestion, error)
}

// Relay delivers lead payloads to the Listing Signal API.
type Relay interface {
	Configured() bool
	Submit(ctx context.Context, p lead.Payload) error
}

// Deps are the collaborators a Server routes to.
type Deps struct {
	Site        *site.Site
	Static      fs.FS
	Lookup      AddressLookup
	Relay       Relay
	Flows       *flow.Registry
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	Rand        signal.Intner
	Tick        time.Duration
}

// Server holds the HTTP handlers.
type Server struct {
	deps Deps
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// New creates a Server. Missing optional collaborators get defaults.
func New(deps Deps) *Server {
	if deps.Flows == nil {
		deps.Flows = flow.NewRegistry()
	}
	if deps.Static == nil {
		deps.Static = site.Static()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Rand == nil {
		deps.Rand = globalRand{}
	}
	if deps.Tick <= 0 {
		deps.Tick = signal.TickInterval
	}
	return &Server{deps: deps}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.corsHandler())
	r.Use(requestLogger)

	r.Get("/", s.handleIndex)
	r.Get("/robots.txt", s.handleRobots)
	r.Get("/sitemap.xml", s.handleSitemap)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(s.deps.Static))))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/address-search", s.handleAddressSearch)
		r.Post("/address/select", s.handleAddressSelect)
		r.Get("/signal/stream", s.handleSignalStream)

		r.Post("/leads", s.handleCreateLead)
		r.Route("/leads/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetLead)
			r.Post("/sms", s.handleSMS)
			r.Post("/skip", s.handleSkip)
			r.Post("/finish", s.handleFinish)
		})
	})
	return r
}

func (s *Server) corsHandler() func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: s.deps.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return cors.Handler(opts)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Site == nil {
		http.Error(w, "site not configured", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.deps.Site.Render(w); err != nil {
		zap.L().Error("server: render page", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	if s.deps.Site == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.deps.Site.Robots()))
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	if s.deps.Site == nil {
		http.NotFound(w, r)
		return
	}
	body, err := s.deps.Site.Sitemap()
	if err != nil {
		zap.L().Error("server: sitemap", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(body)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"status": "ok"}
	if src, ok := s.deps.Lookup.(interface{ Sources() []string }); ok {
		resp["sources"] = src.Sources()
	}
	resp["leadRelay"] = s.deps.Relay != nil && s.deps.Relay.Configured()
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
