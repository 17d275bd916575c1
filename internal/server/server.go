// Package server exposes one interaction session over HTTP for the map and
// presentation surfaces.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/sitescout/internal/interaction"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the HTTP layer.
type Config struct {
	// AllowedOrigins for CORS (default: "*").
	AllowedOrigins []string
	// StaticDir, if set, is served at / for a browser map surface.
	StaticDir string
}

// Server routes HTTP requests to a Machine. It holds no session state.
type Server struct {
	machine  *interaction.Machine
	cfg      Config
	validate *validator.Validate
	logger   *slog.Logger
}

// New creates a server for machine.
func New(machine *interaction.Machine, cfg Config, logger *slog.Logger) *Server {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	return &Server{
		machine:  machine,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Put("/mode", s.handleMode)
		r.Put("/layers", s.handleLayers)
		r.Post("/click", s.handleClick)

		r.Get("/points", s.handlePoints)
		r.Post("/points/{id}/select", s.handleSelect)
		r.Get("/points/{id}", s.handlePoint)
		r.Patch("/points/{id}", s.handleCategory)
		r.Delete("/points/{id}", s.handleRemove)

		r.Get("/zones", s.handleZones)
		r.Get("/heatmap", s.handleHeatmap)
		r.Get("/measurement", s.handleMeasurement)
	})

	if s.cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}

	return r
}

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log().Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
