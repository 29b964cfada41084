package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/tocsplit/internal/config"
	"github.com/dgallion1/tocsplit/internal/pipeline"
	"github.com/dgallion1/tocsplit/internal/render"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP front end for tocsplit.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	html         *render.HTMLRenderer
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, html *render.HTMLRenderer, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		html:         html,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)

	r.Group(func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}
		r.Post("/upload", s.handleUpload)
		r.Post("/api/convert", s.handleConvert)
		r.Post("/api/preview", s.handlePreview)
	})

	r.Post("/api/jobs", s.handleSubmitJob)
	r.Get("/api/jobs/{jobID}", s.handleJobStatus)
	r.Get("/api/jobs/{jobID}/result", s.handleJobResult)
	r.Get("/api/stats", s.handleStats)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
