package api

import (
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/dgallion1/docpersona/internal/config"
	"github.com/dgallion1/docpersona/internal/metrics"
	"github.com/dgallion1/docpersona/internal/pipeline"
	"github.com/dgallion1/docpersona/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// Server is the HTTP API server for docpersona.
type Server struct {
	router       chi.Router
	svc          *service.Service
	orchestrator *pipeline.Orchestrator
	metrics      *metrics.Metrics
	validate     *validator.Validate
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. orch and m may be nil,
// which disables batch ingest and /metrics respectively.
func NewServer(svc *service.Service, orch *pipeline.Orchestrator, m *metrics.Metrics, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		svc:          svc,
		orchestrator: orch,
		metrics:      m,
		validate:     newValidator(),
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
	r.Use(CORS(s.cfg.CORSOrigins))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/", s.handleRoot)
		r.Post("/upload-pdf", s.handleUploadPDF)
		r.Post("/upload", s.handleUpload)

		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{docID}", s.handleGetDocument)

		r.Post("/analyze-persona", s.handleAnalyzePersona)
		r.Get("/analyses", s.handleListAnalyses)

		r.Post("/ingest/batch", s.handleBatchIngest)
		r.Get("/ingest/{jobID}/status", s.handleIngestStatus)

		r.Get("/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "PDF Document Intelligence API"})
}

// newValidator reports field errors by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}
