package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/regdoc-analyzer/internal/application"
	"github.com/bryanwahyu/regdoc-analyzer/internal/application/documents"
	"github.com/bryanwahyu/regdoc-analyzer/internal/domain/apperr"
	"github.com/bryanwahyu/regdoc-analyzer/internal/middleware"
)

// Service identity reported by / and /health.
var Info = middleware.ServiceInfo{
	Name:    "Regulatory Document Analyzer",
	Version: "1.0.0",
}

var availableEndpoints = []string{"/analyze", "/batch-analyze", "/health", "/test"}

// Options tunes the HTTP surface around the document service.
type Options struct {
	Logger         *slog.Logger
	Clock          application.Clock
	AllowedOrigins []string
	MaxBodyBytes   int64
	Metrics        *middleware.Metrics
}

type Router struct {
	docs   *documents.Service
	clock  application.Clock
	logger *slog.Logger
}

func NewRouter(docs *documents.Service, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = application.SystemClock{}
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := &Router{docs: docs, clock: opts.Clock, logger: opts.Logger}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.Logging(opts.Logger))
	if opts.Metrics != nil {
		mux.Use(opts.Metrics.Track)
	}
	mux.Use(middleware.Recover(opts.Logger))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	mux.Use(middleware.MaxBodySize(opts.MaxBodyBytes))

	mux.Get("/", r.handleHome)
	mux.Get("/health", middleware.HealthHandler(Info, opts.Clock.Now))
	mux.Post("/analyze", r.wrap(r.handleAnalyze))
	mux.Post("/batch-analyze", r.wrap(r.handleBatchAnalyze))
	mux.Get("/test", r.wrap(r.handleTest))
	mux.Post("/test", r.wrap(r.handleTest))

	mux.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success":             false,
			"error":               "Endpoint not found",
			"available_endpoints": availableEndpoints,
		})
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		kind := apperr.KindOf(err)
		status := apperr.HTTPStatus(kind)
		msg := err.Error()
		if status >= http.StatusInternalServerError {
			msg = "Internal server error: " + msg
		}

		r.logger.Log(req.Context(), levelFor(status), "http.error",
			"req_id", chimw.GetReqID(req.Context()),
			"path", req.URL.Path,
			"kind", kind,
			"status", status,
			"error", err,
		)
		writeJSON(w, status, errorBody{Error: msg})
	}
}

func levelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelWarn
}

func (r *Router) now() string {
	return r.clock.Now().Format(time.RFC3339Nano)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
