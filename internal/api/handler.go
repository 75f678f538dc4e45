// Package api serves the lakeload HTTP API: run triggering, run history and
// table inspection.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"lakeload/internal/domain"
	"lakeload/internal/middleware"
)

// Runner starts pipeline runs.
type Runner interface {
	Run(ctx context.Context, req domain.RunRequest) (*domain.Run, error)
	Datasets() []domain.Dataset
}

// RunReader reads run history.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*domain.Run, error)
	ListRuns(ctx context.Context, filter domain.RunFilter) ([]domain.Run, int64, error)
}

// Handler implements the API endpoints.
type Handler struct {
	runner Runner
	runs   RunReader
	tables domain.TableInspector
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(runner Runner, runs RunReader, tables domain.TableInspector, logger *slog.Logger) *Handler {
	return &Handler{
		runner: runner,
		runs:   runs,
		tables: tables,
		logger: logger.With("component", "api"),
	}
}

// RouterOptions configures cross-cutting HTTP behaviour.
type RouterOptions struct {
	CORSAllowedOrigins []string
	// RequestTimeout bounds read endpoints. Run triggering is synchronous and
	// not bounded.
	RequestTimeout time.Duration
}

// NewRouter builds the chi router with middleware and all routes.
func NewRouter(h *Handler, opts RouterOptions, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/runs", h.CreateRun)

		r.Group(func(r chi.Router) {
			if opts.RequestTimeout > 0 {
				r.Use(chimw.Timeout(opts.RequestTimeout))
			}
			r.Get("/datasets", h.ListDatasets)
			r.Get("/runs", h.ListRuns)
			r.Get("/runs/{runID}", h.GetRun)
			r.Get("/tables/{name}", h.DescribeTable)
			r.Get("/snapshots", h.ListSnapshots)
		})
	})
	return r
}
