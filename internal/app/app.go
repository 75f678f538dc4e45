// Package app wires configuration, storage, engine and run history into a
// ready-to-use pipeline for the CLI and the HTTP server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver

	"lakeload/internal/api"
	"lakeload/internal/bronze"
	"lakeload/internal/config"
	internaldb "lakeload/internal/db"
	"lakeload/internal/db/repository"
	"lakeload/internal/domain"
	"lakeload/internal/engine"
	"lakeload/internal/pipeline"
	"lakeload/internal/silver"
	"lakeload/internal/storage"
)

// App holds the wired components. Close releases every handle.
type App struct {
	Cfg       *config.Config
	Datasets  []domain.Dataset
	Store     domain.RawStore
	Lakehouse *engine.Lakehouse
	Runs      *repository.RunRepo
	Runner    *pipeline.Runner
	Logger    *slog.Logger

	duckDB  *sql.DB
	writeDB *sql.DB
	readDB  *sql.DB
}

// New opens the run history, raw storage and the DuckDB engine and wires the
// pipeline over datasets.
func New(ctx context.Context, cfg *config.Config, datasets []domain.Dataset, logger *slog.Logger) (a *App, err error) {
	a = &App{Cfg: cfg, Datasets: datasets, Logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	// === Run history (write/read split) ===
	a.writeDB, a.readDB, err = internaldb.OpenSQLitePair(cfg.RunsDBPath, 0)
	if err != nil {
		return a, fmt.Errorf("open run history: %w", err)
	}
	if err = internaldb.RunMigrations(ctx, a.writeDB); err != nil {
		return a, fmt.Errorf("migrate run history: %w", err)
	}
	a.Runs = repository.NewRunRepo(a.writeDB, a.readDB)

	// === Raw storage ===
	a.Store, err = storage.NewRawStore(ctx, cfg)
	if err != nil {
		return a, fmt.Errorf("open raw storage: %w", err)
	}

	// === Engine ===
	a.duckDB, err = sql.Open("duckdb", "")
	if err != nil {
		return a, fmt.Errorf("open duckdb: %w", err)
	}
	if err = engine.Setup(ctx, a.duckDB, cfg, logger.With("component", "engine")); err != nil {
		return a, fmt.Errorf("engine setup: %w", err)
	}
	a.Lakehouse = engine.NewLakehouse(a.duckDB, cfg.LakeCatalog, cfg.SilverSchema, logger.With("component", "engine"))

	// === Stages ===
	fetcher := bronze.NewHTTPFetcher(cfg.HTTPTimeout, cfg.DownloadRPS)
	ingestor := bronze.NewIngestor(fetcher, a.Store, cfg.SourceBaseURL, cfg.DownloadConcurrency, logger)
	transformer := silver.NewTransformer(a.Store, a.Lakehouse, logger)
	a.Runner = pipeline.NewRunner(ingestor, transformer, a.Runs, datasets, logger)

	return a, nil
}

// Handler returns the HTTP API over the wired pipeline.
func (a *App) Handler() http.Handler {
	h := api.NewHandler(a.Runner, a.Runs, a.Lakehouse, a.Logger)
	return api.NewRouter(h, api.RouterOptions{
		CORSAllowedOrigins: a.Cfg.CORSAllowedOrigins,
		RequestTimeout:     a.Cfg.HTTPTimeout,
	}, a.Logger)
}

// Close releases the engine, storage and run history handles.
func (a *App) Close() error {
	var errs []error
	if c, ok := a.Store.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	for _, db := range []*sql.DB{a.duckDB, a.readDB, a.writeDB} {
		if db != nil {
			errs = append(errs, db.Close())
		}
	}
	return errors.Join(errs...)
}
