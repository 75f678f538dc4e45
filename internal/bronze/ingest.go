package bronze

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"lakeload/internal/domain"
)

// DefaultConcurrency is the number of parallel downloads when none is set.
const DefaultConcurrency = 4

// DoneFunc is called once per dataset when its copy finishes, successfully
// or not. It may be called from several goroutines at once.
type DoneFunc func(ds domain.Dataset, res *domain.IngestResult, err error)

// Ingestor copies each dataset's source file from a base URL into raw storage.
type Ingestor struct {
	fetcher     domain.Fetcher
	store       domain.RawStore
	baseURL     string
	concurrency int
	logger      *slog.Logger
}

// NewIngestor creates an Ingestor. concurrency <= 0 uses DefaultConcurrency.
func NewIngestor(fetcher domain.Fetcher, store domain.RawStore, baseURL string, concurrency int, logger *slog.Logger) *Ingestor {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Ingestor{
		fetcher:     fetcher,
		store:       store,
		baseURL:     baseURL,
		concurrency: concurrency,
		logger:      logger.With("component", "bronze"),
	}
}

// SourceURL returns the remote location of a source file.
func (i *Ingestor) SourceURL(file string) string {
	return strings.TrimRight(i.baseURL, "/") + "/" + file
}

// Ingest downloads one dataset's source file and overwrites its raw copy.
func (i *Ingestor) Ingest(ctx context.Context, ds domain.Dataset) (*domain.IngestResult, error) {
	src := i.SourceURL(ds.SourceFile)
	start := time.Now()

	body, err := i.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ds.SourceFile, err)
	}

	content, err := Normalize(body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ds.SourceFile, err)
	}

	if err := i.store.Put(ctx, ds.SourceFile, content); err != nil {
		return nil, fmt.Errorf("store %s: %w", ds.SourceFile, err)
	}

	res := &domain.IngestResult{
		Dataset:   ds.Name,
		SourceURL: src,
		Target:    i.store.URI(ds.SourceFile),
		Bytes:     int64(len(content)),
		Checksum:  Checksum(content),
	}
	i.logger.Info("raw file written",
		"dataset", ds.Name,
		"target", res.Target,
		"bytes", res.Bytes,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// IngestAll copies every dataset concurrently. The first failure cancels the
// remaining downloads and is returned. Results are in dataset order; entries
// for datasets that did not complete are nil. onDone may be nil.
func (i *Ingestor) IngestAll(ctx context.Context, datasets []domain.Dataset, onDone DoneFunc) ([]*domain.IngestResult, error) {
	results := make([]*domain.IngestResult, len(datasets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for idx, ds := range datasets {
		g.Go(func() error {
			res, err := i.Ingest(gctx, ds)
			if onDone != nil {
				onDone(ds, res, err)
			}
			if err != nil {
				i.logger.Error("ingestion failed", "dataset", ds.Name, "error", err)
				return err
			}
			results[idx] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
