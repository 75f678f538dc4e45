// Package silver loads raw files into schema-validated, versioned tables.
package silver

import (
	"context"
	"fmt"
	"log/slog"

	"lakeload/internal/domain"
)

// Transformer writes one silver table per dataset from its raw file.
type Transformer struct {
	store  domain.RawStore
	writer domain.TableWriter
	logger *slog.Logger
}

// NewTransformer creates a Transformer reading raw files located by store.
func NewTransformer(store domain.RawStore, writer domain.TableWriter, logger *slog.Logger) *Transformer {
	return &Transformer{
		store:  store,
		writer: writer,
		logger: logger.With("component", "silver"),
	}
}

// Transform replaces the table of one dataset with its raw file's contents.
// Each call is atomic; a failure leaves the previous table version in place.
func (t *Transformer) Transform(ctx context.Context, ds domain.Dataset) (*domain.TableResult, error) {
	src := t.store.URI(ds.SourceFile)
	res, err := t.writer.ReplaceTable(ctx, ds, src)
	if err != nil {
		t.logger.Error("transformation failed", "dataset", ds.Name, "table", ds.Table, "error", err)
		return nil, fmt.Errorf("load %s into %s: %w", ds.SourceFile, ds.Table, err)
	}
	return res, nil
}
