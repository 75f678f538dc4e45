package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lakeload/internal/ddl"
	"lakeload/internal/domain"
)

var (
	_ domain.TableWriter    = (*Lakehouse)(nil)
	_ domain.TableInspector = (*Lakehouse)(nil)
)

// Lakehouse writes and inspects silver tables in one catalog schema.
type Lakehouse struct {
	db      *sql.DB
	catalog string
	schema  string
	logger  *slog.Logger
}

// NewLakehouse creates a Lakehouse over an already prepared DuckDB handle.
func NewLakehouse(db *sql.DB, catalog, schema string, logger *slog.Logger) *Lakehouse {
	return &Lakehouse{db: db, catalog: catalog, schema: schema, logger: logger}
}

// ReplaceTable loads the CSV at sourceURI with the dataset's declared schema and
// replaces the target table's data and schema in one statement. Each call
// commits a new table version.
func (l *Lakehouse) ReplaceTable(ctx context.Context, ds domain.Dataset, sourceURI string) (*domain.TableResult, error) {
	cols := make([]ddl.ColumnDef, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		engineType := c.Type.EngineType()
		if engineType == "" {
			return nil, domain.ErrValidation("dataset %q column %q: unsupported type %q", ds.Name, c.Name, c.Type)
		}
		cols = append(cols, ddl.ColumnDef{Name: c.Name, Type: engineType})
	}

	var opts ddl.CSVOptions
	if ds.InferDates && ds.DateFormat != "" {
		format, err := ddl.StrftimePattern(ds.DateFormat)
		if err != nil {
			return nil, domain.ErrValidation("dataset %q date format: %v", ds.Name, err)
		}
		opts.DateFormat = format
	}

	stmt, err := ddl.ReplaceTableFromCSV(l.catalog, l.schema, ds.Table, sourceURI, cols, opts)
	if err != nil {
		return nil, domain.ErrValidation("dataset %q: %v", ds.Name, err)
	}

	start := time.Now()
	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return nil, classifyDuckDBError(ds.Table, err)
	}

	info, err := l.DescribeTable(ctx, ds.Table)
	if err != nil {
		return nil, fmt.Errorf("read back %s: %w", ds.Table, err)
	}

	l.logger.Info("table replaced",
		"dataset", ds.Name,
		"table", ds.Table,
		"rows", info.Rows,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &domain.TableResult{
		Dataset: ds.Name,
		Table:   ds.Table,
		Rows:    info.Rows,
		Columns: info.Columns,
	}, nil
}

// DescribeTable returns the columns and row count of a silver table.
func (l *Lakehouse) DescribeTable(ctx context.Context, table string) (*domain.TableInfo, error) {
	describeSQL, err := ddl.DescribeTable(l.catalog, l.schema, table)
	if err != nil {
		return nil, domain.ErrValidation("%v", err)
	}

	rows, err := l.db.QueryContext(ctx, describeSQL)
	if err != nil {
		return nil, classifyDuckDBError(table, err)
	}
	defer rows.Close() //nolint:errcheck

	colNames, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var columns []domain.ColumnInfo
	for rows.Next() {
		// DESCRIBE returns column_name, column_type, null, key, default, extra.
		vals := make([]sql.NullString, len(colNames))
		ptrs := make([]any, len(colNames))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan describe row: %w", err)
		}
		columns = append(columns, domain.ColumnInfo{Name: vals[0].String, Type: vals[1].String})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	n, err := l.CountRows(ctx, table)
	if err != nil {
		return nil, err
	}
	return &domain.TableInfo{Table: table, Rows: n, Columns: columns}, nil
}

// CountRows returns the number of rows in a silver table.
func (l *Lakehouse) CountRows(ctx context.Context, table string) (int64, error) {
	countSQL, err := ddl.CountRows(l.catalog, l.schema, table)
	if err != nil {
		return 0, domain.ErrValidation("%v", err)
	}
	var n int64
	if err := l.db.QueryRowContext(ctx, countSQL).Scan(&n); err != nil {
		return 0, classifyDuckDBError(table, err)
	}
	return n, nil
}

// ListSnapshots returns the catalog's version history, oldest first.
func (l *Lakehouse) ListSnapshots(ctx context.Context) ([]domain.Snapshot, error) {
	q, err := ddl.ListSnapshots(l.catalog)
	if err != nil {
		return nil, domain.ErrValidation("%v", err)
	}

	rows, err := l.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Snapshot
	for rows.Next() {
		var (
			s       domain.Snapshot
			changes sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Time, &s.SchemaVer, &changes); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.Changes = changes.String
		out = append(out, s)
	}
	return out, rows.Err()
}

// classifyDuckDBError maps DuckDB load errors into domain errors.
func classifyDuckDBError(table string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "No files found"),
		strings.Contains(msg, "does not exist"):
		return domain.ErrNotFound("%s: %s", table, msg)
	case strings.Contains(msg, "Conversion Error"),
		strings.Contains(msg, "Could not convert"),
		strings.Contains(msg, "CSV Error"),
		strings.Contains(msg, "Invalid Input Error"):
		return domain.ErrValidation("%s: %s", table, msg)
	default:
		return fmt.Errorf("%s: %w", table, err)
	}
}
