// Package engine runs the silver stage on an embedded DuckDB database with a
// DuckLake catalog as the versioned table format.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"lakeload/internal/config"
	"lakeload/internal/ddl"
)

// Extensions returns the DuckDB extensions needed for a configuration:
// ducklake and sqlite for the catalog, httpfs for s3/gs, azure for az.
func Extensions(cfg *config.Config) []string {
	exts := []string{"ducklake", "sqlite"}
	schemes := map[string]bool{cfg.BronzeScheme(): true, uriScheme(cfg.LakeDataPath): true}
	if schemes["s3"] || schemes["gs"] {
		exts = append(exts, "httpfs")
	}
	if schemes["az"] {
		exts = append(exts, "azure")
	}
	return exts
}

// InstallExtensions installs and loads the given DuckDB extensions.
func InstallExtensions(ctx context.Context, db *sql.DB, exts []string) error {
	for _, ext := range exts {
		if err := ddl.ValidateIdentifier(ext); err != nil {
			return fmt.Errorf("extension name %q: %w", ext, err)
		}
		stmt := fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("extension setup (%s): %w", ext, err)
		}
	}
	return nil
}

// AttachDuckLake attaches the DuckLake catalog with the given metadata file
// and data path, and creates the target schema.
func AttachDuckLake(ctx context.Context, db *sql.DB, catalog, schema, metaPath, dataPath string) error {
	metaPath = config.LocalPath(metaPath)
	if uriScheme(dataPath) == "file" {
		dataPath = config.LocalPath(dataPath)
		if err := os.MkdirAll(dataPath, 0o755); err != nil {
			return fmt.Errorf("create data path: %w", err)
		}
	}
	if dir := filepath.Dir(metaPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metadata dir: %w", err)
		}
	}

	attachSQL, err := ddl.AttachDuckLake(catalog, metaPath, dataPath)
	if err != nil {
		return fmt.Errorf("build DDL: %w", err)
	}
	if _, err := db.ExecContext(ctx, attachSQL); err != nil {
		return fmt.Errorf("attach ducklake: %w", err)
	}

	schemaSQL, err := ddl.CreateSchemaIfNotExists(catalog, schema)
	if err != nil {
		return fmt.Errorf("build DDL: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema %s.%s: %w", catalog, schema, err)
	}
	return nil
}

// IsCatalogAttached checks if the named catalog is attached to DuckDB.
func IsCatalogAttached(ctx context.Context, db *sql.DB, catalog string) bool {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT count(*) FROM duckdb_databases() WHERE database_name = ?", catalog).Scan(&n)
	return err == nil && n > 0
}

// Setup prepares a DuckDB handle for the silver stage: extensions, storage
// secret, DuckLake attachment and schema.
func Setup(ctx context.Context, db *sql.DB, cfg *config.Config, logger *slog.Logger) error {
	exts := Extensions(cfg)
	if err := InstallExtensions(ctx, db, exts); err != nil {
		return err
	}
	logger.Debug("duckdb extensions loaded", "extensions", exts)

	if err := CreateStorageSecrets(ctx, db, cfg); err != nil {
		return err
	}

	if err := AttachDuckLake(ctx, db, cfg.LakeCatalog, cfg.SilverSchema, cfg.LakeMetaPath, cfg.LakeDataPath); err != nil {
		return err
	}
	logger.Info("ducklake attached",
		"catalog", cfg.LakeCatalog,
		"schema", cfg.SilverSchema,
		"metadata", cfg.LakeMetaPath,
		"data_path", cfg.LakeDataPath,
	)
	return nil
}

func uriScheme(p string) string {
	if i := strings.Index(p, "://"); i > 0 {
		return strings.ToLower(p[:i])
	}
	return "file"
}
