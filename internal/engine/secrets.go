package engine

import (
	"context"
	"database/sql"
	"fmt"

	"lakeload/internal/config"
	"lakeload/internal/ddl"
)

// Secret names registered in DuckDB for raw and lake storage.
const (
	S3SecretName    = "lakeload_s3"
	AzureSecretName = "lakeload_azure"
	GCSSecretName   = "lakeload_gcs"
)

// CreateStorageSecrets registers a DuckDB secret for every object store the
// configuration references, so read_csv and DuckLake can reach raw and table
// data.
func CreateStorageSecrets(ctx context.Context, db *sql.DB, cfg *config.Config) error {
	schemes := map[string]bool{cfg.BronzeScheme(): true, uriScheme(cfg.LakeDataPath): true}
	st := cfg.Storage

	if schemes["s3"] {
		if !st.HasS3Config() {
			return fmt.Errorf("s3 storage referenced but S3 credentials are incomplete")
		}
		stmt, err := ddl.CreateS3Secret(S3SecretName, *st.S3KeyID, *st.S3Secret, *st.S3Endpoint, *st.S3Region, st.S3URLStyle)
		if err != nil {
			return fmt.Errorf("build DDL: %w", err)
		}
		if err := execSecret(ctx, db, S3SecretName, stmt); err != nil {
			return err
		}
	}
	if schemes["az"] {
		stmt, err := ddl.CreateAzureSecret(AzureSecretName, st.AzureAccountName, st.AzureAccountKey, st.AzureConnectionString)
		if err != nil {
			return fmt.Errorf("build DDL: %w", err)
		}
		if err := execSecret(ctx, db, AzureSecretName, stmt); err != nil {
			return err
		}
	}
	if schemes["gs"] {
		stmt, err := ddl.CreateGCSSecret(GCSSecretName, st.GCSKeyFile)
		if err != nil {
			return fmt.Errorf("build DDL: %w", err)
		}
		if err := execSecret(ctx, db, GCSSecretName, stmt); err != nil {
			return err
		}
	}
	return nil
}

// DropSecret removes a named DuckDB secret.
func DropSecret(ctx context.Context, db *sql.DB, name string) error {
	stmt, err := ddl.DropSecret(name)
	if err != nil {
		return fmt.Errorf("build DDL: %w", err)
	}
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("drop secret %q: %w", name, err)
	}
	return nil
}

func execSecret(ctx context.Context, db *sql.DB, name, stmt string) error {
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create secret %q: %w", name, err)
	}
	return nil
}
