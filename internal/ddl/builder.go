// Package ddl builds DuckDB statements for secrets, DuckLake attachment and
// schema-validated CSV loads.
package ddl

import (
	"fmt"
	"strings"
)

// ColumnDef describes a declared column with its DuckDB type.
type ColumnDef struct {
	Name string
	Type string
}

// CSVOptions controls how read_csv parses a raw file.
type CSVOptions struct {
	// DateFormat is a strftime pattern applied to DATE columns. Empty keeps
	// DuckDB's ISO default.
	DateFormat string
}

// CreateS3Secret returns a DuckDB DDL statement to create an S3 secret.
func CreateS3Secret(name, keyID, secret, endpoint, region, urlStyle string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is required")
	}
	return fmt.Sprintf(`CREATE OR REPLACE SECRET %s (
	TYPE S3,
	KEY_ID %s,
	SECRET %s,
	ENDPOINT %s,
	REGION %s,
	URL_STYLE %s
)`,
		QuoteIdentifier(name),
		QuoteLiteral(keyID),
		QuoteLiteral(secret),
		QuoteLiteral(endpoint),
		QuoteLiteral(region),
		QuoteLiteral(urlStyle),
	), nil
}

// CreateAzureSecret returns a DuckDB DDL statement to create an Azure secret.
// A connection string wins over an account name/key pair.
func CreateAzureSecret(name, accountName, accountKey, connectionString string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is required")
	}
	if connectionString != "" {
		return fmt.Sprintf(`CREATE OR REPLACE SECRET %s (
	TYPE AZURE,
	CONNECTION_STRING %s
)`,
			QuoteIdentifier(name),
			QuoteLiteral(connectionString),
		), nil
	}
	if accountName == "" || accountKey == "" {
		return "", fmt.Errorf("azure secret needs a connection string or account name and key")
	}
	return fmt.Sprintf(`CREATE OR REPLACE SECRET %s (
	TYPE AZURE,
	CONNECTION_STRING %s
)`,
		QuoteIdentifier(name),
		QuoteLiteral(fmt.Sprintf("DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=%s;EndpointSuffix=core.windows.net",
			accountName, accountKey)),
	), nil
}

// CreateGCSSecret returns a DuckDB DDL statement to create a GCS secret.
func CreateGCSSecret(name, keyFilePath string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is required")
	}
	if keyFilePath == "" {
		return fmt.Sprintf(`CREATE OR REPLACE SECRET %s (
	TYPE GCS,
	PROVIDER credential_chain
)`, QuoteIdentifier(name)), nil
	}
	return fmt.Sprintf(`CREATE OR REPLACE SECRET %s (
	TYPE GCS,
	KEY_FILE_PATH %s
)`,
		QuoteIdentifier(name),
		QuoteLiteral(keyFilePath),
	), nil
}

// DropSecret returns a DuckDB DDL statement: DROP SECRET IF EXISTS "<name>".
func DropSecret(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is required")
	}
	return fmt.Sprintf("DROP SECRET IF EXISTS %s", QuoteIdentifier(name)), nil
}

// AttachDuckLake returns a DuckDB statement attaching a DuckLake catalog backed
// by a SQLite metadata file. Attaching an already attached catalog is a no-op.
func AttachDuckLake(catalogName, metaPath, dataPath string) (string, error) {
	if err := ValidateIdentifier(catalogName); err != nil {
		return "", fmt.Errorf("invalid catalog name: %w", err)
	}
	if metaPath == "" {
		return "", fmt.Errorf("metadata path is required")
	}
	if dataPath == "" {
		return "", fmt.Errorf("data path is required")
	}
	return fmt.Sprintf("ATTACH IF NOT EXISTS %s AS %s (\n\tDATA_PATH %s\n)",
		QuoteLiteral("ducklake:sqlite:"+metaPath),
		QuoteIdentifier(catalogName),
		QuoteLiteral(dataPath),
	), nil
}

// CreateSchemaIfNotExists returns: CREATE SCHEMA IF NOT EXISTS "<catalog>"."<schema>".
func CreateSchemaIfNotExists(catalog, schema string) (string, error) {
	if err := ValidateIdentifier(catalog); err != nil {
		return "", fmt.Errorf("invalid catalog name: %w", err)
	}
	if err := ValidateIdentifier(schema); err != nil {
		return "", fmt.Errorf("invalid schema name: %w", err)
	}
	return fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s.%s", QuoteIdentifier(catalog), QuoteIdentifier(schema)), nil
}

// ReadCSV returns a read_csv table function call that applies an explicit
// schema. Type sniffing is disabled; the header row is skipped.
//
//	read_csv('path', header = true, auto_detect = false, columns = {'Id': 'BIGINT'}, dateformat = '%m/%d/%Y')
func ReadCSV(sourceURI string, columns []ColumnDef, opts CSVOptions) (string, error) {
	if sourceURI == "" {
		return "", fmt.Errorf("source path is required")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}

	colDefs := make([]string, 0, len(columns))
	for _, c := range columns {
		if err := ValidateIdentifier(c.Name); err != nil {
			return "", fmt.Errorf("invalid column name %q: %w", c.Name, err)
		}
		if err := ValidateColumnType(c.Type); err != nil {
			return "", fmt.Errorf("invalid column type for %q: %w", c.Name, err)
		}
		colDefs = append(colDefs, fmt.Sprintf("%s: %s", QuoteLiteral(c.Name), QuoteLiteral(c.Type)))
	}

	args := []string{
		QuoteLiteral(sourceURI),
		"header = true",
		"auto_detect = false",
		"delim = ','",
		"quote = '\"'",
		"escape = '\"'",
		"columns = {" + strings.Join(colDefs, ", ") + "}",
	}
	if opts.DateFormat != "" {
		args = append(args, "dateformat = "+QuoteLiteral(opts.DateFormat))
	}
	return "read_csv(" + strings.Join(args, ", ") + ")", nil
}

// ReplaceTableFromCSV returns a statement that replaces a table's data and
// schema with the contents of a CSV file:
//
//	CREATE OR REPLACE TABLE "lake"."main"."t" AS SELECT * FROM read_csv(...)
func ReplaceTableFromCSV(catalog, schema, table, sourceURI string, columns []ColumnDef, opts CSVOptions) (string, error) {
	target, err := QualifiedTable(catalog, schema, table)
	if err != nil {
		return "", err
	}
	src, err := ReadCSV(sourceURI, columns, opts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM %s", target, src), nil
}

// CountRows returns: SELECT count(*) FROM "<catalog>"."<schema>"."<table>".
func CountRows(catalog, schema, table string) (string, error) {
	target, err := QualifiedTable(catalog, schema, table)
	if err != nil {
		return "", err
	}
	return "SELECT count(*) FROM " + target, nil
}

// DescribeTable returns: DESCRIBE "<catalog>"."<schema>"."<table>".
func DescribeTable(catalog, schema, table string) (string, error) {
	target, err := QualifiedTable(catalog, schema, table)
	if err != nil {
		return "", err
	}
	return "DESCRIBE " + target, nil
}

// ListSnapshots returns a query over the DuckLake snapshot history of a catalog.
func ListSnapshots(catalog string) (string, error) {
	if err := ValidateIdentifier(catalog); err != nil {
		return "", fmt.Errorf("invalid catalog name: %w", err)
	}
	return fmt.Sprintf(
		"SELECT snapshot_id, snapshot_time, schema_version, CAST(changes AS VARCHAR) FROM ducklake_snapshots(%s) ORDER BY snapshot_id",
		QuoteLiteral(catalog),
	), nil
}

// QualifiedTable validates and quotes a three-part table name.
func QualifiedTable(catalog, schema, table string) (string, error) {
	if err := ValidateIdentifier(catalog); err != nil {
		return "", fmt.Errorf("invalid catalog name: %w", err)
	}
	if err := ValidateIdentifier(schema); err != nil {
		return "", fmt.Errorf("invalid schema name: %w", err)
	}
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return fmt.Sprintf("%s.%s.%s",
		QuoteIdentifier(catalog),
		QuoteIdentifier(schema),
		QuoteIdentifier(table),
	), nil
}
