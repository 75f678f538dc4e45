// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSourceBaseURL is the public container holding the sample sales CSVs.
const DefaultSourceBaseURL = "https://fabricdevcamp.blob.core.windows.net/sampledata/ProductSales/"

// StorageConfig holds raw (bronze) storage credentials. Only the block matching
// the BronzeURL scheme is used; every field is optional.
type StorageConfig struct {
	// S3-compatible storage
	S3KeyID    *string
	S3Secret   *string
	S3Endpoint *string // host[:port], without scheme
	S3Region   *string
	S3URLStyle string // "path" (default) or "vhost"

	// Azure Blob Storage
	AzureAccountName      string
	AzureAccountKey       string
	AzureConnectionString string

	// Google Cloud Storage
	GCSKeyFile string // service account JSON key file
}

// HasS3Config returns true if all required S3 fields are set.
func (s *StorageConfig) HasS3Config() bool {
	return s.S3KeyID != nil && s.S3Secret != nil &&
		s.S3Endpoint != nil && s.S3Region != nil
}

// HasAzureConfig returns true if either a connection string or an account key pair is set.
func (s *StorageConfig) HasAzureConfig() bool {
	return s.AzureConnectionString != "" || (s.AzureAccountName != "" && s.AzureAccountKey != "")
}

// Config holds the configuration for both lakehouse stages, the run history
// store and the optional HTTP API.
type Config struct {
	SourceBaseURL string // base URL the CSV resources are fetched from
	BronzeURL     string // raw storage root: local path, s3://, gs:// or az://
	BronzeFolder  string // folder under BronzeURL holding the raw files (default "Files/sales-data/")

	LakeMetaPath string // DuckLake metadata SQLite path
	LakeDataPath string // DuckLake data path (local dir or object storage URI)
	LakeCatalog  string // attached DuckLake catalog name (default "lake")
	SilverSchema string // schema receiving silver tables (default "main")

	RunsDBPath   string // SQLite run history path
	DatasetsFile string // optional YAML dataset catalog replacing the built-in one

	DownloadConcurrency int           // parallel bronze downloads (default 4)
	DownloadRPS         float64       // download requests per second, 0 = unlimited
	HTTPTimeout         time.Duration // per-request timeout (default 60s)

	Storage StorageConfig

	ListenAddr         string   // HTTP listen address (default ":8080")
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])
	ScheduleCron       string   // cron expression for scheduled runs (empty disables)

	LogLevel string // log level: debug, info, warn, error (default "info")
	Env      string // environment: "development" (default) or "production"

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// BronzeScheme returns the storage scheme of BronzeURL ("file" for plain paths).
func (c *Config) BronzeScheme() string {
	if i := strings.Index(c.BronzeURL, "://"); i > 0 {
		return strings.ToLower(c.BronzeURL[:i])
	}
	return "file"
}

// LocalPath turns a file:// URI into a filesystem path. Plain paths and
// other schemes are returned unchanged.
func LocalPath(raw string) string {
	if len(raw) < len("file://") || !strings.EqualFold(raw[:len("file://")], "file://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw[len("file://"):]
	}
	if u.Host != "" && !strings.EqualFold(u.Host, "localhost") {
		return u.Host + u.Path
	}
	return u.Path
}

// LoadFromEnv loads configuration from environment variables.
// Storage credentials are optional; a local layout works without them.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		SourceBaseURL: os.Getenv("SOURCE_BASE_URL"),
		BronzeURL:     os.Getenv("BRONZE_URL"),
		BronzeFolder:  os.Getenv("BRONZE_FOLDER"),
		LakeMetaPath:  os.Getenv("LAKE_META_PATH"),
		LakeDataPath:  os.Getenv("LAKE_DATA_PATH"),
		LakeCatalog:   os.Getenv("LAKE_CATALOG"),
		SilverSchema:  os.Getenv("SILVER_SCHEMA"),
		RunsDBPath:    os.Getenv("RUNS_DB_PATH"),
		DatasetsFile:  os.Getenv("DATASETS_FILE"),
		ListenAddr:    os.Getenv("LISTEN_ADDR"),
		ScheduleCron:  strings.TrimSpace(os.Getenv("SCHEDULE_CRON")),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		Env:           os.Getenv("ENV"),
	}

	if v := os.Getenv("DOWNLOAD_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("DOWNLOAD_CONCURRENCY must be a positive integer, got %q", v)
		}
		cfg.DownloadConcurrency = n
	}
	if v := os.Getenv("DOWNLOAD_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("DOWNLOAD_RPS must be a non-negative number, got %q", v)
		}
		cfg.DownloadRPS = f
	}
	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("HTTP_TIMEOUT: %w", err)
		}
		cfg.HTTPTimeout = d
	}

	// Storage credentials are optional and only set if present
	if v := os.Getenv("KEY_ID"); v != "" {
		cfg.Storage.S3KeyID = &v
	}
	if v := os.Getenv("SECRET"); v != "" {
		cfg.Storage.S3Secret = &v
	}
	if v := os.Getenv("ENDPOINT"); v != "" {
		cfg.Storage.S3Endpoint = &v
	}
	if v := os.Getenv("REGION"); v != "" {
		cfg.Storage.S3Region = &v
	}
	cfg.Storage.S3URLStyle = os.Getenv("URL_STYLE")
	cfg.Storage.AzureAccountName = os.Getenv("AZURE_ACCOUNT_NAME")
	cfg.Storage.AzureAccountKey = os.Getenv("AZURE_ACCOUNT_KEY")
	cfg.Storage.AzureConnectionString = os.Getenv("AZURE_CONNECTION_STRING")
	cfg.Storage.GCSKeyFile = os.Getenv("GCS_KEY_FILE")

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}

	// Defaults
	if cfg.SourceBaseURL == "" {
		cfg.SourceBaseURL = DefaultSourceBaseURL
	}
	if !strings.HasSuffix(cfg.SourceBaseURL, "/") {
		cfg.SourceBaseURL += "/"
	}
	if cfg.BronzeURL == "" {
		cfg.BronzeURL = "lakehouse"
	}
	if cfg.BronzeFolder == "" {
		cfg.BronzeFolder = "Files/sales-data/"
	}
	if !strings.HasSuffix(cfg.BronzeFolder, "/") {
		cfg.BronzeFolder += "/"
	}
	if cfg.LakeMetaPath == "" {
		cfg.LakeMetaPath = "lakehouse/ducklake_meta.sqlite"
	}
	if cfg.LakeDataPath == "" {
		cfg.LakeDataPath = "lakehouse/Tables/"
	}
	if cfg.LakeCatalog == "" {
		cfg.LakeCatalog = "lake"
	}
	if cfg.SilverSchema == "" {
		cfg.SilverSchema = "main"
	}
	if cfg.RunsDBPath == "" {
		cfg.RunsDBPath = "lakehouse/runs.sqlite"
	}
	if cfg.DownloadConcurrency == 0 {
		cfg.DownloadConcurrency = 4
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Storage.S3URLStyle == "" {
		cfg.Storage.S3URLStyle = "path"
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	switch cfg.BronzeScheme() {
	case "file":
	case "s3":
		if !cfg.Storage.HasS3Config() {
			return nil, fmt.Errorf("BRONZE_URL %q requires KEY_ID, SECRET, ENDPOINT and REGION", cfg.BronzeURL)
		}
	case "az":
		if !cfg.Storage.HasAzureConfig() {
			return nil, fmt.Errorf("BRONZE_URL %q requires AZURE_CONNECTION_STRING or AZURE_ACCOUNT_NAME/AZURE_ACCOUNT_KEY", cfg.BronzeURL)
		}
	case "gs":
		if cfg.Storage.GCSKeyFile == "" {
			cfg.Warnings = append(cfg.Warnings, "GCS_KEY_FILE not set, using application default credentials")
		}
	default:
		return nil, fmt.Errorf("unsupported BRONZE_URL scheme %q", cfg.BronzeScheme())
	}

	if cfg.IsProduction() {
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
