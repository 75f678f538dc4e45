package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configVars = []string{
	"SOURCE_BASE_URL", "BRONZE_URL", "BRONZE_FOLDER", "LAKE_META_PATH", "LAKE_DATA_PATH",
	"LAKE_CATALOG", "SILVER_SCHEMA", "RUNS_DB_PATH", "DATASETS_FILE", "DOWNLOAD_CONCURRENCY",
	"DOWNLOAD_RPS", "HTTP_TIMEOUT", "KEY_ID", "SECRET", "ENDPOINT", "REGION", "URL_STYLE",
	"AZURE_ACCOUNT_NAME", "AZURE_ACCOUNT_KEY", "AZURE_CONNECTION_STRING", "GCS_KEY_FILE",
	"LISTEN_ADDR", "CORS_ALLOWED_ORIGINS", "SCHEDULE_CRON", "LOG_LEVEL", "ENV",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configVars {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceBaseURL, cfg.SourceBaseURL)
	assert.Equal(t, "lakehouse", cfg.BronzeURL)
	assert.Equal(t, "Files/sales-data/", cfg.BronzeFolder)
	assert.Equal(t, "lake", cfg.LakeCatalog)
	assert.Equal(t, "main", cfg.SilverSchema)
	assert.Equal(t, 4, cfg.DownloadConcurrency)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "path", cfg.Storage.S3URLStyle)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "file", cfg.BronzeScheme())
	assert.False(t, cfg.Storage.HasS3Config())
}

func TestLoadFromEnv_NormalizesTrailingSlashes(t *testing.T) {
	clearEnv(t)
	t.Setenv("SOURCE_BASE_URL", "https://example.com/data")
	t.Setenv("BRONZE_FOLDER", "raw")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/data/", cfg.SourceBaseURL)
	assert.Equal(t, "raw/", cfg.BronzeFolder)
}

func TestLoadFromEnv_S3Bronze(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRONZE_URL", "s3://sales-bucket")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires KEY_ID")

	t.Setenv("KEY_ID", "testkey")
	t.Setenv("SECRET", "testsecret")
	t.Setenv("ENDPOINT", "s3.example.com")
	t.Setenv("REGION", "us-east-1")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Storage.HasS3Config())
	assert.Equal(t, "s3", cfg.BronzeScheme())
	require.NotNil(t, cfg.Storage.S3KeyID)
	assert.Equal(t, "testkey", *cfg.Storage.S3KeyID)
}

func TestLoadFromEnv_AzureBronze(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRONZE_URL", "az://bronze")

	_, err := LoadFromEnv()
	require.Error(t, err)

	t.Setenv("AZURE_ACCOUNT_NAME", "acct")
	t.Setenv("AZURE_ACCOUNT_KEY", "a2V5")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Storage.HasAzureConfig())
}

func TestLoadFromEnv_GCSWithoutKeyWarns(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRONZE_URL", "gs://bronze")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "GCS_KEY_FILE")
}

func TestLoadFromEnv_UnsupportedScheme(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRONZE_URL", "ftp://example.com/raw")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported BRONZE_URL scheme")
}

func TestLoadFromEnv_Numbers(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "zero_concurrency", key: "DOWNLOAD_CONCURRENCY", value: "0", wantErr: "DOWNLOAD_CONCURRENCY"},
		{name: "bad_concurrency", key: "DOWNLOAD_CONCURRENCY", value: "many", wantErr: "DOWNLOAD_CONCURRENCY"},
		{name: "negative_rps", key: "DOWNLOAD_RPS", value: "-1", wantErr: "DOWNLOAD_RPS"},
		{name: "bad_timeout", key: "HTTP_TIMEOUT", value: "soon", wantErr: "HTTP_TIMEOUT"},
		{name: "valid_timeout", key: "HTTP_TIMEOUT", value: "5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := LoadFromEnv()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoadFromEnv_ProductionRejectsWildcardCORS(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS wildcard")

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.level}
			assert.Equal(t, tt.want, cfg.SlogLevel())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := `# comment
LAKELOAD_TEST_A=alpha
export LAKELOAD_TEST_B="quoted value"
LAKELOAD_TEST_C='single'
not a pair
LAKELOAD_TEST_D=from-file
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("LAKELOAD_TEST_A", "")
	t.Setenv("LAKELOAD_TEST_B", "")
	t.Setenv("LAKELOAD_TEST_C", "")
	t.Setenv("LAKELOAD_TEST_D", "from-env")

	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "alpha", os.Getenv("LAKELOAD_TEST_A"))
	assert.Equal(t, "quoted value", os.Getenv("LAKELOAD_TEST_B"))
	assert.Equal(t, "single", os.Getenv("LAKELOAD_TEST_C"))
	assert.Equal(t, "from-env", os.Getenv("LAKELOAD_TEST_D"))
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env"))
	assert.NoError(t, err)
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/data/lake", "/data/lake"},
		{"lakehouse/Files", "lakehouse/Files"},
		{"file:///data/lake", "/data/lake"},
		{"FILE:///data/lake", "/data/lake"},
		{"file://localhost/data/lake", "/data/lake"},
		{"file://lakehouse/Files", "lakehouse/Files"},
		{"s3://bucket/raw", "s3://bucket/raw"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, LocalPath(tt.in))
		})
	}
}
