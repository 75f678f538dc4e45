package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakeload/internal/domain"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("RUNS_DB_PATH", filepath.Join(dir, "runs.sqlite"))
	t.Setenv("BRONZE_URL", filepath.Join(dir, "bronze"))
	t.Setenv("DATASETS_FILE", "")
	t.Setenv("SCHEDULE_CRON", "")
	t.Setenv("ENV", "")
	return dir
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersion(t *testing.T) {
	isolateEnv(t)

	code, out, _ := execute(t, "version")
	require.Equal(t, 0, code)
	assert.Equal(t, "lakeload version dev (commit: none)\n", out)

	code, out, _ = execute(t, "version", "-o", "json")
	require.Equal(t, 0, code)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "dev", got["version"])
}

func TestInvalidOutputFormat(t *testing.T) {
	isolateEnv(t)

	code, _, errOut := execute(t, "version", "-o", "yaml")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `unsupported output format "yaml"`)
}

func TestDatasets(t *testing.T) {
	isolateEnv(t)

	code, out, _ := execute(t, "datasets", "-o", "json")
	require.Equal(t, 0, code)
	var got []domain.Dataset
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 4)
	assert.Equal(t, "Products.csv", got[0].SourceFile)

	code, out, _ = execute(t, "datasets")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "silver_invoice_details")
	assert.Contains(t, out, "MM/dd/yyyy")

	code, out, _ = execute(t, "datasets", "export")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "lakeload/v1")
}

func TestRunsList_Empty(t *testing.T) {
	isolateEnv(t)

	code, out, _ := execute(t, "runs", "list", "-o", "json")
	require.Equal(t, 0, code)
	var got struct {
		Runs  []domain.Run `json:"runs"`
		Total int64        `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Empty(t, got.Runs)
	assert.Equal(t, int64(0), got.Total)

	code, out, _ = execute(t, "runs", "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "STATUS")
}

func TestRunsGet_NotFound(t *testing.T) {
	isolateEnv(t)

	code, out, _ := execute(t, "runs", "get", "nope", "-o", "json")
	assert.Equal(t, 1, code)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, got["error"], "not found")
}

func TestBadDatasetsFile(t *testing.T) {
	dir := isolateEnv(t)

	code, _, errOut := execute(t, "datasets", "--datasets", filepath.Join(dir, "absent.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Error:")
}
