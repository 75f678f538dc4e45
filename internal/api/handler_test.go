package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakeload/internal/domain"
)

type mockRunner struct {
	lastReq domain.RunRequest
	run     *domain.Run
	err     error
}

func (m *mockRunner) Run(_ context.Context, req domain.RunRequest) (*domain.Run, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	m.lastReq = req
	return m.run, m.err
}

func (m *mockRunner) Datasets() []domain.Dataset { return domain.DefaultDatasets() }

type mockRuns struct {
	runs map[string]*domain.Run
}

func (m *mockRuns) GetRun(_ context.Context, id string) (*domain.Run, error) {
	if r, ok := m.runs[id]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound("run %q not found", id)
}

func (m *mockRuns) ListRuns(_ context.Context, filter domain.RunFilter) ([]domain.Run, int64, error) {
	out := []domain.Run{}
	for _, r := range m.runs {
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		out = append(out, *r)
	}
	if len(out) > filter.Page.Limit() {
		out = out[:filter.Page.Limit()]
	}
	return out, int64(len(m.runs)), nil
}

type mockTables struct {
	described string
}

func (m *mockTables) DescribeTable(_ context.Context, table string) (*domain.TableInfo, error) {
	m.described = table
	return &domain.TableInfo{
		Table:   table,
		Rows:    1,
		Columns: []domain.ColumnInfo{{Name: "ProductId", Type: "BIGINT"}},
	}, nil
}

func (m *mockTables) ListSnapshots(context.Context) ([]domain.Snapshot, error) {
	return nil, nil
}

func newTestServer(t *testing.T, runner *mockRunner, runs *mockRuns, tables *mockTables) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(runner, runs, tables, logger)
	srv := httptest.NewServer(NewRouter(h, RouterOptions{
		CORSAllowedOrigins: []string{"*"},
		RequestTimeout:     5 * time.Second,
	}, logger))
	t.Cleanup(srv.Close)
	return srv
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &mockRunner{}, &mockRuns{}, &mockTables{})
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestCreateRun(t *testing.T) {
	t.Run("success_default_stages", func(t *testing.T) {
		runner := &mockRunner{run: &domain.Run{ID: "r1", Status: domain.RunStatusSuccess}}
		srv := newTestServer(t, runner, &mockRuns{}, &mockTables{})

		resp, err := http.Post(srv.URL+"/v1/runs", "application/json", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		run := decode[domain.Run](t, resp)
		assert.Equal(t, "r1", run.ID)
		assert.Equal(t, domain.AllStages(), runner.lastReq.Stages)
		assert.Equal(t, domain.TriggerTypeAPI, runner.lastReq.TriggerType)
	})

	t.Run("silver_only", func(t *testing.T) {
		runner := &mockRunner{run: &domain.Run{ID: "r2", Status: domain.RunStatusSuccess}}
		srv := newTestServer(t, runner, &mockRuns{}, &mockTables{})

		resp, err := http.Post(srv.URL+"/v1/runs", "application/json", strings.NewReader(`{"stages":["silver"]}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
		assert.Equal(t, []domain.Stage{domain.StageSilver}, runner.lastReq.Stages)
	})

	t.Run("unknown_stage", func(t *testing.T) {
		srv := newTestServer(t, &mockRunner{}, &mockRuns{}, &mockTables{})
		resp, err := http.Post(srv.URL+"/v1/runs", "application/json", strings.NewReader(`{"stages":["gold"]}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("unknown_field", func(t *testing.T) {
		srv := newTestServer(t, &mockRunner{}, &mockRuns{}, &mockTables{})
		resp, err := http.Post(srv.URL+"/v1/runs", "application/json", strings.NewReader(`{"stage":"bronze"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("conflict", func(t *testing.T) {
		runner := &mockRunner{err: domain.ErrConflict("a run is already in progress")}
		srv := newTestServer(t, runner, &mockRuns{}, &mockTables{})
		resp, err := http.Post(srv.URL+"/v1/runs", "application/json", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		body := decode[ErrorResponse](t, resp)
		assert.Contains(t, body.Message, "already in progress")
		assert.NotEmpty(t, body.RequestID)
	})

	t.Run("failed_run", func(t *testing.T) {
		msg := "fetch Invoices.csv: GET x: unexpected status 404"
		runner := &mockRunner{
			run: &domain.Run{ID: "r3", Status: domain.RunStatusFailed, ErrorMessage: &msg},
			err: &domain.FetchError{URL: "x", StatusCode: 404},
		}
		srv := newTestServer(t, runner, &mockRuns{}, &mockTables{})
		resp, err := http.Post(srv.URL+"/v1/runs", "application/json", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decode[ErrorResponse](t, resp)
		require.NotNil(t, body.Run)
		assert.Equal(t, "r3", body.Run.ID)
		assert.Equal(t, domain.RunStatusFailed, body.Run.Status)
	})
}

func TestRunHistory(t *testing.T) {
	runs := &mockRuns{runs: map[string]*domain.Run{
		"a": {ID: "a", Status: domain.RunStatusSuccess},
		"b": {ID: "b", Status: domain.RunStatusFailed},
	}}
	srv := newTestServer(t, &mockRunner{}, runs, &mockTables{})

	resp, err := http.Get(srv.URL + "/v1/runs?status=FAILED")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[ListRunsResponse](t, resp)
	require.Len(t, list.Runs, 1)
	assert.Equal(t, "b", list.Runs[0].ID)

	resp, err = http.Get(srv.URL + "/v1/runs?max_results=0")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = http.Get(srv.URL + "/v1/runs/a")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a", decode[domain.Run](t, resp).ID)

	resp, err = http.Get(srv.URL + "/v1/runs/zzz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestTables(t *testing.T) {
	tables := &mockTables{}
	srv := newTestServer(t, &mockRunner{}, &mockRuns{}, tables)

	resp, err := http.Get(srv.URL + "/v1/tables/products")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	info := decode[domain.TableInfo](t, resp)
	assert.Equal(t, "silver_products", info.Table)
	assert.Equal(t, "silver_products", tables.described)

	resp, err = http.Get(srv.URL + "/v1/tables/gold_sales")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = http.Get(srv.URL + "/v1/datasets")
	require.NoError(t, err)
	assert.Len(t, decode[ListDatasetsResponse](t, resp).Datasets, 4)

	resp, err = http.Get(srv.URL + "/v1/snapshots")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, decode[ListSnapshotsResponse](t, resp).Snapshots)
}

func TestHTTPStatusFromDomainError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, httpStatusFromDomainError(domain.ErrNotFound("x")))
	assert.Equal(t, http.StatusBadRequest, httpStatusFromDomainError(domain.ErrValidation("x")))
	assert.Equal(t, http.StatusConflict, httpStatusFromDomainError(domain.ErrConflict("x")))
	assert.Equal(t, http.StatusInternalServerError, httpStatusFromDomainError(io.ErrUnexpectedEOF))
}
