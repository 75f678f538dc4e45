package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lakeload/internal/domain"
)

// ListDatasetsResponse is the body of GET /v1/datasets.
type ListDatasetsResponse struct {
	Datasets []domain.Dataset `json:"datasets"`
}

// ListSnapshotsResponse is the body of GET /v1/snapshots.
type ListSnapshotsResponse struct {
	Snapshots []domain.Snapshot `json:"snapshots"`
}

// ListDatasets returns the active dataset catalog.
func (h *Handler) ListDatasets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ListDatasetsResponse{Datasets: h.runner.Datasets()})
}

// DescribeTable returns the columns and row count of a catalog table. The
// name may be a table or a dataset name.
func (h *Handler) DescribeTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ds, ok := domain.FindDataset(h.runner.Datasets(), name)
	if !ok {
		writeDomainError(w, r, domain.ErrNotFound("table %q is not in the dataset catalog", name))
		return
	}
	info, err := h.tables.DescribeTable(r.Context(), ds.Table)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ListSnapshots returns the table format's version history.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.tables.ListSnapshots(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if snaps == nil {
		snaps = []domain.Snapshot{}
	}
	writeJSON(w, http.StatusOK, ListSnapshotsResponse{Snapshots: snaps})
}
