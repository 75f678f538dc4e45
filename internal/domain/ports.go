package domain

import "context"

// RawStore persists bronze files. Keys are slash-separated paths relative to
// the store root.
type RawStore interface {
	// Put writes content under key, replacing any existing object.
	Put(ctx context.Context, key string, content []byte) error
	// Get returns the content stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// URI returns the location of key as the table engine reads it
	// (local path, s3://, gs:// or az:// URI).
	URI(key string) string
}

// Fetcher retrieves the full content of a remote resource.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// TableWriter loads a raw CSV into a silver table, replacing data and schema.
type TableWriter interface {
	ReplaceTable(ctx context.Context, ds Dataset, sourceURI string) (*TableResult, error)
}

// TableInspector reads back the state of silver tables.
type TableInspector interface {
	DescribeTable(ctx context.Context, table string) (*TableInfo, error)
	ListSnapshots(ctx context.Context) ([]Snapshot, error)
}

// RunRepository persists pipeline run history.
type RunRepository interface {
	CreateRun(ctx context.Context, run *Run) (*Run, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, int64, error)
	UpdateRunStarted(ctx context.Context, id string) error
	UpdateRunFinished(ctx context.Context, id string, status string, errorMsg *string) error
	CreateStep(ctx context.Context, step *RunStep) (*RunStep, error)
	UpdateStepFinished(ctx context.Context, step *RunStep) error
	ListSteps(ctx context.Context, runID string) ([]RunStep, error)
}
