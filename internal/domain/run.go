package domain

import (
	"strings"
	"time"
)

// Run status constants.
const (
	RunStatusPending = "PENDING"
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"

	StepStatusRunning = "RUNNING"
	StepStatusSuccess = "SUCCESS"
	StepStatusFailed  = "FAILED"

	TriggerTypeManual    = "MANUAL"
	TriggerTypeScheduled = "SCHEDULED"
	TriggerTypeAPI       = "API"
)

// Stage identifies one of the two lakehouse stages.
type Stage string

// Lakehouse stages, in execution order.
const (
	StageBronze Stage = "BRONZE"
	StageSilver Stage = "SILVER"
)

// AllStages returns both stages in execution order.
func AllStages() []Stage {
	return []Stage{StageBronze, StageSilver}
}

// ParseStage parses a case-insensitive stage name.
func ParseStage(s string) (Stage, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(StageBronze):
		return StageBronze, nil
	case string(StageSilver):
		return StageSilver, nil
	default:
		return "", ErrValidation("unknown stage %q: use bronze or silver", s)
	}
}

// Run is one execution of the pipeline.
type Run struct {
	ID           string     `json:"id"`
	TriggerType  string     `json:"trigger_type"`
	TriggeredBy  string     `json:"triggered_by"`
	Stages       []Stage    `json:"stages"`
	Status       string     `json:"status"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	Steps        []RunStep  `json:"steps,omitempty"`
}

// Includes reports whether the run executes the given stage.
func (r *Run) Includes(stage Stage) bool {
	for _, s := range r.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// RunStep records the outcome of one dataset within one stage of a run.
type RunStep struct {
	ID           string     `json:"id"`
	RunID        string     `json:"run_id"`
	Stage        Stage      `json:"stage"`
	Dataset      string     `json:"dataset"`
	Status       string     `json:"status"`
	Target       string     `json:"target"`
	Bytes        int64      `json:"bytes"`
	Rows         int64      `json:"rows"`
	Checksum     string     `json:"checksum,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// RunRequest holds parameters for starting a run.
type RunRequest struct {
	Stages      []Stage
	TriggerType string
	TriggeredBy string
}

// Normalize fills defaults and orders the stages bronze before silver.
func (r *RunRequest) Normalize() error {
	if r.TriggerType == "" {
		r.TriggerType = TriggerTypeManual
	}
	if r.TriggeredBy == "" {
		r.TriggeredBy = "system"
	}
	if len(r.Stages) == 0 {
		r.Stages = AllStages()
		return nil
	}
	var bronze, silver bool
	for _, s := range r.Stages {
		switch s {
		case StageBronze:
			bronze = true
		case StageSilver:
			silver = true
		default:
			return ErrValidation("unknown stage %q", s)
		}
	}
	r.Stages = r.Stages[:0]
	if bronze {
		r.Stages = append(r.Stages, StageBronze)
	}
	if silver {
		r.Stages = append(r.Stages, StageSilver)
	}
	return nil
}

// RunFilter holds filter parameters for querying runs.
type RunFilter struct {
	Status *string
	Page   PageRequest
}

// IngestResult describes one raw file written by the bronze stage.
type IngestResult struct {
	Dataset   string `json:"dataset"`
	SourceURL string `json:"source_url"`
	Target    string `json:"target"`
	Bytes     int64  `json:"bytes"`
	Checksum  string `json:"checksum"`
}

// ColumnInfo is a column as reported by the engine.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableResult describes one silver table written by the transformation stage.
type TableResult struct {
	Dataset string       `json:"dataset"`
	Table   string       `json:"table"`
	Rows    int64        `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

// TableInfo describes the current state of a silver table.
type TableInfo struct {
	Table   string       `json:"table"`
	Rows    int64        `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

// Snapshot is one DuckLake catalog version.
type Snapshot struct {
	ID        int64     `json:"snapshot_id"`
	Time      time.Time `json:"snapshot_time"`
	SchemaVer int64     `json:"schema_version"`
	Changes   string    `json:"changes"`
}
