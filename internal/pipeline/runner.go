// Package pipeline runs the bronze and silver stages as one recorded run.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"lakeload/internal/bronze"
	"lakeload/internal/domain"
)

// Ingester copies source files into raw storage.
type Ingester interface {
	IngestAll(ctx context.Context, datasets []domain.Dataset, onDone bronze.DoneFunc) ([]*domain.IngestResult, error)
}

// Transformer writes one silver table from its raw file.
type Transformer interface {
	Transform(ctx context.Context, ds domain.Dataset) (*domain.TableResult, error)
}

// Runner executes runs one at a time and records them in the run history.
// History writes are best effort and never replace a stage error.
type Runner struct {
	ingester    Ingester
	transformer Transformer
	runs        domain.RunRepository
	datasets    []domain.Dataset
	logger      *slog.Logger
	now         func() time.Time

	mu sync.Mutex
}

// NewRunner creates a Runner over the given dataset catalog.
func NewRunner(ingester Ingester, transformer Transformer, runs domain.RunRepository, datasets []domain.Dataset, logger *slog.Logger) *Runner {
	return &Runner{
		ingester:    ingester,
		transformer: transformer,
		runs:        runs,
		datasets:    datasets,
		logger:      logger.With("component", "pipeline"),
		now:         time.Now,
	}
}

// Datasets returns the active dataset catalog.
func (r *Runner) Datasets() []domain.Dataset {
	out := make([]domain.Dataset, len(r.datasets))
	copy(out, r.datasets)
	return out
}

// Run executes the requested stages, bronze before silver. Nothing downstream
// of a failure runs. The returned run is never nil when the request is valid,
// even on failure. A call made while another run is active fails with a
// *domain.ConflictError.
func (r *Runner) Run(ctx context.Context, req domain.RunRequest) (*domain.Run, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	if !r.mu.TryLock() {
		return nil, domain.ErrConflict("a run is already in progress")
	}
	defer r.mu.Unlock()

	run := r.startRun(ctx, req)
	logger := r.logger.With("run_id", run.ID)
	logger.Info("run started", "stages", run.Stages, "trigger", run.TriggerType, "triggered_by", run.TriggeredBy)

	var err error
	if run.Includes(domain.StageBronze) {
		err = r.runBronze(ctx, run)
	}
	if err == nil && run.Includes(domain.StageSilver) {
		err = r.runSilver(ctx, run)
	}

	r.finishRun(ctx, run, err)
	if err != nil {
		logger.Error("run failed", "error", err, "duration_ms", run.FinishedAt.Sub(*run.StartedAt).Milliseconds())
		return run, err
	}
	logger.Info("run succeeded", "steps", len(run.Steps), "duration_ms", run.FinishedAt.Sub(*run.StartedAt).Milliseconds())
	return run, nil
}

func (r *Runner) startRun(ctx context.Context, req domain.RunRequest) *domain.Run {
	run := &domain.Run{
		ID:          domain.NewID(),
		TriggerType: req.TriggerType,
		TriggeredBy: req.TriggeredBy,
		Stages:      req.Stages,
		Status:      domain.RunStatusPending,
		CreatedAt:   r.now(),
	}
	if _, err := r.runs.CreateRun(ctx, run); err != nil {
		r.logger.Warn("record run failed", "run_id", run.ID, "error", err)
	}

	started := r.now()
	run.Status = domain.RunStatusRunning
	run.StartedAt = &started
	if err := r.runs.UpdateRunStarted(ctx, run.ID); err != nil {
		r.logger.Warn("record run start failed", "run_id", run.ID, "error", err)
	}
	return run
}

func (r *Runner) finishRun(ctx context.Context, run *domain.Run, runErr error) {
	finished := r.now()
	run.FinishedAt = &finished
	run.Status = domain.RunStatusSuccess
	if runErr != nil {
		msg := runErr.Error()
		run.Status = domain.RunStatusFailed
		run.ErrorMessage = &msg
	}
	// Recorded even when the caller's context is already cancelled.
	if err := r.runs.UpdateRunFinished(context.WithoutCancel(ctx), run.ID, run.Status, run.ErrorMessage); err != nil {
		r.logger.Warn("record run finish failed", "run_id", run.ID, "error", err)
	}
}

func (r *Runner) runBronze(ctx context.Context, run *domain.Run) error {
	steps := make(map[string]*domain.RunStep, len(r.datasets))
	for _, ds := range r.datasets {
		steps[ds.Name] = r.beginStep(ctx, run.ID, domain.StageBronze, ds)
	}

	var mu sync.Mutex
	_, err := r.ingester.IngestAll(ctx, r.datasets, func(ds domain.Dataset, res *domain.IngestResult, stepErr error) {
		mu.Lock()
		defer mu.Unlock()
		step := steps[ds.Name]
		if res != nil {
			step.Target = res.Target
			step.Bytes = res.Bytes
			step.Checksum = res.Checksum
		}
		r.endStep(ctx, step, stepErr)
	})

	for _, ds := range r.datasets {
		run.Steps = append(run.Steps, *steps[ds.Name])
	}
	return err
}

func (r *Runner) runSilver(ctx context.Context, run *domain.Run) error {
	for _, ds := range r.datasets {
		if err := ctx.Err(); err != nil {
			return err
		}
		step := r.beginStep(ctx, run.ID, domain.StageSilver, ds)
		step.Target = ds.Table
		res, err := r.transformer.Transform(ctx, ds)
		if res != nil {
			step.Rows = res.Rows
		}
		r.endStep(ctx, step, err)
		run.Steps = append(run.Steps, *step)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) beginStep(ctx context.Context, runID string, stage domain.Stage, ds domain.Dataset) *domain.RunStep {
	step := &domain.RunStep{
		ID:        domain.NewID(),
		RunID:     runID,
		Stage:     stage,
		Dataset:   ds.Name,
		Status:    domain.StepStatusRunning,
		StartedAt: r.now(),
	}
	if _, err := r.runs.CreateStep(ctx, step); err != nil {
		r.logger.Warn("record step failed", "run_id", runID, "dataset", ds.Name, "error", err)
	}
	return step
}

func (r *Runner) endStep(ctx context.Context, step *domain.RunStep, stepErr error) {
	finished := r.now()
	step.FinishedAt = &finished
	step.Status = domain.StepStatusSuccess
	if stepErr != nil {
		msg := stepErr.Error()
		step.Status = domain.StepStatusFailed
		step.ErrorMessage = &msg
	}
	if err := r.runs.UpdateStepFinished(context.WithoutCancel(ctx), step); err != nil {
		r.logger.Warn("record step finish failed", "run_id", step.RunID, "dataset", step.Dataset, "error", err)
	}
}
