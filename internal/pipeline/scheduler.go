package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"lakeload/internal/domain"
)

// Scheduler triggers full runs on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	runner  *Runner
	spec    string
	entryID cron.EntryID
	logger  *slog.Logger
}

// NewScheduler registers spec (standard five-field cron syntax or a
// descriptor such as "@daily"). An invalid expression is an error.
func NewScheduler(runner *Runner, spec string, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		runner: runner,
		spec:   spec,
		logger: logger.With("component", "scheduler"),
	}
	id, err := s.cron.AddFunc(spec, s.trigger)
	if err != nil {
		return nil, domain.ErrValidation("invalid cron schedule %q: %v", spec, err)
	}
	s.entryID = id
	return s, nil
}

// Start begins firing the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.spec, "next", s.cron.Entry(s.entryID).Next)
}

// Stop halts the schedule and waits for a running trigger to return or ctx
// to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

func (s *Scheduler) trigger() {
	run, err := s.runner.Run(context.Background(), domain.RunRequest{
		TriggerType: domain.TriggerTypeScheduled,
		TriggeredBy: "scheduler",
	})
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &conflict):
		s.logger.Warn("scheduled run skipped", "reason", err)
	case err != nil && run != nil:
		s.logger.Warn("scheduled run failed", "run_id", run.ID, "error", err)
	case err != nil:
		s.logger.Warn("scheduled run failed", "error", err)
	}
}
