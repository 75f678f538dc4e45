package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "lakeload/internal/db"
	"lakeload/internal/domain"
)

func setupRunRepo(t *testing.T) *RunRepo {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	return NewRunRepo(writeDB, readDB)
}

func createRun(t *testing.T, repo *RunRepo) *domain.Run {
	t.Helper()
	run, err := repo.CreateRun(context.Background(), &domain.Run{
		TriggerType: domain.TriggerTypeManual,
		TriggeredBy: "cli",
		Stages:      domain.AllStages(),
	})
	require.NoError(t, err)
	return run
}

func TestRun_CreateAndGet(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()

	run := createRun(t, repo)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, domain.RunStatusPending, run.Status)
	assert.Equal(t, []domain.Stage{domain.StageBronze, domain.StageSilver}, run.Stages)
	assert.False(t, run.CreatedAt.IsZero())
	assert.Nil(t, run.StartedAt)
	assert.Nil(t, run.FinishedAt)

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "cli", got.TriggeredBy)
	assert.Empty(t, got.Steps)
}

func TestRun_GetNotFound(t *testing.T) {
	repo := setupRunRepo(t)
	_, err := repo.GetRun(context.Background(), "missing")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRun_Lifecycle(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()
	run := createRun(t, repo)

	require.NoError(t, repo.UpdateRunStarted(ctx, run.ID))
	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusRunning, got.Status)
	require.NotNil(t, got.StartedAt)

	msg := "fetch Invoices.csv: GET x: unexpected status 404"
	require.NoError(t, repo.UpdateRunFinished(ctx, run.ID, domain.RunStatusFailed, &msg))
	got, err = repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, got.Status)
	require.NotNil(t, got.FinishedAt)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, msg, *got.ErrorMessage)

	var nf *domain.NotFoundError
	require.ErrorAs(t, repo.UpdateRunStarted(ctx, "missing"), &nf)
}

func TestRun_Steps(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()
	run := createRun(t, repo)

	step, err := repo.CreateStep(ctx, &domain.RunStep{
		RunID:   run.ID,
		Stage:   domain.StageBronze,
		Dataset: "products",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, step.ID)
	assert.Equal(t, domain.StepStatusRunning, step.Status)

	step.Status = domain.StepStatusSuccess
	step.Target = "lakehouse/Files/sales-data/Products.csv"
	step.Bytes = 42
	step.Checksum = "abc"
	require.NoError(t, repo.UpdateStepFinished(ctx, step))

	later := time.Now().Add(time.Second)
	_, err = repo.CreateStep(ctx, &domain.RunStep{
		RunID:     run.ID,
		Stage:     domain.StageSilver,
		Dataset:   "products",
		StartedAt: later,
	})
	require.NoError(t, err)

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got.Steps, 2)
	first := got.Steps[0]
	assert.Equal(t, domain.StageBronze, first.Stage)
	assert.Equal(t, domain.StepStatusSuccess, first.Status)
	assert.Equal(t, int64(42), first.Bytes)
	assert.Equal(t, "abc", first.Checksum)
	assert.NotNil(t, first.FinishedAt)
	assert.Equal(t, domain.StageSilver, got.Steps[1].Stage)
	assert.Nil(t, got.Steps[1].FinishedAt)
}

func TestRun_StepForUnknownRun(t *testing.T) {
	repo := setupRunRepo(t)
	_, err := repo.CreateStep(context.Background(), &domain.RunStep{
		RunID: "missing", Stage: domain.StageBronze, Dataset: "products",
	})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRun_List(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, createRun(t, repo).ID)
	}
	require.NoError(t, repo.UpdateRunFinished(ctx, ids[0], domain.RunStatusSuccess, nil))

	runs, total, err := repo.ListRuns(ctx, domain.RunFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID, "newest first")

	status := domain.RunStatusSuccess
	runs, total, err = repo.ListRuns(ctx, domain.RunFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, runs, 1)
	assert.Equal(t, ids[0], runs[0].ID)

	runs, total, err = repo.ListRuns(ctx, domain.RunFilter{Page: domain.PageRequest{MaxResults: 2, Offset: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, runs, 1)
	assert.Equal(t, ids[0], runs[0].ID)
}
