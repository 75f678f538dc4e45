package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStage(t *testing.T) {
	s, err := ParseStage(" bronze ")
	require.NoError(t, err)
	assert.Equal(t, StageBronze, s)

	s, err = ParseStage("SILVER")
	require.NoError(t, err)
	assert.Equal(t, StageSilver, s)

	_, err = ParseStage("gold")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestRunRequest_Normalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		req := RunRequest{}
		require.NoError(t, req.Normalize())
		assert.Equal(t, []Stage{StageBronze, StageSilver}, req.Stages)
		assert.Equal(t, TriggerTypeManual, req.TriggerType)
		assert.Equal(t, "system", req.TriggeredBy)
	})

	t.Run("orders_and_dedupes", func(t *testing.T) {
		req := RunRequest{Stages: []Stage{StageSilver, StageBronze, StageSilver}}
		require.NoError(t, req.Normalize())
		assert.Equal(t, []Stage{StageBronze, StageSilver}, req.Stages)
	})

	t.Run("single_stage", func(t *testing.T) {
		req := RunRequest{Stages: []Stage{StageSilver}, TriggerType: TriggerTypeAPI}
		require.NoError(t, req.Normalize())
		assert.Equal(t, []Stage{StageSilver}, req.Stages)
		assert.Equal(t, TriggerTypeAPI, req.TriggerType)
	})

	t.Run("unknown_stage", func(t *testing.T) {
		req := RunRequest{Stages: []Stage{"GOLD"}}
		require.Error(t, req.Normalize())
	})
}

func TestRun_Includes(t *testing.T) {
	r := &Run{Stages: []Stage{StageSilver}}
	assert.True(t, r.Includes(StageSilver))
	assert.False(t, r.Includes(StageBronze))
}

func TestPageRequest(t *testing.T) {
	assert.Equal(t, DefaultMaxResults, PageRequest{}.Limit())
	assert.Equal(t, MaxMaxResults, PageRequest{MaxResults: 5000}.Limit())
	assert.Equal(t, 10, PageRequest{MaxResults: 10}.Limit())
	assert.Equal(t, 0, PageRequest{Offset: -3}.Start())
	assert.Equal(t, 20, PageRequest{Offset: 20}.Start())
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestFetchError(t *testing.T) {
	err := &FetchError{URL: "https://example.com/Products.csv", StatusCode: 404}
	assert.Equal(t, "GET https://example.com/Products.csv: unexpected status 404", err.Error())
}
