package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainworx/scorecard/internal/models"
)

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportRunStoresCompletedRun(t *testing.T) {
	env, _, _ := newTestEnv(t)

	path := writeExport(t, `{
		"variant": "nip3",
		"respondent": {"name": "Alex Doe", "email": "alex@example.com"},
		"coach_email": "coach@example.com",
		"answers": [
			{"question_id": "1", "value": 3},
			{"question_id": "2", "value": 0},
			{"question_id": "3", "value": 2}
		],
		"completed_at": "2026-03-14T09:00:00Z"
	}`)

	runID, err := env.importRun(context.Background(), path)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	run, err := env.store.GetRun(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, "nip3", run.Variant)
	assert.Equal(t, "Alex Doe", run.Respondent.Name)
	assert.Equal(t, "coach@example.com", run.CoachEmail)
	assert.Equal(t, models.RaterSelf, run.Rater)
	assert.Equal(t, runID, run.SubjectID)
	assert.Len(t, run.Answers, 3)
	assert.True(t, run.Completed())
	assert.Equal(t, 2026, run.CompletedAt.Year())
}

func TestImportRunRejectsMalformedAnswers(t *testing.T) {
	env, _, _ := newTestEnv(t)

	path := writeExport(t, `{
		"variant": "nip3",
		"respondent": {"name": "Alex Doe", "email": "alex@example.com"},
		"answers": [{"question_id": "1", "value": 9}]
	}`)

	_, err := env.importRun(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrMalformedInput)

	// A rejected export writes nothing.
	runs, err := env.store.ListRuns(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestImportRunRejectsUnknownVariant(t *testing.T) {
	env, _, _ := newTestEnv(t)

	path := writeExport(t, `{
		"variant": "nip99",
		"respondent": {"name": "Alex Doe"},
		"answers": [{"question_id": "1", "value": 1}]
	}`)

	_, err := env.importRun(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown assessment variant")
}

func TestImportRunRejectsEmptyExport(t *testing.T) {
	env, _, _ := newTestEnv(t)

	path := writeExport(t, `{"variant": "nip3", "respondent": {"name": "Alex Doe"}, "answers": []}`)

	_, err := env.importRun(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no answers")
}

func TestImportRunPreservesRaterAndSubject(t *testing.T) {
	env, _, _ := newTestEnv(t)

	path := writeExport(t, `{
		"variant": "nipp710",
		"respondent": {"name": "Jamie Doe", "email": "parent@example.com"},
		"rater": "parent",
		"subject_id": "subject-9",
		"answers": [{"question_id": "FOC1", "value": 4}]
	}`)

	runID, err := env.importRun(context.Background(), path)
	require.NoError(t, err)

	run, err := env.store.GetRun(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, models.RaterParent, run.Rater)
	assert.Equal(t, "subject-9", run.SubjectID)
}
