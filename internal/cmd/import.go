package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/brainworx/scorecard/internal/models"
	"github.com/brainworx/scorecard/internal/scoring"
)

// runImport is the JSON shape of a completed-run export file.
type runImport struct {
	Variant     string            `json:"variant"`
	Respondent  models.Respondent `json:"respondent"`
	Rater       models.RaterRole  `json:"rater,omitempty"`
	SubjectID   string            `json:"subject_id,omitempty"`
	CoachEmail  string            `json:"coach_email,omitempty"`
	Answers     []models.Answer   `json:"answers"`
	StartedAt   time.Time         `json:"started_at,omitzero"`
	CompletedAt time.Time         `json:"completed_at,omitzero"`
}

// NewImportCommand creates the import command
func NewImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a completed run from an answers export file",
		Long: `Create a completed assessment run from a JSON export file and store it
under a fresh run id.

The export names the variant, the respondent, the raw answers, and optionally
the rater role, subject id, coach email, and timestamps. Answers are checked
against the variant's question schema before anything is written; a malformed
export imports nothing.

Example export:
  {
    "variant": "nip3",
    "respondent": {"name": "Alex Doe", "email": "alex@example.com"},
    "coach_email": "coach@example.com",
    "answers": [{"question_id": "1", "value": 2}, ...]
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			runID, err := env.importRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(env.out, "✓ Imported run %s\n", runID)
			return nil
		},
	}
}

// importRun validates an export file and stores it as a completed run.
func (env *pipelineEnv) importRun(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read export file: %w", err)
	}

	var export runImport
	if err := json.Unmarshal(data, &export); err != nil {
		return "", fmt.Errorf("failed to parse export file: %w", err)
	}
	if len(export.Answers) == 0 {
		return "", fmt.Errorf("export file %s contains no answers", path)
	}

	cat, err := env.library.Catalog(export.Variant)
	if err != nil {
		return "", err
	}

	runID := uuid.NewString()

	// Score before storing so malformed answer sets are rejected whole.
	result, err := scoring.NewEngine(cat).Score(runID, export.Answers)
	if err != nil {
		return "", err
	}
	for _, warning := range result.Warnings {
		env.log.Warnf("run %s: %s", runID, warning)
	}

	completedAt := export.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	run := &models.AssessmentRun{
		ID:         runID,
		Variant:    export.Variant,
		Respondent: export.Respondent,
		Rater:      export.Rater,
		SubjectID:  export.SubjectID,
		CoachEmail: export.CoachEmail,
		Answers:    export.Answers,
		StartedAt:  export.StartedAt,
	}
	if err := env.store.CreateRun(ctx, run); err != nil {
		return "", err
	}
	if err := env.store.FinalizeRun(ctx, runID, completedAt); err != nil {
		return "", err
	}

	env.log.Infof("imported %s run %s with %d answers", export.Variant, runID, len(export.Answers))
	return runID, nil
}
