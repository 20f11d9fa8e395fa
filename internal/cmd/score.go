package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brainworx/scorecard/internal/scoring"
)

// NewScoreCommand creates the score command
func NewScoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "score <run-id>",
		Short: "Score a completed run and print the pattern table",
		Long: `Score a completed assessment run and print its ranked pattern scores
without composing or delivering any report.

Useful for inspecting a run before dispatch or for spot-checking catalog
changes against stored answer sets.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			return env.printScores(cmd.Context(), args[0])
		},
	}
}

// printScores scores a run and writes the ranked pattern table.
func (env *pipelineEnv) printScores(ctx context.Context, runID string) error {
	run, err := env.store.GetRun(ctx, runID)
	if err != nil {
		return err
	}

	cat, err := env.library.Catalog(run.Variant)
	if err != nil {
		return err
	}

	result, err := scoring.NewEngine(cat).ScoreRun(run)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.out, "%s\n", cat.Title)
	fmt.Fprintf(env.out, "Run %s  (%s, rater: %s)\n", run.ID, run.Respondent.Name, run.Rater)
	fmt.Fprintf(env.out, "Answered %d of %d questions\n\n", result.AnsweredCount, result.QuestionCount)

	for _, warning := range result.Warnings {
		fmt.Fprintf(env.out, "! %s\n", warning)
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintln(env.out)
	}

	fmt.Fprintf(env.out, "%-8s %-35s %10s %6s  %s\n", "CODE", "PATTERN", "SCORE", "PCT", "SEVERITY")
	for _, score := range result.Scores {
		name := score.Name
		if def := cat.Pattern(score.Code); def != nil && def.ShortName != "" {
			name = def.ShortName
		}
		scoreCol := fmt.Sprintf("%g/%g", score.ActualScore, score.MaxScore)
		if score.Unanswered {
			scoreCol = "-"
		}
		fmt.Fprintf(env.out, "%-8s %-35s %10s %5d%%  %s\n",
			score.Code, name, scoreCol, score.Percentage, score.SeverityTier)
	}

	fmt.Fprintf(env.out, "\nMean percentage: %.1f%%\n", result.MeanPercentage())
	return nil
}
