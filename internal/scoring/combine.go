package scoring

import (
	"fmt"

	"github.com/brainworx/scorecard/internal/models"
)

// Combined pairs two independent raters' results for the same subject with
// their merged scores. The merge happens at the raw-score level: percentages
// are recomputed from the combined aggregates, never averaged directly, since
// the raters' max scores differ whenever their answered counts do.
type Combined struct {
	// A and B are the per-rater results, preserved for report sections
	// that show each rater's view alongside the combined one.
	A *Result
	B *Result

	// Merged ranks the combined scores like a single-rater result.
	Merged *Result
}

// Combine merges two raters' results of the same variant. Both results must
// come from the same catalog; pattern sets are identical by construction.
func (e *Engine) Combine(a, b *Result) (*Combined, error) {
	if a.Variant != e.cat.Variant || b.Variant != e.cat.Variant {
		return nil, fmt.Errorf("combine: results for %q and %q do not match catalog %q",
			a.Variant, b.Variant, e.cat.Variant)
	}
	if a.Rater == b.Rater {
		return nil, fmt.Errorf("combine: both results come from the same rater role %q", a.Rater)
	}

	byCode := func(r *Result) map[string]models.PatternScore {
		m := make(map[string]models.PatternScore, len(r.Scores))
		for _, s := range r.Scores {
			m[s.Code] = s
		}
		return m
	}
	scoresA, scoresB := byCode(a), byCode(b)

	merged := &Result{
		RunID:         a.RunID + "+" + b.RunID,
		Variant:       e.cat.Variant,
		AnsweredCount: a.AnsweredCount + b.AnsweredCount,
		QuestionCount: a.QuestionCount + b.QuestionCount,
	}
	merged.Warnings = append(merged.Warnings, a.Warnings...)
	merged.Warnings = append(merged.Warnings, b.Warnings...)

	for _, p := range e.cat.Patterns {
		sa, sb := scoresA[p.Code], scoresB[p.Code]

		score := models.PatternScore{
			Code:  p.Code,
			Name:  p.Name,
			Count: sa.Count + sb.Count,
		}
		switch {
		case sa.Unanswered && sb.Unanswered:
			score.Unanswered = true
			score.SeverityTier = e.classify(0, 0)
		case sa.Unanswered || sb.Unanswered:
			// Only one rater covered this pattern; the combined view
			// is that rater's view.
			if sa.Unanswered {
				sa = sb
			}
			score.ActualScore = sa.ActualScore
			score.MaxScore = sa.MaxScore
			score.Percentage = sa.Percentage
			score.SeverityTier = sa.SeverityTier
			merged.Warnings = append(merged.Warnings, fmt.Sprintf(
				"pattern %s answered by a single rater only", p.Code))
		default:
			exact := (sa.ActualScore + sb.ActualScore) / 2
			score.ActualScore = round2(exact)
			score.MaxScore = (sa.MaxScore + sb.MaxScore) / 2
			baseline := 0.0
			if e.cat.Aggregation == models.AggregateMean {
				baseline = float64(e.cat.ScaleMin)
			}
			score.Percentage = percentage(exact, score.MaxScore, baseline)
			score.SeverityTier = e.classify(float64(score.Percentage), exact)
		}
		merged.Scores = append(merged.Scores, score)
	}

	e.rank(merged.Scores)
	return &Combined{A: a, B: b, Merged: merged}, nil
}
