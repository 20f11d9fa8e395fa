// Package scoring turns a completed assessment run's raw answers into ranked
// pattern scores. Scoring is a pure function over immutable inputs: the same
// catalog and answer set always produce the same result.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/brainworx/scorecard/internal/catalog"
	"github.com/brainworx/scorecard/internal/models"
)

// Result is the scored outcome of one run: one PatternScore per pattern the
// variant defines, ranked by percentage descending.
type Result struct {
	RunID   string
	Variant string
	Rater   models.RaterRole

	// Scores is sorted by percentage descending; ties keep catalog
	// definition order.
	Scores []models.PatternScore

	// AnsweredCount and QuestionCount feed the incomplete-assessment
	// annotation. Scoring proceeds on the answered-only denominator.
	AnsweredCount int
	QuestionCount int

	// Warnings carries non-fatal annotations such as an incomplete answer
	// set or unanswered pattern groups.
	Warnings []string
}

// Incomplete reports whether fewer answers than defined questions were
// scored.
func (r *Result) Incomplete() bool {
	return r.AnsweredCount < r.QuestionCount
}

// MeanPercentage is the arithmetic mean percentage across all patterns.
func (r *Result) MeanPercentage() float64 {
	if len(r.Scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range r.Scores {
		sum += s.Percentage
	}
	return float64(sum) / float64(len(r.Scores))
}

// Engine scores answer sets against one variant's catalog. Construct once per
// variant and share; the engine holds no mutable state.
type Engine struct {
	cat *catalog.Catalog
}

// NewEngine creates a scoring engine bound to the given catalog.
func NewEngine(cat *catalog.Catalog) *Engine {
	return &Engine{cat: cat}
}

// ScoreRun scores a completed assessment run. Runs still in progress are
// rejected; scoring only ever operates on finalized answer sets.
func (e *Engine) ScoreRun(run *models.AssessmentRun) (*Result, error) {
	if !run.Completed() {
		return nil, fmt.Errorf("score run %s: %w", run.ID, models.ErrRunNotCompleted)
	}
	if run.Variant != e.cat.Variant {
		return nil, fmt.Errorf("score run %s: run variant %q does not match catalog %q",
			run.ID, run.Variant, e.cat.Variant)
	}
	res, err := e.Score(run.ID, run.Answers)
	if err != nil {
		return nil, err
	}
	res.Rater = run.Rater
	return res, nil
}

// Score validates and scores a raw answer set. Any unknown question id or
// out-of-range value is a hard malformed-input failure; no partial result is
// produced past that point. An answer set smaller than the question schema is
// scored on the answered-only denominator and annotated, not rejected.
func (e *Engine) Score(runID string, answers []models.Answer) (*Result, error) {
	questions := make(map[string]models.Question, len(e.cat.Questions))
	for _, q := range e.cat.Questions {
		questions[q.ID] = q
	}

	// Duplicate answers keep the last value, matching the store's
	// last-write-wins autosave semantics.
	answered := make(map[string]int, len(answers))
	for _, a := range answers {
		q, ok := questions[a.QuestionID]
		if !ok {
			return nil, &models.MalformedInputError{
				RunID:      runID,
				QuestionID: a.QuestionID,
				Reason:     "answer references unknown question id",
			}
		}
		if a.Value < q.ScaleMin || a.Value > q.ScaleMax {
			return nil, &models.MalformedInputError{
				RunID:      runID,
				QuestionID: a.QuestionID,
				Reason: fmt.Sprintf("value %d outside scale [%d,%d]",
					a.Value, q.ScaleMin, q.ScaleMax),
			}
		}
		answered[a.QuestionID] = a.Value
	}

	res := &Result{
		RunID:         runID,
		Variant:       e.cat.Variant,
		Rater:         models.RaterSelf,
		AnsweredCount: len(answered),
		QuestionCount: len(e.cat.Questions),
	}
	if res.Incomplete() {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"incomplete assessment: %d of %d questions answered, scoring answered questions only",
			res.AnsweredCount, res.QuestionCount))
	}

	// Partition answered values by pattern, applying the reverse transform
	// per question. Catalog order drives the partition so the tie-break
	// stays stable.
	values := make(map[string][]float64, len(e.cat.Patterns))
	for _, q := range e.cat.Questions {
		raw, ok := answered[q.ID]
		if !ok {
			continue
		}
		v := float64(raw)
		if q.ReverseScored {
			v = float64(q.ScaleMax - raw + q.ScaleMin)
		}
		values[q.PatternCode] = append(values[q.PatternCode], v)
	}

	for _, p := range e.cat.Patterns {
		score := e.aggregate(p, values[p.Code])
		if score.Unanswered {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"pattern %s has no answered questions, reported at 0%%", p.Code))
		}
		res.Scores = append(res.Scores, score)
	}

	e.rank(res.Scores)
	return res, nil
}

// aggregate computes one pattern's score from its answered values per the
// variant's aggregation mode.
func (e *Engine) aggregate(p catalog.PatternDefinition, vals []float64) models.PatternScore {
	score := models.PatternScore{
		Code:  p.Code,
		Name:  p.Name,
		Count: len(vals),
	}
	if len(vals) == 0 {
		score.Unanswered = true
		score.SeverityTier = e.classify(0, 0)
		return score
	}

	sum := 0.0
	for _, v := range vals {
		sum += v
	}

	switch e.cat.Aggregation {
	case models.AggregateMean:
		// Mean is already scale-bound, so the max is the scale ceiling
		// and the baseline is the scale floor. Percentage and tier come
		// from the exact mean; the stored score is rounded for display
		// only.
		mean := sum / float64(len(vals))
		score.ActualScore = round2(mean)
		score.MaxScore = float64(e.cat.ScaleMax)
		score.Percentage = percentage(mean, score.MaxScore, float64(e.cat.ScaleMin))
		score.SeverityTier = e.classify(float64(score.Percentage), mean)
	default: // models.AggregateSum
		score.ActualScore = sum
		score.MaxScore = float64(len(vals) * e.cat.ScaleMax)
		score.Percentage = percentage(score.ActualScore, score.MaxScore, 0)
		score.SeverityTier = e.classify(float64(score.Percentage), score.ActualScore)
	}

	return score
}

// classify applies the variant's threshold table on the value the table is
// keyed by.
func (e *Engine) classify(pct, raw float64) string {
	if e.cat.Thresholds.Key == models.ThresholdOnRawScore {
		return e.cat.Thresholds.Classify(raw)
	}
	return e.cat.Thresholds.Classify(pct)
}

// rank sorts by percentage descending with catalog definition order as the
// stable tie-break.
func (e *Engine) rank(scores []models.PatternScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Percentage != scores[j].Percentage {
			return scores[i].Percentage > scores[j].Percentage
		}
		return e.cat.DefinitionOrder(scores[i].Code) < e.cat.DefinitionOrder(scores[j].Code)
	})
}

// percentage normalizes an aggregate to 0-100, clamped and rounded.
func percentage(actual, max, baseline float64) int {
	span := max - baseline
	if span <= 0 {
		return 0
	}
	pct := (actual - baseline) / span * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return int(math.Round(pct))
}

// round2 rounds to two decimals, the precision pattern averages are reported
// at.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
