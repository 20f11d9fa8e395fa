package scoring

import (
	"testing"

	"github.com/brainworx/scorecard/internal/catalog"
	"github.com/brainworx/scorecard/internal/models"
)

// raterCatalog is a sum-mode catalog with one 10-question pattern on a 0-3
// scale, used to reproduce differing answered counts between raters.
func raterCatalog() *catalog.Catalog {
	cat := &catalog.Catalog{
		Variant:     "test-rater",
		Version:     1,
		Aggregation: models.AggregateSum,
		ScaleMin:    0,
		ScaleMax:    3,
		DualRater:   true,
		Thresholds: catalog.ThresholdTable{
			Key: models.ThresholdOnPercentage,
			Tiers: []models.SeverityThreshold{
				{Min: 70, Tier: "High"},
				{Min: 50, Tier: "Medium"},
				{Min: 0, Tier: "Low"},
			},
		},
		Patterns: []catalog.PatternDefinition{{Code: "P1", Name: "P1"}},
	}
	for i := 1; i <= 10; i++ {
		cat.Questions = append(cat.Questions, models.Question{
			ID:          itoa(i),
			PatternCode: "P1",
			ScaleMax:    3,
		})
	}
	return cat
}

func TestCombineRecomputesFromRawScores(t *testing.T) {
	// Rater A: 24/30 (80%, 10 answers). Rater B: 8/20 (40%, 7 answers,
	// rounded counts chosen so max scores differ). The combined percentage
	// must come from the combined raw aggregate, not mean(80, 40) = 60.
	engine := NewEngine(raterCatalog())

	ansA := make([]models.Answer, 10)
	// 24 across 10 answers: six 3s and four 1s and... use 3,3,3,3,3,3,2,2,1,1 = 24.
	valsA := []int{3, 3, 3, 3, 3, 3, 2, 2, 1, 1}
	for i, v := range valsA {
		ansA[i] = models.Answer{QuestionID: itoa(i + 1), Value: v}
	}
	resA, err := engine.Score("run-a", ansA)
	if err != nil {
		t.Fatalf("Score rater A failed: %v", err)
	}
	resA.Rater = models.RaterParent
	if resA.Scores[0].ActualScore != 24 || resA.Scores[0].Percentage != 80 {
		t.Fatalf("Rater A setup wrong: %g/%d%%", resA.Scores[0].ActualScore, resA.Scores[0].Percentage)
	}

	// Rater B answers only 7 questions with total 8 (max 21, ~38%). The
	// spec scenario uses 8/20; the point under test is the differing
	// denominator, which holds here too.
	valsB := []int{2, 2, 1, 1, 1, 1, 0}
	ansB := make([]models.Answer, len(valsB))
	for i, v := range valsB {
		ansB[i] = models.Answer{QuestionID: itoa(i + 1), Value: v}
	}
	resB, err := engine.Score("run-b", ansB)
	if err != nil {
		t.Fatalf("Score rater B failed: %v", err)
	}
	resB.Rater = models.RaterTeacher

	combined, err := engine.Combine(resA, resB)
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	merged := combined.Merged.Scores[0]
	if merged.ActualScore != 16 {
		t.Errorf("Expected combined raw mean(24,8)=16, got %g", merged.ActualScore)
	}
	wantMax := (30.0 + 21.0) / 2
	if merged.MaxScore != wantMax {
		t.Errorf("Expected combined max %g, got %g", wantMax, merged.MaxScore)
	}
	// 16/25.5 = 62.7% -> 63, not the naive mean of the percentages.
	if merged.Percentage != 63 {
		t.Errorf("Expected 63%%, got %d%%", merged.Percentage)
	}
	if merged.Count != 17 {
		t.Errorf("Expected combined count 17, got %d", merged.Count)
	}
}

func TestCombineSingleRaterPattern(t *testing.T) {
	// When only one rater answered a pattern, the combined view is that
	// rater's view, flagged with a warning.
	engine := NewEngine(raterCatalog())

	resA, err := engine.Score("run-a", []models.Answer{
		{QuestionID: "1", Value: 3},
		{QuestionID: "2", Value: 3},
	})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	resA.Rater = models.RaterParent

	resB, err := engine.Score("run-b", nil)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	resB.Rater = models.RaterTeacher

	combined, err := engine.Combine(resA, resB)
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	merged := combined.Merged.Scores[0]
	if merged.Percentage != 100 {
		t.Errorf("Expected single-rater view 100%%, got %d%%", merged.Percentage)
	}

	found := false
	for _, w := range combined.Merged.Warnings {
		if w == "pattern P1 answered by a single rater only" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected single-rater warning, got %v", combined.Merged.Warnings)
	}
}

func TestCombineRejectsSameRater(t *testing.T) {
	engine := NewEngine(raterCatalog())

	resA, _ := engine.Score("run-a", nil)
	resB, _ := engine.Score("run-b", nil)
	resA.Rater = models.RaterParent
	resB.Rater = models.RaterParent

	if _, err := engine.Combine(resA, resB); err == nil {
		t.Error("Expected error combining two results from the same rater role")
	}
}
