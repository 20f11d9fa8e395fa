package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brainworx/scorecard/internal/models"
)

func TestLoadBuiltinVariants(t *testing.T) {
	lib, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}

	want := []string{"nip2", "nip3", "nipp1118", "nipp710"}
	got := lib.Variants()
	if len(got) != len(want) {
		t.Fatalf("Expected variants %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected variants %v, got %v", want, got)
		}
	}
}

func TestBuiltinCatalogShapes(t *testing.T) {
	lib, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}

	tests := []struct {
		variant     string
		aggregation models.AggregationMode
		scaleMin    int
		scaleMax    int
		dualRater   bool
		patterns    int
		questions   int
		key         models.ThresholdKey
	}{
		{"nip3", models.AggregateSum, 0, 3, false, 20, 40, models.ThresholdOnPercentage},
		{"nip2", models.AggregateSum, 0, 3, false, 20, 20, models.ThresholdOnPercentage},
		{"nipp1118", models.AggregateMean, 1, 4, false, 10, 50, models.ThresholdOnRawScore},
		{"nipp710", models.AggregateMean, 1, 4, true, 10, 20, models.ThresholdOnRawScore},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			cat, err := lib.Catalog(tt.variant)
			if err != nil {
				t.Fatalf("Catalog(%s) failed: %v", tt.variant, err)
			}
			if cat.Aggregation != tt.aggregation {
				t.Errorf("Expected aggregation %s, got %s", tt.aggregation, cat.Aggregation)
			}
			if cat.ScaleMin != tt.scaleMin || cat.ScaleMax != tt.scaleMax {
				t.Errorf("Expected scale [%d,%d], got [%d,%d]",
					tt.scaleMin, tt.scaleMax, cat.ScaleMin, cat.ScaleMax)
			}
			if cat.DualRater != tt.dualRater {
				t.Errorf("Expected dual_rater %v, got %v", tt.dualRater, cat.DualRater)
			}
			if len(cat.Patterns) != tt.patterns {
				t.Errorf("Expected %d patterns, got %d", tt.patterns, len(cat.Patterns))
			}
			if len(cat.Questions) != tt.questions {
				t.Errorf("Expected %d questions, got %d", tt.questions, len(cat.Questions))
			}
			if cat.Thresholds.Key != tt.key {
				t.Errorf("Expected threshold key %s, got %s", tt.key, cat.Thresholds.Key)
			}
		})
	}
}

func TestQuestionsCarryVariantScale(t *testing.T) {
	lib, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}

	cat, err := lib.Catalog("nipp1118")
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}

	for _, q := range cat.Questions {
		if q.ScaleMin != 1 || q.ScaleMax != 4 {
			t.Fatalf("Question %s scale [%d,%d], want [1,4]", q.ID, q.ScaleMin, q.ScaleMax)
		}
	}
}

func TestCodesAreNotSharedAcrossVariants(t *testing.T) {
	lib, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}

	nip3, _ := lib.Catalog("nip3")
	nip2, _ := lib.Catalog("nip2")

	// Both variants define NIP01 but the definitions are distinct objects
	// with their own reference data.
	p3 := nip3.Pattern("NIP01")
	p2 := nip2.Pattern("NIP01")
	if p3 == nil || p2 == nil {
		t.Fatal("Expected NIP01 in both nip3 and nip2")
	}
	if p3 == p2 {
		t.Error("Pattern definitions must not be shared across variants")
	}
}

func TestPatternLookup(t *testing.T) {
	lib, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}

	cat, _ := lib.Catalog("nip3")

	if cat.Pattern("NIP01") == nil {
		t.Error("Expected NIP01 to resolve")
	}
	if cat.Pattern("BOGUS") != nil {
		t.Error("Expected unknown code to return nil")
	}

	if got := cat.DefinitionOrder("NIP01"); got != 0 {
		t.Errorf("Expected NIP01 at order 0, got %d", got)
	}
	if got := cat.DefinitionOrder("BOGUS"); got != len(cat.Patterns) {
		t.Errorf("Expected unknown code to sort last, got %d", got)
	}
}

func TestThresholdClassify(t *testing.T) {
	lib, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}

	nip3, _ := lib.Catalog("nip3")
	percentageTiers := []struct {
		value float64
		want  string
	}{
		{100, "Strongly Present"},
		{70, "Strongly Present"},
		{69, "Moderately Present"},
		{50, "Moderately Present"},
		{30, "Mild Pattern"},
		{29, "Minimal Pattern"},
		{0, "Minimal Pattern"},
	}
	for _, tt := range percentageTiers {
		if got := nip3.Thresholds.Classify(tt.value); got != tt.want {
			t.Errorf("nip3 Classify(%g) = %q, want %q", tt.value, got, tt.want)
		}
	}

	teen, _ := lib.Catalog("nipp1118")
	rawTiers := []struct {
		value float64
		want  string
	}{
		{4, "High"},
		{3.25, "High"},
		{3.24, "Moderate"},
		{2.5, "Moderate"},
		{1.75, "Mild / Occasional"},
		{1.74, "Low"},
		{1, "Low"},
	}
	for _, tt := range rawTiers {
		if got := teen.Thresholds.Classify(tt.value); got != tt.want {
			t.Errorf("nipp1118 Classify(%g) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestUnknownVariantError(t *testing.T) {
	lib, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}

	_, err = lib.Catalog("nope")
	if err == nil {
		t.Fatal("Expected error for unknown variant")
	}
	if !strings.Contains(err.Error(), "nip3") {
		t.Errorf("Error should name known variants, got: %v", err)
	}
}

const overlayCatalog = `variant: nip3
version: 99
title: Custom Overlay
aggregation: sum
scale_min: 0
scale_max: 3
client_top_n: 2
thresholds:
  key: percentage
  tiers:
  - min: 50
    tier: Present
  - min: 0
    tier: Absent
patterns:
- code: P1
  name: Only Pattern
questions:
- id: q1
  pattern: P1
  text: Sole question.
`

func TestLoadOverlayReplacesBuiltin(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "nip3.yaml"), []byte(overlayCatalog), 0644); err != nil {
		t.Fatalf("failed to write overlay: %v", err)
	}

	lib, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cat, err := lib.Catalog("nip3")
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if cat.Version != 99 {
		t.Errorf("Expected overlay version 99, got %d", cat.Version)
	}
	if len(cat.Patterns) != 1 {
		t.Errorf("Overlay should replace builtin wholesale, got %d patterns", len(cat.Patterns))
	}

	// Untouched variants stay builtin.
	teen, err := lib.Catalog("nipp1118")
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if len(teen.Questions) != 50 {
		t.Errorf("Expected builtin nipp1118 untouched, got %d questions", len(teen.Questions))
	}
}

func TestLoadMissingDirIsNotAnError(t *testing.T) {
	lib, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(lib.Variants()) != 4 {
		t.Errorf("Expected builtin variants only, got %v", lib.Variants())
	}
}

func TestValidateRejectsDefects(t *testing.T) {
	valid := func() *Catalog {
		return &Catalog{
			Variant:     "test",
			Version:     1,
			Aggregation: models.AggregateSum,
			ScaleMin:    0,
			ScaleMax:    3,
			Thresholds: ThresholdTable{
				Key: models.ThresholdOnPercentage,
				Tiers: []models.SeverityThreshold{
					{Min: 50, Tier: "High"},
					{Min: 0, Tier: "Low"},
				},
			},
			Patterns:  []PatternDefinition{{Code: "P1", Name: "One"}},
			Questions: []models.Question{{ID: "q1", PatternCode: "P1", Text: "t"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Catalog)
		want   string
	}{
		{"no variant", func(c *Catalog) { c.Variant = "" }, "no variant name"},
		{"bad version", func(c *Catalog) { c.Version = 0 }, "version must be positive"},
		{"inverted scale", func(c *Catalog) { c.ScaleMin, c.ScaleMax = 4, 1 }, "empty or inverted"},
		{"bad aggregation", func(c *Catalog) { c.Aggregation = "median" }, "unknown aggregation"},
		{"no patterns", func(c *Catalog) { c.Patterns = nil }, "no patterns"},
		{"duplicate pattern", func(c *Catalog) {
			c.Patterns = append(c.Patterns, PatternDefinition{Code: "P1"})
		}, "duplicate pattern code"},
		{"bad threshold key", func(c *Catalog) { c.Thresholds.Key = "mood" }, "unknown threshold key"},
		{"empty thresholds", func(c *Catalog) { c.Thresholds.Tiers = nil }, "empty threshold table"},
		{"non-descending tiers", func(c *Catalog) {
			c.Thresholds.Tiers = []models.SeverityThreshold{
				{Min: 50, Tier: "High"},
				{Min: 50, Tier: "Also High"},
				{Min: 0, Tier: "Low"},
			}
		}, "strictly descending"},
		{"uncovered floor", func(c *Catalog) {
			c.Thresholds.Tiers = []models.SeverityThreshold{
				{Min: 50, Tier: "High"},
				{Min: 10, Tier: "Low"},
			}
		}, "unclassified"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := valid()
			tt.mutate(cat)
			err := cat.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidateMalformedQuestionErrors(t *testing.T) {
	base := &Catalog{
		Variant:     "test",
		Version:     1,
		Aggregation: models.AggregateSum,
		ScaleMin:    0,
		ScaleMax:    3,
		Thresholds: ThresholdTable{
			Key:   models.ThresholdOnPercentage,
			Tiers: []models.SeverityThreshold{{Min: 0, Tier: "Low"}},
		},
		Patterns: []PatternDefinition{{Code: "P1", Name: "One"}},
	}

	tests := []struct {
		name      string
		questions []models.Question
	}{
		{"empty id", []models.Question{{ID: "", PatternCode: "P1"}}},
		{"duplicate id", []models.Question{
			{ID: "q1", PatternCode: "P1"},
			{ID: "q1", PatternCode: "P1"},
		}},
		{"dangling pattern", []models.Question{{ID: "q1", PatternCode: "GHOST"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := *base
			cat.Questions = tt.questions
			err := cat.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !errors.Is(err, models.ErrMalformedInput) {
				t.Errorf("Expected ErrMalformedInput, got: %v", err)
			}
		})
	}
}

func TestValidateRawFloorForMeanMode(t *testing.T) {
	cat := &Catalog{
		Variant:     "test",
		Version:     1,
		Aggregation: models.AggregateMean,
		ScaleMin:    1,
		ScaleMax:    4,
		Thresholds: ThresholdTable{
			Key: models.ThresholdOnRawScore,
			Tiers: []models.SeverityThreshold{
				{Min: 2.5, Tier: "High"},
				{Min: 1, Tier: "Low"},
			},
		},
		Patterns: []PatternDefinition{{Code: "P1", Name: "One"}},
	}

	if err := cat.Validate(); err != nil {
		t.Fatalf("Expected raw-keyed mean catalog with floor at scale min to validate: %v", err)
	}

	// A floor above the scale minimum leaves low means unclassified.
	cat.Thresholds.Tiers[1].Min = 1.5
	if err := cat.Validate(); err == nil {
		t.Fatal("Expected validation error for uncovered raw floor")
	}
}
