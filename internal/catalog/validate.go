package catalog

import (
	"fmt"

	"github.com/brainworx/scorecard/internal/models"
)

// Validate checks catalog integrity: scale sanity, duplicate ids, dangling
// pattern codes, and a monotonic non-overlapping threshold table. It returns
// the first defect found; catalogs with defects are never served.
func (c *Catalog) Validate() error {
	if c.Variant == "" {
		return fmt.Errorf("catalog has no variant name")
	}
	if c.Version <= 0 {
		return fmt.Errorf("catalog %s: version must be positive, got %d", c.Variant, c.Version)
	}
	if c.ScaleMax <= c.ScaleMin {
		return fmt.Errorf("catalog %s: scale [%d,%d] is empty or inverted",
			c.Variant, c.ScaleMin, c.ScaleMax)
	}
	switch c.Aggregation {
	case models.AggregateSum, models.AggregateMean:
	default:
		return fmt.Errorf("catalog %s: unknown aggregation mode %q", c.Variant, c.Aggregation)
	}
	if len(c.Patterns) == 0 {
		return fmt.Errorf("catalog %s: no patterns defined", c.Variant)
	}

	seenPattern := make(map[string]bool, len(c.Patterns))
	for _, p := range c.Patterns {
		if p.Code == "" {
			return fmt.Errorf("catalog %s: pattern with empty code", c.Variant)
		}
		if seenPattern[p.Code] {
			return fmt.Errorf("catalog %s: duplicate pattern code %s", c.Variant, p.Code)
		}
		seenPattern[p.Code] = true
	}

	seenQuestion := make(map[string]bool, len(c.Questions))
	for _, q := range c.Questions {
		if q.ID == "" {
			return &models.MalformedInputError{
				Reason: fmt.Sprintf("catalog %s: question with empty id", c.Variant),
			}
		}
		if seenQuestion[q.ID] {
			return &models.MalformedInputError{
				QuestionID: q.ID,
				Reason:     fmt.Sprintf("duplicate question id in variant %s", c.Variant),
			}
		}
		seenQuestion[q.ID] = true
		if !seenPattern[q.PatternCode] {
			return &models.MalformedInputError{
				QuestionID: q.ID,
				Reason:     fmt.Sprintf("question references unknown pattern %s", q.PatternCode),
			}
		}
	}

	return c.validateThresholds()
}

// validateThresholds enforces that tiers form a monotonic, non-overlapping
// partition: strictly descending lower bounds with a tier covering the floor
// of the key space.
func (c *Catalog) validateThresholds() error {
	t := c.Thresholds
	switch t.Key {
	case models.ThresholdOnPercentage, models.ThresholdOnRawScore:
	default:
		return fmt.Errorf("catalog %s: unknown threshold key %q", c.Variant, t.Key)
	}
	if len(t.Tiers) == 0 {
		return fmt.Errorf("catalog %s: empty threshold table", c.Variant)
	}
	for i := 1; i < len(t.Tiers); i++ {
		if t.Tiers[i].Min >= t.Tiers[i-1].Min {
			return fmt.Errorf("catalog %s: threshold tiers not strictly descending at %q (%g >= %g)",
				c.Variant, t.Tiers[i].Tier, t.Tiers[i].Min, t.Tiers[i-1].Min)
		}
		if t.Tiers[i].Tier == "" {
			return fmt.Errorf("catalog %s: threshold tier with empty label", c.Variant)
		}
	}

	floor := 0.0
	if t.Key == models.ThresholdOnRawScore && c.Aggregation == models.AggregateMean {
		floor = float64(c.ScaleMin)
	}
	if last := t.Tiers[len(t.Tiers)-1].Min; last > floor {
		return fmt.Errorf("catalog %s: threshold table leaves scores below %g unclassified",
			c.Variant, last)
	}
	return nil
}
