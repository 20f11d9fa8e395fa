package models

// AggregationMode selects how answered values within a pattern group are
// aggregated into the pattern's actual score.
type AggregationMode string

const (
	// AggregateSum totals the (reverse-adjusted) answered values.
	AggregateSum AggregationMode = "sum"
	// AggregateMean averages the (reverse-adjusted) answered values.
	AggregateMean AggregationMode = "mean"
)

// ThresholdKey selects which value a severity threshold table classifies on.
type ThresholdKey string

const (
	// ThresholdOnPercentage classifies on the normalized 0-100 percentage.
	ThresholdOnPercentage ThresholdKey = "percentage"
	// ThresholdOnRawScore classifies on the raw aggregate (e.g. a 1-4
	// average), used by mean-mode variants with scale-native tier tables.
	ThresholdOnRawScore ThresholdKey = "raw"
)

// SeverityThreshold is one tier boundary: scores at or above Min (in the
// table's key space) classify as Tier, unless a higher tier also matches.
type SeverityThreshold struct {
	// Min is the inclusive lower bound, in percentage points or raw score
	// units depending on the table's key.
	Min float64 `yaml:"min"`

	// Tier is the label assigned, e.g. "Strongly Present" or "High".
	Tier string `yaml:"tier"`
}

// PatternScore is the derived score for one pattern of one completed run.
// Immutable once computed.
type PatternScore struct {
	// Code and Name identify the pattern within its variant.
	Code string `json:"code"`
	Name string `json:"name"`

	// ActualScore is the aggregate over answered questions only (sum or
	// mean per the variant's mode).
	ActualScore float64 `json:"actual_score"`

	// MaxScore is the aggregate's upper bound given how many questions
	// were answered.
	MaxScore float64 `json:"max_score"`

	// Percentage is ActualScore normalized to 0-100 and rounded.
	Percentage int `json:"percentage"`

	// Count is the number of answered questions in this pattern group.
	Count int `json:"count"`

	// SeverityTier is the label assigned by the variant's threshold table.
	SeverityTier string `json:"severity_tier"`

	// Unanswered flags a pattern none of whose questions were answered.
	// Such patterns are reported at percentage 0, never omitted.
	Unanswered bool `json:"unanswered,omitempty"`
}
