// Package report composes audience-specific documents from finalized pattern
// scores. The output is a render-agnostic document model: nested sections and
// fields plus a chart series, with templating to HTML or plaintext left to
// the render layer.
//
// Composition is deterministic: byte-identical scores and respondent context
// produce a byte-identical document. The completion date is an explicit
// input; nothing here reads the clock.
package report

import (
	"time"

	"github.com/brainworx/scorecard/internal/models"
)

// Document is a composed report for one audience.
type Document struct {
	// Audience determines section depth: client documents are concise,
	// coach documents carry the full clinical detail.
	Audience models.ReportAudience `json:"audience"`

	// Title is the assessment title, e.g. "Neural Imprint Patterns 3.0".
	Title string `json:"title"`

	// Variant and RunID tie the document back to its inputs.
	Variant string `json:"variant"`
	RunID   string `json:"run_id"`

	// RespondentName and CompletedAt are the only respondent context a
	// document carries.
	RespondentName string    `json:"respondent_name"`
	CompletedAt    time.Time `json:"completed_at"`

	Sections []Section `json:"sections"`

	// Series is the full code-to-percentage set intended for chart
	// rendering. Always covers every pattern, answered or not.
	Series []SeriesPoint `json:"series,omitempty"`

	// Warnings surfaces non-fatal scoring annotations, e.g. an incomplete
	// answer set.
	Warnings []string `json:"warnings,omitempty"`
}

// Section is one nested block of a document.
type Section struct {
	Heading     string    `json:"heading"`
	Body        string    `json:"body,omitempty"`
	Fields      []Field   `json:"fields,omitempty"`
	Items       []string  `json:"items,omitempty"`
	Subsections []Section `json:"subsections,omitempty"`
}

// Field is a labeled value within a section.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SeriesPoint is one chart datum: a pattern and its percentage.
type SeriesPoint struct {
	Code       string `json:"code"`
	Label      string `json:"label"`
	Percentage int    `json:"percentage"`
}
