// Package models defines the core data types shared across the scorecard
// pipeline: questionnaire schema, assessment runs, pattern scores, delivery
// recipients and results, and the error taxonomy.
package models

import (
	"time"
)

// Question is a single questionnaire item. A question belongs to exactly one
// pattern within its assessment variant and is immutable once published.
type Question struct {
	// ID uniquely identifies the question within its variant.
	ID string `yaml:"id" json:"id"`

	// Text is the question as shown to the respondent.
	Text string `yaml:"text" json:"text"`

	// PatternCode names the pattern this question contributes to.
	PatternCode string `yaml:"pattern" json:"pattern"`

	// ScaleMin and ScaleMax bound the raw answer value (inclusive).
	ScaleMin int `yaml:"scale_min" json:"scale_min"`
	ScaleMax int `yaml:"scale_max" json:"scale_max"`

	// ReverseScored inverts the raw answer about the scale midpoint before
	// aggregation.
	ReverseScored bool `yaml:"reverse_scored,omitempty" json:"reverse_scored,omitempty"`
}

// Answer is a respondent's raw answer to one question.
type Answer struct {
	QuestionID string `json:"question_id"`
	Value      int    `json:"value"`
}

// RunStatus is the lifecycle state of an assessment run.
type RunStatus string

const (
	// RunInProgress marks a run that is still collecting answers.
	RunInProgress RunStatus = "in_progress"
	// RunCompleted marks a finalized run. Completed runs are immutable and
	// are the only runs scoring and reporting operate on.
	RunCompleted RunStatus = "completed"
)

// RaterRole identifies who answered on behalf of the subject. Single-rater
// variants use RaterSelf; dual-rater variants pair RaterParent with
// RaterTeacher for the same subject.
type RaterRole string

const (
	RaterSelf    RaterRole = "self"
	RaterParent  RaterRole = "parent"
	RaterTeacher RaterRole = "teacher"
)

// Respondent is the lightweight identity attached to a run. It is the only
// respondent context report composition uses.
type Respondent struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AssessmentRun is one pass through a questionnaire by one rater. Answers and
// status mutate only while in progress; the transition to completed is
// guarded at the store layer and freezes the run.
type AssessmentRun struct {
	ID         string     `json:"id"`
	Variant    string     `json:"variant"`
	Respondent Respondent `json:"respondent"`

	// Rater is who answered. Defaults to RaterSelf.
	Rater RaterRole `json:"rater"`

	// SubjectID groups the two rater runs of a dual-rater assessment. For
	// single-rater variants it equals the run ID.
	SubjectID string `json:"subject_id"`

	// CoachEmail is the franchise/coach contact registered for this run,
	// empty when none is.
	CoachEmail string `json:"coach_email,omitempty"`

	Answers     []Answer  `json:"answers"`
	Status      RunStatus `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// Completed reports whether the run has been finalized.
func (r *AssessmentRun) Completed() bool {
	return r.Status == RunCompleted
}
