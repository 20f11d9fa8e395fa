package models

import "time"

// ReportAudience selects which composed document a recipient receives.
type ReportAudience string

const (
	// AudienceClient is the concise respondent-facing summary.
	AudienceClient ReportAudience = "client"
	// AudienceCoach is the detailed professional analysis.
	AudienceCoach ReportAudience = "coach"
)

// RecipientRole identifies why an address receives a report.
type RecipientRole string

const (
	RoleRespondent RecipientRole = "respondent"
	RoleCoach      RecipientRole = "coach"
	RoleAdmin      RecipientRole = "admin"
)

// Recipient is one delivery target for a dispatched run.
type Recipient struct {
	Role     RecipientRole  `json:"role"`
	Name     string         `json:"name,omitempty"`
	Address  string         `json:"address"`
	Audience ReportAudience `json:"report_audience"`
}

// DeliveryStatus is the terminal outcome of one delivery attempt.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// DeliveryResult records the settled outcome of one recipient's delivery
// attempt. Failures are always returned structurally, never only logged.
type DeliveryResult struct {
	Recipient Recipient
	Status    DeliveryStatus
	// Err is the transport failure when Status is DeliveryFailed.
	Err      error
	Duration time.Duration
}

// Sent reports whether this recipient's delivery succeeded.
func (r DeliveryResult) Sent() bool {
	return r.Status == DeliverySent
}
