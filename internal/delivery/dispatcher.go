package delivery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brainworx/scorecard/internal/models"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 30 * time.Second

// Content is the prepared message content for one audience.
type Content struct {
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Job is one dispatch request: the composed content per audience and the
// recipients to fan out to.
type Job struct {
	RunID string
	From  string

	// Content maps each audience to its prepared body. A recipient whose
	// audience has no content fails structurally, it does not panic or
	// abort siblings.
	Content map[models.ReportAudience]Content

	Recipients []models.Recipient
}

// Dispatcher fans deliveries out through a transport. Construct once with
// the process's transport and share.
type Dispatcher struct {
	transport     Transport
	timeout       time.Duration
	maxConcurrent int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// WithMaxConcurrent bounds concurrent attempts (0 = one goroutine per
// recipient).
func WithMaxConcurrent(n int) Option {
	return func(disp *Dispatcher) {
		disp.maxConcurrent = n
	}
}

// NewDispatcher creates a dispatcher over the given transport.
func NewDispatcher(transport Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch attempts delivery to every recipient concurrently and returns one
// result per recipient, in recipient order, after all attempts have settled.
// It never short-circuits: a failed recipient is recorded and its siblings
// proceed. Each attempt gets its own timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) []models.DeliveryResult {
	results := make([]models.DeliveryResult, len(job.Recipients))

	maxConcurrent := d.maxConcurrent
	if maxConcurrent <= 0 || maxConcurrent > len(job.Recipients) {
		maxConcurrent = len(job.Recipients)
	}
	if maxConcurrent == 0 {
		return results
	}
	semaphore := make(chan struct{}, maxConcurrent)

	var wg sync.WaitGroup
	for i, recipient := range job.Recipients {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, recipient models.Recipient) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[i] = d.attempt(ctx, job, recipient)
		}(i, recipient)
	}
	wg.Wait()

	return results
}

// attempt delivers to a single recipient and converts the outcome into a
// DeliveryResult. Transport failures are returned structurally with the run
// and recipient identity attached.
func (d *Dispatcher) attempt(ctx context.Context, job Job, recipient models.Recipient) models.DeliveryResult {
	start := time.Now()
	result := models.DeliveryResult{Recipient: recipient}

	content, ok := job.Content[recipient.Audience]
	if !ok {
		result.Status = models.DeliveryFailed
		result.Err = fmt.Errorf("run %s: no %s content composed for recipient %s",
			job.RunID, recipient.Audience, recipient.Address)
		result.Duration = time.Since(start)
		return result
	}

	attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	msg := Message{
		From:        job.From,
		To:          recipient.Address,
		Subject:     content.Subject,
		TextBody:    content.TextBody,
		HTMLBody:    content.HTMLBody,
		Attachments: content.Attachments,
	}
	if err := d.transport.Send(attemptCtx, msg); err != nil {
		result.Status = models.DeliveryFailed
		result.Err = fmt.Errorf("run %s: deliver to %s (%s): %w",
			job.RunID, recipient.Address, recipient.Role, err)
	} else {
		result.Status = models.DeliverySent
	}
	result.Duration = time.Since(start)
	return result
}
