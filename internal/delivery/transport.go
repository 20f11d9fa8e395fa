// Package delivery fans composed reports out to their recipients. Each
// recipient's delivery is an independent attempt through an injected
// transport; one failure never blocks, delays, or rolls back another.
//
// The dispatcher performs no retry and no deduplication. Delivery is
// at-least-once only if the caller re-invokes it, and re-invoking with the
// same run may resend mail. Callers needing stronger guarantees track a
// delivered marker in the store after all results are known.
package delivery

import (
	"context"
	"sync"
)

// Attachment is a file attached to an outgoing message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one outgoing mail: the full transport-level payload.
type Message struct {
	From     string
	To       string
	Subject  string
	TextBody string
	// HTMLBody, when set, is sent as the rich alternative body.
	HTMLBody    string
	Attachments []Attachment
}

// Transport sends a single message. Implementations must be safe for
// concurrent use; the dispatcher issues sends from multiple goroutines.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// RecordingTransport is an in-memory Transport for tests and dry runs. It
// records every message and answers with the configured error, if any.
type RecordingTransport struct {
	mu       sync.Mutex
	sent     []Message
	failWith map[string]error
}

// NewRecordingTransport creates an empty recording transport.
func NewRecordingTransport() *RecordingTransport {
	return &RecordingTransport{failWith: make(map[string]error)}
}

// FailFor makes sends to the given address fail with err.
func (t *RecordingTransport) FailFor(address string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failWith[address] = err
}

// Send implements Transport.
func (t *RecordingTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err, ok := t.failWith[msg.To]; ok {
		return err
	}
	t.sent = append(t.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (t *RecordingTransport) Sent() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.sent))
	copy(out, t.sent)
	return out
}
