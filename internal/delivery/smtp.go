package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
)

// SMTPTransport sends messages through a plain SMTP endpoint with optional
// AUTH PLAIN credentials. It dials per message; the dispatcher's concurrency
// bound keeps connection counts sane.
type SMTPTransport struct {
	addr string // host:port
	auth smtp.Auth
}

// NewSMTPTransport creates a transport for the given host and port. Username
// may be empty for unauthenticated relays.
func NewSMTPTransport(host string, port int, username, password string) *SMTPTransport {
	t := &SMTPTransport{addr: fmt.Sprintf("%s:%d", host, port)}
	if username != "" {
		t.auth = smtp.PlainAuth("", username, password, host)
	}
	return t
}

// Send implements Transport. The context deadline is honored up to the dial;
// net/smtp does not support mid-session cancellation.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := encodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode message to %s: %w", msg.To, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(t.addr, t.auth, msg.From, []string{msg.To}, payload)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", msg.To, ctx.Err())
	}
}

// encodeMessage builds the RFC 2822 payload: headers, a multipart/alternative
// text+html body, and base64 attachments under multipart/mixed when present.
func encodeMessage(msg Message) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", msg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")

	mixed := multipart.NewWriter(&buf)
	hasAttachments := len(msg.Attachments) > 0
	if hasAttachments {
		fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixed.Boundary())
	}

	bodyTarget := &buf
	var bodyPart *bytes.Buffer
	if hasAttachments {
		bodyPart = &bytes.Buffer{}
		bodyTarget = bodyPart
	}

	alt := multipart.NewWriter(bodyTarget)
	if !hasAttachments {
		fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", alt.Boundary())
	}

	text, err := alt.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprint(text, msg.TextBody)

	if msg.HTMLBody != "" {
		html, err := alt.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"text/html; charset=utf-8"},
		})
		if err != nil {
			return nil, err
		}
		fmt.Fprint(html, msg.HTMLBody)
	}
	if err := alt.Close(); err != nil {
		return nil, err
	}

	if hasAttachments {
		body, err := mixed.CreatePart(textproto.MIMEHeader{
			"Content-Type": {fmt.Sprintf("multipart/alternative; boundary=%q", alt.Boundary())},
		})
		if err != nil {
			return nil, err
		}
		if _, err := body.Write(bodyPart.Bytes()); err != nil {
			return nil, err
		}

		for _, att := range msg.Attachments {
			contentType := att.ContentType
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			part, err := mixed.CreatePart(textproto.MIMEHeader{
				"Content-Type":              {contentType},
				"Content-Transfer-Encoding": {"base64"},
				"Content-Disposition": {fmt.Sprintf("attachment; filename=%q",
					sanitizeFilename(att.Filename))},
			})
			if err != nil {
				return nil, err
			}
			encoded := base64.StdEncoding.EncodeToString(att.Data)
			// 76-character lines per RFC 2045.
			for len(encoded) > 76 {
				fmt.Fprintf(part, "%s\r\n", encoded[:76])
				encoded = encoded[76:]
			}
			fmt.Fprint(part, encoded)
		}
		if err := mixed.Close(); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\r", "")
	name = strings.ReplaceAll(name, "\n", "")
	if name == "" {
		return "attachment"
	}
	return name
}
