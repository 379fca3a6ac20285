// Package notify is the outbound message boundary. Real providers implement
// Transport; LogTransport is used in development.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Result is what a provider reports back for an accepted message.
type Result struct {
	MessageID string
}

type Transport interface {
	SendEmail(ctx context.Context, to, subject, text, html string) (Result, error)
	SendSMS(ctx context.Context, to, body string) (Result, error)
}

// SendError marks a transport failure. Callers leave the message pending.
type SendError struct {
	Method    string
	Recipient string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("notify: %s to %s failed: %v", e.Method, e.Recipient, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// LogTransport writes every message to the logger and always succeeds.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTransport{logger: logger.With("component", "notify")}
}

func (t *LogTransport) SendEmail(ctx context.Context, to, subject, text, html string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, &SendError{Method: "email", Recipient: to, Err: err}
	}
	id := uuid.NewString()
	t.logger.InfoContext(ctx, "email sent", "to", to, "subject", subject, "message_id", id, "bytes", len(text)+len(html))
	return Result{MessageID: id}, nil
}

func (t *LogTransport) SendSMS(ctx context.Context, to, body string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, &SendError{Method: "sms", Recipient: to, Err: err}
	}
	id := uuid.NewString()
	t.logger.InfoContext(ctx, "sms sent", "to", to, "message_id", id, "bytes", len(body))
	return Result{MessageID: id}, nil
}

var _ Transport = (*LogTransport)(nil)
