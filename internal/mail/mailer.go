// Package mail provides the notification collaborator for Atlas Accounts.
// Delivery is best-effort: callers dispatch and move on, results are
// observed only in logs.
package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// Message is a single outbound notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer attempts delivery of a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer is a delivery stub that writes the message to the log instead of
// sending it. Used in development and tests, and as the default backend.
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With().Str("mailer", "log").Logger()}
}

// Send logs the message and reports success.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("mail delivered to log")
	return nil
}
