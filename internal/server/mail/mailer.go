// Package mail defines the outbound mail boundary. Delivery is best
// effort: callers dispatch without awaiting the provider and only log
// failures.
package mail

import (
	"context"

	"github.com/dpetukhov/livetalks/internal/logging"
)

// Mailer sends a single HTML message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// LogMailer writes messages to the log instead of sending them. Used in
// development when no mail provider is configured.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "mail")}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, html string) error {
	m.logger.Info(ctx, "mail not sent (no provider configured)", "to", to, "subject", subject)
	return nil
}
