package notify

import (
	"context"
	"log/slog"
)

// NoopSender logs messages instead of delivering them. Used when no
// provider key is configured.
type NoopSender struct {
	logger *slog.Logger
}

// NewNoopSender creates a NoopSender.
func NewNoopSender(logger *slog.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

// Send logs the message.
func (s *NoopSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "noop_email_send", "to", msg.To, "subject", msg.Subject)
	return nil
}
