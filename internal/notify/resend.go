package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ResendSender sends email through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

// NewResendSender creates a sender for the given API key and from address.
func NewResendSender(apiKey, from string, logger *slog.Logger) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger,
	}
}

// Send delivers msg.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		s.logger.ErrorContext(ctx, "resend_send_failed", "error", err, "to", msg.To, "subject", msg.Subject)
		return fmt.Errorf("resend send failed: %w", err)
	}

	s.logger.InfoContext(ctx, "resend_sent", "message_id", sent.Id, "to", msg.To)
	return nil
}
