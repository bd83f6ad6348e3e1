// Package notify sends transactional email to club members.
package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/Shivanand-hulikatti/club-events/internal/model"
)

// Message is a single outgoing email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers a Message through an email provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// RegistrationConfirmation builds the email sent after a member registers.
func RegistrationConfirmation(to, name string, e model.Event) Message {
	when := e.Date.String()
	if e.Time != "" {
		when += " " + e.Time
	}
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + html.EscapeString(name)
	}
	body := fmt.Sprintf(
		"<p>%s,</p><p>You are registered for <strong>%s</strong>.</p><p>When: %s<br>Where: %s</p>",
		greeting,
		html.EscapeString(e.Title),
		html.EscapeString(when),
		html.EscapeString(e.Location),
	)
	return Message{
		To:      []string{to},
		Subject: "Registration confirmed: " + e.Title,
		HTML:    body,
	}
}
