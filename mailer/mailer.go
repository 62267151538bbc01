// Package mailer delivers case emails through SendGrid.
package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/linesmerrill/violation-case-api/models"
	templates "github.com/linesmerrill/violation-case-api/templates/html"
)

// Sender is the part of the SendGrid client the mailer uses
type Sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGrid renders models.Email into the case template and sends it
type SendGrid struct {
	client    Sender
	fromName  string
	fromEmail string
}

// New returns a SendGrid mailer. An empty apiKey yields a mailer that only logs, which
// keeps local environments working without credentials.
func New(apiKey, fromName, fromEmail string) *SendGrid {
	m := &SendGrid{fromName: fromName, fromEmail: fromEmail}
	if apiKey != "" {
		m.client = sendgrid.NewSendClient(apiKey)
	}
	return m
}

// NewWithSender is New with an explicit client
func NewWithSender(client Sender, fromName, fromEmail string) *SendGrid {
	return &SendGrid{client: client, fromName: fromName, fromEmail: fromEmail}
}

// Send delivers one email. Any 4xx/5xx from SendGrid is returned as an error.
func (m *SendGrid) Send(ctx context.Context, email models.Email) error {
	if email.To == "" {
		return fmt.Errorf("email has no recipient")
	}
	if m.client == nil {
		zap.S().Infow("sendgrid not configured, skipping email", "to", email.To, "subject", email.Subject)
		return nil
	}

	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(email.ToName, email.To)
	message := mail.NewSingleEmail(from, email.Subject, to,
		templates.PlainText(email.Body, email.ActionURL),
		templates.RenderCaseEmail(email.Subject, email.Body, email.ActionURL, email.ActionText))

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", email.To)
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	return nil
}
