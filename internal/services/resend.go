package services

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"mrxstudio/internal/config"
)

// ResendChannel sends owner notifications through the Resend API
type ResendChannel struct {
	client *resend.Client
	from   string
}

// NewResendChannel creates a Resend channel from the email configuration
func NewResendChannel(cfg *config.EmailConfig) *ResendChannel {
	from := cfg.ResendFrom
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.ResendFrom)
	}
	return &ResendChannel{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   from,
	}
}

// Name returns the channel name used in logs and metrics
func (c *ResendChannel) Name() string { return "resend" }

// Send delivers msg through the Resend emails endpoint
func (c *ResendChannel) Send(ctx context.Context, msg *OwnerMessage) error {
	req := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{msg.To},
		Subject: headerValue(msg.Subject),
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
	}
	if _, err := c.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
