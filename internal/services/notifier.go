package services

import (
	"bytes"
	"context"
	"errors"
	htmltemplate "html/template"
	"log/slog"
	texttemplate "text/template"
	"time"

	"golang.org/x/time/rate"

	"mrxstudio/internal/config"
	"mrxstudio/internal/metrics"
)

// ErrNoChannel is reported when no notification channel is configured.
var ErrNoChannel = errors.New("no notification channel configured")

// ErrThrottled is reported when the outbound send budget is exhausted.
var ErrThrottled = errors.New("notification throttled")

// Notification carries the fields of an accepted submission the owner sees.
type Notification struct {
	SubmissionID string
	Email        string
	Phone        string
	Message      string
	SubmittedAt  time.Time
}

// ChannelAttempt records one delivery attempt.
type ChannelAttempt struct {
	Channel string
	Err     error
}

// NotifyResult is the outcome of Notify. It is a value, not an error:
// delivery failures never fail the submission.
type NotifyResult struct {
	Delivered bool
	Channel   string
	Attempts  []ChannelAttempt
}

// OwnerNotifier notifies the site owner about accepted submissions.
type OwnerNotifier interface {
	Notify(ctx context.Context, n Notification) NotifyResult
}

var htmlBody = htmltemplate.Must(htmltemplate.New("owner.html").Parse(`<div style="font-family: system-ui, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">New Contact Form Submission</h2>
  <p><strong>From:</strong> {{.Email}}</p>
  {{- if .Phone}}
  <p><strong>Phone:</strong> {{.Phone}}</p>
  {{- end}}
  <p><strong>Message:</strong></p>
  <p style="background-color: #f5f5f5; padding: 16px; border-radius: 8px; white-space: pre-wrap;">{{.Message}}</p>
  <hr style="border: none; border-top: 1px solid #ddd; margin: 24px 0;" />
  <p style="color: #666; font-size: 12px;">
    Submission ID: {{.SubmissionID}}<br />
    Submitted at: {{.SubmittedAt}}
  </p>
  <p style="color: #666; font-size: 12px;"><a href="mailto:{{.Email}}">Reply to this email</a></p>
</div>
`))

var textBody = texttemplate.Must(texttemplate.New("owner.txt").Parse(`New Contact Form Submission

From: {{.Email}}
{{- if .Phone}}
Phone: {{.Phone}}
{{- end}}

Message:
{{.Message}}

Submission ID: {{.SubmissionID}}
Submitted at: {{.SubmittedAt}}
`))

type templateData struct {
	SubmissionID string
	Email        string
	Phone        string
	Message      string
	SubmittedAt  string
}

// Notifier tries its channels in order until one delivers.
type Notifier struct {
	owner         string
	subjectPrefix string
	channels      []Channel
	limiter       *rate.Limiter
	logger        *slog.Logger
}

// NewNotifier creates a Notifier. perMinute bounds outbound sends; zero
// or less disables the throttle.
func NewNotifier(owner, subjectPrefix string, perMinute int, channels ...Channel) *Notifier {
	n := &Notifier{
		owner:         owner,
		subjectPrefix: subjectPrefix,
		channels:      channels,
		logger:        slog.Default().With("component", "email"),
	}
	if perMinute > 0 {
		n.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
	return n
}

// NewNotifierFromConfig wires Resend as the primary channel and SMTP as
// the secondary one, skipping those that are not configured.
func NewNotifierFromConfig(cfg *config.EmailConfig) *Notifier {
	return NewNotifier(cfg.OwnerEmail, cfg.SubjectPrefix, cfg.MaxPerMinute, BuildChannels(cfg)...)
}

// BuildChannels returns the configured channels in priority order.
func BuildChannels(cfg *config.EmailConfig) []Channel {
	var channels []Channel
	if cfg.ResendEnabled() {
		channels = append(channels, NewResendChannel(cfg))
	}
	if cfg.SMTPEnabled() {
		channels = append(channels, NewSMTPChannel(cfg))
	}
	return channels
}

// Channels returns the configured channel names in order
func (n *Notifier) Channels() []string {
	names := make([]string, len(n.channels))
	for i, c := range n.channels {
		names[i] = c.Name()
	}
	return names
}

// Notify renders the owner message and sends it on the first channel that
// succeeds.
func (n *Notifier) Notify(ctx context.Context, note Notification) NotifyResult {
	var res NotifyResult
	if len(n.channels) == 0 || n.owner == "" {
		res.Attempts = append(res.Attempts, ChannelAttempt{Err: ErrNoChannel})
		n.logger.Warn("no email service configured", "submission_id", note.SubmissionID)
		return res
	}
	if n.limiter != nil && !n.limiter.Allow() {
		res.Attempts = append(res.Attempts, ChannelAttempt{Err: ErrThrottled})
		metrics.RecordNotification("throttle", false)
		n.logger.Warn("notification throttled", "submission_id", note.SubmissionID)
		return res
	}

	msg, err := n.render(note)
	if err != nil {
		res.Attempts = append(res.Attempts, ChannelAttempt{Err: err})
		n.logger.Error("failed to render notification", "submission_id", note.SubmissionID, "error", err)
		return res
	}

	for _, ch := range n.channels {
		err := ch.Send(ctx, msg)
		res.Attempts = append(res.Attempts, ChannelAttempt{Channel: ch.Name(), Err: err})
		metrics.RecordNotification(ch.Name(), err == nil)
		if err == nil {
			res.Delivered = true
			res.Channel = ch.Name()
			return res
		}
		n.logger.Warn("notification channel failed",
			"channel", ch.Name(),
			"submission_id", note.SubmissionID,
			"error", err,
		)
	}
	return res
}

func (n *Notifier) render(note Notification) (*OwnerMessage, error) {
	data := templateData{
		SubmissionID: note.SubmissionID,
		Email:        note.Email,
		Phone:        note.Phone,
		Message:      note.Message,
		SubmittedAt:  note.SubmittedAt.UTC().Format(time.RFC3339),
	}

	var html, text bytes.Buffer
	if err := htmlBody.Execute(&html, data); err != nil {
		return nil, err
	}
	if err := textBody.Execute(&text, data); err != nil {
		return nil, err
	}

	return &OwnerMessage{
		To:      n.owner,
		ReplyTo: note.Email,
		Subject: n.subjectPrefix + " " + note.Email,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
