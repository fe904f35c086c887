package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"mrxstudio/internal/config"
)

// OwnerMessage is one rendered notification for the site owner.
type OwnerMessage struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Channel delivers an OwnerMessage over one transport.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg *OwnerMessage) error
}

// sendMailFunc matches smtp.SendMail so tests can capture messages.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPChannel sends owner notifications through an SMTP relay
type SMTPChannel struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
	sendMail  sendMailFunc
}

// NewSMTPChannel creates an SMTP channel from the email configuration.
// Port 465 uses implicit TLS, any other port goes through smtp.SendMail
// which upgrades with STARTTLS when offered.
func NewSMTPChannel(cfg *config.EmailConfig) *SMTPChannel {
	c := &SMTPChannel{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		fromEmail: cfg.SMTPFromEmail,
		fromName:  cfg.FromName,
	}
	if c.port == 465 {
		c.sendMail = c.sendImplicitTLS
	} else {
		c.sendMail = smtp.SendMail
	}
	return c
}

// Name returns the channel name used in logs and metrics
func (c *SMTPChannel) Name() string { return "smtp" }

// Send delivers msg. The context is only checked before dialing since
// net/smtp has no context support.
func (c *SMTPChannel) Send(ctx context.Context, msg *OwnerMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.host == "" || c.fromEmail == "" {
		return fmt.Errorf("smtp channel not properly configured")
	}

	var auth smtp.Auth
	if c.username != "" {
		auth = smtp.PlainAuth("", c.username, c.password, c.host)
	}

	body, err := c.buildMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	if err := c.sendMail(addr, auth, c.fromEmail, []string{msg.To}, body); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// buildMessage renders a multipart/alternative message with a plain text
// part and an HTML part, both quoted-printable.
func (c *SMTPChannel) buildMessage(msg *OwnerMessage) ([]byte, error) {
	boundary, err := randomBoundary()
	if err != nil {
		return nil, err
	}

	from := c.fromEmail
	if c.fromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", c.fromName), c.fromEmail)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", headerValue(msg.To))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", headerValue(msg.ReplyTo))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(msg.Subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)

	parts := []struct{ contentType, body string }{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s; charset=UTF-8\r\n", p.contentType)
		buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		qp := quotedprintable.NewWriter(&buf)
		if _, err := qp.Write([]byte(p.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes(), nil
}

// sendImplicitTLS is smtp.SendMail over a TLS connection, for port 465.
func (c *SMTPChannel) sendImplicitTLS(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: c.host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, c.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if a != nil {
		if err := client.Auth(a); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func randomBoundary() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "mrx_" + hex.EncodeToString(b), nil
}

// headerValue strips CR and LF so user data cannot inject headers.
func headerValue(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
