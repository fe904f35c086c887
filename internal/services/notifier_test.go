package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeChannel struct {
	name string
	err  error
	sent []*OwnerMessage
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Send(ctx context.Context, msg *OwnerMessage) error {
	c.sent = append(c.sent, msg)
	return c.err
}

func testNotification() Notification {
	return Notification{
		SubmissionID: "sub-1",
		Email:        "a@b.com",
		Message:      `<script>alert("x")</script> & 'quotes'`,
		SubmittedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNotifier_PrimaryDelivers(t *testing.T) {
	primary := &fakeChannel{name: "resend"}
	secondary := &fakeChannel{name: "smtp"}
	n := NewNotifier("owner@example.com", "New Contact Form Submission from", 0, primary, secondary)

	res := n.Notify(context.Background(), testNotification())
	if !res.Delivered || res.Channel != "resend" {
		t.Fatalf("Notify() = %+v, want delivered via resend", res)
	}
	if len(secondary.sent) != 0 {
		t.Error("secondary used although primary succeeded")
	}

	msg := primary.sent[0]
	if msg.To != "owner@example.com" || msg.ReplyTo != "a@b.com" {
		t.Errorf("addressing = %+v", msg)
	}
	if msg.Subject != "New Contact Form Submission from a@b.com" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Error("HTML part contains unescaped markup")
	}
	for _, want := range []string{"&lt;script&gt;", "&amp;", "&#39;quotes&#39;", "&#34;x&#34;", "sub-1"} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("HTML part missing %q", want)
		}
	}
	if !strings.Contains(msg.Text, `<script>alert("x")</script>`) {
		t.Error("text part should carry the message verbatim")
	}
	if strings.Contains(msg.Text, "Phone:") {
		t.Error("text part lists a phone that was not provided")
	}
}

func TestNotifier_FallsBackToSecondary(t *testing.T) {
	primary := &fakeChannel{name: "resend", err: errors.New("api down")}
	secondary := &fakeChannel{name: "smtp"}
	n := NewNotifier("owner@example.com", "prefix", 0, primary, secondary)

	res := n.Notify(context.Background(), testNotification())
	if !res.Delivered || res.Channel != "smtp" {
		t.Fatalf("Notify() = %+v, want delivered via smtp", res)
	}
	if len(res.Attempts) != 2 || res.Attempts[0].Err == nil || res.Attempts[1].Err != nil {
		t.Errorf("Attempts = %+v", res.Attempts)
	}
}

func TestNotifier_AllChannelsFail(t *testing.T) {
	n := NewNotifier("owner@example.com", "prefix", 0,
		&fakeChannel{name: "resend", err: errors.New("api down")},
		&fakeChannel{name: "smtp", err: errors.New("relay down")},
	)
	res := n.Notify(context.Background(), testNotification())
	if res.Delivered {
		t.Fatal("Delivered = true, want false")
	}
	if len(res.Attempts) != 2 {
		t.Errorf("Attempts = %d, want 2", len(res.Attempts))
	}
}

func TestNotifier_NoChannels(t *testing.T) {
	res := NewNotifier("owner@example.com", "prefix", 0).Notify(context.Background(), testNotification())
	if res.Delivered {
		t.Fatal("Delivered = true without channels")
	}
	if len(res.Attempts) != 1 || !errors.Is(res.Attempts[0].Err, ErrNoChannel) {
		t.Errorf("Attempts = %+v, want ErrNoChannel", res.Attempts)
	}
}

func TestNotifier_Throttle(t *testing.T) {
	ch := &fakeChannel{name: "smtp"}
	n := NewNotifier("owner@example.com", "prefix", 2, ch)

	for i := 0; i < 2; i++ {
		if res := n.Notify(context.Background(), testNotification()); !res.Delivered {
			t.Fatalf("send %d not delivered", i+1)
		}
	}
	res := n.Notify(context.Background(), testNotification())
	if res.Delivered {
		t.Fatal("third send within the burst should be throttled")
	}
	if !errors.Is(res.Attempts[0].Err, ErrThrottled) {
		t.Errorf("Attempts = %+v, want ErrThrottled", res.Attempts)
	}
	if len(ch.sent) != 2 {
		t.Errorf("channel saw %d sends, want 2", len(ch.sent))
	}
}

func TestBuildChannels(t *testing.T) {
	cfg := testEmailConfig()
	n := NewNotifierFromConfig(cfg)
	if got := strings.Join(n.Channels(), ","); got != "resend,smtp" {
		t.Errorf("Channels() = %q, want resend,smtp", got)
	}

	cfg.ResendAPIKey = ""
	if got := strings.Join(NewNotifierFromConfig(cfg).Channels(), ","); got != "smtp" {
		t.Errorf("Channels() = %q, want smtp", got)
	}

	cfg.OwnerEmail = ""
	if got := len(BuildChannels(cfg)); got != 0 {
		t.Errorf("BuildChannels() = %d channels without owner, want 0", got)
	}
}
