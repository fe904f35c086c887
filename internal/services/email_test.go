package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"net/smtp"
	"net/url"
	"strings"
	"testing"

	"mrxstudio/internal/config"
)

func testEmailConfig() *config.EmailConfig {
	return &config.EmailConfig{
		OwnerEmail:    "owner@example.com",
		FromName:      "Mohammed (Mr X) Studio",
		SubjectPrefix: "New Contact Form Submission from",
		MaxPerMinute:  30,
		ResendAPIKey:  "re_test",
		ResendFrom:    "noreply@resend.dev",
		SMTPHost:      "smtp.example.com",
		SMTPPort:      587,
		SMTPUsername:  "mailer@example.com",
		SMTPPassword:  "secret",
		SMTPFromEmail: "mailer@example.com",
	}
}

func TestSMTPChannel_Send(t *testing.T) {
	ch := NewSMTPChannel(testEmailConfig())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	ch.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := ch.Send(context.Background(), &OwnerMessage{
		To:      "owner@example.com",
		ReplyTo: "a@b.com",
		Subject: "New Contact Form Submission from a@b.com\r\nBcc: victim@example.com",
		HTML:    "<p>Hello &amp; welcome</p>",
		Text:    "Hello & welcome",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotFrom != "mailer@example.com" || len(gotTo) != 1 || gotTo[0] != "owner@example.com" {
		t.Errorf("envelope from=%q to=%v", gotFrom, gotTo)
	}

	msg, err := mail.ReadMessage(strings.NewReader(string(gotMsg)))
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if msg.Header.Get("Bcc") != "" {
		t.Error("subject line break produced an extra header")
	}
	if got := msg.Header.Get("Reply-To"); got != "a@b.com" {
		t.Errorf("Reply-To = %q", got)
	}

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/alternative" {
		t.Fatalf("Content-Type = %q (%v)", msg.Header.Get("Content-Type"), err)
	}
	mr := multipart.NewReader(msg.Body, params["boundary"])
	var types []string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("NextPart() error = %v", err)
		}
		body, _ := io.ReadAll(part)
		ct, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		types = append(types, ct)
		if ct == "text/plain" && !strings.Contains(string(body), "Hello & welcome") {
			t.Errorf("text part = %q", body)
		}
	}
	if strings.Join(types, ",") != "text/plain,text/html" {
		t.Errorf("parts = %v", types)
	}
}

func TestSMTPChannel_SendError(t *testing.T) {
	ch := NewSMTPChannel(testEmailConfig())
	ch.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	if err := ch.Send(context.Background(), &OwnerMessage{To: "owner@example.com", Text: "x"}); err == nil {
		t.Fatal("Send() error = nil, want failure")
	}
}

func TestSMTPChannel_NotConfigured(t *testing.T) {
	cfg := testEmailConfig()
	cfg.SMTPFromEmail = ""
	ch := NewSMTPChannel(cfg)
	ch.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("sendMail called without a sender address")
		return nil
	}
	if err := ch.Send(context.Background(), &OwnerMessage{To: "owner@example.com", Text: "x"}); err == nil {
		t.Fatal("Send() error = nil, want configuration error")
	}
}

func TestResendChannel_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" || r.Method != http.MethodPost {
			t.Errorf("request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer re_test" {
			t.Errorf("Authorization = %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_123"}`))
	}))
	defer srv.Close()

	ch := NewResendChannel(testEmailConfig())
	ch.client.BaseURL, _ = url.Parse(srv.URL + "/")

	err := ch.Send(context.Background(), &OwnerMessage{
		To:      "owner@example.com",
		Subject: "New Contact Form Submission from a@b.com",
		HTML:    "<p>hi</p>",
		Text:    "hi",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got["from"] != "Mohammed (Mr X) Studio <noreply@resend.dev>" {
		t.Errorf("from = %v", got["from"])
	}
	if got["subject"] != "New Contact Form Submission from a@b.com" {
		t.Errorf("subject = %v", got["subject"])
	}
}

func TestResendChannel_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"statusCode":500,"name":"internal_server_error","message":"boom"}`))
	}))
	defer srv.Close()

	ch := NewResendChannel(testEmailConfig())
	ch.client.BaseURL, _ = url.Parse(srv.URL + "/")

	if err := ch.Send(context.Background(), &OwnerMessage{To: "owner@example.com", Text: "hi"}); err == nil {
		t.Fatal("Send() error = nil, want API failure")
	}
}
