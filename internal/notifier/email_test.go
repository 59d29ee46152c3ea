package notifier

import (
	"context"
	"strings"
	"testing"

	"meetup-board/internal/model"
)

func TestEmailNotifierSkipsEmpty(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	n := NewEmailNotifier(EmailConfig{From: "a@b.c", To: []string{"d@e.f"}}, sender)

	if err := n.Notify(context.Background(), nil); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no email for empty list, got %d", len(sender.sent))
	}
}

func TestEmailNotifierBuildsBody(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	n := NewEmailNotifier(EmailConfig{From: "a@b.c", To: []string{"d@e.f"}}, sender)

	items := []model.AdminNotification{
		{EventType: model.EventSubmitted, Message: "Job \"Backend Engineer\" submitted for review"},
		{EventType: model.EventExpired, Message: "Listing \"Old Role\" expired and was archived"},
	}
	if err := n.Notify(context.Background(), items); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	body := sender.sent[0].Body
	if !strings.Contains(body, "[submitted]") || !strings.Contains(body, "[expired]") {
		t.Fatalf("expected event tags in body, got %q", body)
	}
	if sender.sent[0].Subject != "Job board activity" {
		t.Fatalf("expected default subject, got %q", sender.sent[0].Subject)
	}
}

// --- stubs ---

type stubSender struct {
	sent []EmailMessage
	err  error
}

func (s *stubSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}
