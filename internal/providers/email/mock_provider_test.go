package email_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	emailprovider "github.com/example/wedding-rsvp-mailer/internal/providers/email"
)

func newMessage(to string) *emailprovider.Message {
	return &emailprovider.Message{
		To:      to,
		From:    emailprovider.Address{Email: "noreply@example.com", Name: "Our Wedding"},
		Subject: "Hello",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
		Headers: map[string]string{},
	}
}

func TestMockProviderSuccess(t *testing.T) {
	fixed := time.Date(2025, time.October, 11, 10, 0, 0, 0, time.UTC)
	provider := emailprovider.NewMockProvider(
		zerolog.Nop(),
		emailprovider.WithLatencyRange(0, 0),
		emailprovider.WithClock(func() time.Time { return fixed }),
		emailprovider.WithRandomSeed(7),
	)

	receipt, err := provider.Send(context.Background(), newMessage("user@example.com"))
	if err != nil {
		t.Fatalf("expected success, got error %v", err)
	}
	if receipt.Code != 202 {
		t.Fatalf("expected 202, got %d", receipt.Code)
	}
	if receipt.Timestamp != fixed {
		t.Fatalf("expected fixed timestamp, got %v", receipt.Timestamp)
	}
	if receipt.ID == "" {
		t.Fatalf("expected generated message id")
	}

	second, err := provider.Send(context.Background(), newMessage("user@example.com"))
	if err != nil {
		t.Fatalf("expected success, got error %v", err)
	}
	if second.ID == receipt.ID {
		t.Fatalf("expected distinct ids, got %q twice", receipt.ID)
	}

	sent := provider.Sent()
	if len(sent) != 2 || sent[0].To != "user@example.com" {
		t.Fatalf("expected two recorded messages, got %+v", sent)
	}
}

func TestMockProviderSeedIsDeterministic(t *testing.T) {
	first := emailprovider.NewMockProvider(zerolog.Nop(), emailprovider.WithLatencyRange(0, 0), emailprovider.WithRandomSeed(42))
	second := emailprovider.NewMockProvider(zerolog.Nop(), emailprovider.WithLatencyRange(0, 0), emailprovider.WithRandomSeed(42))

	a, err := first.Send(context.Background(), newMessage("user@example.com"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	b, err := second.Send(context.Background(), newMessage("user@example.com"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("expected identical ids for identical seeds, got %q and %q", a.ID, b.ID)
	}
}

func TestMockProviderScenarioOverrides(t *testing.T) {
	provider := emailprovider.NewMockProvider(
		zerolog.Nop(),
		emailprovider.WithLatencyRange(0, 0),
		emailprovider.WithRecipientScenario("Couple@Example.com", emailprovider.ScenarioServerError),
	)

	msg := newMessage("user@example.com")
	msg.Headers[emailprovider.HeaderScenario] = string(emailprovider.ScenarioRejected)
	_, err := provider.Send(context.Background(), msg)
	var perr *emailprovider.ProviderError
	if !errors.As(err, &perr) || perr.StatusCode != 400 {
		t.Fatalf("expected 400 provider error, got %v", err)
	}

	_, err = provider.Send(context.Background(), newMessage("couple@example.com"))
	if !errors.As(err, &perr) || perr.StatusCode != 500 {
		t.Fatalf("expected 500 provider error for pinned recipient, got %v", err)
	}

	msg = newMessage("user@example.com")
	msg.Headers["x-mock-provider-scenario"] = "transport"
	_, err = provider.Send(context.Background(), msg)
	if !errors.Is(err, emailprovider.ErrMockTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if errors.As(err, &perr) {
		t.Fatalf("transport errors must not be provider errors")
	}

	if len(provider.Sent()) != 0 {
		t.Fatalf("failed sends must not be recorded")
	}
}

func TestMockProviderDefaultScenarioTimeout(t *testing.T) {
	provider := emailprovider.NewMockProvider(
		zerolog.Nop(),
		emailprovider.WithLatencyRange(0, 0),
		emailprovider.WithDefaultScenario(emailprovider.ScenarioTimeout),
	)

	if _, err := provider.Send(context.Background(), newMessage("user@example.com")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestMockProviderHonoursContextDuringLatency(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop(), emailprovider.WithLatencyRange(time.Second, time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := provider.Send(ctx, newMessage("user@example.com")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline, got %v", err)
	}
}

func TestMockProviderRejectsInvalidMessages(t *testing.T) {
	provider := emailprovider.NewMockProvider(zerolog.Nop(), emailprovider.WithLatencyRange(0, 0))

	if _, err := provider.Send(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil message")
	}
	if _, err := provider.Send(context.Background(), newMessage("")); err == nil {
		t.Fatalf("expected error for missing recipient")
	}
	msg := newMessage("user@example.com")
	msg.Text, msg.HTML = "", ""
	if _, err := provider.Send(context.Background(), msg); err == nil {
		t.Fatalf("expected error for empty body")
	}
}

func TestTruncateRaw(t *testing.T) {
	if got := emailprovider.TruncateRaw("héllo", 2); got != "hé" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := emailprovider.TruncateRaw("short", 10); got != "short" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := emailprovider.TruncateRaw("anything", 0); got != "" {
		t.Fatalf("expected empty string for zero limit, got %q", got)
	}
}

func TestMockProviderBoundsSentHistory(t *testing.T) {
	provider := emailprovider.NewMockProvider(
		zerolog.Nop(),
		emailprovider.WithLatencyRange(0, 0),
		emailprovider.WithSentHistory(2),
	)

	for _, to := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if _, err := provider.Send(context.Background(), newMessage(to)); err != nil {
			t.Fatalf("send to %s: %v", to, err)
		}
	}

	sent := provider.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 recorded messages, got %d", len(sent))
	}
	if sent[0].To != "b@example.com" || sent[1].To != "c@example.com" {
		t.Fatalf("expected the two newest messages, got %s and %s", sent[0].To, sent[1].To)
	}
}

func TestMockProviderRecordingDisabled(t *testing.T) {
	provider := emailprovider.NewMockProvider(
		zerolog.Nop(),
		emailprovider.WithLatencyRange(0, 0),
		emailprovider.WithSentHistory(0),
	)

	receipt, err := provider.Send(context.Background(), newMessage("a@example.com"))
	if err != nil || receipt.ID == "" {
		t.Fatalf("expected accepted send, got %+v, %v", receipt, err)
	}
	if len(provider.Sent()) != 0 {
		t.Fatalf("expected no recorded messages")
	}
}
