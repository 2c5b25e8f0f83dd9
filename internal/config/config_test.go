package config_test

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/example/wedding-rsvp-mailer/internal/config"
)

func TestLoadSuccess(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("MAIL_PROVIDER", "SendGrid")
	t.Setenv("SENDGRID_API_KEY", "SG.test")
	t.Setenv("SENDGRID_BASE_URL", "https://sendgrid.example.com/")
	t.Setenv("SENDER_EMAIL", "couple@example.com")
	t.Setenv("MENU_OPTIONS", " pollo, pasta ,,vegetariano")
	t.Setenv("ALLOWED_ORIGINS", "https://wedding.example.com")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Port != 9000 {
		t.Fatalf("expected app port 9000, got %d", cfg.App.Port)
	}
	if !cfg.App.IsProduction() {
		t.Fatalf("expected production env")
	}
	if cfg.Mail.Provider != config.ProviderSendGrid {
		t.Fatalf("expected provider to be normalised, got %q", cfg.Mail.Provider)
	}
	if cfg.Mail.SendGrid.BaseURL != "https://sendgrid.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Mail.SendGrid.BaseURL)
	}
	if cfg.Mail.Sender.CoupleEmail != "couple@example.com" {
		t.Fatalf("expected couple email to default to sender, got %q", cfg.Mail.Sender.CoupleEmail)
	}
	if cfg.Mail.Sender.Name != "Our Wedding" {
		t.Fatalf("expected default sender name, got %q", cfg.Mail.Sender.Name)
	}
	if cfg.Mail.ProviderTimeout() != 30*time.Second {
		t.Fatalf("expected default provider timeout 30s, got %s", cfg.Mail.ProviderTimeout())
	}

	wantMenu := []string{"pollo", "pasta", "vegetariano"}
	if !reflect.DeepEqual(cfg.Validation.MenuOptions, wantMenu) {
		t.Fatalf("expected menu %v, got %v", wantMenu, cfg.Validation.MenuOptions)
	}
	if !reflect.DeepEqual(cfg.HTTP.AllowedOrigins, []string{"https://wedding.example.com"}) {
		t.Fatalf("unexpected origins %v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.HTTP.MaxRequestsPerMinute != 10 {
		t.Fatalf("expected default rate limit 10, got %d", cfg.HTTP.MaxRequestsPerMinute)
	}
}

func TestLoadMockProviderNeedsOnlySender(t *testing.T) {
	t.Setenv("MAIL_PROVIDER", "mock")
	t.Setenv("SENDER_EMAIL", "couple@example.com")
	t.Setenv("COUPLE_EMAIL", "inbox@example.com")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading mock provider: %v", err)
	}
	if cfg.Mail.Sender.CoupleEmail != "inbox@example.com" {
		t.Fatalf("expected explicit couple email, got %q", cfg.Mail.Sender.CoupleEmail)
	}
	if cfg.Mail.SMTP.From != "couple@example.com" {
		t.Fatalf("expected smtp from to default to sender, got %q", cfg.Mail.SMTP.From)
	}
	if len(cfg.Validation.MenuOptions) != 0 {
		t.Fatalf("expected free-text menu by default, got %v", cfg.Validation.MenuOptions)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("MAIL_PROVIDER", "sendgrid")

	_, err := config.Load()
	if err == nil {
		t.Fatalf("expected error when sendgrid credentials are missing")
	}
	for _, want := range []string{"SENDGRID_API_KEY is required", "SENDER_EMAIL is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in error, got %v", want, err)
		}
	}
}

func TestLoadSMTPRequiresHost(t *testing.T) {
	t.Setenv("MAIL_PROVIDER", "smtp")
	t.Setenv("SENDER_EMAIL", "couple@example.com")

	_, err := config.Load()
	if err == nil || !strings.Contains(err.Error(), "SMTP_HOST is required") {
		t.Fatalf("expected smtp host error, got %v", err)
	}
}

func TestLoadRejectsUnknownProviderAndZone(t *testing.T) {
	t.Setenv("MAIL_PROVIDER", "carrier-pigeon")
	t.Setenv("SENDER_EMAIL", "couple@example.com")
	t.Setenv("RECEIVED_AT_TIMEZONE", "Mars/Olympus")

	_, err := config.Load()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "MAIL_PROVIDER must be one of") {
		t.Fatalf("expected provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "RECEIVED_AT_TIMEZONE") {
		t.Fatalf("expected timezone error, got %v", err)
	}
}

func TestLoadInvalidInteger(t *testing.T) {
	t.Setenv("MAIL_PROVIDER", "mock")
	t.Setenv("SENDER_EMAIL", "couple@example.com")
	t.Setenv("APP_PORT", "not-a-number")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected parse error for APP_PORT")
	}
}
