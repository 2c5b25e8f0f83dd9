package util

import (
	"errors"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	addr, err := ValidateEmail("  Ana.Ruiz@Test.com ")
	if err != nil {
		t.Fatalf("expected valid email: %v", err)
	}
	if addr != "Ana.Ruiz@Test.com" {
		t.Fatalf("expected trimmed email with case preserved, got %q", addr)
	}

	invalid := []string{
		"",
		"ana",
		"ana@",
		"@test.com",
		"ana@test",
		"ana@test.",
		"Ana <ana@test.com>",
		"ana@@test.com",
	}
	for _, value := range invalid {
		if _, err := ValidateEmail(value); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("expected ErrInvalidEmail for %q, got %v", value, err)
		}
	}
}

func TestValidateEmailPreservesCase(t *testing.T) {
	addr, err := ValidateEmail("  User@Example.com ")
	if err != nil {
		t.Fatalf("expected valid email: %v", err)
	}
	if addr != "User@Example.com" {
		t.Fatalf("expected trimmed address with original case, got %q", addr)
	}
}

func TestParseDigits(t *testing.T) {
	n, err := ParseDigits("007")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7, got %d", n)
	}

	for _, value := range []string{"", "-1", "1.5", " 2", "two", "99999999999999999999999"} {
		if _, err := ParseDigits(value); !errors.Is(err, ErrNotDigits) {
			t.Fatalf("expected ErrNotDigits for %q, got %v", value, err)
		}
	}
}

func TestEnsureMaxRunesAndEnsureMinRunes(t *testing.T) {
	if err := EnsureMaxRunes("menuChoice", "ñoquis", 6); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := EnsureMaxRunes("menuChoice", "hello world", 5); err == nil {
		t.Fatalf("expected error for exceeding rune length")
	}

	if err := EnsureMinRunes("guestName", "Al", 2); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := EnsureMinRunes("guestName", "A", 2); err == nil {
		t.Fatalf("expected min rune error")
	}
}

func TestOneOf(t *testing.T) {
	allowed := []string{"pollo", "Pasta"}
	if !OneOf("PASTA", allowed) {
		t.Fatalf("expected case-insensitive match")
	}
	if OneOf("pescado", allowed) {
		t.Fatalf("expected no match")
	}
}
