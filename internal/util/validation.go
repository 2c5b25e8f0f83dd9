package util

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidEmail is returned when an email address cannot be parsed.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrNotDigits indicates a value is not a plain run of decimal digits.
	ErrNotDigits = errors.New("value must contain only decimal digits")
)

var digitsPattern = regexp.MustCompile(`^\d+$`)

// ValidateEmail checks that value is a bare address of the form local@domain.tld
// and returns it trimmed. Case is preserved so the address can be echoed back
// to the guest exactly as typed.
func ValidateEmail(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: value is empty", ErrInvalidEmail)
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}

	// Disallow display names to keep payloads deterministic.
	if addr.Name != "" || addr.Address != trimmed {
		return "", fmt.Errorf("%w: must not include display name", ErrInvalidEmail)
	}

	at := strings.LastIndex(addr.Address, "@")
	domain := addr.Address[at+1:]
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return "", fmt.Errorf("%w: domain %q has no top-level domain", ErrInvalidEmail, domain)
	}

	return addr.Address, nil
}

// ParseDigits parses a non-negative decimal integer that must match ^\d+$.
func ParseDigits(value string) (int, error) {
	if !digitsPattern.MatchString(value) {
		return 0, fmt.Errorf("%w: %q", ErrNotDigits, value)
	}

	n := 0
	for _, r := range value {
		d := int(r - '0')
		if n > (maxInt-d)/10 {
			return 0, fmt.Errorf("%w: %q overflows", ErrNotDigits, value)
		}
		n = n*10 + d
	}
	return n, nil
}

const maxInt = int(^uint(0) >> 1)

// EnsureMaxRunes ensures a string is not longer than the provided rune count.
func EnsureMaxRunes(field, value string, max int) error {
	if max <= 0 {
		return nil
	}
	length := utf8.RuneCountInString(value)
	if length > max {
		return fmt.Errorf("%s exceeds maximum length of %d characters", field, max)
	}
	return nil
}

// EnsureMinRunes ensures a string meets a minimum rune length requirement.
func EnsureMinRunes(field, value string, min int) error {
	if min <= 0 {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters", field, min)
	}
	return nil
}

// OneOf reports whether value matches one of the allowed entries, ignoring case.
func OneOf(value string, allowed []string) bool {
	for _, candidate := range allowed {
		if strings.EqualFold(strings.TrimSpace(candidate), value) {
			return true
		}
	}
	return false
}
