package email

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"
)

// DefaultRawBodyLimit defines the maximum number of characters retained from a
// provider response body when attaching it to a Receipt or ProviderError.
const DefaultRawBodyLimit = 1024

// Address is a mailbox with an optional display name.
type Address struct {
	Email string
	Name  string
}

func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Message is the canonical representation of an outbound email passed to the
// provider. Either HTML or Text must be set; when both are present the
// provider sends a multipart/alternative message.
type Message struct {
	To      string
	From    Address
	Subject string
	HTML    string
	Text    string
	Headers map[string]string
}

// Receipt mirrors the provider acknowledgement of an accepted message.
type Receipt struct {
	ID        string
	Code      int
	Body      string
	Timestamp time.Time
}

// Provider is the contract exposed by every email backend. Implementations
// must be safe for concurrent use.
type Provider interface {
	Send(ctx context.Context, msg *Message) (*Receipt, error)
}

// ProviderError is returned when the provider answered with a structured
// rejection. Errors of any other type are transport or internal failures.
type ProviderError struct {
	StatusCode int
	Detail     string
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("email provider: status %d: %s", e.StatusCode, e.Detail)
}

// TruncateRaw trims the supplied string to the specified rune limit. If limit
// is zero or negative it returns an empty string.
func TruncateRaw(raw string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(raw) <= limit {
		return raw
	}
	return string([]rune(raw)[:limit])
}

func validateMessage(provider string, msg *Message) error {
	if msg == nil {
		return fmt.Errorf("%s: message is required", provider)
	}
	if msg.To == "" {
		return fmt.Errorf("%s: recipient is required", provider)
	}
	if msg.HTML == "" && msg.Text == "" {
		return fmt.Errorf("%s: message body is required", provider)
	}
	return nil
}
