package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/example/wedding-rsvp-mailer/internal/config"
)

const sendGridMailEndpoint = "/v3/mail/send"

// SendGridOption customises the behaviour of the SendGrid provider.
type SendGridOption func(*SendGridProvider)

// WithSendGridHTTPClient overrides the HTTP client used to talk to SendGrid.
func WithSendGridHTTPClient(client *http.Client) SendGridOption {
	return func(p *SendGridProvider) {
		if client != nil {
			p.client = &rest.Client{HTTPClient: client}
		}
	}
}

// WithSendGridBaseURL sets the base API URL. Useful for tests.
func WithSendGridBaseURL(baseURL string) SendGridOption {
	return func(p *SendGridProvider) {
		if strings.TrimSpace(baseURL) != "" {
			p.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
		}
	}
}

// WithSendGridClock overrides the clock used for timestamps.
func WithSendGridClock(now func() time.Time) SendGridOption {
	return func(p *SendGridProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// SendGridProvider implements the Provider interface using the SendGrid v3
// mail send API.
type SendGridProvider struct {
	logger  zerolog.Logger
	apiKey  string
	baseURL string
	client  *rest.Client
	now     func() time.Time
}

// NewSendGridProvider constructs a SendGrid-backed provider.
func NewSendGridProvider(cfg config.SendGridConfig, logger zerolog.Logger, opts ...SendGridOption) (*SendGridProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("sendgrid provider: api key is required")
	}

	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	p := &SendGridProvider{
		logger:  logger,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: "https://api.sendgrid.com",
		client:  &rest.Client{HTTPClient: &http.Client{Timeout: 30 * time.Second}},
		now:     time.Now,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		p.baseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p, nil
}

// Send posts msg to SendGrid. A non-2xx answer is returned as *ProviderError
// with the first error message of the response body as detail.
func (p *SendGridProvider) Send(ctx context.Context, msg *Message) (*Receipt, error) {
	if err := validateMessage("sendgrid provider", msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.From.Email) == "" {
		return nil, errors.New("sendgrid provider: from address is required")
	}

	req := sendgrid.GetRequest(p.apiKey, sendGridMailEndpoint, p.baseURL)
	req.Method = rest.Post
	req.Body = sgmail.GetRequestBody(buildSendGridMail(msg))

	resp, err := p.client.SendWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("sendgrid provider: send: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.Warn().
			Str("provider", "sendgrid").
			Int("status", resp.StatusCode).
			Msg("sendgrid rejected message")
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Detail:     sendGridErrorDetail(resp.Body),
			Body:       TruncateRaw(resp.Body, DefaultRawBodyLimit),
		}
	}

	id := http.Header(resp.Headers).Get("X-Message-Id")
	p.logger.Debug().
		Str("provider", "sendgrid").
		Str("message_id", id).
		Int("status", resp.StatusCode).
		Msg("sendgrid accepted message")

	return &Receipt{
		ID:        id,
		Code:      resp.StatusCode,
		Body:      TruncateRaw(resp.Body, DefaultRawBodyLimit),
		Timestamp: p.now(),
	}, nil
}

func buildSendGridMail(msg *Message) *sgmail.SGMailV3 {
	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(msg.From.Name, msg.From.Email))
	m.Subject = msg.Subject

	personalization := sgmail.NewPersonalization()
	personalization.AddTos(sgmail.NewEmail("", msg.To))
	m.AddPersonalizations(personalization)

	// SendGrid requires text/plain to precede text/html.
	if msg.Text != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}

	for key, value := range msg.Headers {
		if strings.TrimSpace(key) == "" || strings.TrimSpace(value) == "" {
			continue
		}
		m.SetHeader(key, sanitizeHeaderValue(value))
	}
	return m
}

type sendGridErrorBody struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

func sendGridErrorDetail(body string) string {
	var parsed sendGridErrorBody
	if err := json.Unmarshal([]byte(body), &parsed); err == nil && len(parsed.Errors) > 0 && parsed.Errors[0].Message != "" {
		return parsed.Errors[0].Message
	}
	return "unknown error"
}
