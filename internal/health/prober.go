package health

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	emailprovider "github.com/example/wedding-rsvp-mailer/internal/providers/email"
	"github.com/example/wedding-rsvp-mailer/internal/telemetry"
)

const (
	probeSubject = "Configuration test"
	probeBody    = "This is a test message to verify the mail provider configuration."
)

// Status is the outcome of a probe. Error and Detail are empty when Valid.
type Status struct {
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
	Detail     string `json:"detail,omitempty"`
	StatusCode *int   `json:"statusCode,omitempty"`
}

// Prober checks the mail provider by sending a real self-addressed message.
// Every Check costs one provider send.
type Prober struct {
	provider emailprovider.Provider
	sender   emailprovider.Address
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// New constructs a Prober that sends from and to sender.
func New(provider emailprovider.Provider, sender emailprovider.Address, logger zerolog.Logger) (*Prober, error) {
	if provider == nil {
		return nil, errors.New("health: provider is required")
	}
	if strings.TrimSpace(sender.Email) == "" {
		return nil, errors.New("health: sender email is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Prober{
		provider: provider,
		sender:   sender,
		logger:   logger.With().Str("component", "health_probe").Logger(),
		tracer:   telemetry.Tracer(),
	}, nil
}

// Check sends the probe message and reports whether the provider accepted it.
func (p *Prober) Check(ctx context.Context) Status {
	ctx, span := p.tracer.Start(ctx, "health.Check")
	defer span.End()

	_, err := p.provider.Send(ctx, &emailprovider.Message{
		To:      p.sender.Email,
		From:    p.sender,
		Subject: probeSubject,
		Text:    probeBody,
	})
	if err == nil {
		p.logger.Debug().Msg("mail provider probe succeeded")
		return Status{Valid: true}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	status := Status{Error: err.Error()}
	var perr *emailprovider.ProviderError
	if errors.As(err, &perr) {
		code := perr.StatusCode
		status.StatusCode = &code
		status.Detail = perr.Body
		if status.Detail == "" {
			status.Detail = perr.Detail
		}
	}
	p.logger.Warn().Err(err).Msg("mail provider probe failed")
	return status
}
