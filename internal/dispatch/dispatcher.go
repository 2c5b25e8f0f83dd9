package dispatch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/example/wedding-rsvp-mailer/internal/composer"
	"github.com/example/wedding-rsvp-mailer/internal/config"
	"github.com/example/wedding-rsvp-mailer/internal/models"
	emailprovider "github.com/example/wedding-rsvp-mailer/internal/providers/email"
	"github.com/example/wedding-rsvp-mailer/internal/telemetry"
)

// InternalErrorMessage is reported when a send fails without a structured
// provider answer.
const InternalErrorMessage = "internal mail dispatch error"

// Identity is the sender identity and the couple inbox used for every RSVP.
type Identity struct {
	SenderEmail string
	SenderName  string
	CoupleEmail string
}

// IdentityFromConfig maps the sender configuration onto an Identity.
func IdentityFromConfig(cfg config.SenderConfig) Identity {
	couple := cfg.CoupleEmail
	if couple == "" {
		couple = cfg.Email
	}
	return Identity{SenderEmail: cfg.Email, SenderName: cfg.Name, CoupleEmail: couple}
}

// Result is the combined outcome of the guest and couple sends. Exactly one
// of Sent or Error is meaningful.
type Result struct {
	Sent            bool
	GuestMessageID  string
	CoupleMessageID string

	Error string
	// Code is the provider status code, nil when the failure was not a
	// structured provider rejection.
	Code *int
	// Detail is the raw error text, for logs and non-production responses.
	Detail string
}

// Failed reports whether the dispatch did not fully succeed.
func (r Result) Failed() bool {
	return !r.Sent
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithTracer overrides the tracer used for dispatch spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// Dispatcher sends the guest confirmation and the couple notification through
// a single email provider.
type Dispatcher struct {
	provider emailprovider.Provider
	identity Identity
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// New constructs a Dispatcher.
func New(provider emailprovider.Provider, identity Identity, logger zerolog.Logger, opts ...Option) (*Dispatcher, error) {
	if provider == nil {
		return nil, errors.New("dispatch: provider is required")
	}
	if strings.TrimSpace(identity.SenderEmail) == "" {
		return nil, errors.New("dispatch: sender email is required")
	}
	if identity.CoupleEmail == "" {
		identity.CoupleEmail = identity.SenderEmail
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	d := &Dispatcher{
		provider: provider,
		identity: identity,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
		tracer:   telemetry.Tracer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

// Messages builds the guest and couple messages for a composed submission.
func (d *Dispatcher) Messages(sub *models.RSVPSubmission, composed composer.Messages) (guest, couple *emailprovider.Message) {
	from := emailprovider.Address{Email: d.identity.SenderEmail, Name: d.identity.SenderName}
	guest = &emailprovider.Message{
		To:      sub.SenderEmail,
		From:    from,
		Subject: composed.GuestSubject,
		HTML:    composed.GuestHTML,
		Text:    composed.GuestText,
	}
	couple = &emailprovider.Message{
		To:      d.identity.CoupleEmail,
		From:    from,
		Subject: composed.CoupleSubject,
		HTML:    composed.CoupleHTML,
		Text:    composed.CoupleText,
	}
	return guest, couple
}

// SendRSVP builds both messages for sub and dispatches them.
func (d *Dispatcher) SendRSVP(ctx context.Context, sub *models.RSVPSubmission, composed composer.Messages) Result {
	guest, couple := d.Messages(sub, composed)
	return d.Dispatch(ctx, guest, couple)
}

// Dispatch sends guest and couple concurrently and waits for both. Both sends
// are always attempted; the first error to occur decides the failure result.
func (d *Dispatcher) Dispatch(ctx context.Context, guest, couple *emailprovider.Message) Result {
	ctx, span := d.tracer.Start(ctx, "dispatch.Dispatch")
	defer span.End()

	var (
		g                 errgroup.Group
		guestID, coupleID string
	)
	g.Go(func() error {
		id, err := d.send(ctx, "guest", guest)
		guestID = id
		return err
	})
	g.Go(func() error {
		id, err := d.send(ctx, "couple", couple)
		coupleID = id
		return err
	})

	if err := g.Wait(); err != nil {
		result := classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, result.Error)
		event := d.logger.Error().Err(err)
		if result.Code != nil {
			event = event.Int("provider_status", *result.Code)
		}
		event.Msg("rsvp dispatch failed")
		return result
	}

	d.logger.Info().
		Str("guest_message_id", guestID).
		Str("couple_message_id", coupleID).
		Msg("rsvp emails dispatched")
	return Result{Sent: true, GuestMessageID: guestID, CoupleMessageID: coupleID}
}

func (d *Dispatcher) send(ctx context.Context, role string, msg *emailprovider.Message) (string, error) {
	ctx, span := d.tracer.Start(ctx, "dispatch.send", trace.WithAttributes(attribute.String("mail.role", role)))
	defer span.End()

	receipt, err := d.provider.Send(ctx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("%s message: %w", role, err)
	}
	if receipt == nil {
		return "", nil
	}
	span.SetAttributes(attribute.String("mail.message_id", receipt.ID))
	return receipt.ID, nil
}

// classify maps a send error onto a failed Result.
func classify(err error) Result {
	var perr *emailprovider.ProviderError
	if errors.As(err, &perr) {
		code := perr.StatusCode
		detail := perr.Detail
		if detail == "" {
			detail = "unknown error"
		}
		return Result{
			Error:  fmt.Sprintf("Error %d: %s", code, detail),
			Code:   &code,
			Detail: err.Error(),
		}
	}
	return Result{Error: InternalErrorMessage, Detail: err.Error()}
}
