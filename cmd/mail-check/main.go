package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/wedding-rsvp-mailer/internal/composer"
	"github.com/example/wedding-rsvp-mailer/internal/config"
	"github.com/example/wedding-rsvp-mailer/internal/dispatch"
	"github.com/example/wedding-rsvp-mailer/internal/health"
	"github.com/example/wedding-rsvp-mailer/internal/logger"
	emailprovider "github.com/example/wedding-rsvp-mailer/internal/providers/email"
	"github.com/example/wedding-rsvp-mailer/internal/providers/factory"
	rsvpvalidator "github.com/example/wedding-rsvp-mailer/internal/validator/rsvp"
)

func main() {
	to := flag.String("to", "", "also send a sample RSVP confirmation pair to this address")
	flag.Parse()

	console := zerolog.ConsoleWriter{Out: os.Stdout}
	bootstrap := zerolog.New(console).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Fatal().Err(err).Msg("failed to load config")
	}

	base, err := logger.New(cfg.App, "mail-check", console)
	if err != nil {
		bootstrap.Fatal().Err(err).Msg("failed to initialise logger")
	}
	log := *base

	provider, err := factory.Email(cfg.Mail, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise email provider")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Mail.ProviderTimeout())
	defer cancel()

	prober, err := health.New(provider, emailprovider.Address{
		Email: cfg.Mail.Sender.Email,
		Name:  cfg.Mail.Sender.Name,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise health probe")
	}

	status := prober.Check(ctx)
	if !status.Valid {
		event := log.Error().Str("error", status.Error).Str("detail", status.Detail)
		if status.StatusCode != nil {
			event = event.Int("status_code", *status.StatusCode)
		}
		event.Msg("mail provider check failed")
		os.Exit(1)
	}
	log.Info().Str("provider", cfg.Mail.Provider).Msg("mail provider operational")

	if *to == "" {
		return
	}

	validator := rsvpvalidator.New(cfg.Validation, log)
	outcome := validator.Validate(validator.Sample(*to))
	if !outcome.Valid() {
		for _, fe := range outcome.Errors {
			log.Error().Str("field", fe.Field).Msg(fe.Message)
		}
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Wedding.ReceivedTimezone)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load received-at timezone")
	}
	msgs, err := composer.New(composer.EventFromConfig(cfg.Wedding), composer.WithLocation(loc)).Compose(outcome.Submission)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to compose sample rsvp")
	}

	dispatcher, err := dispatch.New(provider, dispatch.IdentityFromConfig(cfg.Mail.Sender), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise dispatcher")
	}

	result := dispatcher.SendRSVP(ctx, outcome.Submission, msgs)
	if result.Failed() {
		log.Error().Str("error", result.Error).Str("detail", result.Detail).Msg("sample rsvp send failed")
		os.Exit(1)
	}
	log.Info().
		Str("recipient", outcome.Submission.SenderEmail).
		Str("guest_message_id", result.GuestMessageID).
		Str("couple_message_id", result.CoupleMessageID).
		Msg("sample rsvp sent")
}
