package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/wedding-rsvp-mailer/internal/composer"
	"github.com/example/wedding-rsvp-mailer/internal/config"
	"github.com/example/wedding-rsvp-mailer/internal/dispatch"
	"github.com/example/wedding-rsvp-mailer/internal/health"
	"github.com/example/wedding-rsvp-mailer/internal/logger"
	emailprovider "github.com/example/wedding-rsvp-mailer/internal/providers/email"
	"github.com/example/wedding-rsvp-mailer/internal/providers/factory"
	"github.com/example/wedding-rsvp-mailer/internal/server"
	"github.com/example/wedding-rsvp-mailer/internal/telemetry"
	rsvpvalidator "github.com/example/wedding-rsvp-mailer/internal/validator/rsvp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New(cfg.App, "rsvp-api")
	if err != nil {
		fail("logger init", err)
	}
	log := *baseLogger

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise tracing")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Error().Err(err).Msg("failed to flush traces")
		}
	}()

	provider, err := factory.Email(cfg.Mail, log.With().Str("component", "email-provider").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise email provider")
	}

	loc, err := time.LoadLocation(cfg.Wedding.ReceivedTimezone)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load received-at timezone")
	}

	dispatcher, err := dispatch.New(provider, dispatch.IdentityFromConfig(cfg.Mail.Sender), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise dispatcher")
	}

	prober, err := health.New(provider, emailprovider.Address{
		Email: cfg.Mail.Sender.Email,
		Name:  cfg.Mail.Sender.Name,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise health probe")
	}

	srv, err := server.New(cfg, server.Deps{
		Validator:  rsvpvalidator.New(cfg.Validation, log),
		Composer:   composer.New(composer.EventFromConfig(cfg.Wedding), composer.WithLocation(loc)),
		Dispatcher: dispatcher,
		Prober:     prober,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise http server")
	}

	httpServer := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.App.Port)),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info().
		Int("port", cfg.App.Port).
		Str("env", cfg.App.Env).
		Str("mail_provider", cfg.Mail.Provider).
		Msg("rsvp api started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server terminated with error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("rsvp api init failed")
}
