package factory

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/wedding-rsvp-mailer/internal/config"
	emailprovider "github.com/example/wedding-rsvp-mailer/internal/providers/email"
)

// Email constructs the configured email provider, supporting SendGrid, SMTP
// and mock backends.
func Email(cfg config.MailConfig, logger zerolog.Logger) (emailprovider.Provider, error) {
	backend := normalize(cfg.Provider, config.ProviderSendGrid)
	timeout := cfg.ProviderTimeout()

	switch backend {
	case config.ProviderSendGrid:
		provider, err := emailprovider.NewSendGridProvider(cfg.SendGrid, logger,
			emailprovider.WithSendGridHTTPClient(&http.Client{Timeout: timeout}),
		)
		if err != nil {
			return nil, fmt.Errorf("factory: sendgrid provider init: %w", err)
		}
		logger.Info().
			Str("backend", backend).
			Dur("timeout", timeout).
			Msg("email provider initialised")
		return provider, nil
	case config.ProviderSMTP:
		provider, err := emailprovider.NewSMTPProvider(cfg.SMTP, logger,
			emailprovider.WithSMTPDialer(&net.Dialer{Timeout: timeout}),
		)
		if err != nil {
			return nil, fmt.Errorf("factory: smtp provider init: %w", err)
		}
		logger.Info().
			Str("backend", backend).
			Str("host", cfg.SMTP.Host).
			Msg("email provider initialised")
		return provider, nil
	case config.ProviderMock:
		provider := emailprovider.NewMockProvider(logger)
		logger.Info().
			Str("backend", backend).
			Msg("email provider initialised")
		return provider, nil
	default:
		return nil, fmt.Errorf("factory: unsupported email provider backend %q", cfg.Provider)
	}
}

func normalize(value, def string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return def
	}
	return value
}
