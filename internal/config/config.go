package config

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Supported MAIL_PROVIDER values.
const (
	ProviderSendGrid = "sendgrid"
	ProviderSMTP     = "smtp"
	ProviderMock     = "mock"
)

// Config captures all runtime configuration for the RSVP mailer.
type Config struct {
	App        AppConfig
	Mail       MailConfig
	Wedding    WeddingConfig
	Validation ValidationConfig
	HTTP       HTTPConfig
	Telemetry  TelemetryConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Port     int    `env:"APP_PORT" envDefault:"3000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// IsProduction reports whether internal error detail must be hidden from callers.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(a.Env), "production")
}

// SenderConfig is the identity every outbound message is sent from.
type SenderConfig struct {
	Email       string `env:"SENDER_EMAIL"`
	Name        string `env:"SENDER_NAME" envDefault:"Our Wedding"`
	CoupleEmail string `env:"COUPLE_EMAIL"`
}

// SendGridConfig stores credentials for the SendGrid v3 API.
type SendGridConfig struct {
	APIKey  string `env:"SENDGRID_API_KEY"`
	BaseURL string `env:"SENDGRID_BASE_URL" envDefault:"https://api.sendgrid.com"`
}

// SMTPConfig stores SMTP credentials for email delivery.
type SMTPConfig struct {
	Host string `env:"SMTP_HOST"`
	Port int    `env:"SMTP_PORT" envDefault:"587"`
	User string `env:"SMTP_USER"`
	Pass string `env:"SMTP_PASS"`
	From string `env:"SMTP_FROM"`
}

// MailConfig wraps the provider selection and credentials.
type MailConfig struct {
	Provider               string `env:"MAIL_PROVIDER" envDefault:"sendgrid"`
	ProviderTimeoutSeconds int    `env:"PROVIDER_TIMEOUT_SECONDS" envDefault:"30"`
	Sender                 SenderConfig
	SendGrid               SendGridConfig
	SMTP                   SMTPConfig
}

// ProviderTimeout returns the transport timeout as a duration.
func (m MailConfig) ProviderTimeout() time.Duration {
	return time.Duration(m.ProviderTimeoutSeconds) * time.Second
}

// WeddingConfig holds the event details rendered into every message.
type WeddingConfig struct {
	CoupleNames      string `env:"COUPLE_NAMES" envDefault:"Rebeca & Enrique"`
	Date             string `env:"WEDDING_DATE" envDefault:"[Wedding date]"`
	Time             string `env:"WEDDING_TIME" envDefault:"[Ceremony time]"`
	Venue            string `env:"WEDDING_VENUE" envDefault:"[Venue]"`
	Address          string `env:"WEDDING_ADDRESS" envDefault:"[Full address]"`
	ReceivedTimezone string `env:"RECEIVED_AT_TIMEZONE" envDefault:"UTC"`
}

// ValidationConfig holds the optional menu enumeration.
type ValidationConfig struct {
	MenuOptions []string `env:"MENU_OPTIONS" envSeparator:","`
}

// HTTPConfig controls the inbound HTTP surface.
type HTTPConfig struct {
	AllowedOrigins       []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	MaxRequestsPerMinute int      `env:"MAX_REQUESTS_PER_MINUTE" envDefault:"10"`
	MaxBodyBytes         int64    `env:"MAX_BODY_BYTES" envDefault:"10485760"`
}

// TelemetryConfig enables OTLP tracing when an endpoint is set.
type TelemetryConfig struct {
	Endpoint    string `env:"OTEL_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"wedding-rsvp-mailer"`
}

// Load reads environment variables, applies defaults, validates required
// values and returns a populated Config instance.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	normalize(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func normalize(cfg *Config) {
	cfg.Mail.Provider = strings.ToLower(strings.TrimSpace(cfg.Mail.Provider))
	cfg.Mail.Sender.Email = strings.TrimSpace(cfg.Mail.Sender.Email)
	cfg.Mail.Sender.Name = strings.TrimSpace(cfg.Mail.Sender.Name)
	cfg.Mail.Sender.CoupleEmail = strings.TrimSpace(cfg.Mail.Sender.CoupleEmail)
	if cfg.Mail.Sender.CoupleEmail == "" {
		cfg.Mail.Sender.CoupleEmail = cfg.Mail.Sender.Email
	}
	if strings.TrimSpace(cfg.Mail.SMTP.From) == "" {
		cfg.Mail.SMTP.From = cfg.Mail.Sender.Email
	}
	cfg.Mail.SendGrid.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Mail.SendGrid.BaseURL), "/")

	cfg.Validation.MenuOptions = trimList(cfg.Validation.MenuOptions)
	cfg.HTTP.AllowedOrigins = trimList(cfg.HTTP.AllowedOrigins)
}

// validate accumulates every problem so operators can fix them in one pass.
func validate(cfg *Config) error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		add("APP_PORT must be between 1 and 65535")
	}

	switch cfg.Mail.Provider {
	case ProviderSendGrid:
		if strings.TrimSpace(cfg.Mail.SendGrid.APIKey) == "" {
			add("SENDGRID_API_KEY is required")
		}
	case ProviderSMTP:
		if strings.TrimSpace(cfg.Mail.SMTP.Host) == "" {
			add("SMTP_HOST is required")
		}
		if cfg.Mail.SMTP.Port <= 0 || cfg.Mail.SMTP.Port > 65535 {
			add("SMTP_PORT must be between 1 and 65535")
		}
	case ProviderMock:
	default:
		add("MAIL_PROVIDER must be one of sendgrid, smtp, mock (got %q)", cfg.Mail.Provider)
	}

	if cfg.Mail.Sender.Email == "" {
		add("SENDER_EMAIL is required")
	} else if _, err := mail.ParseAddress(cfg.Mail.Sender.Email); err != nil {
		add("SENDER_EMAIL must be a valid email address")
	}
	if cfg.Mail.Sender.CoupleEmail != "" && cfg.Mail.Sender.CoupleEmail != cfg.Mail.Sender.Email {
		if _, err := mail.ParseAddress(cfg.Mail.Sender.CoupleEmail); err != nil {
			add("COUPLE_EMAIL must be a valid email address")
		}
	}

	if cfg.Mail.ProviderTimeoutSeconds <= 0 {
		add("PROVIDER_TIMEOUT_SECONDS must be positive")
	}
	if _, err := time.LoadLocation(cfg.Wedding.ReceivedTimezone); err != nil {
		add("RECEIVED_AT_TIMEZONE must be a valid IANA zone")
	}
	if cfg.HTTP.MaxRequestsPerMinute < 0 {
		add("MAX_REQUESTS_PER_MINUTE must not be negative")
	}
	if cfg.HTTP.MaxBodyBytes <= 0 {
		add("MAX_BODY_BYTES must be positive")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
}

func trimList(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
