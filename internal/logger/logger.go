package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/wedding-rsvp-mailer/internal/config"
)

const simpleTimeFormat = "02-01-2006 15:04:05"

// New constructs the service logger. Every line carries the service name and
// the APP_ENV it runs under. Development environments receive human readable
// console logs while other environments emit JSON with millisecond
// timestamps for easy ingestion.
func New(app config.AppConfig, service string, writers ...io.Writer) (*zerolog.Logger, error) {
	lvl, err := parseLevel(app.LogLevel)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.DurationFieldUnit = time.Millisecond

	var output io.Writer
	if len(writers) > 0 {
		output = io.MultiWriter(writers...)
	} else if isDevelopment(app.Env) {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: simpleTimeFormat}
	} else {
		output = os.Stdout
	}
	if !isDevelopment(app.Env) {
		zerolog.TimeFieldFormat = time.RFC3339Nano
	}

	ctx := zerolog.New(output).With().Timestamp()
	if service = strings.TrimSpace(service); service != "" {
		ctx = ctx.Str("service", service)
	}
	if env := strings.TrimSpace(app.Env); env != "" {
		ctx = ctx.Str("env", env)
	}
	logger := ctx.Logger().Level(lvl)
	return &logger, nil
}

func isDevelopment(env string) bool {
	return strings.EqualFold(env, "development") || strings.EqualFold(env, "dev")
}

func parseLevel(level string) (zerolog.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		level = zerolog.InfoLevel.String()
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.NoLevel, err
	}
	return lvl, nil
}
