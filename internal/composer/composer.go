package composer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/example/wedding-rsvp-mailer/internal/config"
	"github.com/example/wedding-rsvp-mailer/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var funcs = map[string]any{
	"upper":       upper,
	"noAllergies": func() string { return NoAllergiesPlaceholder },
}

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.New("html").Funcs(funcs).ParseFS(templateFS, "templates/*.html.tmpl"))
	textTemplates = texttemplate.Must(texttemplate.New("text").Funcs(funcs).ParseFS(templateFS, "templates/*.txt.tmpl"))
)

// Event describes the wedding details rendered into every message.
type Event struct {
	CoupleNames string
	Date        string
	Time        string
	Venue       string
	Address     string
}

// EventFromConfig maps the wedding configuration onto an Event.
func EventFromConfig(cfg config.WeddingConfig) Event {
	return Event{
		CoupleNames: cfg.CoupleNames,
		Date:        cfg.Date,
		Time:        cfg.Time,
		Venue:       cfg.Venue,
		Address:     cfg.Address,
	}
}

// Messages holds the subjects and bodies of the guest confirmation and the
// couple notification for a single submission.
type Messages struct {
	GuestSubject  string
	GuestHTML     string
	GuestText     string
	CoupleSubject string
	CoupleHTML    string
	CoupleText    string
}

// Option customizes a Composer.
type Option func(*Composer)

// WithClock overrides the clock used for the couple-facing received-at line.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocation sets the time zone the received-at line is rendered in.
func WithLocation(loc *time.Location) Option {
	return func(c *Composer) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// Composer renders RSVP submissions into email artifacts. It performs no I/O
// and is safe for concurrent use.
type Composer struct {
	event Event
	now   func() time.Time
	loc   *time.Location
}

// New constructs a Composer for the given event.
func New(event Event, opts ...Option) *Composer {
	c := &Composer{
		event: event,
		now:   time.Now,
		loc:   time.UTC,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Compose renders sub using the composer clock for the received-at line.
func (c *Composer) Compose(sub *models.RSVPSubmission) (Messages, error) {
	return c.ComposeAt(sub, c.now())
}

// ComposeAt renders sub with an explicit received-at instant. Guest artifacts
// do not depend on receivedAt.
func (c *Composer) ComposeAt(sub *models.RSVPSubmission, receivedAt time.Time) (Messages, error) {
	if sub == nil {
		return Messages{}, fmt.Errorf("composer: submission is required")
	}

	v := newView(c.event, sub, formatReceivedAt(receivedAt, c.loc))
	guest := v.guestView()

	msgs := Messages{
		GuestSubject:  fmt.Sprintf("💕 RSVP confirmation - %s", c.event.CoupleNames),
		CoupleSubject: fmt.Sprintf("🎉 New RSVP: %s", sub.GuestName),
	}

	var err error
	if msgs.GuestHTML, err = renderHTML("guest.html.tmpl", guest); err != nil {
		return Messages{}, err
	}
	if msgs.GuestText, err = renderText("guest.txt.tmpl", guest); err != nil {
		return Messages{}, err
	}
	if msgs.CoupleHTML, err = renderHTML("couple.html.tmpl", v); err != nil {
		return Messages{}, err
	}
	if msgs.CoupleText, err = renderText("couple.txt.tmpl", v); err != nil {
		return Messages{}, err
	}
	return msgs, nil
}

func renderHTML(name string, v view) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, name, v); err != nil {
		return "", fmt.Errorf("composer: render %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderText(name string, v view) (string, error) {
	var buf bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&buf, name, v); err != nil {
		return "", fmt.Errorf("composer: render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
