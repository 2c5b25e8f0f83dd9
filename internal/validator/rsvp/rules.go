package rsvpvalidator

import (
	"fmt"
	"strings"

	"github.com/example/wedding-rsvp-mailer/internal/models"
	"github.com/example/wedding-rsvp-mailer/internal/util"
)

type kind int

const (
	kindText kind = iota
	kindEmail
	kindDigits
	kindBool
)

// rule describes how one JSON field is type-checked, bounded and copied into
// the typed record T.
type rule[T any] struct {
	field      string
	kind       kind
	required   bool
	allowEmpty bool
	min        int
	max        int
	menu       bool
	set        func(dst *T, value any)
}

// MaxCompanions bounds the declared companion count.
const MaxCompanions = 20

// Field order here is the order errors are reported in.
var submissionRules = []rule[models.RSVPSubmission]{
	{
		field: "guestName", kind: kindText, required: true, min: 2, max: 100,
		set: func(s *models.RSVPSubmission, v any) { s.GuestName = v.(string) },
	},
	{
		field: "senderEmail", kind: kindEmail, required: true,
		set: func(s *models.RSVPSubmission, v any) { s.SenderEmail = v.(string) },
	},
	{
		field: "companionCount", kind: kindDigits, required: true, max: MaxCompanions,
		set: func(s *models.RSVPSubmission, v any) { s.CompanionCount = v.(int) },
	},
	{
		field: "menuChoice", kind: kindText, required: true, min: 2, max: 50, menu: true,
		set: func(s *models.RSVPSubmission, v any) { s.MenuChoice = v.(string) },
	},
	{
		field: "allergyNotes", kind: kindText, allowEmpty: true, max: 500,
		set: func(s *models.RSVPSubmission, v any) { s.AllergyNotes = v.(string) },
	},
	{
		field: "includeCompanions", kind: kindBool,
		set: func(s *models.RSVPSubmission, v any) { s.IncludeCompanions = v.(bool) },
	},
	{
		field: "sameDishForAll", kind: kindBool,
		set: func(s *models.RSVPSubmission, v any) { s.SameDishForAll = v.(bool) },
	},
}

var companionRules = []rule[models.Companion]{
	{
		field: "name", kind: kindText, required: true, min: 2, max: 100,
		set: func(c *models.Companion, v any) { c.Name = v.(string) },
	},
	{
		field: "dish", kind: kindText, required: true, min: 2, max: 50, menu: true,
		set: func(c *models.Companion, v any) { c.Dish = v.(string) },
	},
	{
		field: "allergyNotes", kind: kindText, allowEmpty: true, max: 500,
		set: func(c *models.Companion, v any) { c.AllergyNotes = v.(string) },
	},
}

// checkFields applies rules to raw in declaration order and copies every
// accepted value into dst. Absent and null values leave dst at its default.
func checkFields[T any](prefix string, raw map[string]any, rules []rule[T], menu []string, dst *T) []models.FieldError {
	var errs []models.FieldError
	for _, r := range rules {
		name := prefix + r.field
		value, ok := raw[r.field]
		if !ok || value == nil {
			if r.required {
				errs = append(errs, fieldError(name, "%s is required", name))
			}
			continue
		}

		normalized, msg := r.apply(name, value, menu)
		if msg != "" {
			errs = append(errs, models.FieldError{Field: name, Message: msg})
			continue
		}
		r.set(dst, normalized)
	}
	return errs
}

func (r rule[T]) apply(name string, value any, menu []string) (any, string) {
	switch r.kind {
	case kindBool:
		return parseBool(name, value)
	case kindDigits:
		s, ok := value.(string)
		if !ok {
			return nil, name + " must be a string"
		}
		if s == "" {
			return nil, name + " is not allowed to be empty"
		}
		n, err := util.ParseDigits(s)
		if err != nil {
			return nil, name + " must be a non-negative whole number"
		}
		if r.max > 0 && n > r.max {
			return nil, fmt.Sprintf("%s must be less than or equal to %d", name, r.max)
		}
		return n, ""
	case kindEmail:
		s, ok := value.(string)
		if !ok {
			return nil, name + " must be a string"
		}
		if strings.TrimSpace(s) == "" {
			return nil, name + " is not allowed to be empty"
		}
		addr, err := util.ValidateEmail(s)
		if err != nil {
			return nil, name + " must be a valid email address"
		}
		return addr, ""
	default:
		s, ok := value.(string)
		if !ok {
			return nil, name + " must be a string"
		}
		s = strings.TrimSpace(s)
		if s == "" {
			if r.allowEmpty {
				return "", ""
			}
			return nil, name + " is not allowed to be empty"
		}
		if err := util.EnsureMinRunes(name, s, r.min); err != nil {
			return nil, err.Error()
		}
		if err := util.EnsureMaxRunes(name, s, r.max); err != nil {
			return nil, err.Error()
		}
		if r.menu && len(menu) > 0 && !util.OneOf(s, menu) {
			return nil, fmt.Sprintf("%s must be one of: %s", name, strings.Join(menu, ", "))
		}
		return s, ""
	}
}

func parseBool(name string, value any) (any, string) {
	switch v := value.(type) {
	case bool:
		return v, ""
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, ""
		case "false":
			return false, ""
		}
	}
	return nil, name + " must be a boolean"
}

func fieldError(field, format string, args ...any) models.FieldError {
	return models.FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}
