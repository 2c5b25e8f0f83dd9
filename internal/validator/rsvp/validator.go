package rsvpvalidator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/example/wedding-rsvp-mailer/internal/config"
	"github.com/example/wedding-rsvp-mailer/internal/models"
)

var (
	// ErrEmptyPayload is returned when the request body carries no bytes.
	ErrEmptyPayload = errors.New("rsvp validator: empty payload")
	// ErrMalformedJSON is returned when the body is not a JSON object.
	ErrMalformedJSON = errors.New("rsvp validator: malformed json")
)

// Validator checks raw RSVP submissions and produces normalized records.
type Validator struct {
	menu   []string
	logger zerolog.Logger
}

// New constructs a Validator. An empty menu accepts any dish name.
func New(cfg config.ValidationConfig, logger zerolog.Logger) *Validator {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	menu := make([]string, len(cfg.MenuOptions))
	copy(menu, cfg.MenuOptions)
	return &Validator{
		menu:   menu,
		logger: logger.With().Str("component", "rsvp_validator").Logger(),
	}
}

// ParseAndValidate decodes payload as a JSON object and validates it.
func (v *Validator) ParseAndValidate(ctx context.Context, payload []byte) (models.ValidationOutcome, error) {
	if err := ctx.Err(); err != nil {
		return models.ValidationOutcome{}, err
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return models.ValidationOutcome{}, ErrEmptyPayload
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return models.ValidationOutcome{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if raw == nil {
		return models.ValidationOutcome{}, fmt.Errorf("%w: body must be an object", ErrMalformedJSON)
	}
	if dec.More() {
		return models.ValidationOutcome{}, fmt.Errorf("%w: trailing data after object", ErrMalformedJSON)
	}

	return v.Validate(raw), nil
}

// Validate checks every field of raw and returns either a normalized
// submission or the full ordered list of field errors. Unknown keys are
// dropped.
func (v *Validator) Validate(raw map[string]any) models.ValidationOutcome {
	sub := &models.RSVPSubmission{}
	errs := checkFields("", raw, submissionRules, v.menu, sub)

	if value, ok := raw["companions"]; ok && value != nil {
		companions, companionErrs := v.checkCompanions(value)
		errs = append(errs, companionErrs...)
		sub.Companions = companions
	}
	if sub.Companions == nil {
		sub.Companions = []models.Companion{}
	}

	// Cross-field check only once every field is individually valid.
	if len(errs) == 0 && sub.IncludeCompanions && sub.CompanionCount > 0 && len(sub.Companions) != sub.CompanionCount {
		errs = append(errs, fieldError("companions", "exactly %d companion(s) must be provided", sub.CompanionCount))
	}

	if len(errs) > 0 {
		v.logger.Debug().Int("error_count", len(errs)).Str("first_field", errs[0].Field).Msg("rsvp rejected")
		return models.ValidationOutcome{Errors: errs}
	}

	v.logger.Debug().
		Int("companion_count", sub.CompanionCount).
		Bool("include_companions", sub.IncludeCompanions).
		Msg("rsvp accepted")
	return models.ValidationOutcome{Submission: sub}
}

func (v *Validator) checkCompanions(value any) ([]models.Companion, []models.FieldError) {
	items, ok := value.([]any)
	if !ok {
		return nil, []models.FieldError{fieldError("companions", "companions must be an array")}
	}

	var errs []models.FieldError
	companions := make([]models.Companion, 0, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("companions.%d", i)
		obj, ok := item.(map[string]any)
		if !ok {
			errs = append(errs, fieldError(prefix, "%s must be an object", prefix))
			continue
		}
		var c models.Companion
		errs = append(errs, checkFields(prefix+".", obj, companionRules, v.menu, &c)...)
		companions = append(companions, c)
	}
	return companions, errs
}

// Sample returns the synthetic submission used to exercise the mail path
// end to end without a real guest. Dishes are taken from the configured
// menu when one is set.
func (v *Validator) Sample(email string) map[string]any {
	guestDish, companionDish := "chicken", "pasta"
	if len(v.menu) > 0 {
		guestDish = v.menu[0]
		companionDish = v.menu[min(1, len(v.menu)-1)]
	}
	return map[string]any{
		"guestName":         "Test Guest",
		"senderEmail":       email,
		"companionCount":    "1",
		"menuChoice":        guestDish,
		"allergyNotes":      "No known allergies",
		"includeCompanions": true,
		"sameDishForAll":    false,
		"companions": []any{
			map[string]any{
				"name":         "Test Companion",
				"dish":         companionDish,
				"allergyNotes": "",
			},
		},
	}
}
