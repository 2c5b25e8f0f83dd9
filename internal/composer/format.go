package composer

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/example/wedding-rsvp-mailer/internal/models"
)

// DishPlaceholder is rendered when a dish name is missing.
const DishPlaceholder = "Not specified"

// NoAllergiesPlaceholder is rendered in couple notifications when nobody in
// the party reported an allergy.
const NoAllergiesPlaceholder = "No allergies reported"

const receivedAtLayout = "2/1/2006, 15:04:05"

// Casers carry state, so each call builds its own.
func upper(s string) string { return cases.Upper(language.Und).String(s) }

func lower(s string) string { return cases.Lower(language.Und).String(s) }

// FormatDish capitalizes the first character of every space separated word
// and lower-cases the rest.
func FormatDish(dish string) string {
	if dish == "" {
		return DishPlaceholder
	}

	words := strings.Split(dish, " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		_, size := utf8.DecodeRuneInString(word)
		words[i] = upper(word[:size]) + lower(word[size:])
	}
	return strings.Join(words, " ")
}

// PersonsLabel renders a party size such as "1 person" or "3 people".
func PersonsLabel(total int) string {
	if total == 1 {
		return "1 person"
	}
	return fmt.Sprintf("%d people", total)
}

// collectAllergies gathers every non-empty allergy note of the party,
// principal guest first.
func collectAllergies(sub *models.RSVPSubmission) []allergyView {
	var out []allergyView
	if sub.AllergyNotes != "" {
		out = append(out, allergyView{Name: sub.GuestName, Notes: sub.AllergyNotes})
	}
	for _, c := range sub.Companions {
		if c.AllergyNotes != "" {
			out = append(out, allergyView{Name: c.Name, Notes: c.AllergyNotes})
		}
	}
	return out
}

func formatReceivedAt(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(receivedAtLayout)
}
