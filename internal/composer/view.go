package composer

import "github.com/example/wedding-rsvp-mailer/internal/models"

type companionView struct {
	Index     int
	Name      string
	Dish      string
	Allergies string
}

type allergyView struct {
	Name  string
	Notes string
}

// view is the flat data every template renders from. It is built once per
// submission so the four artifacts cannot drift apart.
type view struct {
	Event          Event
	GuestName      string
	SenderEmail    string
	CompanionCount int
	Menu           string
	Allergies      string
	SameDishForAll bool
	Companions     []companionView

	TotalPersons int
	PersonsLabel string
	AllAllergies []allergyView
	ReceivedAt   string
}

func newView(event Event, sub *models.RSVPSubmission, receivedAt string) view {
	companions := make([]companionView, 0, len(sub.Companions))
	for i, c := range sub.Companions {
		companions = append(companions, companionView{
			Index:     i + 1,
			Name:      c.Name,
			Dish:      FormatDish(c.Dish),
			Allergies: c.AllergyNotes,
		})
	}

	total := sub.TotalPersons()
	return view{
		Event:          event,
		GuestName:      sub.GuestName,
		SenderEmail:    sub.SenderEmail,
		CompanionCount: sub.CompanionCount,
		Menu:           FormatDish(sub.MenuChoice),
		Allergies:      sub.AllergyNotes,
		SameDishForAll: sub.SameDishForAll,
		Companions:     companions,
		TotalPersons:   total,
		PersonsLabel:   PersonsLabel(total),
		AllAllergies:   collectAllergies(sub),
		ReceivedAt:     receivedAt,
	}
}

// guestView strips the clock so guest artifacts stay deterministic.
func (v view) guestView() view {
	v.ReceivedAt = ""
	return v
}
