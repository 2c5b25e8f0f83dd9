package models

// Companion is an additional person attending with the principal guest.
type Companion struct {
	Name         string `json:"name"`
	Dish         string `json:"dish"`
	AllergyNotes string `json:"allergyNotes"`
}

// RSVPSubmission is the normalized form of an RSVP after it passed validation.
// CompanionCount holds the parsed value of the digit string sent by the form.
type RSVPSubmission struct {
	GuestName         string      `json:"guestName"`
	SenderEmail       string      `json:"senderEmail"`
	CompanionCount    int         `json:"companionCount"`
	MenuChoice        string      `json:"menuChoice"`
	AllergyNotes      string      `json:"allergyNotes"`
	IncludeCompanions bool        `json:"includeCompanions"`
	SameDishForAll    bool        `json:"sameDishForAll"`
	Companions        []Companion `json:"companions"`
}

// TotalPersons counts the principal guest plus declared companions.
func (s *RSVPSubmission) TotalPersons() int {
	return s.CompanionCount + 1
}

// FieldError describes a single caller-correctable problem with a submission.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationOutcome is either a normalized submission or the ordered list of
// problems found with it. Exactly one of Submission and Errors is set.
type ValidationOutcome struct {
	Submission *RSVPSubmission
	Errors     []FieldError
}

// Valid reports whether the outcome carries a normalized submission.
func (o ValidationOutcome) Valid() bool {
	return o.Submission != nil && len(o.Errors) == 0
}

// TestSendRequest is the body accepted by the test-send endpoint.
type TestSendRequest struct {
	Email string `json:"email"`
}
