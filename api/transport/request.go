package transport

type ContactRequest struct {
	ID              string            `json:"id"`
	LinkedAccountID string            `json:"linked_account_id"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone"`
	Status          string            `json:"status"`
	Metadata        map[string]string `json:"metadata"`
}

type AppointmentCreateRequest struct {
	ContactID       string `json:"contact_id"`
	Type            string `json:"type"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
	PropertyRef     string `json:"property_ref"`
}

type AppointmentTransitionRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

type InteractionRequest struct {
	ContactID       string `json:"contact_id"`
	Type            string `json:"type"`
	Subject         string `json:"subject"`
	Content         string `json:"content"`
	Outcome         string `json:"outcome"`
	DurationMinutes int    `json:"duration_minutes"`
	NextFollowUp    string `json:"next_follow_up"`
}

type NoteRequest struct {
	ContactID string `json:"contact_id"`
	NoteType  string `json:"note_type"`
	Content   string `json:"content"`
}
