package domain

import (
	"strings"
	"time"
)

// ContactStatus tracks where a contact sits in the agent's pipeline.
type ContactStatus string

const (
	ContactStatusLead       ContactStatus = "lead"
	ContactStatusActive     ContactStatus = "active"
	ContactStatusPastClient ContactStatus = "past_client"
	ContactStatusInactive   ContactStatus = "inactive"
)

// Contact represents a client or lead in an agent's book. A contact may or may
// not correspond to a registered platform account; LinkedAccountID is set only
// once the person has signed up.
type Contact struct {
	ID              string            `json:"id"`
	AgentID         string            `json:"agent_id"`
	LinkedAccountID string            `json:"linked_account_id,omitempty"`
	Name            string            `json:"name"`
	Email           string            `json:"email,omitempty"`
	Phone           string            `json:"phone,omitempty"`
	Status          ContactStatus     `json:"status"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// HasAccount reports whether this contact is linked to a registered account.
func (c *Contact) HasAccount() bool {
	return c != nil && c.LinkedAccountID != ""
}

// NormalizedEmail returns the lowercased, trimmed email used as a resolution key.
func (c *Contact) NormalizedEmail() string {
	if c == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(c.Email))
}
