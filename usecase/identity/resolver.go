// Package identity resolves the set of keys a contact's related records may
// be filed under. Appointment and conversation stores are keyed by registered
// account id while interactions and notes key on the contact record directly,
// and appointments created before a lead signed up may only carry an email.
// Resolution is kept pure so querying stays a separate concern.
package identity

import "github.com/agentbook/backend/domain"

// ResolvedKeys holds the candidate identifiers for one contact, in priority
// order: the linked account id when present, then the contact record id, then
// the normalized email.
type ResolvedKeys struct {
	AccountKey string `json:"account_key,omitempty"`
	ContactKey string `json:"contact_key"`
	EmailKey   string `json:"email_key,omitempty"`
}

// ResolveKeys computes the resolution keys for a contact. Absent fields yield
// empty entries; there are no error conditions.
func ResolveKeys(contact *domain.Contact) ResolvedKeys {
	if contact == nil {
		return ResolvedKeys{}
	}
	return ResolvedKeys{
		AccountKey: contact.LinkedAccountID,
		ContactKey: contact.ID,
		EmailKey:   contact.NormalizedEmail(),
	}
}

// AppointmentLookupKeys returns the ordered, de-duplicated candidate keys for
// querying the appointment store. A given agent+contact pair maps to one real
// person no matter which key an individual appointment was filed under, so
// the lookup ORs across all of them.
func AppointmentLookupKeys(contact *domain.Contact) []string {
	resolved := ResolveKeys(contact)
	return resolved.Candidates()
}

// Candidates flattens the resolved keys into the non-empty, de-duplicated
// candidate list, preserving priority order.
func (k ResolvedKeys) Candidates() []string {
	candidates := make([]string, 0, 3)
	seen := make(map[string]struct{}, 3)
	for _, key := range []string{k.AccountKey, k.ContactKey, k.EmailKey} {
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		candidates = append(candidates, key)
	}
	return candidates
}
