package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentbook/backend/domain"
)

func TestResolveKeysFullContact(t *testing.T) {
	contact := &domain.Contact{
		ID:              "c1",
		LinkedAccountID: "u9",
		Email:           "  Alice@Example.COM ",
	}

	keys := ResolveKeys(contact)

	assert.Equal(t, "u9", keys.AccountKey)
	assert.Equal(t, "c1", keys.ContactKey)
	assert.Equal(t, "alice@example.com", keys.EmailKey)
}

func TestResolveKeysUnregisteredLead(t *testing.T) {
	contact := &domain.Contact{ID: "c2", Email: "walkin@example.com"}

	keys := ResolveKeys(contact)

	assert.Empty(t, keys.AccountKey)
	assert.Equal(t, "c2", keys.ContactKey)
	assert.Equal(t, "walkin@example.com", keys.EmailKey)
}

func TestResolveKeysNilContact(t *testing.T) {
	assert.Equal(t, ResolvedKeys{}, ResolveKeys(nil))
}

func TestAppointmentLookupKeysIncludesLinkedAccount(t *testing.T) {
	contact := &domain.Contact{
		ID:              "c1",
		LinkedAccountID: "u9",
		Email:           "a@b.com",
	}

	candidates := AppointmentLookupKeys(contact)

	assert.Equal(t, []string{"u9", "c1", "a@b.com"}, candidates)
}

func TestAppointmentLookupKeysDropsEmpties(t *testing.T) {
	contact := &domain.Contact{ID: "c3"}

	candidates := AppointmentLookupKeys(contact)

	assert.Equal(t, []string{"c3"}, candidates)
}

func TestCandidatesDeduplicate(t *testing.T) {
	// Some imports set the account id to the contact record id.
	keys := ResolvedKeys{AccountKey: "c1", ContactKey: "c1", EmailKey: "a@b.com"}

	assert.Equal(t, []string{"c1", "a@b.com"}, keys.Candidates())
}
