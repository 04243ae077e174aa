package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentbook/backend/domain"
)

func TestNormalizeInteractionFallsBackToType(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	activity := NormalizeInteraction(domain.Interaction{
		ID:        "i1",
		Type:      domain.InteractionCall,
		Content:   "left voicemail",
		Outcome:   "no_answer",
		CreatedAt: created,
	})

	assert.Equal(t, domain.SourceInteraction, activity.SourceType)
	assert.Equal(t, "call", activity.Title)
	assert.Equal(t, "left voicemail", activity.Body)
	assert.Equal(t, "no_answer", activity.Status)
	assert.True(t, activity.Timestamp.Equal(created))
	assert.Nil(t, activity.Extra)
}

func TestNormalizeInteractionCarriesFollowUp(t *testing.T) {
	followUp := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	activity := NormalizeInteraction(domain.Interaction{
		ID:              "i2",
		Type:            domain.InteractionMeeting,
		Subject:         "Pricing discussion",
		DurationMinutes: 45,
		NextFollowUp:    &followUp,
	})

	assert.Equal(t, "Pricing discussion", activity.Title)
	require.NotNil(t, activity.Extra)
	assert.Equal(t, "45", activity.Extra["duration_minutes"])
	assert.Equal(t, followUp.Format(time.RFC3339), activity.Extra["next_follow_up"])
}

func TestNormalizeAppointmentPrefersCreationTime(t *testing.T) {
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	scheduled := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	activity := NormalizeAppointment(domain.Appointment{
		ID:          "a1",
		Type:        domain.AppointmentPropertyShowing,
		Date:        scheduled,
		Time:        "15:00",
		Status:      domain.AppointmentConfirmed,
		PropertyRef: "MLS-1042",
		CreatedAt:   created,
	})

	assert.True(t, activity.Timestamp.Equal(created))
	assert.Equal(t, "property_showing - MLS-1042", activity.Title)
	assert.Equal(t, "Scheduled for 2026-02-14 15:00", activity.Body)
	assert.Equal(t, "confirmed", activity.Status)
	assert.Equal(t, "2026-02-14", activity.Extra["date"])
}

func TestNormalizeAppointmentWithoutCreationTime(t *testing.T) {
	scheduled := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	activity := NormalizeAppointment(domain.Appointment{
		ID:     "a2",
		Type:   domain.AppointmentConsultation,
		Date:   scheduled,
		Status: domain.AppointmentScheduled,
		Notes:  "prefers mornings",
	})

	assert.True(t, activity.Timestamp.Equal(scheduled))
	assert.Equal(t, "consultation", activity.Title)
	assert.Equal(t, "prefers mornings", activity.Body)
}

func TestSortActivitiesDescendingWithPrecedenceTieBreak(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	activities := []domain.Activity{
		{SourceType: domain.SourceNote, ID: "n1", Timestamp: at},
		{SourceType: domain.SourceInteraction, ID: "i1", Timestamp: at},
		{SourceType: domain.SourceAppointment, ID: "a1", Timestamp: at},
		{SourceType: domain.SourceInteraction, ID: "i0", Timestamp: at.Add(time.Hour)},
	}

	SortActivities(activities)

	order := make([]string, 0, len(activities))
	for _, a := range activities {
		order = append(order, a.ID)
	}
	assert.Equal(t, []string{"i0", "a1", "i1", "n1"}, order)
}

func TestSortActivitiesIsInputOrderIndependent(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	forward := []domain.Activity{
		{SourceType: domain.SourceAppointment, ID: "a1", Timestamp: at},
		{SourceType: domain.SourceAppointment, ID: "a2", Timestamp: at},
		{SourceType: domain.SourceInteraction, ID: "i1", Timestamp: at.Add(-time.Minute)},
	}
	reversed := []domain.Activity{forward[2], forward[1], forward[0]}

	SortActivities(forward)
	SortActivities(reversed)

	assert.Equal(t, forward, reversed)
}
