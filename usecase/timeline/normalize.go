package timeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agentbook/backend/domain"
)

// NormalizeInteraction maps a logged touchpoint into the common shape.
func NormalizeInteraction(interaction domain.Interaction) domain.Activity {
	title := interaction.Subject
	if title == "" {
		title = string(interaction.Type)
	}

	extra := map[string]string{}
	if interaction.DurationMinutes > 0 {
		extra["duration_minutes"] = strconv.Itoa(interaction.DurationMinutes)
	}
	if interaction.NextFollowUp != nil {
		extra["next_follow_up"] = interaction.NextFollowUp.Format(time.RFC3339)
	}
	if len(extra) == 0 {
		extra = nil
	}

	return domain.Activity{
		SourceType: domain.SourceInteraction,
		ID:         interaction.ID,
		Timestamp:  interaction.CreatedAt,
		Title:      title,
		Body:       interaction.Content,
		Status:     interaction.Outcome,
		Extra:      extra,
	}
}

// NormalizeAppointment maps an appointment into the common shape. The
// timestamp prefers the creation time so a rescheduled meeting keeps its
// original place in the feed; appointments imported without one fall back to
// the scheduled date.
func NormalizeAppointment(appointment domain.Appointment) domain.Activity {
	timestamp := appointment.CreatedAt
	if timestamp.IsZero() {
		timestamp = appointment.Date
	}

	title := string(appointment.Type)
	if appointment.PropertyRef != "" {
		title = fmt.Sprintf("%s - %s", appointment.Type, appointment.PropertyRef)
	}

	body := appointment.Notes
	if body == "" {
		body = fmt.Sprintf("Scheduled for %s %s", appointment.Date.Format("2006-01-02"), appointment.Time)
	}

	return domain.Activity{
		SourceType: domain.SourceAppointment,
		ID:         appointment.ID,
		Timestamp:  timestamp,
		Title:      strings.TrimSpace(title),
		Body:       body,
		Status:     string(appointment.Status),
		Extra: map[string]string{
			"date": appointment.Date.Format("2006-01-02"),
			"time": appointment.Time,
			"type": string(appointment.Type),
		},
	}
}

// NormalizeNote maps a note into the common shape. Notes carry no status.
func NormalizeNote(note domain.Note) domain.Activity {
	return domain.Activity{
		SourceType: domain.SourceNote,
		ID:         note.ID,
		Timestamp:  note.CreatedAt,
		Title:      note.NoteType,
		Body:       note.Content,
	}
}

// sourcePrecedence breaks timestamp ties deterministically: appointments
// before interactions before notes.
var sourcePrecedence = map[domain.ActivitySource]int{
	domain.SourceAppointment: 0,
	domain.SourceInteraction: 1,
	domain.SourceNote:        2,
}

// SortActivities orders the merged feed descending by timestamp. The result
// is a function of the input set alone, never of query arrival order: ties go
// by source precedence, then by id.
func SortActivities(activities []domain.Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		a, b := activities[i], activities[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		if sourcePrecedence[a.SourceType] != sourcePrecedence[b.SourceType] {
			return sourcePrecedence[a.SourceType] < sourcePrecedence[b.SourceType]
		}
		return a.ID < b.ID
	})
}
