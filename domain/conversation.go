package domain

import "time"

// Message is a single entry in a conversation thread.
type Message struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is a messaging thread between an agent and a registered
// account. Threads are keyed on the account id, never on the contact record,
// so they only exist for contacts that have signed up.
type Conversation struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agent_id"`
	AccountKey string    `json:"account_key"`
	Subject    string    `json:"subject,omitempty"`
	Messages   []Message `json:"messages,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ConversationSummary is the condensed form surfaced alongside the activity
// feed; full threads stay in the messaging view.
type ConversationSummary struct {
	ID            string     `json:"id"`
	Subject       string     `json:"subject,omitempty"`
	MessageCount  int        `json:"message_count"`
	LastMessage   string     `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// Summarize condenses a conversation into its summary form.
func (c *Conversation) Summarize() ConversationSummary {
	summary := ConversationSummary{
		ID:           c.ID,
		Subject:      c.Subject,
		MessageCount: len(c.Messages),
	}
	for i := range c.Messages {
		msg := c.Messages[i]
		if summary.LastMessageAt == nil || msg.CreatedAt.After(*summary.LastMessageAt) {
			at := msg.CreatedAt
			summary.LastMessageAt = &at
			summary.LastMessage = msg.Content
		}
	}
	return summary
}
