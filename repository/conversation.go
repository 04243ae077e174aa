package repository

import (
	"context"

	"github.com/agentbook/backend/domain"
)

// ConversationRepository is keyed on the registered account id. There is no
// fallback path: contacts without a linked account have no threads.
type ConversationRepository interface {
	ListByAccountKey(ctx context.Context, agentID, accountKey string) ([]domain.Conversation, error)
}
