package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/repository"
)

type conversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository returns a Postgres-backed implementation of ConversationRepository.
func NewConversationRepository(pool *pgxpool.Pool) repository.ConversationRepository {
	return &conversationRepository{pool: pool}
}

func (r *conversationRepository) ListByAccountKey(ctx context.Context, agentID, accountKey string) ([]domain.Conversation, error) {
	if accountKey == "" {
		return nil, nil
	}

	const query = `
	SELECT c.id, c.agent_id, c.account_key, c.subject, c.created_at, c.updated_at,
	       m.id, m.sender_id, m.content, m.created_at
	FROM conversations c
	LEFT JOIN messages m ON m.conversation_id = c.id
	WHERE c.agent_id = $1 AND c.account_key = $2
	ORDER BY c.updated_at DESC, m.created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, agentID, accountKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		conversations []domain.Conversation
		index         = make(map[string]int)
	)
	for rows.Next() {
		var (
			conv       domain.Conversation
			subject    *string
			msgID      *string
			msgSender  *string
			msgContent *string
			msgCreated *time.Time
		)
		if err := rows.Scan(
			&conv.ID,
			&conv.AgentID,
			&conv.AccountKey,
			&subject,
			&conv.CreatedAt,
			&conv.UpdatedAt,
			&msgID,
			&msgSender,
			&msgContent,
			&msgCreated,
		); err != nil {
			return nil, err
		}
		if subject != nil {
			conv.Subject = *subject
		}

		pos, ok := index[conv.ID]
		if !ok {
			pos = len(conversations)
			index[conv.ID] = pos
			conversations = append(conversations, conv)
		}

		if msgID != nil {
			msg := domain.Message{ID: *msgID}
			if msgSender != nil {
				msg.SenderID = *msgSender
			}
			if msgContent != nil {
				msg.Content = *msgContent
			}
			if msgCreated != nil {
				msg.CreatedAt = *msgCreated
			}
			conversations[pos].Messages = append(conversations[pos].Messages, msg)
		}
	}
	return conversations, rows.Err()
}
