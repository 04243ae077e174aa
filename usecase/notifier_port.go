package usecase

import (
	"context"

	"github.com/agentbook/backend/domain"
)

// NotificationDispatcher abstracts the notification service so use cases stay
// delivery-agnostic. Dispatch is best-effort: an error means the notification
// was neither delivered nor queued, and callers surface it as a warning, never
// as a failure of the operation that triggered it.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, notification *domain.Notification) error
}

// ChangePublisher announces store mutations on the change-event bus. Publish
// failures are non-fatal to the write that produced them.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event domain.ChangeEvent) error
}
