// Package notifier implements best-effort notification dispatch: immediate
// delivery when the channel is up, a persistent outbox drained on a schedule
// when it is not. Delivery never blocks or unwinds the operation that
// triggered it.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/internal/infrastructure/outbox"
	"github.com/agentbook/backend/usecase"
)

// Config controls how frequently the outbox is drained and how long stale
// entries are retained.
type Config struct {
	DrainInterval time.Duration
	BatchSize     int
	MaxRetries    int
	Retention     time.Duration
}

// Dispatcher delivers notifications through a Sender, falling back to the
// outbox when delivery fails.
type Dispatcher struct {
	sender Sender
	store  *outbox.Store
	logger *zap.Logger
	cron   *cron.Cron
	cfg    Config
}

func New(sender Sender, store *outbox.Store, logger *zap.Logger, cfg Config) *Dispatcher {
	if cfg.DrainInterval <= 0 {
		cfg.DrainInterval = 30 * time.Second
	}
	// The schedule renders in whole seconds; anything shorter would format
	// as "@every 0s" and never be accepted.
	if cfg.DrainInterval < time.Second {
		cfg.DrainInterval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		sender: sender,
		store:  store,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.DrainInterval.Seconds()))
	if _, err := d.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.DrainInterval)
		defer cancel()
		if err := d.Drain(ctx); err != nil {
			d.logger.Error("outbox drain failed", zap.Error(err))
		}
	}); err != nil {
		d.logger.Error("outbox drain schedule rejected",
			zap.String("schedule", schedule),
			zap.Error(err))
	}

	if cfg.Retention > 0 && store != nil {
		if _, err := d.cron.AddFunc("@hourly", func() {
			if err := store.Cleanup(time.Now().Add(-cfg.Retention)); err != nil {
				d.logger.Warn("outbox cleanup failed", zap.Error(err))
			}
		}); err != nil {
			d.logger.Error("outbox cleanup schedule rejected", zap.Error(err))
		}
	}

	return d
}

// Start launches the drain scheduler.
func (d *Dispatcher) Start() {
	if d == nil || d.cron == nil {
		return
	}
	d.cron.Start()
	d.logger.Info("notification dispatcher started")
}

// Stop gracefully stops the scheduler.
func (d *Dispatcher) Stop(ctx context.Context) {
	if d == nil || d.cron == nil {
		return
	}
	stopCtx := d.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	d.logger.Info("notification dispatcher stopped")
}

// Dispatch attempts immediate delivery and falls back to the outbox. An error
// means the notification was neither delivered nor queued.
func (d *Dispatcher) Dispatch(ctx context.Context, notification *domain.Notification) error {
	if d == nil || notification == nil {
		return domain.ErrInvalidPayload
	}

	sendErr := d.sender.Send(ctx, notification)
	if sendErr == nil {
		return nil
	}
	d.logger.Warn("immediate delivery failed, queueing notification",
		zap.String("kind", string(notification.Kind)),
		zap.Error(sendErr))

	if d.store == nil {
		return sendErr
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return d.store.Enqueue(outbox.Entry{
		ID:           notification.ID,
		Kind:         string(notification.Kind),
		AgentID:      notification.AgentID,
		Notification: payload,
		Priority:     priorityFor(notification.Kind),
	})
}

// Drain retries queued notifications, dropping entries that exhaust their
// retry budget.
func (d *Dispatcher) Drain(ctx context.Context) error {
	if d == nil || d.store == nil {
		return nil
	}

	entries, err := d.store.GetBatch(d.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		var notification domain.Notification
		if err := json.Unmarshal(entry.Notification, &notification); err != nil {
			d.logger.Warn("dropping malformed outbox entry", zap.String("entry_id", entry.ID))
			_ = d.store.Remove(entry)
			continue
		}

		if err := d.sender.Send(ctx, &notification); err != nil {
			d.logger.Error("outbox delivery failed",
				zap.String("entry_id", entry.ID),
				zap.String("kind", entry.Kind),
				zap.Error(err))

			entry.Retries++
			if entry.Retries >= d.cfg.MaxRetries {
				d.logger.Warn("dropping outbox entry (max retries reached)", zap.String("entry_id", entry.ID))
				_ = d.store.Remove(entry)
				continue
			}
			if err := d.store.Remove(entry); err != nil {
				d.logger.Warn("failed to remove outbox entry", zap.Error(err))
			}
			if err := d.store.Requeue(entry); err != nil {
				d.logger.Error("failed to requeue outbox entry", zap.Error(err))
			}
			continue
		}

		if err := d.store.Remove(entry); err != nil {
			d.logger.Warn("failed to purge delivered outbox entry", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of queued notifications.
func (d *Dispatcher) Size() int {
	if d == nil || d.store == nil {
		return 0
	}
	size, err := d.store.Size()
	if err != nil {
		return 0
	}
	return size
}

// Cancellation and no-show notices drain ahead of routine confirmations.
func priorityFor(kind domain.NotificationKind) int {
	switch kind {
	case domain.NotifyAppointmentCancelled, domain.NotifyAppointmentNoShow:
		return 1
	case domain.NotifyAppointmentCreated, domain.NotifyAppointmentConfirmed:
		return 2
	default:
		return 3
	}
}

var _ usecase.NotificationDispatcher = (*Dispatcher)(nil)
