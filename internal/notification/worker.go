package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nonconf/internal/mailer"
	id "nonconf/pkg/domain"
	pstrings "nonconf/pkg/platform/strings"
)

// Directory resolves a user to an email address for outbound delivery.
type Directory interface {
	EmailFor(ctx context.Context, userID id.UserID) (string, error)
}

// Worker drains undelivered notification rows to the mailer. Delivery
// failures are logged and retried on the next tick; a row is marked delivered
// only after the mailer accepts it. The originating mutation is never
// affected either way.
type Worker struct {
	store     Store
	mailer    mailer.Mailer
	directory Directory
	logger    *slog.Logger

	from      string
	interval  time.Duration
	batchSize int
}

func NewWorker(store Store, m mailer.Mailer, directory Directory, logger *slog.Logger, from string) *Worker {
	return &Worker{
		store:     store,
		mailer:    m,
		directory: directory,
		logger:    logger,
		from:      from,
		interval:  30 * time.Second,
		batchSize: 50,
	}
}

// Run loops until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.DeliverPending(ctx); err != nil {
				w.logger.ErrorContext(ctx, "notification delivery sweep failed", "error", err)
			}
		}
	}
}

// DeliverPending pushes one batch of undelivered rows to the mailer.
func (w *Worker) DeliverPending(ctx context.Context) error {
	pending, err := w.store.ListUndelivered(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list undelivered: %w", err)
	}
	for _, notification := range pending {
		if err := w.deliver(ctx, notification); err != nil {
			// Logged, left undelivered, retried next sweep.
			w.logger.WarnContext(ctx, "notification delivery failed",
				"notification_id", notification.ID,
				"recipient", notification.UserID,
				"error", err,
			)
			continue
		}
		if err := w.store.MarkDelivered(ctx, notification.ID, time.Now()); err != nil {
			w.logger.ErrorContext(ctx, "mark delivered failed",
				"notification_id", notification.ID,
				"error", err,
			)
		}
	}
	return nil
}

func (w *Worker) deliver(ctx context.Context, notification *Notification) error {
	email, err := w.directory.EmailFor(ctx, notification.UserID)
	if err != nil {
		return fmt.Errorf("resolve recipient email: %w", err)
	}
	to := pstrings.DedupeAndTrimLower([]string{email})
	if len(to) == 0 {
		return fmt.Errorf("recipient %s has no email", notification.UserID)
	}

	firstName, _ := mailer.DeriveNameFromEmail(to[0])
	body := fmt.Sprintf("<p>Hi %s,</p><p>%s</p>", firstName, notification.Message)

	return w.mailer.Send(ctx, mailer.Message{
		From:     w.from,
		To:       to,
		Subject:  notification.Title,
		HTMLBody: body,
	})
}
