package notification

import (
	"context"
	"fmt"
	"log/slog"

	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
	dErrors "nonconf/pkg/domain-errors"
	"nonconf/pkg/requestcontext"
)

// Dispatcher writes one notification row per recipient for a record event.
type Dispatcher struct {
	store  Store
	logger *slog.Logger
}

func NewDispatcher(store Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, logger: logger}
}

// Dispatch creates one row per recipient. Row creation is the whole contract;
// outbound delivery is the Worker's problem. A failure on one recipient does
// not abort the rest, and the first error is returned after all attempts.
func (d *Dispatcher) Dispatch(ctx context.Context, record *models.Record, eventType models.EventType, recipients []id.UserID) error {
	now := requestcontext.Now(ctx)
	title, message := describe(record, eventType)

	var firstErr error
	for _, recipient := range recipients {
		if recipient.IsNil() {
			continue
		}
		row := &Notification{
			ID:        id.NewNotificationID(),
			UserID:    recipient,
			RecordID:  record.ID,
			Title:     title,
			Message:   message,
			CreatedAt: now,
		}
		if err := d.store.Create(ctx, row); err != nil {
			d.logger.ErrorContext(ctx, "notification row creation failed",
				"record_id", record.ID,
				"recipient", recipient,
				"error", err,
			)
			if firstErr == nil {
				firstErr = dErrors.Wrap(err, dErrors.CodeInternal, "create notification")
			}
		}
	}
	return firstErr
}

// Recipients applies the routing rules: assignment events go to the new
// assignee, status changes to the current assignee when one is set.
func Recipients(record *models.Record, eventType models.EventType) []id.UserID {
	switch eventType {
	case models.EventTypeAssignment, models.EventTypeStatusChange, models.EventTypeClosure:
		if record.Assigned() {
			return []id.UserID{*record.AssignedTo}
		}
	}
	return nil
}

func describe(record *models.Record, eventType models.EventType) (string, string) {
	switch eventType {
	case models.EventTypeAssignment:
		return fmt.Sprintf("RNC #%d assigned to you", record.Sequence),
			fmt.Sprintf("Non-conformance record #%d was assigned to you.", record.Sequence)
	case models.EventTypeStatusChange:
		return fmt.Sprintf("RNC #%d moved to %s", record.Sequence, record.Status),
			fmt.Sprintf("Non-conformance record #%d is now in the %s stage.", record.Sequence, record.Status)
	case models.EventTypeClosure:
		return fmt.Sprintf("RNC #%d closed", record.Sequence),
			fmt.Sprintf("Non-conformance record #%d was closed.", record.Sequence)
	case models.EventTypeCollection:
		return fmt.Sprintf("RNC #%d collected", record.Sequence),
			fmt.Sprintf("Material for non-conformance record #%d was collected.", record.Sequence)
	default:
		return fmt.Sprintf("RNC #%d updated", record.Sequence),
			fmt.Sprintf("Non-conformance record #%d changed.", record.Sequence)
	}
}
