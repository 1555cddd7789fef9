package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"nonconf/internal/feed"
	"nonconf/internal/notification"
	"nonconf/internal/policy"
	"nonconf/internal/rnc/models"
	"nonconf/internal/rnc/workflow"
	id "nonconf/pkg/domain"
	dErrors "nonconf/pkg/domain-errors"
	"nonconf/pkg/requestcontext"
)

// Transition moves the record to target, which must be the immediate
// successor of its current stage. On success the record, the transition row,
// and the audit event are written together, then the assignee is notified.
func (s *Service) Transition(ctx context.Context, actor policy.Actor, recordID id.RecordID, target models.Status, notes string) (*models.Record, error) {
	ctx, span := tracer.Start(ctx, "rnc.Transition", trace.WithAttributes(
		attribute.String("record.id", recordID.String()),
		attribute.String("transition.target", string(target)),
	))
	defer span.End()

	record, err := s.authorizeMutation(ctx, actor, recordID)
	if err != nil {
		return nil, err
	}

	if err := workflow.Validate(record.Status, target); err != nil {
		if s.metrics != nil {
			s.metrics.InvalidTransitions.Inc()
		}
		return nil, err
	}

	now := requestcontext.Now(ctx)
	from := record.Status
	record.Status = target
	record.UpdatedAt = now
	// The audit event is always a status change; closure is a notification
	// classification, not an event type, so the trail stays uniform.
	notifyType := models.EventTypeStatusChange
	if target.Terminal() {
		record.ClosedAt = &now
		notifyType = models.EventTypeClosure
	}

	err = s.withTx(ctx, func(ctx context.Context) error {
		if err := s.records.Update(ctx, record); err != nil {
			return translateStoreErr(err, "record")
		}
		transition := &models.Transition{
			ID:        id.NewTransitionID(),
			RecordID:  record.ID,
			From:      from,
			To:        target,
			Notes:     notes,
			CreatedBy: actor.ID,
			CreatedAt: now,
		}
		if err := s.transitions.Append(ctx, transition); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append transition")
		}
		event := &models.Event{
			ID:          id.NewEventID(),
			RecordID:    record.ID,
			Type:        models.EventTypeStatusChange,
			Title:       fmt.Sprintf("Status changed to %s", target),
			Description: notes,
			CreatedBy:   actor.ID,
			CreatedAt:   now,
		}
		if err := s.events.Append(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append status event")
		}
		return s.appendOutbox(ctx, record, notifyType, actor.ID, now)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(string(target)).Inc()
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, record, notifyType, notification.Recipients(record, notifyType)); err != nil {
			s.logger.WarnContext(ctx, "transition notification failed",
				"record_id", record.ID,
				"error", err,
			)
		}
	}
	s.afterMutation(ctx, record.ID, feed.KindUpdate, "records")
	s.logger.InfoContext(ctx, "record transitioned",
		"record_id", record.ID,
		"from", from,
		"to", target,
	)
	return record, nil
}
