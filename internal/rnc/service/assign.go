package service

import (
	"context"
	"fmt"

	"nonconf/internal/feed"
	"nonconf/internal/notification"
	"nonconf/internal/policy"
	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
	dErrors "nonconf/pkg/domain-errors"
	"nonconf/pkg/requestcontext"
)

// Assign routes the record to assignee. Reassignment is allowed at any
// non-terminal stage; the versioned write makes racing assignments resolve to
// exactly one winner, the loser gets a conflict and re-reads.
func (s *Service) Assign(ctx context.Context, actor policy.Actor, recordID id.RecordID, assignee id.UserID) (*models.Record, error) {
	ctx, span := tracer.Start(ctx, "rnc.Assign")
	defer span.End()

	if assignee.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "assignee is required")
	}
	record, err := s.authorizeMutation(ctx, actor, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status.Terminal() {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "closed records cannot be assigned")
	}

	now := requestcontext.Now(ctx)
	record.AssignedTo = &assignee
	record.AssignedBy = &actor.ID
	record.AssignedAt = &now
	record.UpdatedAt = now

	err = s.withTx(ctx, func(ctx context.Context) error {
		if err := s.records.Update(ctx, record); err != nil {
			return translateStoreErr(err, "record")
		}
		event := &models.Event{
			ID:        id.NewEventID(),
			RecordID:  record.ID,
			Type:      models.EventTypeAssignment,
			Title:     fmt.Sprintf("Assigned to %s", assignee),
			CreatedBy: actor.ID,
			CreatedAt: now,
		}
		if err := s.events.Append(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append assignment event")
		}
		return s.appendOutbox(ctx, record, models.EventTypeAssignment, actor.ID, now)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Assignments.Inc()
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, record, models.EventTypeAssignment, notification.Recipients(record, models.EventTypeAssignment)); err != nil {
			s.logger.WarnContext(ctx, "assignment notification failed",
				"record_id", record.ID,
				"error", err,
			)
		}
	}
	s.afterMutation(ctx, record.ID, feed.KindUpdate, "records")
	s.logger.InfoContext(ctx, "record assigned",
		"record_id", record.ID,
		"assignee", assignee,
		"assigned_by", actor.ID,
	)
	return record, nil
}

// MarkCollected stamps the material collection time and appends the audit
// event. Collection is idempotent-hostile on purpose: a second call is a
// validation error, the physical pickup happens once.
func (s *Service) MarkCollected(ctx context.Context, actor policy.Actor, recordID id.RecordID) (*models.Record, error) {
	record, err := s.authorizeMutation(ctx, actor, recordID)
	if err != nil {
		return nil, err
	}
	if record.CollectedAt != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "record was already collected")
	}

	now := requestcontext.Now(ctx)
	record.CollectedAt = &now
	record.UpdatedAt = now

	err = s.withTx(ctx, func(ctx context.Context) error {
		if err := s.records.Update(ctx, record); err != nil {
			return translateStoreErr(err, "record")
		}
		event := &models.Event{
			ID:        id.NewEventID(),
			RecordID:  record.ID,
			Type:      models.EventTypeCollection,
			Title:     "Material collected",
			CreatedBy: actor.ID,
			CreatedAt: now,
		}
		if err := s.events.Append(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append collection event")
		}
		return s.appendOutbox(ctx, record, models.EventTypeCollection, actor.ID, now)
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, record.ID, feed.KindUpdate, "records")
	return record, nil
}
