package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"nonconf/internal/feed"
	"nonconf/internal/policy"
	id "nonconf/pkg/domain"
	dErrors "nonconf/pkg/domain-errors"
)

// Deletion stage names, in execution order. Dependent rows go first so a
// failure never leaves orphans pointing at a missing record.
const (
	StageProducts      = "products"
	StageContacts      = "contacts"
	StageEvents        = "events"
	StageTransitions   = "transitions"
	StageNotifications = "notifications"
	StageRecord        = "record"
)

// Delete removes the record and everything owned by it. With a database
// handle the cascade is one transaction and either fully applies or fully
// rolls back. Without one the stages run sequentially and a mid-sequence
// failure is reported as a partial deletion naming the stage that failed;
// earlier stages stay deleted and the operation is safe to retry.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, recordID id.RecordID) error {
	ctx, span := tracer.Start(ctx, "rnc.Delete", trace.WithAttributes(
		attribute.String("record.id", recordID.String()),
	))
	defer span.End()

	record, err := s.authorizeMutation(ctx, actor, recordID)
	if err != nil {
		return err
	}

	stages := []struct {
		name string
		run  func(ctx context.Context) error
	}{
		{StageProducts, func(ctx context.Context) error {
			_, err := s.products.DeleteByRecord(ctx, recordID)
			return err
		}},
		{StageContacts, func(ctx context.Context) error {
			_, err := s.contacts.DeleteByRecord(ctx, recordID)
			return err
		}},
		{StageEvents, func(ctx context.Context) error {
			_, err := s.events.DeleteByRecord(ctx, recordID)
			return err
		}},
		{StageTransitions, func(ctx context.Context) error {
			_, err := s.transitions.DeleteByRecord(ctx, recordID)
			return err
		}},
		{StageNotifications, func(ctx context.Context) error {
			_, err := s.notifications.DeleteByRecord(ctx, recordID)
			return err
		}},
		{StageRecord, func(ctx context.Context) error {
			return s.records.Delete(ctx, recordID)
		}},
	}

	err = s.withTx(ctx, func(ctx context.Context) error {
		for _, stage := range stages {
			if err := stage.run(ctx); err != nil {
				if s.metrics != nil {
					s.metrics.DeletionFailures.WithLabelValues(stage.name).Inc()
				}
				s.logger.ErrorContext(ctx, "deletion stage failed",
					"record_id", recordID,
					"stage", stage.name,
					"error", err,
				)
				return dErrors.Wrap(err, dErrors.CodePartialDeletion,
					fmt.Sprintf("deletion failed at stage %s", stage.name))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordsDeleted.Inc()
	}
	s.afterMutation(ctx, recordID, feed.KindDelete, "records")
	s.logger.InfoContext(ctx, "record deleted",
		"record_id", recordID,
		"sequence", record.Sequence,
		"deleted_by", actor.ID,
	)
	return nil
}
