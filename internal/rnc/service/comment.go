package service

import (
	"context"
	"strings"

	"nonconf/internal/feed"
	"nonconf/internal/policy"
	"nonconf/internal/rnc/models"
	id "nonconf/pkg/domain"
	dErrors "nonconf/pkg/domain-errors"
	"nonconf/pkg/requestcontext"
)

// Comment appends a comment event to the record's trail. Any authenticated
// user may comment; commenting does not require ownership.
func (s *Service) Comment(ctx context.Context, actor policy.Actor, recordID id.RecordID, body string) (*models.Event, error) {
	if actor.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "comment body is required")
	}
	record, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, translateStoreErr(err, "record")
	}

	event := &models.Event{
		ID:        id.NewEventID(),
		RecordID:  record.ID,
		Type:      models.EventTypeComment,
		Title:     "Comment",
		Comment:   body,
		CreatedBy: actor.ID,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.events.Append(ctx, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "append comment")
	}

	s.afterMutation(ctx, record.ID, feed.KindInsert, "record_events")
	return event, nil
}

// DeleteComment removes a comment event. Only comments are deletable, and
// only by their author or an administrator; the rest of the trail is
// append-only forever.
func (s *Service) DeleteComment(ctx context.Context, actor policy.Actor, eventID id.EventID) error {
	if actor.ID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return translateStoreErr(err, "event")
	}
	if event.Type != models.EventTypeComment {
		return dErrors.New(dErrors.CodeValidation, "only comment events can be deleted")
	}
	if !actor.CanDeleteComment(event.CreatedBy) {
		return dErrors.New(dErrors.CodePermissionDenied, "only the comment author or an administrator may delete it")
	}
	if err := s.events.Delete(ctx, eventID); err != nil {
		return translateStoreErr(err, "event")
	}

	s.afterMutation(ctx, event.RecordID, feed.KindDelete, "record_events")
	return nil
}
