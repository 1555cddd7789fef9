// Package policy holds the authenticated-identity value and the ownership
// rules gating record mutation. Every mutating service operation takes an
// explicit Actor rather than re-deriving identity from ambient state.
package policy

import (
	"context"

	id "nonconf/pkg/domain"
)

// Capability is a coarse permission grant attached to an actor.
type Capability string

const (
	// CapabilityAdmin lets an actor mutate and delete any record and any
	// comment regardless of ownership.
	CapabilityAdmin Capability = "admin"
)

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID           id.UserID
	Capabilities []Capability
}

// Has reports whether the actor holds the given capability.
func (a Actor) Has(cap Capability) bool {
	for _, c := range a.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the actor has administrative capability.
func (a Actor) IsAdmin() bool { return a.Has(CapabilityAdmin) }

// CanMutateRecord applies the ownership rule shared by transitions,
// assignment, field edits, and deletion: the record's creator or an admin.
func (a Actor) CanMutateRecord(createdBy id.UserID) bool {
	return a.IsAdmin() || a.ID == createdBy
}

// CanDeleteComment applies the comment rule: the comment's author or an admin.
func (a Actor) CanDeleteComment(authorID id.UserID) bool {
	return a.IsAdmin() || a.ID == authorID
}

type actorKey struct{}

// WithActor injects the authenticated actor into the request context. The
// auth middleware is the only production caller; tests inject directly.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom retrieves the actor set by WithActor. ok is false on contexts
// that never passed through authentication.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
