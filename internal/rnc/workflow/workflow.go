// Package workflow validates moves on the six-stage record lifecycle:
//
//	open → analysis → resolution → solved → closing → closed
//
// The graph is linear with strict adjacency: a record never skips a stage and
// closed has no outgoing edges. Every status write in the system, including
// generic field updates, is funneled through Validate.
package workflow

import (
	"fmt"

	"nonconf/internal/rnc/models"
	dErrors "nonconf/pkg/domain-errors"
)

// Validate returns nil when target is the graph successor of current, and a
// coded invalid_transition error otherwise. The stored status is untouched by
// a failed validation; callers only persist after Validate passes.
func Validate(current, target models.Status) error {
	if !current.IsValid() {
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("unknown current status %q", current))
	}
	if !target.IsValid() {
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("unknown target status %q", target))
	}
	if current.Terminal() {
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("%s is terminal", current))
	}
	next, ok := current.Next()
	if !ok || next != target {
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("cannot move from %s to %s", current, target))
	}
	return nil
}
