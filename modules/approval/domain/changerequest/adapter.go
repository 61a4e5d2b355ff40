package changerequest

import (
	"context"
	"encoding/json"
)

// Adapter is the capability set a governed entity kind exposes to the
// workflow engine. One engine drives all kinds through this interface;
// the entity modules each register one implementation.
//
// Methods that touch storage run inside the engine's transaction scope
// and must acquire their connection through the context.
type Adapter interface {
	Kind() EntityKind

	// AuthorizerRole names the role the designated approver must hold
	// for the given action.
	AuthorizerRole(action Action) string

	// ValidatePayload checks the proposed field snapshot for the action.
	// Insert and edit require a full snapshot; the remaining actions
	// carry no payload.
	ValidatePayload(ctx context.Context, action Action, payload json.RawMessage) error

	// NaturalKey derives the duplicate-detection key from an insert
	// payload.
	NaturalKey(payload json.RawMessage) (string, error)

	// CreatePending creates the entity row locked and inactive, so insert
	// requests always reference a persisted row.
	CreatePending(ctx context.Context, payload json.RawMessage) (uint, error)

	SetLocked(ctx context.Context, entityID uint, locked bool) error
	Exists(ctx context.Context, entityID uint) (bool, error)
	FindActiveByNaturalKey(ctx context.Context, key string) (bool, error)

	// ApplyEffect applies an approved request to the entity store. The
	// returned note, when non-empty, is appended to the inputter
	// notification (one-time credentials travel this way).
	ApplyEffect(ctx context.Context, req *ChangeRequest) (note string, err error)

	// EntityLabel returns a human-readable identifier for notifications.
	EntityLabel(ctx context.Context, req *ChangeRequest) (string, error)
}
