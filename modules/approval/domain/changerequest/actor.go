package changerequest

import "context"

// Actor is the projection of a user the engine needs for precondition
// checks and notifications.
type Actor struct {
	ID    uint
	Name  string
	Email string
}

// ActorDirectory resolves actors and their roles. Implemented by the core
// module so the engine stays decoupled from the user store.
type ActorDirectory interface {
	// FindActive returns the actor only when the user exists, is active
	// and not soft-deleted.
	FindActive(ctx context.Context, id uint) (*Actor, error)
	HasRole(ctx context.Context, userID uint, roleName string) (bool, error)
}
