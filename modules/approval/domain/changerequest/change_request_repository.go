package changerequest

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, cr *ChangeRequest) (*ChangeRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ChangeRequest, error)
	// GetPendingByID returns the request only while it is still pending.
	GetPendingByID(ctx context.Context, id uuid.UUID) (*ChangeRequest, error)
	// TransitionIfPending atomically moves the row out of pending. It
	// reports false when another decision already consumed the row.
	TransitionIfPending(ctx context.Context, id uuid.UUID, status Status, decidedBy uint, reason *string) (bool, error)
	ExistsPendingForEntity(ctx context.Context, kind EntityKind, entityID uint) (bool, error)
	ExistsPendingForNaturalKey(ctx context.Context, kind EntityKind, naturalKey string) (bool, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*ChangeRequest, error)
}
