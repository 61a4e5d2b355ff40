package decisionlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	OutcomeSubmitted = "submitted"
	OutcomeApproved  = "approved"
	OutcomeRejected  = "rejected"
)

// DecisionLog is one audit row per workflow transition.
type DecisionLog struct {
	ID         uint
	RequestID  uuid.UUID
	EntityKind string
	EntityID   uint
	Action     string
	ActorID    uint
	Outcome    string
	Reason     *string
	CreatedAt  time.Time
}

type FindParams struct {
	RequestID  *uuid.UUID
	EntityKind string
	Outcome    string
	Limit      int
	Offset     int
}

type Repository interface {
	Create(ctx context.Context, log *DecisionLog) error
	List(ctx context.Context, params *FindParams) ([]*DecisionLog, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
}
