package changerequest

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EntityKind string

const (
	KindUser        EntityKind = "user"
	KindInstitution EntityKind = "institution"
	KindPublication EntityKind = "publication"
)

type Action string

const (
	ActionInsert  Action = "insert"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ChangeRequest is one row in the request ledger. It is created pending by
// Submit and moved to a terminal status exactly once by Decide; terminal
// rows are never reopened.
type ChangeRequest struct {
	ID              uuid.UUID       `json:"id"`
	EntityKind      EntityKind      `json:"entity_kind"`
	EntityID        uint            `json:"entity_id"`
	Action          Action          `json:"action"`
	Payload         json.RawMessage `json:"payload"`
	NaturalKey      string          `json:"natural_key"`
	InputterID      uint            `json:"inputter_id"`
	AuthorizerID    uint            `json:"authorizer_id"`
	Status          Status          `json:"status"`
	DecidedBy       *uint           `json:"decided_by,omitempty"`
	DecidedAt       *time.Time      `json:"decided_at,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (r *ChangeRequest) IsPending() bool {
	return r.Status == StatusPending
}

// ValidAction reports whether a is one of the five governed actions.
func ValidAction(a Action) bool {
	switch a {
	case ActionInsert, ActionEdit, ActionDelete, ActionEnable, ActionDisable:
		return true
	}
	return false
}

// ValidKind reports whether k names a governed entity kind.
func ValidKind(k EntityKind) bool {
	switch k {
	case KindUser, KindInstitution, KindPublication:
		return true
	}
	return false
}
