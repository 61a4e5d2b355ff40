package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pubdesk/pubdesk/modules/approval/domain/changerequest"
	"github.com/pubdesk/pubdesk/pkg/composables"
	"github.com/pubdesk/pubdesk/pkg/repo"
)

const (
	pendingEntityIndex = "change_requests_pending_entity_idx"
	pendingKeyIndex    = "change_requests_pending_natural_key_idx"
)

const (
	changeRequestFindQuery = `
        SELECT
            cr.id,
            cr.entity_kind,
            cr.entity_id,
            cr.action,
            cr.payload,
            cr.natural_key,
            cr.inputter_id,
            cr.authorizer_id,
            cr.status,
            cr.decided_by,
            cr.decided_at,
            cr.rejection_reason,
            cr.created_at,
            cr.updated_at
        FROM change_requests cr`

	changeRequestInsertQuery = `
        INSERT INTO change_requests (
            id, entity_kind, entity_id, action, payload, natural_key,
            inputter_id, authorizer_id, status
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING created_at, updated_at`

	changeRequestTransitionQuery = `
        UPDATE change_requests
           SET status = $2,
               decided_by = $3,
               decided_at = now(),
               rejection_reason = $4,
               updated_at = now()
         WHERE id = $1 AND status = 'pending'`

	changeRequestPendingEntityQuery = `
        SELECT 1 FROM change_requests
         WHERE entity_kind = $1 AND entity_id = $2 AND status = 'pending'`

	changeRequestPendingKeyQuery = `
        SELECT 1 FROM change_requests
         WHERE entity_kind = $1 AND natural_key = $2 AND status = 'pending'`
)

type PgChangeRequestRepository struct{}

func NewChangeRequestRepository() changerequest.Repository {
	return &PgChangeRequestRepository{}
}

type changeRequestRow struct {
	ID              uuid.UUID
	EntityKind      string
	EntityID        int64
	Action          string
	Payload         []byte
	NaturalKey      *string
	InputterID      int64
	AuthorizerID    int64
	Status          string
	DecidedBy       *int64
	DecidedAt       *time.Time
	RejectionReason *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r changeRequestRow) toDomain() *changerequest.ChangeRequest {
	cr := &changerequest.ChangeRequest{
		ID:              r.ID,
		EntityKind:      changerequest.EntityKind(r.EntityKind),
		EntityID:        uint(r.EntityID),
		Action:          changerequest.Action(r.Action),
		Payload:         json.RawMessage(r.Payload),
		InputterID:      uint(r.InputterID),
		AuthorizerID:    uint(r.AuthorizerID),
		Status:          changerequest.Status(r.Status),
		DecidedAt:       r.DecidedAt,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.NaturalKey != nil {
		cr.NaturalKey = *r.NaturalKey
	}
	if r.DecidedBy != nil {
		v := uint(*r.DecidedBy)
		cr.DecidedBy = &v
	}
	return cr
}

func scanChangeRequest(row pgx.Row) (*changerequest.ChangeRequest, error) {
	var m changeRequestRow
	if err := row.Scan(
		&m.ID,
		&m.EntityKind,
		&m.EntityID,
		&m.Action,
		&m.Payload,
		&m.NaturalKey,
		&m.InputterID,
		&m.AuthorizerID,
		&m.Status,
		&m.DecidedBy,
		&m.DecidedAt,
		&m.RejectionReason,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return m.toDomain(), nil
}

func (g *PgChangeRequestRepository) Create(ctx context.Context, cr *changerequest.ChangeRequest) (*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var naturalKey *string
	if cr.NaturalKey != "" {
		naturalKey = &cr.NaturalKey
	}

	out := *cr
	if err := tx.QueryRow(
		ctx,
		changeRequestInsertQuery,
		cr.ID,
		string(cr.EntityKind),
		int64(cr.EntityID),
		string(cr.Action),
		[]byte(cr.Payload),
		naturalKey,
		int64(cr.InputterID),
		int64(cr.AuthorizerID),
		string(cr.Status),
	).Scan(&out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, mapUniqueViolation(err)
	}
	return &out, nil
}

// mapUniqueViolation converts the partial-index conflicts raised by
// concurrent submits into their stable error codes.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return errors.Wrap(err, "failed to create change request")
	}
	switch pgErr.ConstraintName {
	case pendingEntityIndex:
		return changerequest.ErrRequestAlreadyPending
	case pendingKeyIndex:
		return changerequest.ErrDuplicateRequest
	}
	return errors.Wrap(err, "failed to create change request")
}

func (g *PgChangeRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	q := repo.Join(changeRequestFindQuery, repo.JoinWhere("cr.id = $1"))
	cr, err := scanChangeRequest(tx.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get change request")
	}
	return cr, nil
}

func (g *PgChangeRequestRepository) GetPendingByID(ctx context.Context, id uuid.UUID) (*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	q := repo.Join(changeRequestFindQuery, repo.JoinWhere("cr.id = $1", "cr.status = 'pending'"))
	cr, err := scanChangeRequest(tx.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get pending change request")
	}
	return cr, nil
}

func (g *PgChangeRequestRepository) TransitionIfPending(
	ctx context.Context,
	id uuid.UUID,
	status changerequest.Status,
	decidedBy uint,
	reason *string,
) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, changeRequestTransitionQuery, id, string(status), int64(decidedBy), reason)
	if err != nil {
		return false, errors.Wrap(err, "failed to transition change request")
	}
	return tag.RowsAffected() == 1, nil
}

func (g *PgChangeRequestRepository) ExistsPendingForEntity(ctx context.Context, kind changerequest.EntityKind, entityID uint) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	q := repo.Exists(changeRequestPendingEntityQuery)
	if err := tx.QueryRow(ctx, q, string(kind), int64(entityID)).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check pending request for entity")
	}
	return exists, nil
}

func (g *PgChangeRequestRepository) ExistsPendingForNaturalKey(ctx context.Context, kind changerequest.EntityKind, naturalKey string) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	q := repo.Exists(changeRequestPendingKeyQuery)
	if err := tx.QueryRow(ctx, q, string(kind), naturalKey).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check pending request for natural key")
	}
	return exists, nil
}

func (g *PgChangeRequestRepository) ListByStatus(ctx context.Context, status changerequest.Status, limit, offset int) ([]*changerequest.ChangeRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	q := repo.Join(
		changeRequestFindQuery,
		repo.JoinWhere("cr.status = $1"),
		"ORDER BY cr.created_at DESC",
		repo.FormatLimitOffset(limit, offset),
	)
	rows, err := tx.Query(ctx, q, string(status))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list change requests")
	}
	defer rows.Close()

	var out []*changerequest.ChangeRequest
	for rows.Next() {
		cr, err := scanChangeRequest(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan change request")
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}
