package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/pubdesk/pubdesk/modules/audit/domain/entities/decisionlog"
	"github.com/pubdesk/pubdesk/pkg/composables"
	"github.com/pubdesk/pubdesk/pkg/repo"
)

const (
	decisionLogFindQuery = `
        SELECT
            dl.id,
            dl.request_id,
            dl.entity_kind,
            dl.entity_id,
            dl.action,
            dl.actor_id,
            dl.outcome,
            dl.reason,
            dl.created_at
        FROM decision_logs dl`

	decisionLogCountQuery = `SELECT COUNT(dl.id) FROM decision_logs dl`

	decisionLogInsertQuery = `
        INSERT INTO decision_logs (request_id, entity_kind, entity_id, action, actor_id, outcome, reason)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

type decisionLogRow struct {
	ID         int64
	RequestID  uuid.UUID
	EntityKind string
	EntityID   int64
	Action     string
	ActorID    int64
	Outcome    string
	Reason     *string
	CreatedAt  time.Time
}

func (m decisionLogRow) toDomain() *decisionlog.DecisionLog {
	return &decisionlog.DecisionLog{
		ID:         uint(m.ID),
		RequestID:  m.RequestID,
		EntityKind: m.EntityKind,
		EntityID:   uint(m.EntityID),
		Action:     m.Action,
		ActorID:    uint(m.ActorID),
		Outcome:    m.Outcome,
		Reason:     m.Reason,
		CreatedAt:  m.CreatedAt,
	}
}

type PgDecisionLogRepository struct{}

func NewDecisionLogRepository() decisionlog.Repository {
	return &PgDecisionLogRepository{}
}

func buildFilters(params *decisionlog.FindParams) ([]string, []interface{}) {
	var where []string
	var args []interface{}
	if params.RequestID != nil {
		args = append(args, *params.RequestID)
		where = append(where, fmt.Sprintf("dl.request_id = $%d", len(args)))
	}
	if params.EntityKind != "" {
		args = append(args, params.EntityKind)
		where = append(where, fmt.Sprintf("dl.entity_kind = $%d", len(args)))
	}
	if params.Outcome != "" {
		args = append(args, params.Outcome)
		where = append(where, fmt.Sprintf("dl.outcome = $%d", len(args)))
	}
	return where, args
}

func (g *PgDecisionLogRepository) Create(ctx context.Context, log *decisionlog.DecisionLog) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(
		ctx,
		decisionLogInsertQuery,
		log.RequestID,
		log.EntityKind,
		int64(log.EntityID),
		log.Action,
		int64(log.ActorID),
		log.Outcome,
		log.Reason,
	); err != nil {
		return errors.Wrap(err, "failed to create decision log")
	}
	return nil
}

func (g *PgDecisionLogRepository) List(ctx context.Context, params *decisionlog.FindParams) ([]*decisionlog.DecisionLog, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := buildFilters(params)
	q := repo.Join(
		decisionLogFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY dl.created_at DESC",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)

	rows, err := tx.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list decision logs")
	}
	defer rows.Close()

	var out []*decisionlog.DecisionLog
	for rows.Next() {
		var m decisionLogRow
		if err := rows.Scan(
			&m.ID,
			&m.RequestID,
			&m.EntityKind,
			&m.EntityID,
			&m.Action,
			&m.ActorID,
			&m.Outcome,
			&m.Reason,
			&m.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan decision log")
		}
		out = append(out, m.toDomain())
	}
	return out, rows.Err()
}

func (g *PgDecisionLogRepository) Count(ctx context.Context, params *decisionlog.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	where, args := buildFilters(params)
	q := repo.Join(decisionLogCountQuery, repo.JoinWhere(where...))

	var count int64
	if err := tx.QueryRow(ctx, q, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count decision logs")
	}
	return count, nil
}
