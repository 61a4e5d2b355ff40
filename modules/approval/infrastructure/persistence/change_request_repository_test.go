package persistence

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/pubdesk/pubdesk/modules/approval/domain/changerequest"
)

func TestMapUniqueViolation(t *testing.T) {
	pendingEntity := &pgconn.PgError{Code: "23505", ConstraintName: pendingEntityIndex}
	require.ErrorIs(t, mapUniqueViolation(pendingEntity), changerequest.ErrRequestAlreadyPending)

	pendingKey := &pgconn.PgError{Code: "23505", ConstraintName: pendingKeyIndex}
	require.ErrorIs(t, mapUniqueViolation(pendingKey), changerequest.ErrDuplicateRequest)

	otherConstraint := &pgconn.PgError{Code: "23505", ConstraintName: "users_pkey"}
	err := mapUniqueViolation(otherConstraint)
	require.NotErrorIs(t, err, changerequest.ErrRequestAlreadyPending)
	require.NotErrorIs(t, err, changerequest.ErrDuplicateRequest)

	plain := errors.New("connection reset")
	require.Error(t, mapUniqueViolation(plain))
}
