package composables_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pubdesk/pubdesk/pkg/composables"
	"github.com/pubdesk/pubdesk/pkg/repo"
)

type stubTx struct{}

func (stubTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (stubTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, nil
}

func (stubTx) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestUseTx_NoTxNoPool(t *testing.T) {
	_, err := composables.UseTx(context.Background())
	require.ErrorIs(t, err, composables.ErrNoPool)
}

func TestUseTx_ReturnsAmbientTx(t *testing.T) {
	want := stubTx{}
	ctx := composables.WithTx(context.Background(), want)

	got, err := composables.UseTx(ctx)
	require.NoError(t, err)
	assert.Equal(t, repo.Tx(want), got)
}

func TestInTx_ReusesAmbientTx(t *testing.T) {
	ctx := composables.WithTx(context.Background(), stubTx{})

	var calls int
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		calls++
		// Nested scopes compose into the same transaction.
		return composables.InTx(txCtx, func(context.Context) error {
			calls++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestInTx_NoPoolFails(t *testing.T) {
	err := composables.InTx(context.Background(), func(context.Context) error {
		t.Fatal("fn must not run without a transaction scope")
		return nil
	})
	require.ErrorIs(t, err, composables.ErrNoPool)
}

func TestInTxResult(t *testing.T) {
	ctx := composables.WithTx(context.Background(), stubTx{})

	out, err := composables.InTxResult(ctx, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}
