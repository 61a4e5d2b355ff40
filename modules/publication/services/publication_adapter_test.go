package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pubdesk/pubdesk/modules/approval/domain/changerequest"
)

func TestPublicationAdapter_NaturalKeyScopedToInstitution(t *testing.T) {
	a := NewPublicationAdapter(nil)

	key, err := a.NaturalKey(json.RawMessage(`{"title":" Annual Report 2025 ","institution_id":42,"user_id":1}`))
	require.NoError(t, err)
	assert.Equal(t, "42:annual report 2025", key)
}

func TestPublicationAdapter_ValidatePayload(t *testing.T) {
	a := NewPublicationAdapter(nil)
	ctx := context.Background()

	err := a.ValidatePayload(ctx, changerequest.ActionInsert, json.RawMessage(`{"title":"Annual Report","institution_id":42,"user_id":1}`))
	require.NoError(t, err)

	err = a.ValidatePayload(ctx, changerequest.ActionInsert, json.RawMessage(`{"title":"Annual Report"}`))
	require.ErrorIs(t, err, changerequest.ErrValidation)

	err = a.ValidatePayload(ctx, changerequest.ActionEnable, nil)
	require.NoError(t, err)
}

func TestSplitNaturalKey(t *testing.T) {
	id, title, ok := splitNaturalKey("42:annual report")
	require.True(t, ok)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "annual report", title)

	_, _, ok = splitNaturalKey("no-separator")
	assert.False(t, ok)

	_, _, ok = splitNaturalKey(":title")
	assert.False(t, ok)

	_, _, ok = splitNaturalKey("42:")
	assert.False(t, ok)

	_, _, ok = splitNaturalKey("abc:title")
	assert.False(t, ok)
}
