package serrors_test

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pubdesk/pubdesk/pkg/serrors"
)

func TestBaseError_Error(t *testing.T) {
	err := serrors.NewError("ENTITY_NOT_FOUND", "target entity does not exist", "Errors.NotFound")
	assert.Equal(t, "ENTITY_NOT_FOUND: target entity does not exist", err.Error())
}

func TestBaseError_IsMatchesOnCode(t *testing.T) {
	sentinel := serrors.NewError("DUPLICATE_ENTITY", "duplicate", "")
	wrapped := errors.Wrap(serrors.NewError("DUPLICATE_ENTITY", "other message", ""), "context")

	assert.ErrorIs(t, wrapped, sentinel)

	other := serrors.NewError("VALIDATION_ERROR", "validation", "")
	assert.NotErrorIs(t, wrapped, other)
}

func TestBaseError_AsSurvivesWrapping(t *testing.T) {
	wrapped := errors.Wrap(serrors.NewError("INVALID_ACTOR", "self approval", ""), "submit")

	var base *serrors.BaseError
	require.True(t, errors.As(wrapped, &base))
	assert.Equal(t, "INVALID_ACTOR", base.Code)
}

func TestWithTemplateData(t *testing.T) {
	err := serrors.NewError("FIELD_REQUIRED", "field required", "Errors.Required").
		WithTemplateData(map[string]string{"Field": "Email"})
	assert.Equal(t, "Email", err.TemplateData["Field"])
}
