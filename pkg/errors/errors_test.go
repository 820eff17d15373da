package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsKind(t *testing.T) {
	err := Clone(ErrStateConflict, "already submitted")
	require.Equal(t, "already submitted", err.Message)
	assert.True(t, IsStateConflict(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, http.StatusConflict, err.Status)
}

func TestWithFieldsCopiesDetail(t *testing.T) {
	fields := map[string]string{"abstrak": "too short"}
	err := WithFields(ErrValidation, "proposal incomplete", fields)
	fields["abstrak"] = "mutated"

	require.True(t, IsValidation(err))
	assert.Equal(t, "too short", err.Fields["abstrak"])
	assert.Contains(t, err.Error(), "abstrak: too short")
	assert.Nil(t, ErrValidation.Fields)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(fmt.Errorf("boom: %w", sql.ErrConnDone))
	require.NotNil(t, err)
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.ErrorIs(t, err, sql.ErrConnDone)

	wrapped := fmt.Errorf("context: %w", Clone(ErrForbidden, "nope"))
	assert.Equal(t, ErrForbidden.Code, FromError(wrapped).Code)
	assert.Nil(t, FromError(nil))
}
