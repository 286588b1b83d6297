package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	typed := Clone(ErrConflict, "event overlaps")
	wrapped := fmt.Errorf("add event: %w", typed)

	got := FromError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, "CONFLICT", got.Code)
	assert.Equal(t, http.StatusConflict, got.Status)
	assert.Equal(t, "event overlaps", got.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	got := FromError(stdErrors.New("boom"))
	require.NotNil(t, got)
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Nil(t, FromError(nil))
}

func TestIsMatchesClonesByCode(t *testing.T) {
	clone := Clone(ErrForbidden, "only the owner may remove this event")
	assert.ErrorIs(t, clone, ErrForbidden)
	assert.NotErrorIs(t, clone, ErrNotFound)

	wrapped := WrapAs(ErrDeleteAnomaly, stdErrors.New("0 rows"), "")
	assert.ErrorIs(t, wrapped, ErrDeleteAnomaly)
	assert.Equal(t, ErrDeleteAnomaly.Message, wrapped.Message)
	assert.Equal(t, "delete affected no rows: 0 rows", wrapped.Error())
}
