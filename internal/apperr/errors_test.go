package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := NotFound("timelines.GetByID", "Timeline not found")
	wrapped := fmt.Errorf("handler: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrValidation))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "Timeline not found", Message(wrapped))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := StorageDelete("blob.Delete", "Failed to delete object", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStorageDelete)
	assert.Contains(t, err.Error(), "blob.Delete")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("op", "bad"), http.StatusBadRequest},
		{ParentNotFound("op", "no parent", nil), http.StatusBadRequest},
		{NotFound("op", "missing"), http.StatusNotFound},
		{SlugConflict("op", "taken", nil), http.StatusConflict},
		{HasDependents("op", "children", nil), http.StatusConflict},
		{StorageWrite("op", "write", nil), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), c.err.Error())
	}
}

func TestMessageFallsBackForInternal(t *testing.T) {
	assert.Equal(t, "Internal server error", Message(errors.New("sql: connection refused")))
}
