package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByKind(t *testing.T) {
	err := fmt.Errorf("add edge: %w", NotFound("user 7 not found"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrSelfReference))
}

func TestStorage_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := Storage(cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Equal(t, ErrStorageUnavailable.Message, MessageOf(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		ErrDuplicateUsername:  http.StatusBadRequest,
		ErrDuplicateEmail:     http.StatusBadRequest,
		Validation("bad"):     http.StatusBadRequest,
		ErrSelfReference:      http.StatusBadRequest,
		ErrInvalidCredentials: http.StatusUnauthorized,
		ErrUnauthenticated:    http.StatusUnauthorized,
		ErrForbidden:          http.StatusForbidden,
		ErrNotFound:           http.StatusNotFound,
		ErrTooManyAttempts:    http.StatusTooManyRequests,
		ErrStorageUnavailable: http.StatusServiceUnavailable,
		errors.New("boom"):    http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("x")))
	assert.Equal(t, "internal server error", MessageOf(errors.New("x")))
}
