package xerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAPIError_Fields(t *testing.T) {
	err := NewAPIError(404, "Not found", "not_found")

	assert.Equal(t, 404, err.Status)
	assert.Equal(t, "Not found", err.Message)
	assert.Equal(t, "not_found", err.Code)

	var asErr error = err
	assert.EqualError(t, asErr, "Not found")

	var target *APIError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", asErr), &target))
	assert.Same(t, err, target)
}

func TestAPIError_IsSentinels(t *testing.T) {
	cases := []struct {
		status   int
		sentinel error
	}{
		{401, ErrUnauthorized},
		{402, ErrSubscriptionRequired},
		{404, ErrNotFound},
		{409, ErrConflict},
		{429, ErrRateLimited},
		{422, ErrInvalidInput},
		{503, ErrInternal},
	}
	for _, tc := range cases {
		err := Wrap(NewAPIError(tc.status, "x", ""), "call failed")
		assert.True(t, errors.Is(err, tc.sentinel), "status %d", tc.status)
	}
	assert.False(t, errors.Is(NewAPIError(404, "x", ""), ErrUnauthorized))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnauthorized, KindOf(NewAPIError(401, "", "")))
	assert.Equal(t, KindSubscriptionRequired, KindOf(NewAPIError(402, "", CodeSubscriptionRequired)))
	assert.Equal(t, KindNotFound, KindOf(NewAPIError(404, "", "")))
	assert.Equal(t, KindValidation, KindOf(NewAPIError(400, "", "")))
	assert.Equal(t, KindServerError, KindOf(NewAPIError(500, "", "")))
	assert.Equal(t, KindNetworkFailure, KindOf(NewNetworkError(errors.New("dial tcp: refused"))))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestNetworkError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewNetworkError(cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.True(t, err.Retryable())
	assert.False(t, NewAPIError(400, "", "").Retryable())
}

func TestIsUnauthorized(t *testing.T) {
	assert.True(t, IsUnauthorized(Wrap(NewAPIError(401, "expired", ""), "me")))
	assert.False(t, IsUnauthorized(NewAPIError(403, "nope", "")))
	assert.False(t, IsUnauthorized(nil))
}
