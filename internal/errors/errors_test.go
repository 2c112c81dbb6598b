package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorErrorMessageIncludesResource(t *testing.T) {
	err := WrapFetchError("get_queue_attributes", "orders", errors.New("throttled"))
	assert.Equal(t, "get_queue_attributes failed on orders: throttled", err.Error())

	err = WrapFetchError("list_queues", "", errors.New("timeout"))
	assert.Equal(t, "list_queues failed: timeout", err.Error())
}

func TestMonitorErrorUnwraps(t *testing.T) {
	inner := errors.New("boom")
	err := WrapFetchError("scan_work_pool", "pool", inner)

	assert.True(t, errors.Is(err, inner))

	var monErr *MonitorError
	require.True(t, errors.As(err, &monErr))
	assert.Equal(t, ErrorTypeFetch, monErr.Type)
	assert.False(t, monErr.Timestamp.IsZero())
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(WrapAuthError("resolve_credentials", "profile", errors.New("bad profile"))))
	assert.True(t, IsAuthError(fmt.Errorf("wrapped: %w", ErrUnauthorized)))
	assert.False(t, IsAuthError(WrapFetchError("scan", "t", errors.New("transient"))))
	assert.False(t, IsAuthError(nil))
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(WrapNotFoundError("get_queue_url", "ghost", ErrNotFound)))
	assert.True(t, IsNotFoundError(fmt.Errorf("wrapped: %w", ErrNotFound)))
	assert.False(t, IsNotFoundError(WrapAuthError("auth", "x", errors.New("nope"))))
	assert.False(t, IsNotFoundError(nil))
}

func TestErrorsIsMatchesBaseTypes(t *testing.T) {
	assert.True(t, errors.Is(WrapNotFoundError("op", "r", errors.New("x")), ErrNotFound))
	assert.True(t, errors.Is(WrapAuthError("op", "r", errors.New("x")), ErrUnauthorized))
	assert.False(t, errors.Is(WrapFetchError("op", "r", errors.New("x")), ErrNotFound))
}

func TestRetryability(t *testing.T) {
	assert.True(t, IsRetryableError(WrapFetchError("op", "r", errors.New("x"))))
	assert.True(t, IsRetryableError(NewMonitorError(ErrorTypeConnection, "op", "r", errors.New("x"))))
	assert.False(t, IsRetryableError(WrapAuthError("op", "r", errors.New("x"))))
	assert.False(t, IsRetryableError(WrapNotFoundError("op", "r", errors.New("x"))))
	assert.False(t, IsRetryableError(WrapValidationError("op", "r", errors.New("x"))))
}
