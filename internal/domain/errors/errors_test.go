package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCategories(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		err := ValidationError("chain_id", "chain id must be a positive integer")
		assert.True(t, IsValidation(err))
		assert.False(t, IsConflict(err))
		assert.Equal(t, "VALIDATION_ERROR", Code(err))
		assert.Equal(t, "chain_id", err.Details["field"])
	})

	t.Run("not found", func(t *testing.T) {
		err := NotFoundError("network")
		assert.True(t, IsNotFound(err))
		assert.Equal(t, "network_NOT_FOUND", Code(err))
		assert.Equal(t, "network not found", err.Error())
	})

	t.Run("conflict", func(t *testing.T) {
		err := ConflictError("payout", "already settled")
		assert.True(t, IsConflict(err))
		assert.Equal(t, "payout: already settled", err.Error())
	})

	t.Run("internal keeps its cause", func(t *testing.T) {
		cause := fmt.Errorf("dial tcp: connection refused")
		err := InternalError("provider unreachable", cause)
		assert.True(t, IsInternal(err))
		assert.Equal(t, cause.Error(), err.Details["cause"])
	})
}

func TestInvariantError(t *testing.T) {
	err := InvariantError("payout", "at most one confirmed transaction may exist")

	assert.True(t, IsInternal(err))
	assert.True(t, IsInvariantViolation(err))
	assert.Equal(t, "INVARIANT_VIOLATION", Code(err))
	assert.Equal(t, "at most one confirmed transaction may exist", Reason(err))
	assert.Equal(t, "payout", err.Details["aggregate_kind"])
}

func TestCategorySurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("reconcile network 137: %w", ConflictError("reconciliation", "pass already running for network"))

	assert.True(t, IsConflict(err))
	assert.Equal(t, "CONFLICT", Code(err))
}

func TestReasonOnForeignError(t *testing.T) {
	require.Empty(t, Reason(fmt.Errorf("plain error")))
	assert.Equal(t, "UNKNOWN_ERROR", Code(fmt.Errorf("plain error")))
}
