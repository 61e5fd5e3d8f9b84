package types

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidationError_NilWhenEmpty(t *testing.T) {
	assert.NoError(t, NewValidationError("agent", nil))

	err := NewValidationError("agent", []Violation{
		{Field: "id", Message: "must not be empty"},
		{Field: "temperature", Message: "must be within [0, 2]"},
	})
	require.Error(t, err)
	assert.Equal(t, "invalid agent: id: must not be empty; temperature: must be within [0, 2]", err.Error())
	assert.Equal(t, ErrValidation, CodeOf(err))
	assert.False(t, IsRetryable(err))
}

func TestCodeOf_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("step 2 (writer) failed: %w", NewTimeoutError("writer", time.Second, context.DeadlineExceeded))

	assert.Equal(t, ErrTimeout, CodeOf(err))
	assert.True(t, IsTimeout(err))
	assert.True(t, IsRetryable(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	var inv *InvocationError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "writer", inv.AgentID)
	assert.Equal(t, CauseTimeout, inv.Cause)
}

func TestInvocationError_Codes(t *testing.T) {
	tests := []struct {
		cause InvocationCause
		code  ErrorCode
	}{
		{CauseTimeout, ErrTimeout},
		{CauseProviderError, ErrInvocation},
		{CauseRateLimited, ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(string(tt.cause), func(t *testing.T) {
			err := NewInvocationError("a", tt.cause, errors.New("boom"))
			assert.Equal(t, tt.code, err.ErrorCode())
			assert.True(t, IsRetryable(err))
			assert.True(t, IsErrorCode(err, tt.code))
		})
	}
}

func TestAggregationError_FailedAgentIDs(t *testing.T) {
	err := &AggregationError{
		Failures: []StepFailure{
			{StepIndex: 0, AgentID: "a", Err: errors.New("x")},
			{StepIndex: 2, AgentID: "c", Err: errors.New("y")},
		},
		Succeeded: 1,
		Required:  2,
	}
	assert.Equal(t, []string{"a", "c"}, err.FailedAgentIDs())
	assert.Contains(t, err.Error(), "a (step 1): x")
	assert.Contains(t, err.Error(), "c (step 3): y")
	assert.Equal(t, ErrAggregation, CodeOf(err))
}

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError(nil))

	nf := AsError(NewNotFoundError("agent", "ghost"))
	assert.Equal(t, ErrNotFound, nf.Code)
	assert.Equal(t, `agent "ghost" not found`, nf.Message)

	plain := AsError(errors.New("disk on fire"))
	assert.Equal(t, ErrInternalError, plain.Code)

	env := NewError(ErrInvalidRequest, "bad body").WithHTTPStatus(400)
	assert.Same(t, env, AsError(fmt.Errorf("wrapped: %w", env)))
}

func TestDelegationError_Message(t *testing.T) {
	err := &DelegationError{WorkerID: "x", Reason: "worker is not declared by the workflow"}
	assert.Equal(t, `invalid delegation plan (worker "x"): worker is not declared by the workflow`, err.Error())
	assert.Equal(t, ErrDelegation, CodeOf(err))
}
