package types

import (
	"fmt"
	"strings"
	"time"
)

// Violation is one broken constraint of a definition.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return v.Field + ": " + v.Message
}

// ValidationError 配置校验错误
// 列出全部违反的约束，而不仅仅是第一个
type ValidationError struct {
	Subject    string
	Violations []Violation
}

// NewValidationError builds a ValidationError for subject. It returns nil when
// there are no violations so callers can return it directly.
func NewValidationError(subject string, violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Subject: subject, Violations: violations}
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	subject := e.Subject
	if subject == "" {
		subject = "definition"
	}
	return fmt.Sprintf("invalid %s: %s", subject, strings.Join(parts, "; "))
}

func (e *ValidationError) ErrorCode() ErrorCode { return ErrValidation }

// NotFoundError 未知的 agent / workflow id
type NotFoundError struct {
	Kind string
	ID   string
}

func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) ErrorCode() ErrorCode { return ErrNotFound }

// InvocationCause classifies a failed agent invocation.
type InvocationCause string

const (
	CauseTimeout       InvocationCause = "timeout"
	CauseProviderError InvocationCause = "provider_error"
	CauseRateLimited   InvocationCause = "rate_limited"
)

// InvocationError 调用层错误
// 由外部调用能力返回，所有子原因都可重试
type InvocationError struct {
	AgentID string
	Cause   InvocationCause
	Timeout time.Duration
	Err     error
}

// NewInvocationError creates an InvocationError with the given cause.
func NewInvocationError(agentID string, cause InvocationCause, err error) *InvocationError {
	return &InvocationError{AgentID: agentID, Cause: cause, Err: err}
}

// NewTimeoutError creates the timeout specialization of InvocationError.
func NewTimeoutError(agentID string, timeout time.Duration, err error) *InvocationError {
	return &InvocationError{AgentID: agentID, Cause: CauseTimeout, Timeout: timeout, Err: err}
}

func (e *InvocationError) Error() string {
	msg := fmt.Sprintf("invocation of agent %q failed (%s)", e.AgentID, e.Cause)
	if e.Cause == CauseTimeout && e.Timeout > 0 {
		msg = fmt.Sprintf("invocation of agent %q timed out after %s", e.AgentID, e.Timeout)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvocationError) Unwrap() error { return e.Err }

func (e *InvocationError) IsRetryable() bool { return true }

func (e *InvocationError) ErrorCode() ErrorCode {
	switch e.Cause {
	case CauseTimeout:
		return ErrTimeout
	case CauseRateLimited:
		return ErrRateLimited
	default:
		return ErrInvocation
	}
}

// IsTimeout reports whether err is (or wraps) a timed-out invocation.
func IsTimeout(err error) bool {
	return IsErrorCode(err, ErrTimeout)
}

// StepFailure describes one failed step of a fan-out.
type StepFailure struct {
	StepIndex int    `json:"step_index"`
	AgentID   string `json:"agent_id"`
	Err       error  `json:"-"`
}

// AggregationError 并行模式未达到法定成功数
type AggregationError struct {
	Failures  []StepFailure
	Succeeded int
	Required  int
}

func (e *AggregationError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s (step %d): %v", f.AgentID, f.StepIndex+1, f.Err)
	}
	return fmt.Sprintf("quorum not met: %d of %d required steps succeeded; failed: %s",
		e.Succeeded, e.Required, strings.Join(parts, "; "))
}

func (e *AggregationError) ErrorCode() ErrorCode { return ErrAggregation }

// FailedAgentIDs returns the ids of the failed steps in step order.
func (e *AggregationError) FailedAgentIDs() []string {
	ids := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.AgentID
	}
	return ids
}

// DelegationError 层次化模式的委派计划无效
type DelegationError struct {
	WorkerID string
	Reason   string
	Err      error
}

func (e *DelegationError) Error() string {
	msg := "invalid delegation plan"
	if e.WorkerID != "" {
		msg += fmt.Sprintf(" (worker %q)", e.WorkerID)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DelegationError) Unwrap() error { return e.Err }

func (e *DelegationError) ErrorCode() ErrorCode { return ErrDelegation }

// BudgetExceededError 动态模式耗尽步数预算而未收到终止信号
type BudgetExceededError struct {
	MaxSteps int
	Steps    int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("step budget exhausted: %d of %d steps used without a termination signal", e.Steps, e.MaxSteps)
}

func (e *BudgetExceededError) ErrorCode() ErrorCode { return ErrBudgetExceeded }
