package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BaSui01/agentweave/agent"
	"github.com/BaSui01/agentweave/internal/retry"
	"github.com/BaSui01/agentweave/types"
	"github.com/BaSui01/agentweave/workflow"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// runner executes one workflow definition for one run and implements
// workflow.PatternVisitor. The visitor methods take no context, so the run
// context is carried on the struct; a runner never outlives its run.
type runner struct {
	ctx        context.Context
	engine     *Engine
	def        workflow.Definition
	opts       Options
	agents     map[string]agent.Definition
	input      []types.Message
	transcript *Transcript
	logger     *zap.Logger

	// iteration is stamped on recorded turns of dynamic runs.
	iteration int
	output    string
}

var _ workflow.PatternVisitor = (*runner)(nil)

// invocation 一次带重试的调用结果
type invocation struct {
	msg      types.Message
	attempts int
	err      error
	started  time.Time
	duration time.Duration
}

// invoke runs a single agent invocation through the retrying wrapper.
// Only retryable errors are retried; the parent context ending stops the loop
// and surfaces ctx.Err().
func (r *runner) invoke(ctx context.Context, a agent.Definition, conv []types.Message) invocation {
	started := time.Now()
	ctx = types.WithAgentID(ctx, a.ID)

	policy := r.opts.retryPolicy()
	policy.ShouldRetry = types.IsRetryable
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		r.logger.Debug("retrying invocation",
			zap.String("agent_id", a.ID),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}
	retryer := retry.New(policy, r.logger)

	msg, attempts, err := retry.Do(ctx, retryer, func(ctx context.Context, attempt int) (types.Message, error) {
		return r.attempt(ctx, a, conv, attempt)
	})
	return invocation{
		msg:      msg,
		attempts: attempts,
		err:      err,
		started:  started,
		duration: time.Since(started),
	}
}

type reply struct {
	msg types.Message
	err error
}

// attempt performs one call under the per-step deadline. The call runs in its
// own goroutine so an invoker that ignores its context cannot hold the run;
// a reply that arrives after the deadline or cancellation is discarded.
func (r *runner) attempt(ctx context.Context, a agent.Definition, conv []types.Message, attempt int) (types.Message, error) {
	ctx, span := r.engine.tracer.Start(ctx, "orchestration.invoke", trace.WithAttributes(
		attribute.String("agent.id", a.ID),
		attribute.String("agent.model", a.ModelID),
		attribute.Int("invoke.attempt", attempt),
	))
	defer span.End()

	ctx = types.WithAttempt(ctx, attempt)
	timeout := r.opts.StepTimeout
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan reply, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- reply{err: fmt.Errorf("invoker panic: %v", p)}
			}
		}()
		msg, err := r.engine.invoker.Invoke(callCtx, a, types.CloneMessages(conv), timeout)
		done <- reply{msg: msg, err: err}
	}()

	var rep reply
	select {
	case rep = <-done:
	case <-callCtx.Done():
		rep.err = callCtx.Err()
	}

	if err := classify(ctx, a.ID, timeout, rep.err); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return types.Message{}, err
	}

	msg := rep.msg
	if msg.Role == "" {
		msg.Role = types.RoleAssistant
	}
	if msg.Name == "" {
		msg.Name = a.ID
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	span.SetStatus(codes.Ok, "")
	return msg, nil
}

// classify maps a raw invoker error onto the error taxonomy.
func classify(parent context.Context, agentID string, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	if parent.Err() != nil {
		return parent.Err()
	}
	var ie *types.InvocationError
	if errors.As(err, &ie) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewTimeoutError(agentID, timeout, err)
	}
	switch types.CodeOf(err) {
	case types.ErrValidation, types.ErrNotFound:
		return err
	}
	return types.NewInvocationError(agentID, types.CauseProviderError, err)
}

// record appends a settled turn and notifies the observer. Turns arriving
// after the transcript is sealed are dropped.
func (r *runner) record(stepIndex int, phase Phase, a agent.Definition, input []types.Message, inv invocation) {
	r.recordAt(-1, stepIndex, phase, a, input, inv)
}

// recordAt records a fan-out turn in step order among the turns recorded
// since base.
func (r *runner) recordAt(base, stepIndex int, phase Phase, a agent.Definition, input []types.Message, inv invocation) {
	turn := Turn{
		StepIndex: stepIndex,
		Iteration: r.iteration,
		AgentID:   a.ID,
		Phase:     phase,
		Input:     types.CloneMessages(input),
		Output:    inv.msg.Content,
		Err:       inv.err,
		Attempts:  inv.attempts,
		StartedAt: inv.started,
		Duration:  inv.duration,
	}
	if r.transcript.insert(base, turn) {
		runID, _ := types.RunID(r.ctx)
		r.engine.observer.StepFinished(runID, r.def.ID, turn)
	}
}

// agent returns a resolved agent, looking it up on first use. Dynamic
// selectors may name agents outside the workflow's declared references.
func (r *runner) agent(id string) (agent.Definition, error) {
	if a, ok := r.agents[id]; ok {
		return a, nil
	}
	a, err := r.engine.resolver.GetAgent(id)
	if err != nil {
		return agent.Definition{}, err
	}
	r.agents[id] = a
	return a, nil
}

func stepError(kind string, index int, agentID string, err error) error {
	return fmt.Errorf("%s %d (%s) failed: %w", kind, index, agentID, err)
}
