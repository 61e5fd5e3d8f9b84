package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/BaSui01/agentweave/types"
	"github.com/BaSui01/agentweave/workflow"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// errAborted marks fan-out steps that never ran or were cut short because a
// sibling failed under fail-fast.
var errAborted = errors.New("aborted after a sibling step failed")

// job 一个扇出任务
type job struct {
	index   int
	agentID string
	phase   Phase
	input   []types.Message
}

// outcome 扇出任务的结算结果
type outcome struct {
	job
	inv     invocation
	aborted bool
}

// VisitParallel sends the same input to every step concurrently, waits for
// all of them to settle and aggregates the outputs in declared order.
func (r *runner) VisitParallel(workflow.Parallel) error {
	jobs := make([]job, len(r.def.Steps))
	for i, id := range r.def.Steps {
		jobs[i] = job{index: i, agentID: id, phase: PhaseStep, input: r.input}
	}

	outcomes := r.fanOut(r.ctx, jobs, r.opts.FailFastEnabled())
	if err := r.ctx.Err(); err != nil {
		return err
	}

	results := make([]StepResult, len(outcomes))
	var failures []types.StepFailure
	succeeded := 0
	for i, o := range outcomes {
		results[i] = StepResult{StepIndex: o.index, AgentID: o.agentID, Output: o.inv.msg.Content, Err: o.inv.err}
		if o.inv.err != nil {
			failures = append(failures, types.StepFailure{StepIndex: o.index, AgentID: o.agentID, Err: o.inv.err})
			continue
		}
		succeeded++
	}

	need := required(r.opts.Quorum, len(jobs))
	if succeeded < need || (r.opts.FailFastEnabled() && len(failures) > 0) {
		return &types.AggregationError{Failures: failures, Succeeded: succeeded, Required: need}
	}
	if len(failures) > 0 {
		r.logger.Warn("parallel steps failed within quorum",
			zap.Int("failed", len(failures)),
			zap.Int("succeeded", succeeded),
			zap.Int("required", need),
		)
	}

	out, err := r.opts.Aggregator.Aggregate(r.ctx, results)
	if err != nil {
		return fmt.Errorf("aggregate parallel results: %w", err)
	}
	r.output = out
	return nil
}

// fanOut runs jobs concurrently, bounded by Options.Concurrency, and returns
// their outcomes in job order. Settled turns are recorded as they arrive,
// in job order, unless the parent context has ended. With failFast the first failure
// cancels the remaining jobs.
func (r *runner) fanOut(ctx context.Context, jobs []job, failFast bool) []outcome {
	outcomes := make([]outcome, len(jobs))
	base := r.transcript.Len()
	g, gctx := errgroup.WithContext(ctx)
	if r.opts.Concurrency > 0 {
		g.SetLimit(r.opts.Concurrency)
	}

	for i, j := range jobs {
		outcomes[i].job = j
		g.Go(func() error {
			if gctx.Err() != nil {
				outcomes[i].inv = invocation{err: errAborted}
				outcomes[i].aborted = true
				return nil
			}
			// 扇出目标均已在运行前解析，这里只读
			a, ok := r.agents[j.agentID]
			if !ok {
				outcomes[i].inv = invocation{err: types.NewNotFoundError("agent", j.agentID)}
				return nil
			}

			inv := r.invoke(gctx, a, j.input)
			if inv.err != nil && ctx.Err() == nil && gctx.Err() != nil && errors.Is(inv.err, context.Canceled) {
				inv.err = errAborted
				outcomes[i].inv = inv
				outcomes[i].aborted = true
				return nil
			}
			outcomes[i].inv = inv

			if ctx.Err() == nil {
				r.recordAt(base, j.index, j.phase, a, j.input, inv)
			}
			if inv.err != nil && failFast {
				return inv.err
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
