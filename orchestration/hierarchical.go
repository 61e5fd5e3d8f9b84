package orchestration

import (
	"fmt"
	"strings"

	"github.com/BaSui01/agentweave/agent"
	"github.com/BaSui01/agentweave/types"
	"github.com/BaSui01/agentweave/workflow"
	"go.uber.org/zap"
)

// VisitHierarchical 协调者规划 → 校验计划 → worker 执行 → 协调者汇总
//
// 计划在任何 worker 被调用之前整体校验；任一 worker 失败则运行失败。
func (r *runner) VisitHierarchical(p workflow.Hierarchical) error {
	ctx := r.ctx
	coord := r.agents[p.CoordinatorID]
	workers := make([]agent.Definition, len(p.WorkerIDs))
	for i, id := range p.WorkerIDs {
		workers[i] = r.agents[id]
	}

	// 1. 规划
	planConv := append(types.CloneMessages(r.input), types.NewUserMessage(r.opts.Planner.Prompt(workers)))
	planned := r.invoke(ctx, coord, planConv)
	if planned.err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("coordinator (%s) failed: %w", coord.ID, planned.err)
	}
	r.record(0, PhaseCoordinate, coord, planConv, planned)

	plan, err := r.opts.Planner.Parse(planned.msg.Content)
	if err != nil {
		return &types.DelegationError{Reason: "coordinator output is not a valid plan", Err: err}
	}
	if err := checkPlan(plan, p.HasWorker); err != nil {
		return err
	}
	r.logger.Debug("delegation plan accepted", zap.Int("subtasks", len(plan)))

	// 2. 委派
	jobs := make([]job, len(plan))
	for i, d := range plan {
		jobs[i] = job{
			index:   i + 1,
			agentID: d.WorkerID,
			phase:   PhaseDelegate,
			input:   []types.Message{types.NewUserMessage(d.SubtaskInput)},
		}
	}
	results, err := r.delegate(jobs)
	if err != nil {
		return err
	}

	// 3. 汇总
	synthConv := append(types.CloneMessages(planConv), planned.msg, types.NewUserMessage(synthesisPrompt(plan, results)))
	final := r.invoke(ctx, coord, synthConv)
	if final.err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("synthesis (%s) failed: %w", coord.ID, final.err)
	}
	r.record(len(jobs)+1, PhaseSynthesize, coord, synthConv, final)
	r.output = final.msg.Content
	return nil
}

// delegate runs the worker jobs per Options.Dispatch and returns their
// outputs in plan order.
func (r *runner) delegate(jobs []job) ([]string, error) {
	ctx := r.ctx
	outputs := make([]string, len(jobs))

	if r.opts.Dispatch == DispatchSequential {
		for i, j := range jobs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			a := r.agents[j.agentID]
			inv := r.invoke(ctx, a, j.input)
			if inv.err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return nil, stepError("worker step", j.index, j.agentID, inv.err)
			}
			r.record(j.index, j.phase, a, j.input, inv)
			outputs[i] = inv.msg.Content
		}
		return outputs, nil
	}

	outcomes := r.fanOut(ctx, jobs, true)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, o := range outcomes {
		if o.inv.err != nil && !o.aborted {
			return nil, stepError("worker step", o.index, o.agentID, o.inv.err)
		}
		outputs[i] = o.inv.msg.Content
	}
	return outputs, nil
}

func synthesisPrompt(plan []Delegation, outputs []string) string {
	var sb strings.Builder
	sb.WriteString("The workers have finished their subtasks.\n\n")
	for i, d := range plan {
		fmt.Fprintf(&sb, "[%s] %s\n%s\n\n", d.WorkerID, d.SubtaskInput, outputs[i])
	}
	sb.WriteString("Combine the worker results into the final answer to the original task.")
	return sb.String()
}
