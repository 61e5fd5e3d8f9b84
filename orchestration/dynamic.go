package orchestration

import (
	"context"
	"fmt"

	"github.com/BaSui01/agentweave/types"
	"github.com/BaSui01/agentweave/workflow"
	"go.uber.org/zap"
)

// VisitDynamic 动态模式
//
// 第 0 步总是执行 initial_agent_id；之后每一步由 Selector 决定继续、切换模式
// 或终止。终止判定满足即成功；用满 max_steps 仍未终止则以
// BudgetExceededError 失败。切换模式作为一个嵌套运行计为一步。
func (r *runner) VisitDynamic(p workflow.Dynamic) error {
	ctx := r.ctx
	done := r.opts.Termination
	if done == nil {
		done = MarkerTermination(r.def.Marker())
	}
	selector := r.opts.Selector
	if selector == nil {
		selector = RoundRobinSelector{}
	}
	candidates := r.candidates(p)

	conv := types.CloneMessages(r.input)
	var lastAgent, lastOutput string

	for step := 0; ; step++ {
		if step >= p.MaxSteps {
			return &types.BudgetExceededError{MaxSteps: p.MaxSteps, Steps: step}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		decision := Continue(p.InitialAgentID)
		if step > 0 {
			d, err := selector.Next(ctx, DecisionInput{
				WorkflowID:     r.def.ID,
				Iteration:      step,
				MaxSteps:       p.MaxSteps,
				InitialAgentID: p.InitialAgentID,
				Candidates:     candidates,
				LastAgentID:    lastAgent,
				LastOutput:     lastOutput,
				Conversation:   types.CloneMessages(conv),
				Turns:          r.transcript.Turns(),
				State:          r.transcript.State(),
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("decision before step %d failed: %w", step+1, err)
			}
			decision = d
		}
		r.transcript.merge(decision.State)

		switch decision.Action {
		case ActionTerminate:
			r.logger.Debug("dynamic run terminated by decision",
				zap.Int("steps", step),
				zap.String("reason", decision.Reason),
			)
			r.output = lastOutput
			return nil

		case ActionContinue:
			a, err := r.agent(decision.AgentID)
			if err != nil {
				return err
			}
			inv := r.invoke(ctx, a, conv)
			if inv.err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return stepError("step", step+1, a.ID, inv.err)
			}
			r.iteration = step + 1
			r.record(step, PhaseStep, a, conv, inv)
			conv = append(conv, inv.msg)
			lastAgent, lastOutput = a.ID, inv.msg.Content

		case ActionSwitch:
			out, err := r.switchPattern(ctx, step, decision, conv)
			if err != nil {
				return err
			}
			kind := string(decision.Pattern.Kind())
			conv = append(conv, types.NewAssistantMessage(kind, out))
			lastAgent, lastOutput = "pattern:"+kind, out

		default:
			return fmt.Errorf("unknown decision action %v", decision.Action)
		}

		if done(lastOutput) {
			r.output = lastOutput
			return nil
		}
	}
}

// candidates 返回 initial agent 与 steps 去重后的候选列表
func (r *runner) candidates(p workflow.Dynamic) []string {
	seen := map[string]bool{p.InitialAgentID: true}
	out := []string{p.InitialAgentID}
	for _, id := range r.def.Steps {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// switchPattern runs d.Pattern over d.Steps as a nested run that shares the
// transcript. Switching into another dynamic pattern is rejected.
func (r *runner) switchPattern(ctx context.Context, step int, d Decision, conv []types.Message) (string, error) {
	if d.Pattern == nil {
		return "", types.NewValidationError("switch decision", []types.Violation{
			{Field: "pattern", Message: "is required"},
		})
	}
	if d.Pattern.Kind() == workflow.KindDynamic {
		return "", types.NewValidationError("switch decision", []types.Violation{
			{Field: "pattern", Message: "cannot switch to a nested dynamic pattern"},
		})
	}

	sub := workflow.Definition{
		ID:      fmt.Sprintf("%s#%d", r.def.ID, step+1),
		Pattern: d.Pattern,
		Steps:   d.Steps,
	}.Normalize()
	if err := sub.Check(); err != nil {
		return "", err
	}
	agents, err := r.engine.resolve(sub)
	if err != nil {
		return "", err
	}

	child := &runner{
		ctx:        ctx,
		engine:     r.engine,
		def:        sub,
		opts:       r.opts,
		agents:     agents,
		input:      conv,
		transcript: r.transcript,
		logger:     r.logger.With(zap.String("sub_workflow", sub.ID)),
		iteration:  step + 1,
	}
	r.logger.Debug("switching pattern", zap.Int("step", step+1), zap.String("pattern", string(d.Pattern.Kind())))
	if err := sub.Pattern.Accept(child); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("step %d (switch to %s) failed: %w", step+1, d.Pattern.Kind(), err)
	}
	return child.output, nil
}
