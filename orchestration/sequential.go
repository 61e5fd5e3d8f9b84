package orchestration

import (
	"context"

	"github.com/BaSui01/agentweave/types"
	"github.com/BaSui01/agentweave/workflow"
	"go.uber.org/zap"
)

// VisitSequential runs the steps in declared order. Each step sees the run
// input followed by every earlier output; the first failure ends the run.
func (r *runner) VisitSequential(workflow.Sequential) error {
	out, _, err := r.chain(r.ctx, r.def.Steps, r.input)
	if err != nil {
		return err
	}
	r.output = out
	return nil
}

// chain 顺序执行 steps，返回最后一个输出与累积的对话
func (r *runner) chain(ctx context.Context, steps []string, input []types.Message) (string, []types.Message, error) {
	conv := types.CloneMessages(input)
	var output string
	for i, id := range steps {
		if err := ctx.Err(); err != nil {
			return "", conv, err
		}
		a, err := r.agent(id)
		if err != nil {
			return "", conv, err
		}

		inv := r.invoke(ctx, a, conv)
		if inv.err != nil {
			if ctx.Err() != nil {
				return "", conv, ctx.Err()
			}
			r.logger.Warn("step failed",
				zap.Int("step", i+1),
				zap.String("agent_id", id),
				zap.Int("attempts", inv.attempts),
				zap.Error(inv.err),
			)
			return "", conv, stepError("step", i+1, id, inv.err)
		}

		r.record(i, PhaseStep, a, conv, inv)
		conv = append(conv, inv.msg)
		output = inv.msg.Content
	}
	return output, conv, nil
}
