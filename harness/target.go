package harness

import (
	"context"

	"github.com/BaSui01/agentweave/orchestration"
	"github.com/BaSui01/agentweave/types"
	"github.com/BaSui01/agentweave/workflow"
)

// Target 被测对象：单个 agent 或一个 workflow
type Target interface {
	Name() string
	Run(ctx context.Context, input []types.Message) *orchestration.RunResult
}

// AgentTarget runs a single registered agent as a one-step sequential
// workflow, so it goes through the same retrying invocation path as any run.
type AgentTarget struct {
	Engine  *orchestration.Engine
	AgentID string
	Options orchestration.Options
}

// Name implements Target.
func (t AgentTarget) Name() string { return "agent:" + t.AgentID }

// Run implements Target.
func (t AgentTarget) Run(ctx context.Context, input []types.Message) *orchestration.RunResult {
	def := workflow.Definition{
		ID:      t.Name(),
		Pattern: workflow.Sequential{},
		Steps:   []string{t.AgentID},
	}
	return t.Engine.Run(ctx, def, input, t.Options)
}

// WorkflowTarget runs a registered workflow by id.
type WorkflowTarget struct {
	Engine     *orchestration.Engine
	WorkflowID string
	Options    orchestration.Options
}

// Name implements Target.
func (t WorkflowTarget) Name() string { return "workflow:" + t.WorkflowID }

// Run implements Target.
func (t WorkflowTarget) Run(ctx context.Context, input []types.Message) *orchestration.RunResult {
	return t.Engine.RunByID(ctx, t.WorkflowID, input, t.Options)
}
