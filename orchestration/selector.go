package orchestration

import (
	"context"
	"strings"

	"github.com/BaSui01/agentweave/types"
	"github.com/BaSui01/agentweave/workflow"
)

// Action 动态模式的下一步动作
type Action int

const (
	ActionContinue Action = iota
	ActionSwitch
	ActionTerminate
)

func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "continue"
	case ActionSwitch:
		return "switch"
	case ActionTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Decision 决策步骤的返回值
type Decision struct {
	Action  Action
	AgentID string
	Pattern workflow.Pattern
	Steps   []string
	Reason  string
	// State is merged into the shared state before the action runs.
	State map[string]string
}

// Continue invokes agentID next.
func Continue(agentID string) Decision {
	return Decision{Action: ActionContinue, AgentID: agentID}
}

// SwitchTo runs a nested sub-workflow with the given pattern and steps as one step.
func SwitchTo(p workflow.Pattern, steps ...string) Decision {
	return Decision{Action: ActionSwitch, Pattern: p, Steps: steps}
}

// Terminate ends the run successfully with the latest output.
func Terminate(reason string) Decision {
	return Decision{Action: ActionTerminate, Reason: reason}
}

// WithState attaches shared-state updates to d.
func (d Decision) WithState(kv map[string]string) Decision {
	d.State = kv
	return d
}

// DecisionInput 决策步骤可见的上下文
type DecisionInput struct {
	WorkflowID     string
	Iteration      int
	MaxSteps       int
	InitialAgentID string
	Candidates     []string
	LastAgentID    string
	LastOutput     string
	Conversation   []types.Message
	Turns          []Turn
	State          map[string]string
}

// Selector 动态模式的决策函数
type Selector interface {
	Next(ctx context.Context, in DecisionInput) (Decision, error)
}

// SelectorFunc adapts a plain function to Selector.
type SelectorFunc func(ctx context.Context, in DecisionInput) (Decision, error)

// Next calls f.
func (f SelectorFunc) Next(ctx context.Context, in DecisionInput) (Decision, error) {
	return f(ctx, in)
}

// RoundRobinSelector cycles through the initial agent followed by the
// workflow's steps. It never terminates on its own.
type RoundRobinSelector struct{}

// Next implements Selector.
func (RoundRobinSelector) Next(_ context.Context, in DecisionInput) (Decision, error) {
	pool := in.Candidates
	if len(pool) == 0 {
		return Continue(in.InitialAgentID), nil
	}
	return Continue(pool[in.Iteration%len(pool)]), nil
}

// MarkerTermination is satisfied when the output contains marker.
func MarkerTermination(marker string) TerminationPredicate {
	return func(output string) bool {
		return marker != "" && strings.Contains(output, marker)
	}
}
