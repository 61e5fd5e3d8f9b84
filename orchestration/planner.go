package orchestration

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/BaSui01/agentweave/agent"
	"github.com/BaSui01/agentweave/types"
)

// Delegation 委派计划中的一项
type Delegation struct {
	WorkerID     string `json:"worker_id"`
	SubtaskInput string `json:"subtask_input"`
}

// Planner 构造协调者的规划提示并解析其输出
type Planner interface {
	Prompt(workers []agent.Definition) string
	Parse(output string) ([]Delegation, error)
}

// errNoPlan is returned when no JSON plan can be extracted.
var errNoPlan = errors.New("no JSON delegation plan found in coordinator output")

// JSONPlanner 期望协调者输出 JSON 数组：
//
//	[{"worker_id": "researcher", "subtask_input": "..."}]
//
// 依次尝试：直接解析、```json 代码块、无语言标记的 ``` 代码块。
type JSONPlanner struct{}

// Prompt implements Planner.
func (JSONPlanner) Prompt(workers []agent.Definition) string {
	var sb strings.Builder
	sb.WriteString("Break the task above into subtasks and delegate each one to a worker.\n\nAvailable workers:\n")
	for _, w := range workers {
		fmt.Fprintf(&sb, "- %s (%s)", w.ID, w.Role)
		if w.Description != "" {
			sb.WriteString(": " + w.Description)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(`
Respond with a JSON array only, one element per subtask, in execution order:
[
  {"worker_id": "<worker id>", "subtask_input": "<what the worker should do>"}
]`)
	return sb.String()
}

// Parse implements Planner.
func (JSONPlanner) Parse(output string) ([]Delegation, error) {
	if plan, ok := tryParsePlan(output); ok {
		return plan, nil
	}

	if idx := strings.Index(output, "```json"); idx != -1 {
		start := idx + len("```json")
		if end := strings.Index(output[start:], "```"); end != -1 {
			if plan, ok := tryParsePlan(output[start : start+end]); ok {
				return plan, nil
			}
		}
	}

	if idx := strings.Index(output, "```"); idx != -1 {
		start := idx + len("```")
		// 跳过同一行的语言标记
		if nl := strings.Index(output[start:], "\n"); nl != -1 {
			start += nl + 1
		}
		if end := strings.Index(output[start:], "```"); end != -1 {
			if plan, ok := tryParsePlan(output[start : start+end]); ok {
				return plan, nil
			}
		}
	}
	return nil, errNoPlan
}

type delegationJSON struct {
	WorkerID     string `json:"worker_id"`
	SubtaskInput string `json:"subtask_input"`
	Input        string `json:"input"`
}

func tryParsePlan(raw string) ([]Delegation, bool) {
	var parsed []delegationJSON
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return nil, false
	}
	plan := make([]Delegation, len(parsed))
	for i, p := range parsed {
		input := p.SubtaskInput
		if input == "" {
			input = p.Input
		}
		plan[i] = Delegation{WorkerID: strings.TrimSpace(p.WorkerID), SubtaskInput: input}
	}
	return plan, true
}

// checkPlan validates a parsed plan against the declared workers.
func checkPlan(plan []Delegation, isWorker func(string) bool) error {
	if len(plan) == 0 {
		return &types.DelegationError{Reason: "delegation plan is empty"}
	}
	for i, d := range plan {
		if d.WorkerID == "" {
			return &types.DelegationError{Reason: fmt.Sprintf("subtask %d has no worker_id", i+1)}
		}
		if !isWorker(d.WorkerID) {
			return &types.DelegationError{WorkerID: d.WorkerID, Reason: "worker is not declared by the workflow"}
		}
	}
	return nil
}
