package harness

import (
	"fmt"
	"strings"

	"github.com/BaSui01/agentweave/agent"
	"github.com/BaSui01/agentweave/types"
	"github.com/BaSui01/agentweave/workflow"
)

// AgentLookup reports whether an agent id resolves. *registry.Registry
// implements it.
type AgentLookup interface {
	HasAgent(id string) bool
}

// WorkflowValidator 静态校验 workflow，不发起任何调用
type WorkflowValidator struct{}

// Check returns every structural violation of def plus one violation per
// agent reference that does not resolve in agents. An empty result means def
// can run. A nil agents skips the reference check.
func (WorkflowValidator) Check(def workflow.Definition, agents AgentLookup) []types.Violation {
	vs := def.Validate()
	if agents == nil {
		return vs
	}
	for _, ref := range references(def) {
		if strings.TrimSpace(ref.id) == "" || agents.HasAgent(ref.id) {
			continue
		}
		vs = append(vs, types.Violation{
			Field:   ref.field,
			Message: fmt.Sprintf("agent %q not found in registry", ref.id),
		})
	}
	return vs
}

type reference struct {
	field string
	id    string
}

// references lists every agent reference in def with the field it lives in.
func references(def workflow.Definition) []reference {
	var refs []reference
	switch p := def.Pattern.(type) {
	case workflow.Hierarchical:
		refs = append(refs, reference{"coordinator_id", p.CoordinatorID})
		for i, id := range p.WorkerIDs {
			refs = append(refs, reference{fmt.Sprintf("worker_ids[%d]", i), id})
		}
	case workflow.Dynamic:
		refs = append(refs, reference{"initial_agent_id", p.InitialAgentID})
	}
	for i, id := range def.Steps {
		refs = append(refs, reference{fmt.Sprintf("steps[%d]", i), id})
	}
	return refs
}

// ValidateAgent returns the builder violations of def plus the
// completeness checks a tested agent should meet.
func ValidateAgent(def agent.Definition) []types.Violation {
	vs := def.Validate()
	if strings.TrimSpace(def.Description) == "" {
		vs = append(vs, types.Violation{Field: "description", Message: "must not be empty"})
	}
	if strings.TrimSpace(def.Instructions) == "" {
		vs = append(vs, types.Violation{Field: "instructions", Message: "must not be empty"})
	}
	return vs
}
