package workflow

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/BaSui01/agentweave/types"
)

// DefaultTerminationMarker is the marker the dynamic pattern looks for when
// a workflow does not declare its own termination condition.
const DefaultTerminationMarker = "DONE"

// Definition 工作流定义
// 纯值类型；引用的 agent id 在定义时不必存在，运行时必须能解析
type Definition struct {
	ID                   string
	Description          string
	Pattern              Pattern
	Steps                []string
	TerminationCondition string
	Metadata             map[string]string
}

// Kind returns the pattern kind, or "" when no pattern is set.
func (d Definition) Kind() PatternKind {
	if d.Pattern == nil {
		return ""
	}
	return d.Pattern.Kind()
}

// Marker returns the termination marker used by the dynamic pattern.
func (d Definition) Marker() string {
	if strings.TrimSpace(d.TerminationCondition) == "" {
		return DefaultTerminationMarker
	}
	return d.TerminationCondition
}

// Clone returns a deep copy of d.
func (d Definition) Clone() Definition {
	out := d
	out.Steps = slices.Clone(d.Steps)
	out.Metadata = maps.Clone(d.Metadata)
	if d.Pattern != nil {
		out.Pattern = d.Pattern.clone()
	}
	return out
}

// Normalize returns the canonical shape: nil slices become empty and an
// empty Metadata map becomes nil.
func (d Definition) Normalize() Definition {
	out := d.Clone()
	if out.Steps == nil {
		out.Steps = []string{}
	}
	if h, ok := out.Pattern.(Hierarchical); ok && h.WorkerIDs == nil {
		h.WorkerIDs = []string{}
		out.Pattern = h
	}
	if len(out.Metadata) == 0 {
		out.Metadata = nil
	}
	return out
}

// Validate returns every structural violation of d. It never consults a
// registry; see AgentIDs for the references that must resolve at run time.
func (d Definition) Validate() []types.Violation {
	var vs []types.Violation
	if strings.TrimSpace(d.ID) == "" {
		vs = append(vs, types.Violation{Field: "id", Message: "must not be empty"})
	}
	for i, s := range d.Steps {
		if strings.TrimSpace(s) == "" {
			vs = append(vs, types.Violation{Field: fmt.Sprintf("steps[%d]", i), Message: "agent id must not be blank"})
		}
	}
	if d.Pattern == nil {
		vs = append(vs, types.Violation{Field: "pattern", Message: "must be set"})
		return vs
	}
	return append(vs, d.Pattern.validate(d.Steps)...)
}

// Check wraps Validate into a *types.ValidationError, or nil.
func (d Definition) Check() error {
	return types.NewValidationError(fmt.Sprintf("workflow %q", d.ID), d.Validate())
}

// AgentIDs returns every agent id referenced by d, deduplicated, in first
// reference order: the coordinator and workers or the initial agent, then steps.
func (d Definition) AgentIDs() []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}
	switch p := d.Pattern.(type) {
	case Hierarchical:
		add(p.CoordinatorID)
		for _, w := range p.WorkerIDs {
			add(w)
		}
	case Dynamic:
		add(p.InitialAgentID)
	}
	for _, s := range d.Steps {
		add(s)
	}
	return ids
}
