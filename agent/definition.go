package agent

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/BaSui01/agentweave/types"
)

// Role 智能体角色
// 任意非空字符串都是合法角色，以下常量只是常用取值
type Role string

const (
	RolePlanner     Role = "planner"
	RoleExecutor    Role = "executor"
	RoleCritic      Role = "critic"
	RoleResearcher  Role = "researcher"
	RoleWriter      Role = "writer"
	RoleAnalyzer    Role = "analyzer"
	RoleCoordinator Role = "coordinator"
	RoleCustom      Role = "custom"
)

// KnownRoles returns the predefined roles in declaration order.
func KnownRoles() []Role {
	return []Role{
		RolePlanner, RoleExecutor, RoleCritic, RoleResearcher,
		RoleWriter, RoleAnalyzer, RoleCoordinator, RoleCustom,
	}
}

const (
	// DefaultTemperature is applied by NewBuilder.
	DefaultTemperature = 0.7
	// DefaultMaxTokens is applied by NewBuilder.
	DefaultMaxTokens = 1024

	MinTemperature = 0.0
	MaxTemperature = 2.0
)

// Definition is the declarative description of one agent.
// It is a plain value; the registry keeps its own deep copy.
type Definition struct {
	ID           string            `json:"id" yaml:"id"`
	Role         Role              `json:"role" yaml:"role"`
	Description  string            `json:"description" yaml:"description"`
	Instructions string            `json:"instructions" yaml:"instructions"`
	ModelID      string            `json:"model_id" yaml:"model_id"`
	Temperature  float64           `json:"temperature" yaml:"temperature"`
	MaxTokens    int               `json:"max_tokens" yaml:"max_tokens"`
	Tools        []string          `json:"tools" yaml:"tools"`
	Metadata     map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Clone returns a deep copy of d.
func (d Definition) Clone() Definition {
	out := d
	out.Tools = slices.Clone(d.Tools)
	out.Metadata = maps.Clone(d.Metadata)
	return out
}

// Normalize returns d with nil Tools replaced by an empty slice and an empty
// Metadata map dropped, the canonical shape stored by builders and the registry.
func (d Definition) Normalize() Definition {
	out := d.Clone()
	if out.Tools == nil {
		out.Tools = []string{}
	}
	if len(out.Metadata) == 0 {
		out.Metadata = nil
	}
	return out
}

// Validate returns every violated constraint of d in field order.
func (d Definition) Validate() []types.Violation {
	var vs []types.Violation
	if strings.TrimSpace(d.ID) == "" {
		vs = append(vs, types.Violation{Field: "id", Message: "must not be empty"})
	}
	if strings.TrimSpace(string(d.Role)) == "" {
		vs = append(vs, types.Violation{Field: "role", Message: "must not be empty"})
	}
	if strings.TrimSpace(d.ModelID) == "" {
		vs = append(vs, types.Violation{Field: "model_id", Message: "must not be empty"})
	}
	if d.Temperature < MinTemperature || d.Temperature > MaxTemperature {
		vs = append(vs, types.Violation{
			Field:   "temperature",
			Message: fmt.Sprintf("must be within [%g, %g], got %g", MinTemperature, MaxTemperature, d.Temperature),
		})
	}
	if d.MaxTokens <= 0 {
		vs = append(vs, types.Violation{
			Field:   "max_tokens",
			Message: fmt.Sprintf("must be positive, got %d", d.MaxTokens),
		})
	}
	for i, tool := range d.Tools {
		if strings.TrimSpace(tool) == "" {
			vs = append(vs, types.Violation{
				Field:   fmt.Sprintf("tools[%d]", i),
				Message: "tool name must not be blank",
			})
		}
	}
	return vs
}

// Check wraps Validate into a *types.ValidationError, or nil.
func (d Definition) Check() error {
	return types.NewValidationError(fmt.Sprintf("agent %q", d.ID), d.Validate())
}

// SystemPrompt renders the system message the invoker receives for d.
func (d Definition) SystemPrompt() string {
	var sb strings.Builder
	if d.Description != "" {
		sb.WriteString(d.Description)
	}
	if d.Instructions != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(d.Instructions)
	}
	return sb.String()
}
