package workflow

import (
	"encoding/json"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// wireDefinition is the flat serialized form of Definition; the pattern
// payload fields are only present for the patterns that use them.
type wireDefinition struct {
	ID                   string            `json:"id" yaml:"id"`
	Description          string            `json:"description" yaml:"description"`
	Pattern              PatternKind       `json:"pattern" yaml:"pattern"`
	Steps                []string          `json:"steps" yaml:"steps"`
	CoordinatorID        string            `json:"coordinator_id,omitempty" yaml:"coordinator_id,omitempty"`
	WorkerIDs            []string          `json:"worker_ids,omitempty" yaml:"worker_ids,omitempty"`
	InitialAgentID       string            `json:"initial_agent_id,omitempty" yaml:"initial_agent_id,omitempty"`
	MaxSteps             int               `json:"max_steps,omitempty" yaml:"max_steps,omitempty"`
	TerminationCondition string            `json:"termination_condition,omitempty" yaml:"termination_condition,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

func (d Definition) toWire() wireDefinition {
	w := wireDefinition{
		ID:                   d.ID,
		Description:          d.Description,
		Pattern:              d.Kind(),
		Steps:                d.Steps,
		TerminationCondition: d.TerminationCondition,
		Metadata:             d.Metadata,
	}
	if w.Steps == nil {
		w.Steps = []string{}
	}
	switch p := d.Pattern.(type) {
	case Hierarchical:
		w.CoordinatorID = p.CoordinatorID
		w.WorkerIDs = p.WorkerIDs
	case Dynamic:
		w.InitialAgentID = p.InitialAgentID
		w.MaxSteps = p.MaxSteps
	}
	return w
}

func (w wireDefinition) toDefinition() (Definition, error) {
	d := Definition{
		ID:                   w.ID,
		Description:          w.Description,
		Steps:                slices.Clone(w.Steps),
		TerminationCondition: w.TerminationCondition,
		Metadata:             w.Metadata,
	}
	if w.Pattern != "" {
		kind, err := ParsePatternKind(string(w.Pattern))
		if err != nil {
			return Definition{}, err
		}
		switch kind {
		case KindSequential:
			d.Pattern = Sequential{}
		case KindParallel:
			d.Pattern = Parallel{}
		case KindHierarchical:
			d.Pattern = Hierarchical{CoordinatorID: w.CoordinatorID, WorkerIDs: slices.Clone(w.WorkerIDs)}
		case KindDynamic:
			d.Pattern = Dynamic{InitialAgentID: w.InitialAgentID, MaxSteps: w.MaxSteps}
		}
	}
	return d.Normalize(), nil
}

// MarshalJSON serializes a Definition to JSON
func (d Definition) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.toWire())
}

// UnmarshalJSON deserializes a Definition from JSON. Unknown fields are ignored.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var w wireDefinition
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to unmarshal workflow definition: %w", err)
	}
	def, err := w.toDefinition()
	if err != nil {
		return fmt.Errorf("failed to unmarshal workflow definition: %w", err)
	}
	*d = def
	return nil
}

// MarshalYAML serializes a Definition to YAML
func (d Definition) MarshalYAML() (interface{}, error) {
	return d.toWire(), nil
}

// UnmarshalYAML deserializes a Definition from YAML
func (d *Definition) UnmarshalYAML(node *yaml.Node) error {
	var w wireDefinition
	if err := node.Decode(&w); err != nil {
		return fmt.Errorf("failed to unmarshal workflow definition: %w", err)
	}
	def, err := w.toDefinition()
	if err != nil {
		return fmt.Errorf("failed to unmarshal workflow definition: %w", err)
	}
	*d = def
	return nil
}

// ToJSON converts a Definition to an indented JSON string
func (d Definition) ToJSON() (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return string(data), nil
}

// ToYAML converts a Definition to a YAML string
func (d Definition) ToYAML() (string, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	return string(data), nil
}

// FromJSON parses and validates a Definition from JSON
func FromJSON(data []byte) (Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return Definition{}, err
	}
	if err := def.Check(); err != nil {
		return Definition{}, fmt.Errorf("validation failed: %w", err)
	}
	return def, nil
}

// FromYAML parses and validates a Definition from YAML
func FromYAML(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, err
	}
	if err := def.Check(); err != nil {
		return Definition{}, fmt.Errorf("validation failed: %w", err)
	}
	return def, nil
}
