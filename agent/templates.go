package agent

import (
	"slices"

	"github.com/BaSui01/agentweave/types"
)

// templateSpec 预定义智能体模板
type templateSpec struct {
	role         Role
	description  string
	instructions string
}

var templates = map[string]templateSpec{
	"critic": {
		role:        RoleCritic,
		description: "Analyzes and provides constructive feedback",
		instructions: `You are a Critic Agent. You carefully analyze content and provide constructive feedback.

Your Task:
- Analyze the content objectively
- Identify strengths and weaknesses
- Provide actionable suggestions for improvement
- Rate the quality on a scale of 1-10`,
	},
	"writer": {
		role:        RoleWriter,
		description: "Creates high-quality written content",
		instructions: `You are a Writer Agent. You create engaging, well-structured content.

Your Task:
- Understand the topic and audience
- Create clear, compelling content
- Follow best practices for the content type
- Incorporate feedback when provided`,
	},
	"researcher": {
		role:        RoleResearcher,
		description: "Gathers and synthesizes information",
		instructions: `You are a Researcher Agent. You gather accurate, relevant information.

Your Task:
- Identify key information sources
- Collect relevant facts and data
- Synthesize findings clearly
- Cite sources when applicable`,
	},
	"planner": {
		role:        RolePlanner,
		description: "Creates strategic plans and task breakdowns",
		instructions: `You are a Planner Agent. You create comprehensive plans to achieve goals.

Your Task:
- Understand the overall objective
- Break down into actionable steps
- Identify dependencies and priorities
- Create realistic timelines`,
	},
	"executor": {
		role:        RoleExecutor,
		description: "Executes plans and completes tasks",
		instructions: `You are an Executor Agent. You complete tasks efficiently and effectively.

Your Task:
- Follow the provided plan
- Execute each step carefully
- Report progress and results
- Handle errors gracefully`,
	},
}

// Templates returns the names of the predefined agent templates, sorted.
func Templates() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Template returns a builder pre-filled from the named template. The id
// defaults to the template name; the model must still be set by the caller.
func Template(name string) (*Builder, error) {
	tpl, ok := templates[name]
	if !ok {
		return nil, types.NewNotFoundError("template", name)
	}
	return NewBuilder(name).
		WithRole(tpl.role).
		WithDescription(tpl.description).
		WithInstructions(tpl.instructions), nil
}
