package persistence

import (
	"github.com/BaSui01/agentweave/agent"
	"github.com/BaSui01/agentweave/registry"
	"github.com/BaSui01/agentweave/workflow"
)

func sampleSnapshot() registry.Snapshot {
	return registry.Snapshot{
		Agents: []agent.Definition{
			agent.NewBuilder("critic").WithRole(agent.RoleCritic).WithModel("gpt-4o").WithTemperature(0.3).MustBuild(),
			agent.NewBuilder("researcher").
				WithRole(agent.RoleResearcher).
				WithModel("claude").
				WithTools("search", "browse").
				WithMetadata("team", "content").
				MustBuild(),
			agent.NewBuilder("writer").WithRole(agent.RoleWriter).WithModel("gpt-4o").WithInstructions("Write well.\nBe brief.").MustBuild(),
		},
		Workflows: []workflow.Definition{
			workflow.NewBuilder("blog").Sequential("researcher", "writer").MustBuild(),
			workflow.NewBuilder("loop").Dynamic("writer", 5, "critic").WithTerminationCondition("APPROVED").MustBuild(),
			workflow.NewBuilder("review").Parallel("critic", "researcher").MustBuild(),
			workflow.NewBuilder("team").Hierarchical("writer", "critic", "researcher").WithMetadata("owner", "ops").MustBuild(),
		},
	}
}

func emptySnapshot() registry.Snapshot {
	return registry.Snapshot{}
}
