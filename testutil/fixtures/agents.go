// =============================================================================
// 📦 测试数据工厂 - Agent 与 Workflow 定义
// =============================================================================
// 提供预定义的 agent / workflow 定义与对话，用于测试
// =============================================================================
package fixtures

import (
	"fmt"

	"github.com/BaSui01/agentweave/agent"
	"github.com/BaSui01/agentweave/types"
	"github.com/BaSui01/agentweave/workflow"
)

// =============================================================================
// 🤖 Agent 定义工厂
// =============================================================================

// Agent 返回一个带合法默认值的自定义 agent
func Agent(id string) agent.Definition {
	return agent.Definition{
		ID:           id,
		Role:         agent.RoleCustom,
		Description:  id + " test agent",
		Instructions: "You are " + id + ".",
		ModelID:      "test-model",
		Temperature:  agent.DefaultTemperature,
		MaxTokens:    agent.DefaultMaxTokens,
		Tools:        []string{},
	}
}

// Agents 批量创建 agent
func Agents(ids ...string) []agent.Definition {
	out := make([]agent.Definition, len(ids))
	for i, id := range ids {
		out[i] = Agent(id)
	}
	return out
}

// NumberedAgents 创建 prefix-1 … prefix-n
func NumberedAgents(prefix string, n int) []agent.Definition {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", prefix, i+1)
	}
	return Agents(ids...)
}

// CriticAgent 返回评审角色 agent
func CriticAgent() agent.Definition {
	b, err := agent.Template("critic")
	if err != nil {
		panic(err)
	}
	return b.WithModel("test-model").MustBuild()
}

// =============================================================================
// 🔀 Workflow 定义工厂
// =============================================================================

// SequentialWorkflow 返回顺序工作流
func SequentialWorkflow(id string, steps ...string) workflow.Definition {
	return workflow.NewBuilder(id).Sequential(steps...).MustBuild()
}

// ParallelWorkflow 返回并行工作流
func ParallelWorkflow(id string, steps ...string) workflow.Definition {
	return workflow.NewBuilder(id).Parallel(steps...).MustBuild()
}

// HierarchicalWorkflow 返回层次化工作流
func HierarchicalWorkflow(id, coordinator string, workers ...string) workflow.Definition {
	return workflow.NewBuilder(id).Hierarchical(coordinator, workers...).MustBuild()
}

// DynamicWorkflow 返回动态工作流
func DynamicWorkflow(id, initial string, maxSteps int, candidates ...string) workflow.Definition {
	return workflow.NewBuilder(id).Dynamic(initial, maxSteps, candidates...).MustBuild()
}

// =============================================================================
// 💬 对话工厂
// =============================================================================

// Task 返回单条用户消息的运行输入
func Task(content string) []types.Message {
	return []types.Message{types.NewUserMessage(content)}
}

// SimpleConversation 返回简单的对话历史
func SimpleConversation() []types.Message {
	return []types.Message{
		types.NewSystemMessage("You are a helpful assistant."),
		types.NewUserMessage("Hello"),
		types.NewAssistantMessage("assistant", "Hi! How can I help you today?"),
		types.NewUserMessage("Write a short blog post about Go."),
	}
}
