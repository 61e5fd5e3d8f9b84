package workflow

import (
	"fmt"
	"strings"

	"github.com/BaSui01/agentweave/types"
)

// Builder 提供流式构建 Definition 的能力
type Builder struct {
	def    Definition
	errors []types.Violation
}

// NewBuilder 创建工作流构建器
func NewBuilder(id string) *Builder {
	return &Builder{def: Definition{ID: id}}
}

// FromDefinition 以已有定义为起点创建构建器
func FromDefinition(def Definition) *Builder {
	return &Builder{def: def.Clone()}
}

// WithDescription 设置描述
func (b *Builder) WithDescription(description string) *Builder {
	b.def.Description = description
	return b
}

// WithPattern 直接设置模式
func (b *Builder) WithPattern(p Pattern) *Builder {
	b.def.Pattern = p
	return b
}

// WithSteps 追加步骤（agent id）
func (b *Builder) WithSteps(agentIDs ...string) *Builder {
	b.def.Steps = append(b.def.Steps, agentIDs...)
	return b
}

// Sequential 设置顺序模式并追加步骤
func (b *Builder) Sequential(agentIDs ...string) *Builder {
	return b.WithPattern(Sequential{}).WithSteps(agentIDs...)
}

// Parallel 设置并行模式并追加步骤
func (b *Builder) Parallel(agentIDs ...string) *Builder {
	return b.WithPattern(Parallel{}).WithSteps(agentIDs...)
}

// Hierarchical 设置层次化模式
func (b *Builder) Hierarchical(coordinatorID string, workerIDs ...string) *Builder {
	return b.WithPattern(Hierarchical{CoordinatorID: coordinatorID, WorkerIDs: workerIDs})
}

// Dynamic 设置动态模式；candidates 为默认选择器轮转的候选 agent
func (b *Builder) Dynamic(initialAgentID string, maxSteps int, candidates ...string) *Builder {
	return b.WithPattern(Dynamic{InitialAgentID: initialAgentID, MaxSteps: maxSteps}).WithSteps(candidates...)
}

// WithTerminationCondition 设置终止标记
func (b *Builder) WithTerminationCondition(marker string) *Builder {
	b.def.TerminationCondition = marker
	return b
}

// WithMetadata 设置一条元数据
func (b *Builder) WithMetadata(key, value string) *Builder {
	if strings.TrimSpace(key) == "" {
		b.errors = append(b.errors, types.Violation{Field: "metadata", Message: "key must not be blank"})
		return b
	}
	if b.def.Metadata == nil {
		b.def.Metadata = make(map[string]string)
	}
	b.def.Metadata[key] = value
	return b
}

// Build 校验并返回定义
func (b *Builder) Build() (Definition, error) {
	vs := append(b.def.Validate(), b.errors...)
	if len(vs) > 0 {
		return Definition{}, types.NewValidationError(fmt.Sprintf("workflow %q", b.def.ID), vs)
	}
	return b.def.Normalize(), nil
}

// MustBuild 与 Build 相同，但校验失败时 panic
func (b *Builder) MustBuild() Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
