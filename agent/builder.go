package agent

import (
	"fmt"
	"strings"

	"github.com/BaSui01/agentweave/types"
)

// Builder 提供流式构建 Definition 的能力
// 链式调用只累积值，Build 时一次性报告全部违反的约束
type Builder struct {
	def    Definition
	errors []types.Violation
}

// NewBuilder 创建 Agent 构建器，预置默认温度、最大 token 与 custom 角色
func NewBuilder(id string) *Builder {
	return &Builder{
		def: Definition{
			ID:          id,
			Role:        RoleCustom,
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		},
	}
}

// From 以已有定义为起点创建构建器
func From(def Definition) *Builder {
	return &Builder{def: def.Clone()}
}

// WithID 设置 ID
func (b *Builder) WithID(id string) *Builder {
	b.def.ID = id
	return b
}

// WithRole 设置角色
func (b *Builder) WithRole(role Role) *Builder {
	b.def.Role = role
	return b
}

// WithDescription 设置描述
func (b *Builder) WithDescription(description string) *Builder {
	b.def.Description = description
	return b
}

// WithInstructions 设置系统指令
func (b *Builder) WithInstructions(instructions string) *Builder {
	b.def.Instructions = instructions
	return b
}

// WithModel 设置模型
func (b *Builder) WithModel(modelID string) *Builder {
	b.def.ModelID = modelID
	return b
}

// WithTemperature 设置温度
func (b *Builder) WithTemperature(temperature float64) *Builder {
	b.def.Temperature = temperature
	return b
}

// WithMaxTokens 设置最大 token 数
func (b *Builder) WithMaxTokens(maxTokens int) *Builder {
	b.def.MaxTokens = maxTokens
	return b
}

// WithTools 追加工具名
func (b *Builder) WithTools(tools ...string) *Builder {
	b.def.Tools = append(b.def.Tools, tools...)
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

// Build 校验并返回定义；所有违反项在同一个 ValidationError 中返回
func (b *Builder) Build() (Definition, error) {
	vs := append(b.def.Validate(), b.errors...)
	if len(vs) > 0 {
		return Definition{}, types.NewValidationError(fmt.Sprintf("agent %q", b.def.ID), vs)
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

// Draft returns a copy of the definition accumulated so far, unvalidated.
func (b *Builder) Draft() Definition {
	return b.def.Clone()
}
