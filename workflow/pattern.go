package workflow

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BaSui01/agentweave/types"
)

// PatternKind is the serialized name of an orchestration pattern.
type PatternKind string

const (
	KindSequential   PatternKind = "sequential"
	KindParallel     PatternKind = "parallel"
	KindHierarchical PatternKind = "hierarchical"
	KindDynamic      PatternKind = "dynamic"
)

// Kinds returns every pattern kind in a stable order.
func Kinds() []PatternKind {
	return []PatternKind{KindSequential, KindParallel, KindHierarchical, KindDynamic}
}

// Describe returns a one-line summary of how the pattern runs its steps.
func (k PatternKind) Describe() string {
	switch k {
	case KindSequential:
		return "agents run one after another, each seeing the previous outputs"
	case KindParallel:
		return "agents run concurrently on the same input and outputs are aggregated"
	case KindHierarchical:
		return "a coordinator plans subtasks for workers and synthesizes their results"
	case KindDynamic:
		return "a selector picks the next agent each turn until termination or max steps"
	default:
		return ""
	}
}

// ParsePatternKind 解析模式名称（大小写不敏感）
func ParsePatternKind(s string) (PatternKind, error) {
	switch k := PatternKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSequential, KindParallel, KindHierarchical, KindDynamic:
		return k, nil
	default:
		return "", fmt.Errorf("unknown orchestration pattern %q", s)
	}
}

// Pattern 编排模式（封闭变体）
// 只有本包内的四种模式实现该接口；执行方通过 PatternVisitor 分派，
// 新增模式时所有 visitor 都必须补齐对应方法。
type Pattern interface {
	Kind() PatternKind
	Accept(v PatternVisitor) error

	isPattern()
	validate(steps []string) []types.Violation
	clone() Pattern
}

// PatternVisitor 对每种模式给出一个处理分支
type PatternVisitor interface {
	VisitSequential(p Sequential) error
	VisitParallel(p Parallel) error
	VisitHierarchical(p Hierarchical) error
	VisitDynamic(p Dynamic) error
}

// Sequential runs steps in order, threading each output into the next input.
type Sequential struct{}

func (Sequential) Kind() PatternKind               { return KindSequential }
func (p Sequential) Accept(v PatternVisitor) error { return v.VisitSequential(p) }
func (Sequential) isPattern()                      {}
func (Sequential) clone() Pattern                  { return Sequential{} }

func (Sequential) validate(steps []string) []types.Violation {
	return requireSteps(KindSequential, steps)
}

// Parallel runs every step on the same input and aggregates the outputs.
type Parallel struct{}

func (Parallel) Kind() PatternKind               { return KindParallel }
func (p Parallel) Accept(v PatternVisitor) error { return v.VisitParallel(p) }
func (Parallel) isPattern()                      {}
func (Parallel) clone() Pattern                  { return Parallel{} }

func (Parallel) validate(steps []string) []types.Violation {
	return requireSteps(KindParallel, steps)
}

// Hierarchical lets a coordinator delegate subtasks to workers and then
// synthesize their outputs.
type Hierarchical struct {
	CoordinatorID string
	WorkerIDs     []string
}

func (Hierarchical) Kind() PatternKind               { return KindHierarchical }
func (p Hierarchical) Accept(v PatternVisitor) error { return v.VisitHierarchical(p) }
func (Hierarchical) isPattern()                      {}

func (p Hierarchical) clone() Pattern {
	return Hierarchical{CoordinatorID: p.CoordinatorID, WorkerIDs: slices.Clone(p.WorkerIDs)}
}

// HasWorker reports whether id is one of the declared workers.
func (p Hierarchical) HasWorker(id string) bool {
	return slices.Contains(p.WorkerIDs, id)
}

func (p Hierarchical) validate(_ []string) []types.Violation {
	var vs []types.Violation
	if strings.TrimSpace(p.CoordinatorID) == "" {
		vs = append(vs, types.Violation{Field: "coordinator_id", Message: "hierarchical pattern requires a coordinator"})
	}
	if len(p.WorkerIDs) == 0 {
		vs = append(vs, types.Violation{Field: "worker_ids", Message: "hierarchical pattern requires at least one worker"})
	}
	seen := make(map[string]bool, len(p.WorkerIDs))
	for i, w := range p.WorkerIDs {
		field := fmt.Sprintf("worker_ids[%d]", i)
		switch {
		case strings.TrimSpace(w) == "":
			vs = append(vs, types.Violation{Field: field, Message: "worker id must not be blank"})
		case w == p.CoordinatorID:
			vs = append(vs, types.Violation{Field: field, Message: fmt.Sprintf("coordinator %q must not also be a worker", w)})
		case seen[w]:
			vs = append(vs, types.Violation{Field: field, Message: fmt.Sprintf("duplicate worker %q", w)})
		}
		seen[w] = true
	}
	return vs
}

// Dynamic re-decides the next agent (or a pattern switch) after every step,
// bounded by MaxSteps.
type Dynamic struct {
	InitialAgentID string
	MaxSteps       int
}

func (Dynamic) Kind() PatternKind               { return KindDynamic }
func (p Dynamic) Accept(v PatternVisitor) error { return v.VisitDynamic(p) }
func (Dynamic) isPattern()                      {}
func (p Dynamic) clone() Pattern                { return p }

func (p Dynamic) validate(_ []string) []types.Violation {
	var vs []types.Violation
	if strings.TrimSpace(p.InitialAgentID) == "" {
		vs = append(vs, types.Violation{Field: "initial_agent_id", Message: "dynamic pattern requires an initial agent"})
	}
	if p.MaxSteps <= 0 {
		vs = append(vs, types.Violation{Field: "max_steps", Message: fmt.Sprintf("must be positive, got %d", p.MaxSteps)})
	}
	return vs
}

func requireSteps(kind PatternKind, steps []string) []types.Violation {
	if len(steps) == 0 {
		return []types.Violation{{Field: "steps", Message: fmt.Sprintf("%s pattern requires at least one step", kind)}}
	}
	return nil
}
