package registry

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/BaSui01/agentweave/agent"
	"github.com/BaSui01/agentweave/types"
	"github.com/BaSui01/agentweave/workflow"
	"go.uber.org/zap"
)

// ErrClosed is returned by write operations after Close.
var ErrClosed = errors.New("registry is closed")

// Snapshot 注册表的一次完整快照，按 id 排序
type Snapshot struct {
	Agents    []agent.Definition    `json:"agents" yaml:"agents"`
	Workflows []workflow.Definition `json:"workflows" yaml:"workflows"`
}

// Sink persists a snapshot.
type Sink interface {
	Write(ctx context.Context, snap Snapshot) error
}

// Source reads back a previously persisted snapshot.
type Source interface {
	Read(ctx context.Context) (Snapshot, error)
}

// Registry 管理 agent 与 workflow 定义
// 读操作并发执行，写操作互斥；存取的都是深拷贝
type Registry struct {
	mu        sync.RWMutex
	saveMu    sync.Mutex // 串行化 Save，保证最后写入的总是最新快照
	agents    map[string]agent.Definition
	workflows map[string]workflow.Definition
	closed    bool
	logger    *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		agents:    make(map[string]agent.Definition),
		workflows: make(map[string]workflow.Definition),
		logger:    logger.With(zap.String("component", "registry")),
	}
}

// RegisterAgent stores def. A duplicate id leaves the stored value unchanged.
func (r *Registry) RegisterAgent(def agent.Definition) error {
	if err := def.Check(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, exists := r.agents[def.ID]; exists {
		return duplicate("agent", def.ID)
	}
	r.agents[def.ID] = def.Normalize()

	r.logger.Info("agent registered",
		zap.String("agent_id", def.ID),
		zap.String("role", string(def.Role)),
	)
	return nil
}

// RegisterWorkflow stores def. Referenced agents need not exist yet.
func (r *Registry) RegisterWorkflow(def workflow.Definition) error {
	if err := def.Check(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, exists := r.workflows[def.ID]; exists {
		return duplicate("workflow", def.ID)
	}
	r.workflows[def.ID] = def.Normalize()

	r.logger.Info("workflow registered",
		zap.String("workflow_id", def.ID),
		zap.String("pattern", string(def.Kind())),
	)
	return nil
}

// ReplaceAgent overwrites an existing agent.
func (r *Registry) ReplaceAgent(def agent.Definition) error {
	if err := def.Check(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, exists := r.agents[def.ID]; !exists {
		return types.NewNotFoundError("agent", def.ID)
	}
	r.agents[def.ID] = def.Normalize()
	r.logger.Info("agent replaced", zap.String("agent_id", def.ID))
	return nil
}

// ReplaceWorkflow overwrites an existing workflow.
func (r *Registry) ReplaceWorkflow(def workflow.Definition) error {
	if err := def.Check(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, exists := r.workflows[def.ID]; !exists {
		return types.NewNotFoundError("workflow", def.ID)
	}
	r.workflows[def.ID] = def.Normalize()
	r.logger.Info("workflow replaced", zap.String("workflow_id", def.ID))
	return nil
}

// GetAgent returns a copy of the agent with the given id.
func (r *Registry) GetAgent(id string) (agent.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.agents[id]
	if !ok {
		return agent.Definition{}, types.NewNotFoundError("agent", id)
	}
	return def.Clone(), nil
}

// GetWorkflow returns a copy of the workflow with the given id.
func (r *Registry) GetWorkflow(id string) (workflow.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.workflows[id]
	if !ok {
		return workflow.Definition{}, types.NewNotFoundError("workflow", id)
	}
	return def.Clone(), nil
}

// HasAgent reports whether an agent with the given id is registered.
func (r *Registry) HasAgent(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[id]
	return ok
}

// DeleteAgent removes an agent. Workflows referencing it are left alone and
// fail with NotFound at run time.
func (r *Registry) DeleteAgent(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, ok := r.agents[id]; !ok {
		return types.NewNotFoundError("agent", id)
	}
	delete(r.agents, id)
	r.logger.Info("agent deleted", zap.String("agent_id", id))
	return nil
}

// DeleteWorkflow removes a workflow.
func (r *Registry) DeleteWorkflow(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, ok := r.workflows[id]; !ok {
		return types.NewNotFoundError("workflow", id)
	}
	delete(r.workflows, id)
	r.logger.Info("workflow deleted", zap.String("workflow_id", id))
	return nil
}

// Agents returns a lazy, restartable sequence of agents sorted by id. Each
// iteration works on a snapshot taken when it starts.
func (r *Registry) Agents() iter.Seq[agent.Definition] {
	return func(yield func(agent.Definition) bool) {
		for _, def := range r.snapshotAgents() {
			if !yield(def) {
				return
			}
		}
	}
}

// Workflows returns a lazy, restartable sequence of workflows sorted by id.
func (r *Registry) Workflows() iter.Seq[workflow.Definition] {
	return func(yield func(workflow.Definition) bool) {
		for _, def := range r.snapshotWorkflows() {
			if !yield(def) {
				return
			}
		}
	}
}

// Len returns the number of registered agents and workflows.
func (r *Registry) Len() (agents, workflows int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents), len(r.workflows)
}

// Snapshot returns a deep copy of the full registry contents.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{Agents: r.snapshotAgents(), Workflows: r.snapshotWorkflows()}
}

// Save writes the current snapshot to sink. Concurrent saves are serialized
// and each one snapshots after the previous write finished, so the sink
// always ends up holding the latest contents.
func (r *Registry) Save(ctx context.Context, sink Sink) error {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	snap := r.Snapshot()
	if err := sink.Write(ctx, snap); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	r.logger.Info("registry saved",
		zap.Int("agents", len(snap.Agents)),
		zap.Int("workflows", len(snap.Workflows)),
	)
	return nil
}

// Load reads a snapshot from source and merges it in. It is all-or-nothing:
// any invalid definition or duplicate id leaves the registry unchanged.
func (r *Registry) Load(ctx context.Context, source Source) error {
	snap, err := source.Read(ctx)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	var vs []types.Violation
	agents := make(map[string]agent.Definition, len(snap.Agents))
	for i, def := range snap.Agents {
		field := fmt.Sprintf("agents[%d]", i)
		for _, v := range def.Validate() {
			vs = append(vs, types.Violation{Field: field + "." + v.Field, Message: v.Message})
		}
		if _, dup := agents[def.ID]; dup {
			vs = append(vs, types.Violation{Field: field, Message: fmt.Sprintf("duplicate agent id %q in snapshot", def.ID)})
		} else if _, exists := r.agents[def.ID]; exists {
			vs = append(vs, types.Violation{Field: field, Message: fmt.Sprintf("agent %q is already registered", def.ID)})
		}
		agents[def.ID] = def.Normalize()
	}
	workflows := make(map[string]workflow.Definition, len(snap.Workflows))
	for i, def := range snap.Workflows {
		field := fmt.Sprintf("workflows[%d]", i)
		for _, v := range def.Validate() {
			vs = append(vs, types.Violation{Field: field + "." + v.Field, Message: v.Message})
		}
		if _, dup := workflows[def.ID]; dup {
			vs = append(vs, types.Violation{Field: field, Message: fmt.Sprintf("duplicate workflow id %q in snapshot", def.ID)})
		} else if _, exists := r.workflows[def.ID]; exists {
			vs = append(vs, types.Violation{Field: field, Message: fmt.Sprintf("workflow %q is already registered", def.ID)})
		}
		workflows[def.ID] = def.Normalize()
	}
	if err := types.NewValidationError("snapshot", vs); err != nil {
		return err
	}

	for id, def := range agents {
		r.agents[id] = def
	}
	for id, def := range workflows {
		r.workflows[id] = def
	}

	r.logger.Info("registry loaded",
		zap.Int("agents", len(agents)),
		zap.Int("workflows", len(workflows)),
	)
	return nil
}

// Close marks the registry read-only. It is idempotent.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		r.logger.Debug("registry closed")
	}
	return nil
}

func (r *Registry) snapshotAgents() []agent.Definition {
	r.mu.RLock()
	out := make([]agent.Definition, 0, len(r.agents))
	for _, def := range r.agents {
		out = append(out, def.Clone())
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b agent.Definition) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r *Registry) snapshotWorkflows() []workflow.Definition {
	r.mu.RLock()
	out := make([]workflow.Definition, 0, len(r.workflows))
	for _, def := range r.workflows {
		out = append(out, def.Clone())
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b workflow.Definition) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func duplicate(kind, id string) error {
	return types.NewValidationError(kind, []types.Violation{{
		Field:   "id",
		Message: fmt.Sprintf("%s %q is already registered", kind, id),
	}})
}
