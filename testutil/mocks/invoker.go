// MockInvoker 是 agent.Invoker 的测试模拟实现。
//
// 支持按 agent 脚本化响应、错误注入、延迟、阻塞直到取消，并记录全部调用。
package mocks

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/BaSui01/agentweave/agent"
	"github.com/BaSui01/agentweave/types"
)

// --- MockInvoker 结构 ---

// Reply 一次脚本化响应；Err 非空时返回错误
type Reply struct {
	Content string
	Err     error
}

// Ok 返回成功响应
func Ok(content string) Reply { return Reply{Content: content} }

// Fail 返回错误响应
func Fail(err error) Reply { return Reply{Err: err} }

// MockInvocation 记录单次调用
type MockInvocation struct {
	AgentID      string
	ModelID      string
	Conversation []types.Message
	Timeout      time.Duration
	Attempt      int
	RunID        string
	Reply        Reply
	At           time.Time
}

// MockInvoker 是 agent.Invoker 的模拟实现
type MockInvoker struct {
	mu sync.Mutex

	// 响应配置：每个 agent 一个响应序列，用尽后重复最后一个
	scripts    map[string][]Reply
	delays     map[string]time.Duration
	blocking   map[string]bool
	invokeFunc func(ctx context.Context, def agent.Definition, conv []types.Message) (types.Message, error)

	// 调用记录
	calls  []MockInvocation
	counts map[string]int

	// 并发统计
	inFlight    int
	maxInFlight int
}

var _ agent.Invoker = (*MockInvoker)(nil)

// --- 构造函数和 Builder 方法 ---

// NewMockInvoker 创建新的 MockInvoker。未配置的 agent 返回 "<id> output"。
func NewMockInvoker() *MockInvoker {
	return &MockInvoker{
		scripts:  make(map[string][]Reply),
		delays:   make(map[string]time.Duration),
		blocking: make(map[string]bool),
		counts:   make(map[string]int),
	}
}

// WithResponse 设置 agent 的固定响应内容
func (m *MockInvoker) WithResponse(agentID, content string) *MockInvoker {
	return m.WithSequence(agentID, Ok(content))
}

// WithError 设置 agent 的固定错误
func (m *MockInvoker) WithError(agentID string, err error) *MockInvoker {
	return m.WithSequence(agentID, Fail(err))
}

// WithSequence 设置 agent 的逐次响应序列
func (m *MockInvoker) WithSequence(agentID string, replies ...Reply) *MockInvoker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[agentID] = replies
	return m
}

// WithDelay 设置 agent 的响应延迟；延迟期间尊重 ctx 取消
func (m *MockInvoker) WithDelay(agentID string, d time.Duration) *MockInvoker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[agentID] = d
	return m
}

// WithBlock 让 agent 一直阻塞直到 ctx 结束
func (m *MockInvoker) WithBlock(agentID string) *MockInvoker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocking[agentID] = true
	return m
}

// WithInvokeFunc 设置自定义调用函数，优先于脚本
func (m *MockInvoker) WithInvokeFunc(fn func(ctx context.Context, def agent.Definition, conv []types.Message) (types.Message, error)) *MockInvoker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invokeFunc = fn
	return m
}

// --- Invoker 接口实现 ---

// Invoke 实现 agent.Invoker
func (m *MockInvoker) Invoke(ctx context.Context, def agent.Definition, conv []types.Message, timeout time.Duration) (types.Message, error) {
	m.mu.Lock()
	n := m.counts[def.ID]
	m.counts[def.ID] = n + 1
	reply := Ok(def.ID + " output")
	if script := m.scripts[def.ID]; len(script) > 0 {
		reply = script[min(n, len(script)-1)]
	}
	delay := m.delays[def.ID]
	block := m.blocking[def.ID]
	fn := m.invokeFunc

	call := MockInvocation{
		AgentID:      def.ID,
		ModelID:      def.ModelID,
		Conversation: types.CloneMessages(conv),
		Timeout:      timeout,
		Reply:        reply,
		At:           time.Now(),
	}
	call.Attempt, _ = types.Attempt(ctx)
	call.RunID, _ = types.RunID(ctx)
	m.calls = append(m.calls, call)

	m.inFlight++
	m.maxInFlight = max(m.maxInFlight, m.inFlight)
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if block {
		<-ctx.Done()
		return types.Message{}, ctx.Err()
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return types.Message{}, ctx.Err()
		}
	}
	if fn != nil {
		return fn(ctx, def, conv)
	}
	if reply.Err != nil {
		return types.Message{}, reply.Err
	}
	return types.NewAssistantMessage(def.ID, reply.Content), nil
}

// --- 调用记录查询 ---

// Calls 返回全部调用记录的副本
func (m *MockInvoker) Calls() []MockInvocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallsFor 返回指定 agent 的调用记录
func (m *MockInvoker) CallsFor(agentID string) []MockInvocation {
	var out []MockInvocation
	for _, c := range m.Calls() {
		if c.AgentID == agentID {
			out = append(out, c)
		}
	}
	return out
}

// CallCount 返回指定 agent 的调用次数
func (m *MockInvoker) CallCount(agentID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[agentID]
}

// TotalCalls 返回总调用次数
func (m *MockInvoker) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// CallOrder 返回按调用先后排列的 agent id
func (m *MockInvoker) CallOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.calls))
	for i, c := range m.calls {
		ids[i] = c.AgentID
	}
	return ids
}

// MaxInFlight 返回观察到的最大并发调用数
func (m *MockInvoker) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// Reset 清空调用记录，保留脚本
func (m *MockInvoker) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.counts = make(map[string]int)
	m.inFlight, m.maxInFlight = 0, 0
}

// String implements fmt.Stringer for test failure output.
func (m *MockInvoker) String() string {
	return fmt.Sprintf("MockInvoker(calls=%v)", m.CallOrder())
}
