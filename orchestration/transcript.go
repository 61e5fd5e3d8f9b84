package orchestration

import (
	"encoding/json"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/BaSui01/agentweave/types"
)

// Phase 标记一次调用在模式中的角色
type Phase string

const (
	PhaseStep       Phase = "step"
	PhaseCoordinate Phase = "coordinate"
	PhaseDelegate   Phase = "delegate"
	PhaseSynthesize Phase = "synthesize"
)

// StateLastOutput is the shared-state key holding the most recent output.
const StateLastOutput = "last_output"

// Turn 一次已结算的调用
type Turn struct {
	StepIndex int
	Iteration int
	AgentID   string
	Phase     Phase
	Input     []types.Message
	Output    string
	Err       error
	Attempts  int
	StartedAt time.Time
	Duration  time.Duration
}

// Succeeded reports whether the turn produced an output.
func (t Turn) Succeeded() bool { return t.Err == nil }

type turnJSON struct {
	StepIndex  int             `json:"step_index"`
	Iteration  int             `json:"iteration,omitempty"`
	AgentID    string          `json:"agent_id"`
	Phase      Phase           `json:"phase"`
	Input      []types.Message `json:"input"`
	Output     string          `json:"output,omitempty"`
	Error      string          `json:"error,omitempty"`
	ErrorCode  types.ErrorCode `json:"error_code,omitempty"`
	Attempts   int             `json:"attempts"`
	StartedAt  time.Time       `json:"started_at"`
	DurationMs int64           `json:"duration_ms"`
}

// MarshalJSON renders the error as text.
func (t Turn) MarshalJSON() ([]byte, error) {
	out := turnJSON{
		StepIndex:  t.StepIndex,
		Iteration:  t.Iteration,
		AgentID:    t.AgentID,
		Phase:      t.Phase,
		Input:      t.Input,
		Output:     t.Output,
		Attempts:   t.Attempts,
		StartedAt:  t.StartedAt,
		DurationMs: t.Duration.Milliseconds(),
	}
	if t.Err != nil {
		out.Error = t.Err.Error()
		out.ErrorCode = types.CodeOf(t.Err)
	}
	return json.Marshal(out)
}

// Transcript 单次运行的有序记录与共享状态
// 所有追加都经过同一把锁；运行结束后封存，迟到的结果被丢弃
type Transcript struct {
	mu     sync.Mutex
	turns  []Turn
	state  map[string]string
	sealed bool
}

func newTranscript() *Transcript {
	return &Transcript{state: make(map[string]string)}
}

// record appends turn unless the transcript is sealed. A successful turn
// also publishes its output to the shared state.
func (t *Transcript) record(turn Turn) bool {
	return t.insert(-1, turn)
}

// insert places turn among the turns recorded since base, ordered by step
// index, so a fan-out batch reads in declared order whatever order its
// steps settle in. A negative base appends.
func (t *Transcript) insert(base int, turn Turn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sealed {
		return false
	}
	pos := len(t.turns)
	if base >= 0 && base < pos {
		for pos > base && t.turns[pos-1].StepIndex > turn.StepIndex {
			pos--
		}
	}
	t.turns = slices.Insert(t.turns, pos, turn)
	if turn.Err == nil {
		t.state[turn.AgentID] = turn.Output
		t.state[StateLastOutput] = turn.Output
	}
	return true
}

func (t *Transcript) merge(kv map[string]string) {
	if len(kv) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.sealed {
		maps.Copy(t.state, kv)
	}
}

func (t *Transcript) seal() {
	t.mu.Lock()
	t.sealed = true
	t.mu.Unlock()
}

// Turns returns a copy of all recorded turns. Concurrent steps appear in
// declared order.
func (t *Transcript) Turns() []Turn {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.turns)
}

// Len returns the number of recorded turns.
func (t *Transcript) Len() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.turns)
}

// Completed returns the successful turns.
func (t *Transcript) Completed() []Turn {
	var out []Turn
	for _, turn := range t.Turns() {
		if turn.Succeeded() {
			out = append(out, turn)
		}
	}
	return out
}

// Failed returns the failed turns.
func (t *Transcript) Failed() []Turn {
	var out []Turn
	for _, turn := range t.Turns() {
		if !turn.Succeeded() {
			out = append(out, turn)
		}
	}
	return out
}

// State returns a copy of the shared key/value state.
func (t *Transcript) State() map[string]string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.state)
}

// Get reads one shared state value.
func (t *Transcript) Get(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.state[key]
	return v, ok
}

// MarshalJSON implements json.Marshaler.
func (t *Transcript) MarshalJSON() ([]byte, error) {
	turns := t.Turns()
	if turns == nil {
		turns = []Turn{}
	}
	return json.Marshal(struct {
		Turns []Turn            `json:"turns"`
		State map[string]string `json:"state"`
	}{Turns: turns, State: t.State()})
}
