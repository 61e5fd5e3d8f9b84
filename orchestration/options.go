package orchestration

import (
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/agentweave/internal/retry"
)

// RunStatus 运行状态
// Pending → Running → {Succeeded | Failed | Cancelled}
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
	StatusCancelled RunStatus = "cancelled"
)

// Terminal reports whether s is a final state.
func (s RunStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// DispatchMode selects how hierarchical workers are dispatched.
type DispatchMode string

const (
	DispatchParallel   DispatchMode = "parallel"
	DispatchSequential DispatchMode = "sequential"
)

// ParseDispatch parses a dispatch mode case-insensitively. An empty string
// means parallel.
func ParseDispatch(s string) (DispatchMode, error) {
	switch d := DispatchMode(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DispatchParallel, nil
	case DispatchParallel, DispatchSequential:
		return d, nil
	default:
		return "", fmt.Errorf("dispatch must be %q or %q, got %q", DispatchParallel, DispatchSequential, s)
	}
}

// Backoff 重试退避参数
type Backoff struct {
	Initial    time.Duration `yaml:"initial" json:"initial"`
	Max        time.Duration `yaml:"max" json:"max"`
	Multiplier float64       `yaml:"multiplier" json:"multiplier"`
	Jitter     bool          `yaml:"jitter" json:"jitter"`
}

// TerminationPredicate decides whether the most recent output of a dynamic
// run is an explicit "done" signal.
type TerminationPredicate func(output string) bool

// Options 单次运行的参数；零值字段使用 DefaultOptions 中的值
type Options struct {
	// 单次调用超时
	StepTimeout time.Duration

	// 每一步的总尝试次数（含第一次）
	MaxAttempts int

	// 重试退避
	Backoff Backoff

	// 并发扇出上限，0 表示不限
	Concurrency int

	// 并行模式下第一个失败立即取消其余调用；nil 表示沿用默认值
	FailFast *bool

	// 并行结果聚合策略，默认按声明顺序以换行拼接
	Aggregator Aggregator

	// 并行模式法定成功数，默认多数
	Quorum QuorumPolicy

	// 层次化模式 worker 派发方式，默认并行
	Dispatch DispatchMode

	// 动态模式终止判定，默认检查 termination_condition 标记
	Termination TerminationPredicate

	// 动态模式决策函数，默认轮转
	Selector Selector

	// 层次化模式计划解析器，默认 JSONPlanner
	Planner Planner
}

// DefaultOptions 返回默认运行参数
func DefaultOptions() Options {
	return Options{
		StepTimeout: 60 * time.Second,
		MaxAttempts: 3,
		Backoff: Backoff{
			Initial:    200 * time.Millisecond,
			Max:        5 * time.Second,
			Multiplier: 2.0,
			Jitter:     true,
		},
		Aggregator: ConcatAggregator{Separator: "\n"},
		Quorum:     Majority,
		Dispatch:   DispatchParallel,
		Planner:    JSONPlanner{},
	}
}

// withDefaults fills every zero field of o from base.
func (o Options) withDefaults(base Options) Options {
	if o.StepTimeout <= 0 {
		o.StepTimeout = base.StepTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = base.MaxAttempts
	}
	if o.Backoff == (Backoff{}) {
		o.Backoff = base.Backoff
	}
	if o.Backoff.Initial <= 0 {
		o.Backoff.Initial = base.Backoff.Initial
	}
	if o.Backoff.Max <= 0 {
		o.Backoff.Max = base.Backoff.Max
	}
	if o.Backoff.Multiplier < 1 {
		o.Backoff.Multiplier = base.Backoff.Multiplier
	}
	if o.Concurrency <= 0 {
		o.Concurrency = base.Concurrency
	}
	if o.FailFast == nil {
		o.FailFast = base.FailFast
	}
	if o.Aggregator == nil {
		o.Aggregator = base.Aggregator
	}
	if o.Quorum == nil {
		o.Quorum = base.Quorum
	}
	if o.Dispatch == "" {
		o.Dispatch = base.Dispatch
	}
	if o.Termination == nil {
		o.Termination = base.Termination
	}
	if o.Selector == nil {
		o.Selector = base.Selector
	}
	if o.Planner == nil {
		o.Planner = base.Planner
	}
	return o
}

// FailFastEnabled reports whether the first parallel failure cancels the
// remaining steps.
func (o Options) FailFastEnabled() bool {
	return o.FailFast != nil && *o.FailFast
}

func (o Options) retryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:  o.MaxAttempts,
		InitialDelay: o.Backoff.Initial,
		MaxDelay:     o.Backoff.Max,
		Multiplier:   o.Backoff.Multiplier,
		Jitter:       o.Backoff.Jitter,
	}
}
