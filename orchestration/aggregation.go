package orchestration

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StepResult 并行步骤的结算结果，按声明顺序排列
type StepResult struct {
	StepIndex int
	AgentID   string
	Output    string
	Err       error
}

// Aggregator 聚合器接口
// 将并行步骤的结果聚合为最终输出；只在达到法定成功数之后调用
type Aggregator interface {
	Aggregate(ctx context.Context, results []StepResult) (string, error)
}

// AggregatorFunc 聚合器函数类型
type AggregatorFunc func(ctx context.Context, results []StepResult) (string, error)

// Aggregate calls f.
func (f AggregatorFunc) Aggregate(ctx context.Context, results []StepResult) (string, error) {
	return f(ctx, results)
}

// ConcatAggregator joins successful outputs in declared order.
type ConcatAggregator struct {
	Separator string
}

// Aggregate implements Aggregator.
func (a ConcatAggregator) Aggregate(_ context.Context, results []StepResult) (string, error) {
	outputs := make([]string, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			outputs = append(outputs, r.Output)
		}
	}
	return strings.Join(outputs, a.Separator), nil
}

// LabeledAggregator prefixes each successful output with its agent id.
type LabeledAggregator struct{}

// Aggregate implements Aggregator.
func (LabeledAggregator) Aggregate(_ context.Context, results []StepResult) (string, error) {
	var sb strings.Builder
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("[")
		sb.WriteString(r.AgentID)
		sb.WriteString("]\n")
		sb.WriteString(r.Output)
	}
	return sb.String(), nil
}

// QuorumPolicy 返回 total 个步骤中至少需要成功的数量
type QuorumPolicy func(total int) int

// Majority requires more than half of the steps to succeed.
func Majority(total int) int { return total/2 + 1 }

// All requires every step to succeed.
func All(total int) int { return total }

// AtLeast requires n successes, capped at the number of steps.
func AtLeast(n int) QuorumPolicy {
	return func(total int) int { return min(n, total) }
}

// Fraction requires ceil(f * total) successes.
func Fraction(f float64) QuorumPolicy {
	return func(total int) int { return int(math.Ceil(f * float64(total))) }
}

// 法定成功数的文本取值
const (
	QuorumMajority = "majority"
	QuorumAll      = "all"
)

// ParseQuorum parses "majority", "all" or a positive integer. An empty string
// means majority.
func ParseQuorum(s string) (QuorumPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", QuorumMajority:
		return Majority, nil
	case QuorumAll:
		return All, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("quorum must be %q, %q or a positive integer, got %q", QuorumMajority, QuorumAll, s)
	}
	return AtLeast(n), nil
}

// required clamps the policy result to [1, total].
func required(q QuorumPolicy, total int) int {
	n := q(total)
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}
	return n
}
