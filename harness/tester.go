package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BaSui01/agentweave/orchestration"
	"github.com/BaSui01/agentweave/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result 单个用例的执行结果
type Result struct {
	Name          string                  `json:"name"`
	Passed        bool                    `json:"passed"`
	Duration      time.Duration           `json:"duration"`
	ActualOutput  string                  `json:"actual_output"`
	FailureDetail string                  `json:"failure_detail,omitempty"`
	RunID         string                  `json:"run_id,omitempty"`
	Status        orchestration.RunStatus `json:"status,omitempty"`
	ErrorCode     types.ErrorCode         `json:"error_code,omitempty"`
	Timestamp     time.Time               `json:"timestamp"`
}

// Summary 一组用例的汇总
type Summary struct {
	Target   string        `json:"target"`
	Total    int           `json:"total"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	PassRate float64       `json:"pass_rate"`
	Elapsed  time.Duration `json:"elapsed"`
	Results  []Result      `json:"results"`
}

// WriteJSON writes s as indented JSON.
func (s *Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// ExportFile writes s as JSON to path.
func (s *Summary) ExportFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	if err := s.WriteJSON(f); err != nil {
		f.Close()
		return fmt.Errorf("write results: %w", err)
	}
	return f.Close()
}

// TesterConfig 测试执行参数
type TesterConfig struct {
	// 同时执行的用例数；1 表示逐个执行
	Concurrency int `json:"concurrency"`
	// 用例未设置 Timeout 时的整体超时，0 表示不限
	DefaultTimeout time.Duration `json:"default_timeout"`
}

// DefaultTesterConfig returns sensible defaults.
func DefaultTesterConfig() TesterConfig {
	return TesterConfig{
		Concurrency:    1,
		DefaultTimeout: 5 * time.Minute,
	}
}

// AgentTester 驱动 Target 执行测试用例并报告结果
type AgentTester struct {
	config TesterConfig
	logger *zap.Logger
}

// NewAgentTester creates a tester.
func NewAgentTester(config TesterConfig, logger *zap.Logger) *AgentTester {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &AgentTester{
		config: config,
		logger: logger.With(zap.String("component", "harness")),
	}
}

// Run executes one case against target and evaluates every predicate.
// It never panics; a panicking target is reported as a failed case.
func (t *AgentTester) Run(ctx context.Context, tc TestCase, target Target) (result Result) {
	start := time.Now()
	result = Result{Name: tc.Name, Timestamp: start}

	defer func() {
		if p := recover(); p != nil {
			result.Passed = false
			result.FailureDetail = fmt.Sprintf("panic: %v", p)
			result.Duration = time.Since(start)
			t.logger.Error("test case panicked", zap.String("case", tc.Name), zap.Any("panic", p))
		}
	}()

	timeout := tc.Timeout
	if timeout <= 0 {
		timeout = t.config.DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	run := target.Run(ctx, tc.Input)
	result.Duration = time.Since(start)
	if run == nil {
		result.FailureDetail = "target returned no result"
		return result
	}
	result.RunID = run.RunID
	result.Status = run.Status
	result.ActualOutput = run.Output

	if !run.Succeeded() {
		result.ErrorCode = types.CodeOf(run.Err)
		if run.Status == orchestration.StatusCancelled {
			result.ErrorCode = types.ErrRunCancelled
		}
		result.FailureDetail = fmt.Sprintf("run %s: %v", run.Status, run.Err)
		return result
	}

	failed := unmet(tc.Expect, run.Output)
	result.Passed = len(failed) == 0
	if !result.Passed {
		result.FailureDetail = "unmet predicates: " + strings.Join(failed, "; ")
	}
	return result
}

// unmet returns the descriptions of the predicates output does not satisfy.
// With no predicates a non-empty output passes.
func unmet(expect []Predicate, output string) []string {
	if len(expect) == 0 {
		expect = []Predicate{NotEmpty()}
	}
	var failed []string
	for _, p := range expect {
		if !p.Eval(output) {
			failed = append(failed, p.Description)
		}
	}
	return failed
}

// RunAll 独立执行所有用例；一个用例失败或 panic 不影响其他用例
func (t *AgentTester) RunAll(ctx context.Context, cases []TestCase, target Target) *Summary {
	start := time.Now()
	summary := &Summary{
		Target:  target.Name(),
		Total:   len(cases),
		Results: make([]Result, len(cases)),
	}
	t.logger.Info("running test cases", zap.Int("cases", len(cases)), zap.String("target", target.Name()))

	var g errgroup.Group
	g.SetLimit(t.config.Concurrency)
	for i, tc := range cases {
		g.Go(func() error {
			res := t.Run(ctx, tc, target)
			summary.Results[i] = res
			t.logger.Info("test case finished",
				zap.String("case", tc.Name),
				zap.Bool("passed", res.Passed),
				zap.Duration("duration", res.Duration),
			)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range summary.Results {
		if r.Passed {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	if summary.Total > 0 {
		summary.PassRate = float64(summary.Passed) / float64(summary.Total)
	}
	summary.Elapsed = time.Since(start)
	return summary
}
