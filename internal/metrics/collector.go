// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/BaSui01/agentweave/orchestration"
	"github.com/BaSui01/agentweave/types"
	"github.com/BaSui01/agentweave/workflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var _ orchestration.Observer = (*Collector)(nil)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器，同时作为编排引擎的 Observer 使用
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 运行指标
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	runsInFlight *prometheus.GaugeVec
	runErrors    *prometheus.CounterVec

	// 步骤指标
	stepsTotal   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	stepRetries  *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器。reg 为 nil 时注册到 prometheus.DefaultRegisterer。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 运行指标
	c.runsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_runs_total",
			Help:      "Total number of finished workflow runs",
		},
		[]string{"workflow", "pattern", "status"},
	)

	c.runDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_run_duration_seconds",
			Help:      "Workflow run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"pattern"},
	)

	c.runsInFlight = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workflow_runs_in_flight",
			Help:      "Number of workflow runs currently executing",
		},
		[]string{"pattern"},
	)

	c.runErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_run_errors_total",
			Help:      "Failed workflow runs by error code",
		},
		[]string{"code"},
	)

	// 步骤指标
	c.stepsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_steps_total",
			Help:      "Total number of settled agent invocations",
		},
		[]string{"agent", "phase", "status"},
	)

	c.stepDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_step_duration_seconds",
			Help:      "Agent invocation duration in seconds, retries included",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"agent"},
	)

	c.stepRetries = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_step_retries_total",
			Help:      "Number of retried agent invocation attempts",
		},
		[]string{"agent"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// =============================================================================
// 🎭 Observer 实现
// =============================================================================

// RunStarted implements orchestration.Observer.
func (c *Collector) RunStarted(_, _ string, kind workflow.PatternKind) {
	c.runsInFlight.WithLabelValues(string(kind)).Inc()
}

// StepFinished implements orchestration.Observer.
func (c *Collector) StepFinished(_, _ string, turn orchestration.Turn) {
	status := "succeeded"
	if !turn.Succeeded() {
		status = "failed"
	}
	c.stepsTotal.WithLabelValues(turn.AgentID, string(turn.Phase), status).Inc()
	c.stepDuration.WithLabelValues(turn.AgentID).Observe(turn.Duration.Seconds())
	if turn.Attempts > 1 {
		c.stepRetries.WithLabelValues(turn.AgentID).Add(float64(turn.Attempts - 1))
	}
}

// RunFinished implements orchestration.Observer.
func (c *Collector) RunFinished(result *orchestration.RunResult) {
	pattern := string(result.Pattern)
	c.runsInFlight.WithLabelValues(pattern).Dec()
	c.runsTotal.WithLabelValues(result.WorkflowID, pattern, string(result.Status)).Inc()
	c.runDuration.WithLabelValues(pattern).Observe(result.Duration.Seconds())

	if result.Err != nil {
		code := types.CodeOf(result.Err)
		switch {
		case result.Status == orchestration.StatusCancelled:
			code = types.ErrRunCancelled
		case code == "":
			code = types.ErrInternalError
		}
		c.runErrors.WithLabelValues(string(code)).Inc()
	}
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
