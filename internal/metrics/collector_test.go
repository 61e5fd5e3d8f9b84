package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BaSui01/agentweave/orchestration"
	"github.com/BaSui01/agentweave/registry"
	"github.com/BaSui01/agentweave/testutil/fixtures"
	"github.com/BaSui01/agentweave/testutil/mocks"
	"github.com/BaSui01/agentweave/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewCollector("agentweave", reg, nil), reg
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestCollector_RecordHTTPRequest(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RecordHTTPRequest("POST", "/v1/workflows/{id}/run", 200, 100*time.Millisecond)
	c.RecordHTTPRequest("POST", "/v1/workflows/{id}/run", 201, 50*time.Millisecond)
	c.RecordHTTPRequest("POST", "/v1/workflows/{id}/run", 503, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("POST", "/v1/workflows/{id}/run", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("POST", "/v1/workflows/{id}/run", "5xx")))
}

func TestCollector_ObserverLifecycle(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RunStarted("r1", "wf", "parallel")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsInFlight.WithLabelValues("parallel")))

	c.StepFinished("r1", "wf", orchestration.Turn{AgentID: "a", Phase: orchestration.PhaseStep, Attempts: 3, Duration: time.Second})
	c.StepFinished("r1", "wf", orchestration.Turn{AgentID: "b", Phase: orchestration.PhaseStep, Attempts: 1, Err: errors.New("boom")})

	c.RunFinished(&orchestration.RunResult{
		WorkflowID: "wf",
		Pattern:    "parallel",
		Status:     orchestration.StatusFailed,
		Err:        &types.AggregationError{Succeeded: 1, Required: 2},
		Duration:   2 * time.Second,
	})

	assert.Equal(t, 0.0, testutil.ToFloat64(c.runsInFlight.WithLabelValues("parallel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.stepsTotal.WithLabelValues("a", "step", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.stepsTotal.WithLabelValues("b", "step", "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.stepRetries.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("wf", "parallel", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runErrors.WithLabelValues("AGGREGATION_ERROR")))
}

func TestCollector_CancelledAndUncodedErrors(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RunFinished(&orchestration.RunResult{Pattern: "sequential", Status: orchestration.StatusCancelled, Err: errors.New("context canceled")})
	c.RunFinished(&orchestration.RunResult{Pattern: "sequential", Status: orchestration.StatusFailed, Err: errors.New("disk on fire")})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.runErrors.WithLabelValues("RUN_CANCELLED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runErrors.WithLabelValues("INTERNAL_ERROR")))
}

func TestCollector_WiredIntoEngine(t *testing.T) {
	c, reg := newTestCollector(t)

	inv := mocks.NewMockInvoker().
		WithSequence("B", mocks.Fail(types.NewInvocationError("B", types.CauseProviderError, errors.New("flaky"))), mocks.Ok("b"))
	store := registry.New(nil)
	for _, a := range fixtures.Agents("A", "B") {
		require.NoError(t, store.RegisterAgent(a))
	}
	engine := orchestration.New(store, inv, orchestration.WithObserver(c))

	res := engine.Run(t.Context(), fixtures.SequentialWorkflow("chain", "A", "B"), fixtures.Task("go"), orchestration.Options{
		StepTimeout: time.Second,
		MaxAttempts: 2,
		Backoff:     orchestration.Backoff{Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 1},
	})
	require.NoError(t, res.Err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("chain", "sequential", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.stepRetries.WithLabelValues("B")))

	expected := `
# HELP agentweave_agent_steps_total Total number of settled agent invocations
# TYPE agentweave_agent_steps_total counter
agentweave_agent_steps_total{agent="A",phase="step",status="succeeded"} 1
agentweave_agent_steps_total{agent="B",phase="step",status="succeeded"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "agentweave_agent_steps_total"))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, "2xx", statusCode(204))
	assert.Equal(t, "3xx", statusCode(301))
	assert.Equal(t, "4xx", statusCode(404))
	assert.Equal(t, "5xx", statusCode(500))
	assert.Equal(t, "unknown", statusCode(100))
}
