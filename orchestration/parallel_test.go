package orchestration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BaSui01/agentweave/registry"
	"github.com/BaSui01/agentweave/testutil"
	"github.com/BaSui01/agentweave/testutil/fixtures"
	"github.com/BaSui01/agentweave/testutil/mocks"
	"github.com/BaSui01/agentweave/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallel_AggregatesInDeclaredOrder(t *testing.T) {
	inv := mocks.NewMockInvoker().
		WithDelay("A", 40*time.Millisecond).
		WithDelay("B", 10*time.Millisecond)
	e, _ := newTestEngine(t, inv, "A", "B", "C")

	res := e.Run(testutil.TestContext(t), fixtures.ParallelWorkflow("fan", "A", "B", "C"), fixtures.Task("same"), fastOptions())

	require.NoError(t, res.Err)
	assert.Equal(t, "A output\nB output\nC output", res.Output)
	assert.Equal(t, 3, res.Transcript.Len())
	assert.Equal(t, []string{"A", "B", "C"}, turnAgents(res.Transcript.Turns()))
	for _, c := range inv.Calls() {
		testutil.AssertContents(t, []string{"same"}, c.Conversation)
	}
}

func TestParallel_QuorumNotMet(t *testing.T) {
	inv := mocks.NewMockInvoker().
		WithError("B", errors.New("b down")).
		WithError("C", errors.New("c down"))
	e, _ := newTestEngine(t, inv, "A", "B", "C")

	res := e.Run(testutil.TestContext(t), fixtures.ParallelWorkflow("fan", "A", "B", "C"), fixtures.Task("go"), fastOptions())

	assert.Equal(t, StatusFailed, res.Status)
	var agg *types.AggregationError
	require.ErrorAs(t, res.Err, &agg)
	assert.Equal(t, []string{"B", "C"}, agg.FailedAgentIDs())
	assert.Equal(t, 1, agg.Succeeded)
	assert.Equal(t, 2, agg.Required)
	assert.Len(t, res.Transcript.Failed(), 2)
	assert.Len(t, res.Transcript.Completed(), 1)
}

func TestParallel_QuorumMetWithPartialFailure(t *testing.T) {
	inv := mocks.NewMockInvoker().WithError("B", errors.New("b down"))
	e, _ := newTestEngine(t, inv, "A", "B", "C")

	res := e.Run(testutil.TestContext(t), fixtures.ParallelWorkflow("fan", "A", "B", "C"), fixtures.Task("go"), fastOptions())

	require.NoError(t, res.Err)
	assert.Equal(t, "A output\nC output", res.Output)
	assert.Len(t, res.Transcript.Failed(), 1)
}

func TestParallel_QuorumAllRejectsAnyFailure(t *testing.T) {
	inv := mocks.NewMockInvoker().WithError("C", errors.New("c down"))
	e, _ := newTestEngine(t, inv, "A", "B", "C")
	opts := fastOptions()
	opts.Quorum = All

	res := e.Run(testutil.TestContext(t), fixtures.ParallelWorkflow("fan", "A", "B", "C"), fixtures.Task("go"), opts)

	testutil.AssertErrorCode(t, res.Err, types.ErrAggregation)
}

func TestParallel_FailFastAbortsSiblings(t *testing.T) {
	inv := mocks.NewMockInvoker().
		WithError("A", errors.New("a down")).
		WithBlock("B")
	e, _ := newTestEngine(t, inv, "A", "B")
	opts := fastOptions()
	failFast := true
	opts.FailFast = &failFast

	start := time.Now()
	res := e.Run(testutil.TestContext(t), fixtures.ParallelWorkflow("fan", "A", "B"), fixtures.Task("go"), opts)

	assert.Less(t, time.Since(start), opts.StepTimeout)
	var agg *types.AggregationError
	require.ErrorAs(t, res.Err, &agg)
	assert.Equal(t, []string{"A", "B"}, agg.FailedAgentIDs())
	assert.ErrorIs(t, agg.Failures[1].Err, errAborted)
	assert.Equal(t, 1, res.Transcript.Len(), "aborted steps are not recorded")
}

func TestParallel_ConcurrencyLimit(t *testing.T) {
	ids := []string{"a1", "a2", "a3", "a4", "a5", "a6"}
	inv := mocks.NewMockInvoker()
	for _, id := range ids {
		inv.WithDelay(id, 15*time.Millisecond)
	}
	e, _ := newTestEngine(t, inv, ids...)
	opts := fastOptions()
	opts.Concurrency = 2

	res := e.Run(testutil.TestContext(t), fixtures.ParallelWorkflow("fan", ids...), fixtures.Task("go"), opts)

	require.NoError(t, res.Err)
	assert.LessOrEqual(t, inv.MaxInFlight(), 2)
	assert.Len(t, strings.Split(res.Output, "\n"), len(ids))
}

func TestParallel_CustomAggregator(t *testing.T) {
	e, _ := newTestEngine(t, mocks.NewMockInvoker(), "A", "B")
	opts := fastOptions()
	opts.Aggregator = LabeledAggregator{}

	res := e.Run(testutil.TestContext(t), fixtures.ParallelWorkflow("fan", "A", "B"), fixtures.Task("go"), opts)

	require.NoError(t, res.Err)
	assert.Contains(t, res.Output, "[A]")
	assert.Contains(t, res.Output, "B output")
}

func TestParallel_AggregatorErrorFailsTheRun(t *testing.T) {
	e, _ := newTestEngine(t, mocks.NewMockInvoker(), "A")
	opts := fastOptions()
	opts.Aggregator = AggregatorFunc(func(context.Context, []StepResult) (string, error) {
		return "", errors.New("cannot merge")
	})

	res := e.Run(testutil.TestContext(t), fixtures.ParallelWorkflow("fan", "A"), fixtures.Task("go"), opts)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Err.Error(), "cannot merge")
}

func TestParallel_CancellationDiscardsLateResults(t *testing.T) {
	inv := mocks.NewMockInvoker().WithBlock("B")
	obs := &recordingObserver{}
	reg := registry.New(nil)
	for _, a := range fixtures.Agents("A", "B") {
		require.NoError(t, reg.RegisterAgent(a))
	}
	e := New(reg, inv, WithObserver(obs))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan *RunResult, 1)
	go func() {
		done <- e.Run(ctx, fixtures.ParallelWorkflow("fan", "A", "B"), fixtures.Task("go"), fastOptions())
	}()
	require.True(t, testutil.WaitFor(func() bool {
		return inv.CallCount("B") == 1 && obs.turnCount() == 1
	}, 2*time.Second))
	cancel()

	res, ok := testutil.WaitForChannel(done, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, StatusCancelled, res.Status)
	assert.Equal(t, 1, res.Transcript.Len())
	for _, turn := range res.Transcript.Turns() {
		assert.NotEqual(t, "B", turn.AgentID)
	}
}

func TestParallel_TranscriptFollowsDeclaredOrder(t *testing.T) {
	inv := mocks.NewMockInvoker().
		WithDelay("A", 60*time.Millisecond).
		WithDelay("B", 30*time.Millisecond).
		WithError("C", errors.New("c down"))
	e, _ := newTestEngine(t, inv, "A", "B", "C", "D")

	res := e.Run(testutil.TestContext(t), fixtures.ParallelWorkflow("fan", "A", "B", "C", "D"), fixtures.Task("go"), fastOptions())

	require.NoError(t, res.Err)
	turns := res.Transcript.Turns()
	assert.Equal(t, []string{"A", "B", "C", "D"}, turnAgents(turns))
	for i, turn := range turns {
		assert.Equal(t, i, turn.StepIndex)
	}
}

func turnAgents(turns []Turn) []string {
	ids := make([]string, len(turns))
	for i, turn := range turns {
		ids[i] = turn.AgentID
	}
	return ids
}

func TestParallel_FailFastFromEngineDefaults(t *testing.T) {
	inv := mocks.NewMockInvoker().
		WithError("A", errors.New("a down")).
		WithBlock("B")
	reg := registry.New(nil)
	for _, a := range fixtures.Agents("A", "B") {
		require.NoError(t, reg.RegisterAgent(a))
	}
	on, off := true, false
	defaults := fastOptions()
	defaults.FailFast = &on
	e := New(reg, inv, WithDefaultOptions(defaults))
	require.True(t, e.Defaults().FailFastEnabled())

	res := e.Run(testutil.TestContext(t), fixtures.ParallelWorkflow("fan", "A", "B"), fixtures.Task("go"), Options{})

	var agg *types.AggregationError
	require.ErrorAs(t, res.Err, &agg)
	assert.ErrorIs(t, agg.Failures[1].Err, errAborted)

	// an explicit per-run false overrides the engine default
	assert.False(t, Options{FailFast: &off}.withDefaults(e.Defaults()).FailFastEnabled())
}
