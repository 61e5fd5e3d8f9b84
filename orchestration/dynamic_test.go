package orchestration

import (
	"context"
	"testing"

	"github.com/BaSui01/agentweave/testutil"
	"github.com/BaSui01/agentweave/testutil/fixtures"
	"github.com/BaSui01/agentweave/testutil/mocks"
	"github.com/BaSui01/agentweave/types"
	"github.com/BaSui01/agentweave/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamic_BudgetExhausted(t *testing.T) {
	inv := mocks.NewMockInvoker()
	e, _ := newTestEngine(t, inv, "A", "B")

	res := e.Run(testutil.TestContext(t), fixtures.DynamicWorkflow("loop", "A", 5, "B"), fixtures.Task("go"), fastOptions())

	assert.Equal(t, StatusFailed, res.Status)
	var be *types.BudgetExceededError
	require.ErrorAs(t, res.Err, &be)
	assert.Equal(t, 5, be.MaxSteps)
	assert.Equal(t, 5, be.Steps)
	assert.Equal(t, []string{"A", "B", "A", "B", "A"}, inv.CallOrder())
	assert.Equal(t, 5, res.Transcript.Len())
	testutil.AssertErrorCode(t, res.Err, types.ErrBudgetExceeded)
}

func TestDynamic_TerminatesOnMarker(t *testing.T) {
	inv := mocks.NewMockInvoker().WithResponse("B", fixtures.DoneAfter("reviewed", workflow.DefaultTerminationMarker))
	e, _ := newTestEngine(t, inv, "A", "B")

	res := e.Run(testutil.TestContext(t), fixtures.DynamicWorkflow("loop", "A", 10, "B"), fixtures.Task("go"), fastOptions())

	require.NoError(t, res.Err)
	assert.Equal(t, "reviewed DONE", res.Output)
	assert.Equal(t, 2, inv.TotalCalls())

	turns := res.Transcript.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, 1, turns[0].Iteration)
	assert.Equal(t, 2, turns[1].Iteration)
}

func TestDynamic_CustomMarker(t *testing.T) {
	inv := mocks.NewMockInvoker().WithResponse("A", "APPROVED")
	e, _ := newTestEngine(t, inv, "A")
	def := workflow.NewBuilder("loop").
		Dynamic("A", 3).
		WithTerminationCondition("APPROVED").
		MustBuild()

	res := e.Run(testutil.TestContext(t), def, fixtures.Task("go"), fastOptions())

	require.NoError(t, res.Err)
	assert.Equal(t, 1, inv.TotalCalls())
}

func TestDynamic_SelectorTerminates(t *testing.T) {
	inv := mocks.NewMockInvoker()
	e, _ := newTestEngine(t, inv, "A", "B")
	opts := fastOptions()
	opts.Selector = SelectorFunc(func(_ context.Context, in DecisionInput) (Decision, error) {
		if in.Iteration == 2 {
			return Terminate("enough").WithState(map[string]string{"verdict": "ok"}), nil
		}
		assert.Equal(t, "A", in.LastAgentID)
		assert.Equal(t, []string{"A", "B"}, in.Candidates)
		return Continue("B"), nil
	})

	res := e.Run(testutil.TestContext(t), fixtures.DynamicWorkflow("loop", "A", 10, "B"), fixtures.Task("go"), opts)

	require.NoError(t, res.Err)
	assert.Equal(t, "B output", res.Output)
	assert.Equal(t, []string{"A", "B"}, inv.CallOrder())
	v, ok := res.Transcript.Get("verdict")
	assert.True(t, ok)
	assert.Equal(t, "ok", v)
}

func TestDynamic_SelectorMayPickUnlistedAgent(t *testing.T) {
	inv := mocks.NewMockInvoker().WithResponse("judge", "DONE")
	e, _ := newTestEngine(t, inv, "A", "judge")
	opts := fastOptions()
	opts.Selector = SelectorFunc(func(context.Context, DecisionInput) (Decision, error) {
		return Continue("judge"), nil
	})

	res := e.Run(testutil.TestContext(t), fixtures.DynamicWorkflow("loop", "A", 4), fixtures.Task("go"), opts)

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"A", "judge"}, inv.CallOrder())
}

func TestDynamic_SelectorUnknownAgent(t *testing.T) {
	inv := mocks.NewMockInvoker()
	e, _ := newTestEngine(t, inv, "A")
	opts := fastOptions()
	opts.Selector = SelectorFunc(func(context.Context, DecisionInput) (Decision, error) {
		return Continue("ghost"), nil
	})

	res := e.Run(testutil.TestContext(t), fixtures.DynamicWorkflow("loop", "A", 4), fixtures.Task("go"), opts)

	testutil.AssertErrorCode(t, res.Err, types.ErrNotFound)
	assert.Equal(t, 1, inv.TotalCalls())
}

func TestDynamic_SwitchPattern(t *testing.T) {
	inv := mocks.NewMockInvoker()
	e, _ := newTestEngine(t, inv, "A", "B", "C")
	opts := fastOptions()
	opts.Selector = SelectorFunc(func(_ context.Context, in DecisionInput) (Decision, error) {
		if in.Iteration == 1 {
			return SwitchTo(workflow.Parallel{}, "B", "C").WithState(map[string]string{"phase": "review"}), nil
		}
		return Terminate("switched"), nil
	})

	res := e.Run(testutil.TestContext(t), fixtures.DynamicWorkflow("loop", "A", 5), fixtures.Task("go"), opts)

	require.NoError(t, res.Err)
	assert.Equal(t, "B output\nC output", res.Output)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, inv.CallOrder())

	// 子运行的输入包含之前的全部对话
	for _, c := range inv.CallsFor("B") {
		testutil.AssertContents(t, []string{"go", "A output"}, c.Conversation)
	}

	turns := res.Transcript.Turns()
	require.Len(t, turns, 3)
	for _, turn := range turns[1:] {
		assert.Equal(t, 2, turn.Iteration)
	}
	v, _ := res.Transcript.Get("phase")
	assert.Equal(t, "review", v)
}

func TestDynamic_SwitchToDynamicIsRejected(t *testing.T) {
	inv := mocks.NewMockInvoker()
	e, _ := newTestEngine(t, inv, "A")
	opts := fastOptions()
	opts.Selector = SelectorFunc(func(context.Context, DecisionInput) (Decision, error) {
		return SwitchTo(workflow.Dynamic{InitialAgentID: "A", MaxSteps: 2}), nil
	})

	res := e.Run(testutil.TestContext(t), fixtures.DynamicWorkflow("loop", "A", 5), fixtures.Task("go"), opts)

	testutil.AssertErrorCode(t, res.Err, types.ErrValidation)
	assert.Equal(t, 1, inv.TotalCalls())
}

func TestDynamic_SwitchCountsAgainstBudget(t *testing.T) {
	inv := mocks.NewMockInvoker()
	e, _ := newTestEngine(t, inv, "A", "B")
	opts := fastOptions()
	opts.Selector = SelectorFunc(func(context.Context, DecisionInput) (Decision, error) {
		return SwitchTo(workflow.Sequential{}, "B"), nil
	})

	res := e.Run(testutil.TestContext(t), fixtures.DynamicWorkflow("loop", "A", 3), fixtures.Task("go"), opts)

	var be *types.BudgetExceededError
	require.ErrorAs(t, res.Err, &be)
	assert.Equal(t, 3, be.Steps)
	assert.Equal(t, []string{"A", "B", "B"}, inv.CallOrder())
}
