package orchestration

import (
	"errors"
	"testing"

	"github.com/BaSui01/agentweave/testutil"
	"github.com/BaSui01/agentweave/testutil/fixtures"
	"github.com/BaSui01/agentweave/testutil/mocks"
	"github.com/BaSui01/agentweave/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hierarchicalEngine(t *testing.T, coordinatorReplies ...mocks.Reply) (*Engine, *mocks.MockInvoker) {
	t.Helper()
	inv := mocks.NewMockInvoker().WithSequence("lead", coordinatorReplies...)
	e, _ := newTestEngine(t, inv, "lead", "researcher", "writer")
	return e, inv
}

func TestHierarchical_PlanDelegateSynthesize(t *testing.T) {
	e, inv := hierarchicalEngine(t,
		mocks.Ok(fixtures.PlanFor("researcher", "writer")),
		mocks.Ok("final answer"),
	)
	def := fixtures.HierarchicalWorkflow("team", "lead", "researcher", "writer")

	res := e.Run(testutil.TestContext(t), def, fixtures.Task("write about Go"), fastOptions())

	require.NoError(t, res.Err)
	assert.Equal(t, "final answer", res.Output)
	assert.Equal(t, 2, inv.CallCount("lead"))
	assert.Equal(t, 1, inv.CallCount("researcher"))
	assert.Equal(t, 1, inv.CallCount("writer"))

	plan := inv.CallsFor("lead")[0].Conversation
	require.Len(t, plan, 2)
	assert.Equal(t, "write about Go", plan[0].Content)
	assert.Contains(t, plan[1].Content, "researcher")

	worker := inv.CallsFor("researcher")[0].Conversation
	testutil.AssertContents(t, []string{"researcher task"}, worker)

	synth := inv.CallsFor("lead")[1].Conversation
	last := types.LastContent(synth)
	assert.Contains(t, last, "[researcher] researcher task\nresearcher output")
	assert.Contains(t, last, "[writer] writer task\nwriter output")

	turns := res.Transcript.Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, PhaseCoordinate, turns[0].Phase)
	assert.Equal(t, PhaseSynthesize, turns[3].Phase)
	assert.Equal(t, 3, turns[3].StepIndex)
	assert.Len(t, res.Transcript.Completed(), 4)
}

func TestHierarchical_UndeclaredWorkerInvokesNoWorker(t *testing.T) {
	e, inv := hierarchicalEngine(t, mocks.Ok(fixtures.PlanFor("researcher", "x")))
	def := fixtures.HierarchicalWorkflow("team", "lead", "researcher", "writer")

	res := e.Run(testutil.TestContext(t), def, fixtures.Task("go"), fastOptions())

	assert.Equal(t, StatusFailed, res.Status)
	var de *types.DelegationError
	require.ErrorAs(t, res.Err, &de)
	assert.Equal(t, "x", de.WorkerID)
	assert.Zero(t, inv.CallCount("researcher"))
	assert.Zero(t, inv.CallCount("writer"))
	assert.Equal(t, 1, res.Transcript.Len())
}

func TestHierarchical_UnparsablePlan(t *testing.T) {
	e, inv := hierarchicalEngine(t, mocks.Ok(fixtures.UnparsablePlan()))
	def := fixtures.HierarchicalWorkflow("team", "lead", "researcher", "writer")

	res := e.Run(testutil.TestContext(t), def, fixtures.Task("go"), fastOptions())

	testutil.AssertErrorCode(t, res.Err, types.ErrDelegation)
	assert.ErrorIs(t, res.Err, errNoPlan)
	assert.Equal(t, 1, inv.TotalCalls())
}

func TestHierarchical_FencedPlanAndSequentialDispatch(t *testing.T) {
	e, inv := hierarchicalEngine(t,
		mocks.Ok(fixtures.FencedPlan(
			fixtures.Subtask{WorkerID: "writer", SubtaskInput: "draft"},
			fixtures.Subtask{WorkerID: "researcher", SubtaskInput: "check facts"},
		)),
		mocks.Ok("done"),
	)
	def := fixtures.HierarchicalWorkflow("team", "lead", "researcher", "writer")
	opts := fastOptions()
	opts.Dispatch = DispatchSequential

	res := e.Run(testutil.TestContext(t), def, fixtures.Task("go"), opts)

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"lead", "writer", "researcher", "lead"}, inv.CallOrder())
}

func TestHierarchical_WorkerFailureFailsTheRun(t *testing.T) {
	e, inv := hierarchicalEngine(t, mocks.Ok(fixtures.PlanFor("researcher", "writer")), mocks.Ok("unused"))
	inv.WithError("writer", errors.New("writer crashed"))
	def := fixtures.HierarchicalWorkflow("team", "lead", "researcher", "writer")

	res := e.Run(testutil.TestContext(t), def, fixtures.Task("go"), fastOptions())

	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Err.Error(), "worker step 2 (writer) failed")
	assert.Equal(t, 1, inv.CallCount("lead"), "synthesis must not run")
}

func TestHierarchical_CoordinatorFailure(t *testing.T) {
	e, inv := hierarchicalEngine(t, mocks.Fail(errors.New("lead is down")))
	def := fixtures.HierarchicalWorkflow("team", "lead", "researcher", "writer")

	res := e.Run(testutil.TestContext(t), def, fixtures.Task("go"), fastOptions())

	testutil.AssertErrorCode(t, res.Err, types.ErrInvocation)
	assert.Equal(t, 1, inv.TotalCalls())
	assert.Zero(t, res.Transcript.Len())
}
