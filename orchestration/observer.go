package orchestration

import "github.com/BaSui01/agentweave/workflow"

// Observer 运行生命周期回调；实现必须并发安全
type Observer interface {
	RunStarted(runID, workflowID string, kind workflow.PatternKind)
	StepFinished(runID, workflowID string, turn Turn)
	RunFinished(result *RunResult)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) RunStarted(string, string, workflow.PatternKind) {}
func (NopObserver) StepFinished(string, string, Turn)               {}
func (NopObserver) RunFinished(*RunResult)                          {}

type multiObserver []Observer

func (m multiObserver) RunStarted(runID, workflowID string, kind workflow.PatternKind) {
	for _, o := range m {
		o.RunStarted(runID, workflowID, kind)
	}
}

func (m multiObserver) StepFinished(runID, workflowID string, turn Turn) {
	for _, o := range m {
		o.StepFinished(runID, workflowID, turn)
	}
}

func (m multiObserver) RunFinished(result *RunResult) {
	for _, o := range m {
		o.RunFinished(result)
	}
}
