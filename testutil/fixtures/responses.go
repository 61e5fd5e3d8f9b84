// =============================================================================
// 📦 测试数据工厂 - 协调者输出
// =============================================================================
// 提供层次化模式下协调者的典型规划输出
// =============================================================================
package fixtures

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Subtask 规划中的一项
type Subtask struct {
	WorkerID     string `json:"worker_id"`
	SubtaskInput string `json:"subtask_input"`
}

// PlanJSON 返回纯 JSON 数组形式的规划
func PlanJSON(subtasks ...Subtask) string {
	data, err := json.Marshal(subtasks)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// FencedPlan 返回包裹在 ```json 代码块中并带前后说明的规划
func FencedPlan(subtasks ...Subtask) string {
	return fmt.Sprintf("Here is the plan:\n```json\n%s\n```\nLet me know.", PlanJSON(subtasks...))
}

// PlanFor 为每个 worker 生成 "<worker> task" 子任务
func PlanFor(workers ...string) string {
	subtasks := make([]Subtask, len(workers))
	for i, w := range workers {
		subtasks[i] = Subtask{WorkerID: w, SubtaskInput: w + " task"}
	}
	return PlanJSON(subtasks...)
}

// UnparsablePlan 返回无法解析的协调者输出
func UnparsablePlan() string {
	return "I think the researcher should look into it, then the writer drafts."
}

// DoneAfter 返回带终止标记的输出
func DoneAfter(content, marker string) string {
	return strings.TrimSpace(content + " " + marker)
}
