// Copyright (c) AgentWeave Authors.
// Licensed under the MIT License.

/*
Package harness 用声明式用例驱动编排引擎或单个 agent，并报告通过情况与耗时。

# 核心类型

  - TestCase / Predicate — 输入消息与对输出字符串的纯函数断言
  - Target               — AgentTarget（单 agent，经由一步顺序工作流）或 WorkflowTarget
  - AgentTester          — Run 执行单个用例，RunAll 独立执行全部用例并汇总
  - Summary              — total / passed / failed / elapsed，可导出 JSON
  - WorkflowValidator    — 运行前的静态检查，返回违反项列表而不是错误

# 使用示例

	tester := harness.NewAgentTester(harness.DefaultTesterConfig(), logger)
	target := harness.WorkflowTarget{Engine: engine, WorkflowID: "blog"}
	summary := tester.RunAll(ctx, harness.SampleCases(), target)
	_ = summary.WriteJSON(os.Stdout)
*/
package harness
