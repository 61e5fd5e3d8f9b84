// Copyright (c) AgentWeave Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 AgentWeave 测试的共享工具和辅助函数。

# 概述

testutil 包为整个项目的单元测试提供统一的辅助能力，
避免各包重复实现相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 日志辅助: ObservedLogger 基于 zaptest/observer 捕获日志条目
  - 断言工具: AssertMessagesEqual / AssertContents / AssertErrorCode /
    AssertJSONEqual / AssertContains
  - 异步断言: AssertEventuallyTrue / WaitFor / WaitForChannel
  - 数据工具: MustJSON / MustParseJSON

# 子包

  - testutil/mocks: MockInvoker（agent.Invoker），支持按 agent 脚本化响应、
    错误注入、延迟与阻塞，并记录调用顺序与并发度
  - testutil/fixtures: 测试数据工厂，提供 agent / workflow 定义、
    协调者规划输出与对话样例

# 使用示例

	ctx := testutil.TestContext(t)
	inv := mocks.NewMockInvoker().WithResponse("writer", "draft")
	engine := orchestration.New(reg, inv)
	result := engine.Run(ctx, def, fixtures.Task("write"), orchestration.Options{})
*/
package testutil
