// Copyright (c) AgentWeave Authors.
// Licensed under the MIT License.

/*
Package orchestration 实现 AgentWeave 的多 agent 编排引擎。

# 概述

Engine 接收一个 workflow 定义与输入对话，按其模式驱动一组 agent 的调用，
返回带有状态、最终输出与完整转录的 RunResult。引擎本身不调用任何模型，
所有调用都经由注入的 agent.Invoker 完成。

# 编排模式

  - Sequential   — 按声明顺序执行，前一步输出追加到下一步的对话中
  - Parallel     — 同一输入并发扇出，按 quorum 判定成败，按声明顺序聚合
  - Hierarchical — 协调者规划 → 计划整体校验 → worker 执行 → 协调者汇总
  - Dynamic      — 每一步由 Selector 决定继续 / 切换模式 / 终止，受 max_steps 约束

# 运行语义

  - 运行前校验定义并解析全部 agent 引用；配置错误不会产生任何调用
  - 每次调用受 StepTimeout 约束，可重试错误按指数退避重试至 MaxAttempts
  - ctx 取消后运行以 StatusCancelled 结束，迟到的结果不会写入转录
  - 转录只追加，运行结束后封存

# 可观测性

每次运行产生 orchestration.run span，每次调用尝试产生 orchestration.invoke
子 span；Observer 接收运行开始、每个结算的 turn 与运行结束事件。
*/
package orchestration
