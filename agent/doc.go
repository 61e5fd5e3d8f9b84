// Copyright (c) AgentWeave Authors.
// Licensed under the MIT License.

/*
Package agent 定义智能体的声明式描述与调用契约。

# 核心类型

  - Definition — 智能体定义（id、角色、指令、模型参数、工具、元数据）
  - Role       — 角色枚举，任意非空字符串均合法
  - Builder    — 流式构建器，Build 一次性报告全部违反的约束
  - Invoker    — 外部调用能力，编排引擎只通过它与模型交互

# 模板

Templates / Template 提供 critic、writer、researcher、planner、executor
五个预置模板，返回已填好角色、描述与指令的 Builder。

# 调用中间件

RateLimited（golang.org/x/time/rate）与 WithLogging（zap）可通过 Chain
组合；EchoInvoker 用于 dry-run。
*/
package agent
