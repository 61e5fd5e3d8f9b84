// Copyright (c) AgentWeave Authors.
// Licensed under the MIT License.

/*
Package types 提供 AgentWeave 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 agent、workflow、registry、
orchestration、harness 与 api 提供统一的消息与错误契约。

# 核心类型

  - Message / Role      — 对话消息
  - Error / ErrorCode   — 请求层错误信封，含 HTTP 状态码与 Retryable 标记
  - ValidationError     — 构建 / 注册期的配置错误，列出全部违反项
  - NotFoundError       — 未知 agent / workflow id
  - InvocationError     — 调用层错误（Timeout / ProviderError / RateLimited）
  - AggregationError    — 并行模式未达到 quorum
  - DelegationError     — 层次化模式委派计划无效
  - BudgetExceededError — 动态模式步数预算耗尽

# 错误工具

CodeOf / IsErrorCode / IsRetryable / IsTimeout / AsError 均穿透 fmt.Errorf
的 %w 包装工作。
*/
package types
