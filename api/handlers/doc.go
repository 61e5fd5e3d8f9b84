// Copyright (c) AgentWeave Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 AgentWeave HTTP API 的请求处理器实现。

# 概述

handlers 把注册表与编排引擎映射到 HTTP：定义的增删改查、工作流运行、
模板、健康检查，以及统一的响应与错误处理。所有 Handler 均遵循标准
net/http 接口，路由使用 Go 1.22 的 method pattern。

# 核心类型

  - DefinitionHandler — agent / workflow CRUD、静态校验、模板
  - RunHandler        — POST /v1/workflows/{id}/run，限流 + 运行参数覆盖
  - HealthHandler     — 服务健康检查（/health, /healthz, /ready）
  - Response          — 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo         — 结构化错误信息，含 code、message、violations、retryable
  - ResponseWriter    — 包装 http.ResponseWriter 以捕获状态码
  - HealthCheck       — 可插拔就绪检查接口（数据库、Redis 等）

# 错误映射

校验错误 → 400，未找到 → 404，限流 → 429，运行被取消 → 503 RUN_CANCELLED，
其余引擎失败 → 500。运行失败时 data 中仍带有 run_id 与部分 transcript。
*/
package handlers
