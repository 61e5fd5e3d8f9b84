// Copyright (c) AgentWeave Authors.
// Licensed under the MIT License.

/*
Package main 提供 AgentWeave 服务端程序入口。

# 概述

cmd/agentweave 是可执行入口，提供 HTTP API 服务、定义静态校验、
健康检查和版本查询等子命令。程序支持 YAML 配置文件 + AGENTWEAVE_ 环境变量、
结构化日志（zap）、Prometheus 指标、OpenTelemetry 追踪以及引擎参数热更新。

# 核心类型

  - Server          — 主服务器，管理 HTTP、Metrics 双端口、存储后端及优雅关闭
  - Middleware      — HTTP 中间件函数签名 func(http.Handler) http.Handler
  - definitionStore — memory / file / redis / sql 存储后端

# 主要能力

  - 子命令：serve、validate、version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、RequestLogger、
    OTelTracing、MetricsMiddleware（按路由 pattern 打标签）
  - 定义持久化：启动时加载，变更后写回
  - 配置热重载：Reloader 监听配置文件，engine 段立即生效
  - 优雅关闭：信号 → 关闭 HTTP 与 Metrics → 停止热更新 → 保存定义 → 关闭存储
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
