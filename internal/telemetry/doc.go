// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，
// 为 AgentWeave 提供 OTLP gRPC 导出的 TracerProvider 和 MeterProvider。
// 编排引擎通过 Providers.TracerProvider 记录 orchestration.run /
// orchestration.invoke span；禁用时不连接任何外部服务。
package telemetry
