// Copyright (c) AgentWeave Authors.
// Licensed under the MIT License.

// Package config 提供 AgentWeave 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → AGENTWEAVE_* 环境变量 的顺序叠加，
// Config.Validate 一次报告全部问题。EngineConfig.Options 把 engine 段
// 转换为编排引擎的默认运行参数；Reloader 监听配置文件，engine 段的变更
// 无需重启即可生效。
package config
