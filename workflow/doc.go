// Copyright (c) AgentWeave Authors.
// Licensed under the MIT License.

/*
Package workflow 定义多智能体工作流的声明式描述。

# 概述

Definition 只描述"谁参与、按什么模式协作"，不包含执行逻辑；执行由
orchestration.Engine 完成。模式是一个封闭的标签联合，新增模式需要同时
扩展 PatternVisitor 与引擎。

# 核心类型

  - Definition     — 工作流定义（id、描述、模式、步骤、终止标记、元数据）
  - Pattern        — 模式接口：Sequential / Parallel / Hierarchical / Dynamic
  - PatternKind    — 模式的序列化名称
  - PatternVisitor — 按模式分派的访问者
  - Builder        — 流式构建器，Build 一次性报告全部违反的约束

# 序列化

JSON 与 YAML 使用同一扁平结构（pattern 字段区分模式），未知字段被忽略，
只有对应模式才会输出 coordinator_id、worker_ids、initial_agent_id、
max_steps 等字段。
*/
package workflow
