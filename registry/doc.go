// Copyright (c) AgentWeave Authors.
// Licensed under the MIT License.

/*
Package registry 提供 agent 与 workflow 定义的并发安全注册表。

# 语义

  - Register* 对重复 id 返回 ValidationError，已存储的值保持不变
  - Get* / Delete* / Replace* 对未知 id 返回 NotFoundError
  - Agents / Workflows 返回按 id 排序、可重复迭代的 iter.Seq
  - Save / Load 通过 Sink / Source 与持久化层交互，Load 全部成功或全部回滚
  - Close 之后所有写操作返回 ErrClosed，读操作照常
*/
package registry
