// Copyright (c) AgentWeave Authors.
// Licensed under the MIT License.

/*
Package persistence 提供注册表快照的序列化与存储后端。

# 组件

  - Codec      — YAMLCodec / JSONCodec，字段名与定义结构体的 tag 一致
  - FileStore  — 每个定义一个文件（agents/、workflows/ 子目录）
  - RedisStore — 两个 hash，事务内整体替换
  - SQLStore   — gorm 单表，事务内整体替换

三者都同时实现 registry.Sink 与 registry.Source。
*/
package persistence
