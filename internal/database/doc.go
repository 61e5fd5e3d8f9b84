// Copyright (c) AgentWeave Authors.
// Licensed under the MIT License.

/*
包 database 提供基于 GORM 的数据库打开与连接池管理。

# 概述

Open 按 config.DatabaseConfig.Driver 选择方言（postgres、mysql 或纯 Go
的 sqlite），并用 PoolManager 应用连接池参数。PoolManager 负责后台健康
检查、连接统计与关闭，它返回的 *gorm.DB 交给 persistence.SQLStore 使用。
*/
package database
