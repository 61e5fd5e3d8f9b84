// Copyright (c) AgentWeave Authors.
// Licensed under the MIT License.

/*
包 server 管理 AgentWeave 的 HTTP 服务器生命周期。

Manager 包装 net/http.Server，提供非阻塞 Start、带超时的优雅 Shutdown，
以及供命令行 serve 子命令使用的阻塞式 Run。API 与 /metrics 端点各由一个
Manager 承载。
*/
package server
