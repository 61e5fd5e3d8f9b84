// Copyright (c) AgentWeave Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的运行指标采集。

# 概述

Collector 实现 orchestration.Observer，挂到引擎上即可统计每次运行与每次
agent 调用；HTTP 层通过 RecordHTTPRequest 记录请求。指标注册到调用方传入的
prometheus.Registerer，便于测试隔离。

# 主要指标

  - workflow_runs_total{workflow,pattern,status}
  - workflow_run_duration_seconds{pattern}
  - workflow_runs_in_flight{pattern}
  - workflow_run_errors_total{code}
  - agent_steps_total{agent,phase,status}
  - agent_step_duration_seconds{agent}
  - agent_step_retries_total{agent}
  - http_requests_total{method,path,status}
  - http_request_duration_seconds{method,path}
*/
package metrics
