package config

import (
	"github.com/BaSui01/agentweave/orchestration"
	"github.com/BaSui01/agentweave/persistence"
)

// 法定成功数取值
const (
	QuorumMajority = orchestration.QuorumMajority
	QuorumAll      = orchestration.QuorumAll
)

// Options 把引擎配置转换为默认运行参数。非法的 quorum / dispatch 由
// Config.Validate 报告，这里回退到默认值。
func (e EngineConfig) Options() orchestration.Options {
	failFast := e.FailFast
	opts := orchestration.Options{
		StepTimeout: e.StepTimeout,
		MaxAttempts: e.MaxAttempts,
		Backoff: orchestration.Backoff{
			Initial:    e.BackoffInitial,
			Max:        e.BackoffMax,
			Multiplier: e.BackoffMultiplier,
			Jitter:     e.BackoffJitter,
		},
		Concurrency: e.Concurrency,
		FailFast:    &failFast,
	}
	if q, err := orchestration.ParseQuorum(e.Quorum); err == nil {
		opts.Quorum = q
	}
	if d, err := orchestration.ParseDispatch(e.Dispatch); err == nil {
		opts.Dispatch = d
	}
	return opts
}

// Store 转换为 persistence.RedisConfig
func (r RedisConfig) Store() persistence.RedisConfig {
	return persistence.RedisConfig{
		Addr:       r.Addr,
		Password:   r.Password,
		DB:         r.DB,
		Prefix:     r.Prefix,
		MaxRetries: r.MaxRetries,
		PoolSize:   r.PoolSize,
		TLS:        r.TLS,
	}
}
