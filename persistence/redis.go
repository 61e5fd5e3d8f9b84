package persistence

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/BaSui01/agentweave/agent"
	"github.com/BaSui01/agentweave/internal/tlsutil"
	"github.com/BaSui01/agentweave/registry"
	"github.com/BaSui01/agentweave/workflow"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig Redis 存储配置
type RedisConfig struct {
	// Redis 地址
	Addr string `yaml:"addr" json:"addr" env:"ADDR"`

	// 密码
	Password string `yaml:"password" json:"password" env:"PASSWORD"`

	// 数据库编号
	DB int `yaml:"db" json:"db" env:"DB"`

	// 键前缀
	Prefix string `yaml:"prefix" json:"prefix" env:"PREFIX"`

	// 最大重试次数
	MaxRetries int `yaml:"max_retries" json:"max_retries" env:"MAX_RETRIES"`

	// 连接池大小
	PoolSize int `yaml:"pool_size" json:"pool_size" env:"POOL_SIZE"`

	// 启用 TLS（TLS 1.2+，仅 AEAD 密码套件）
	TLS bool `yaml:"tls" json:"tls" env:"TLS"`
}

// DefaultRedisConfig 返回默认 Redis 存储配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:       "localhost:6379",
		Prefix:     "agentweave",
		MaxRetries: 3,
		PoolSize:   10,
	}
}

// RedisStore 把快照保存为两个 hash：<prefix>:agents 与 <prefix>:workflows
// 字段为定义 id，值为 JSON 编码的定义。写入在一个 MULTI/EXEC 事务内完成。
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	codec  Codec
	logger *zap.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		MaxRetries: cfg.MaxRetries,
		PoolSize:   cfg.PoolSize,
	}
	if cfg.TLS {
		opts.TLSConfig = tlsutil.DefaultTLSConfig()
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStoreFromClient(client, cfg.Prefix, logger), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client redis.UniversalClient, prefix string, logger *zap.Logger) *RedisStore {
	if prefix == "" {
		prefix = "agentweave"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		codec:  JSONCodec{},
		logger: logger.With(zap.String("component", "redis_store")),
	}
}

func (s *RedisStore) agentsKey() string    { return s.prefix + ":agents" }
func (s *RedisStore) workflowsKey() string { return s.prefix + ":workflows" }

// Write implements registry.Sink, replacing whatever was stored before.
func (s *RedisStore) Write(ctx context.Context, snap registry.Snapshot) error {
	agents := make([]any, 0, 2*len(snap.Agents))
	for _, def := range snap.Agents {
		data, err := s.codec.Marshal(def)
		if err != nil {
			return fmt.Errorf("encode agent %q: %w", def.ID, err)
		}
		agents = append(agents, def.ID, data)
	}
	workflows := make([]any, 0, 2*len(snap.Workflows))
	for _, def := range snap.Workflows {
		data, err := s.codec.Marshal(def)
		if err != nil {
			return fmt.Errorf("encode workflow %q: %w", def.ID, err)
		}
		workflows = append(workflows, def.ID, data)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.agentsKey(), s.workflowsKey())
		if len(agents) > 0 {
			pipe.HSet(ctx, s.agentsKey(), agents...)
		}
		if len(workflows) > 0 {
			pipe.HSet(ctx, s.workflowsKey(), workflows...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis write snapshot: %w", err)
	}

	s.logger.Debug("snapshot written",
		zap.String("prefix", s.prefix),
		zap.Int("agents", len(snap.Agents)),
		zap.Int("workflows", len(snap.Workflows)),
	)
	return nil
}

// Read implements registry.Source.
func (s *RedisStore) Read(ctx context.Context) (registry.Snapshot, error) {
	rawAgents, err := s.client.HGetAll(ctx, s.agentsKey()).Result()
	if err != nil {
		return registry.Snapshot{}, fmt.Errorf("redis read agents: %w", err)
	}
	rawWorkflows, err := s.client.HGetAll(ctx, s.workflowsKey()).Result()
	if err != nil {
		return registry.Snapshot{}, fmt.Errorf("redis read workflows: %w", err)
	}

	var snap registry.Snapshot
	for id, raw := range rawAgents {
		var def agent.Definition
		if err := s.codec.Unmarshal([]byte(raw), &def); err != nil {
			return registry.Snapshot{}, fmt.Errorf("agent %q: %w", id, err)
		}
		snap.Agents = append(snap.Agents, def.Normalize())
	}
	for id, raw := range rawWorkflows {
		var def workflow.Definition
		if err := s.codec.Unmarshal([]byte(raw), &def); err != nil {
			return registry.Snapshot{}, fmt.Errorf("workflow %q: %w", id, err)
		}
		snap.Workflows = append(snap.Workflows, def.Normalize())
	}
	slices.SortFunc(snap.Agents, func(a, b agent.Definition) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(snap.Workflows, func(a, b workflow.Definition) int { return cmp.Compare(a.ID, b.ID) })
	return snap, nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
