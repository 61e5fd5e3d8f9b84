package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/BaSui01/agentweave/api/handlers"
	"github.com/BaSui01/agentweave/config"
	"github.com/BaSui01/agentweave/internal/database"
	"github.com/BaSui01/agentweave/persistence"
	"github.com/BaSui01/agentweave/registry"
	"go.uber.org/zap"
)

// =============================================================================
// 💾 定义存储后端
// =============================================================================

// definitionStore 选定的存储后端；memory 后端下 sink / source 为空
type definitionStore struct {
	backend string
	sink    registry.Sink
	source  registry.Source
	checks  []handlers.HealthCheck
	closers []func() error
}

// openStore 按 storage.backend 打开存储
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*definitionStore, error) {
	s := &definitionStore{backend: cfg.Storage.Backend}

	switch cfg.Storage.Backend {
	case config.BackendMemory, "":
		s.backend = config.BackendMemory

	case config.BackendFile:
		codec, err := persistence.CodecByName(cfg.Storage.Format)
		if err != nil {
			return nil, err
		}
		fs := persistence.NewFileStore(cfg.Storage.Dir, codec, logger)
		s.sink, s.source = fs, fs

	case config.BackendRedis:
		rs, err := persistence.NewRedisStore(cfg.Redis.Store(), logger)
		if err != nil {
			return nil, err
		}
		s.sink, s.source = rs, rs
		s.checks = append(s.checks, handlers.NewPingCheck("redis", rs.Ping))
		s.closers = append(s.closers, rs.Close)

	case config.BackendSQL:
		pm, err := database.Open(cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		ss := persistence.NewSQLStore(pm.DB(), logger)
		if err := ss.Migrate(ctx); err != nil {
			_ = pm.Close()
			return nil, err
		}
		s.sink, s.source = ss, ss
		s.checks = append(s.checks, handlers.NewPingCheck("database", pm.Ping))
		s.closers = append(s.closers, pm.Close)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	logger.Info("definition store opened", zap.String("backend", s.backend))
	return s, nil
}

// persistent reports whether definitions survive a restart.
func (s *definitionStore) persistent() bool { return s.sink != nil }

// Close releases backend connections.
func (s *definitionStore) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
