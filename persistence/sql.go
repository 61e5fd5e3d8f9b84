package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/BaSui01/agentweave/agent"
	"github.com/BaSui01/agentweave/registry"
	"github.com/BaSui01/agentweave/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	kindAgent    = "agent"
	kindWorkflow = "workflow"
)

// definitionRecord 一行存储一个定义，Body 为 JSON
type definitionRecord struct {
	Kind      string    `gorm:"primaryKey;size:16"`
	ID        string    `gorm:"primaryKey;size:255"`
	Body      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName implements gorm's tabler interface.
func (definitionRecord) TableName() string { return "agentweave_definitions" }

// SQLStore 基于 gorm 的快照存储，支持 postgres / mysql / sqlite
type SQLStore struct {
	db     *gorm.DB
	codec  Codec
	logger *zap.Logger
}

// NewSQLStore wraps db. Call Migrate once before first use.
func NewSQLStore(db *gorm.DB, logger *zap.Logger) *SQLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLStore{
		db:     db,
		codec:  JSONCodec{},
		logger: logger.With(zap.String("component", "sql_store")),
	}
}

// Migrate creates or updates the definitions table.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&definitionRecord{}); err != nil {
		return fmt.Errorf("migrate definitions table: %w", err)
	}
	return nil
}

// Write implements registry.Sink. The table is replaced in one transaction.
func (s *SQLStore) Write(ctx context.Context, snap registry.Snapshot) error {
	now := time.Now().UTC()
	records := make([]definitionRecord, 0, len(snap.Agents)+len(snap.Workflows))
	for _, def := range snap.Agents {
		data, err := s.codec.Marshal(def)
		if err != nil {
			return fmt.Errorf("encode agent %q: %w", def.ID, err)
		}
		records = append(records, definitionRecord{Kind: kindAgent, ID: def.ID, Body: string(data), UpdatedAt: now})
	}
	for _, def := range snap.Workflows {
		data, err := s.codec.Marshal(def)
		if err != nil {
			return fmt.Errorf("encode workflow %q: %w", def.ID, err)
		}
		records = append(records, definitionRecord{Kind: kindWorkflow, ID: def.ID, Body: string(data), UpdatedAt: now})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&definitionRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 100).Error
	})
	if err != nil {
		return fmt.Errorf("sql write snapshot: %w", err)
	}

	s.logger.Debug("snapshot written", zap.Int("rows", len(records)))
	return nil
}

// Read implements registry.Source.
func (s *SQLStore) Read(ctx context.Context) (registry.Snapshot, error) {
	var records []definitionRecord
	if err := s.db.WithContext(ctx).Order("kind").Order("id").Find(&records).Error; err != nil {
		return registry.Snapshot{}, fmt.Errorf("sql read snapshot: %w", err)
	}

	var snap registry.Snapshot
	for _, rec := range records {
		switch rec.Kind {
		case kindAgent:
			var def agent.Definition
			if err := s.codec.Unmarshal([]byte(rec.Body), &def); err != nil {
				return registry.Snapshot{}, fmt.Errorf("agent %q: %w", rec.ID, err)
			}
			snap.Agents = append(snap.Agents, def.Normalize())
		case kindWorkflow:
			var def workflow.Definition
			if err := s.codec.Unmarshal([]byte(rec.Body), &def); err != nil {
				return registry.Snapshot{}, fmt.Errorf("workflow %q: %w", rec.ID, err)
			}
			snap.Workflows = append(snap.Workflows, def.Normalize())
		default:
			s.logger.Warn("skipping row of unknown kind", zap.String("kind", rec.Kind), zap.String("id", rec.ID))
		}
	}
	return snap, nil
}
