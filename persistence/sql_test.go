package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupSQLiteStore(t *testing.T) (*gorm.DB, *SQLStore) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// 内存库每个连接独立，必须限制为单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	store := NewSQLStore(db, zap.NewNop())
	require.NoError(t, store.Migrate(context.Background()))
	return db, store
}

func TestSQLStore_RoundTrip(t *testing.T) {
	_, store := setupSQLiteStore(t)
	snap := sampleSnapshot()

	require.NoError(t, store.Write(context.Background(), snap))

	got, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestSQLStore_WriteReplacesTable(t *testing.T) {
	db, store := setupSQLiteStore(t)
	snap := sampleSnapshot()
	require.NoError(t, store.Write(context.Background(), snap))

	snap.Workflows = snap.Workflows[:1]
	require.NoError(t, store.Write(context.Background(), snap))

	var count int64
	require.NoError(t, db.Model(&definitionRecord{}).Where("kind = ?", kindWorkflow).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, store.Write(context.Background(), snap))
	require.NoError(t, db.Model(&definitionRecord{}).Count(&count).Error)
	assert.Equal(t, int64(len(snap.Agents)+1), count)
}

func TestSQLStore_EmptySnapshot(t *testing.T) {
	_, store := setupSQLiteStore(t)
	require.NoError(t, store.Write(context.Background(), sampleSnapshot()))
	require.NoError(t, store.Write(context.Background(), emptySnapshot()))

	got, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Agents)
	assert.Empty(t, got.Workflows)
}

func TestSQLStore_SkipsUnknownKinds(t *testing.T) {
	db, store := setupSQLiteStore(t)
	require.NoError(t, db.Create(&definitionRecord{Kind: "tool", ID: "x", Body: "{}"}).Error)

	got, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Agents)
}

func TestSQLStore_BeginFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	store := NewSQLStore(db, nil)
	err = store.Write(context.Background(), sampleSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
