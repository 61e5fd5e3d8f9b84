package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReloader_ReloadAppliesEngineChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentweave.yaml")
	writeConfig(t, path, "engine:\n  max_attempts: 3\n")

	loader := NewLoader().WithConfigPath(path).WithEnvPrefix("AGENTWEAVE_TEST_RELOAD")
	initial, err := loader.Load()
	require.NoError(t, err)

	r := NewReloader(loader, initial, nil)
	var got []ConfigChange
	r.OnReload(func(_, _ *Config, changes []ConfigChange) { got = changes })

	writeConfig(t, path, "engine:\n  max_attempts: 5\n  step_timeout: 10s\nserver:\n  http_port: 9000\n")
	changes, err := r.Reload()
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, changes, got)

	byPath := map[string]ConfigChange{}
	for _, c := range changes {
		byPath[c.Path] = c
	}
	assert.Equal(t, 5, byPath["Engine.MaxAttempts"].NewValue)
	assert.False(t, byPath["Engine.MaxAttempts"].RequiresRestart)
	assert.Equal(t, 10*time.Second, byPath["Engine.StepTimeout"].NewValue)
	assert.True(t, byPath["Server.HTTPPort"].RequiresRestart)

	assert.Equal(t, 5, r.Config().Engine.MaxAttempts)
}

func TestReloader_InvalidConfigKeepsCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentweave.yaml")
	writeConfig(t, path, "engine:\n  max_attempts: 2\n")

	loader := NewLoader().WithConfigPath(path).WithEnvPrefix("AGENTWEAVE_TEST_RELOAD")
	initial, err := loader.Load()
	require.NoError(t, err)
	r := NewReloader(loader, initial, nil)

	writeConfig(t, path, "engine:\n  max_attempts: 0\n")
	_, err = r.Reload()
	require.Error(t, err)
	assert.Same(t, initial, r.Config())
}

func TestReloader_NoChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentweave.yaml")
	writeConfig(t, path, "log:\n  level: debug\n")

	loader := NewLoader().WithConfigPath(path).WithEnvPrefix("AGENTWEAVE_TEST_RELOAD")
	initial, err := loader.Load()
	require.NoError(t, err)
	r := NewReloader(loader, initial, nil)

	called := false
	r.OnReload(func(_, _ *Config, _ []ConfigChange) { called = true })

	changes, err := r.Reload()
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.False(t, called)
}

func TestReloader_StartRequiresPath(t *testing.T) {
	r := NewReloader(NewLoader(), DefaultConfig(), nil)
	assert.Error(t, r.Start(t.Context()))
	assert.NoError(t, r.Stop())
}

func TestIsHotReloadable(t *testing.T) {
	assert.True(t, IsHotReloadable("Engine.Quorum"))
	assert.False(t, IsHotReloadable("Server.HTTPPort"))
	assert.True(t, isSensitive("Redis.Password"))
	assert.False(t, isSensitive("Redis.Addr"))
}
