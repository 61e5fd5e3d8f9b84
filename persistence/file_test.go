package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/BaSui01/agentweave/agent"
	"github.com/BaSui01/agentweave/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileStore_RoundTrip(t *testing.T) {
	for _, codec := range []Codec{YAMLCodec{}, JSONCodec{Indent: true}} {
		t.Run(codec.Name(), func(t *testing.T) {
			store := NewFileStore(t.TempDir(), codec, zap.NewNop())
			snap := sampleSnapshot()

			require.NoError(t, store.Write(context.Background(), snap))
			assert.FileExists(t, filepath.Join(store.Dir(), "agents", "writer"+codec.Ext()))
			assert.FileExists(t, filepath.Join(store.Dir(), "workflows", "team"+codec.Ext()))

			got, err := store.Read(context.Background())
			require.NoError(t, err)
			assert.Equal(t, snap, got)
		})
	}
}

func TestFileStore_ThroughRegistry(t *testing.T) {
	store := NewFileStore(t.TempDir(), nil, nil)

	src := registry.New(nil)
	snap := sampleSnapshot()
	for _, a := range snap.Agents {
		require.NoError(t, src.RegisterAgent(a))
	}
	for _, w := range snap.Workflows {
		require.NoError(t, src.RegisterWorkflow(w))
	}
	require.NoError(t, src.Save(context.Background(), store))

	dst := registry.New(nil)
	require.NoError(t, dst.Load(context.Background(), store))
	assert.Equal(t, src.Snapshot(), dst.Snapshot())
}

func TestFileStore_RemovesStaleFiles(t *testing.T) {
	store := NewFileStore(t.TempDir(), YAMLCodec{}, nil)
	snap := sampleSnapshot()
	require.NoError(t, store.Write(context.Background(), snap))

	snap.Agents = snap.Agents[:1]
	require.NoError(t, store.Write(context.Background(), snap))

	got, err := store.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Agents, 1)
	assert.Equal(t, "critic", got.Agents[0].ID)
	assert.NoFileExists(t, filepath.Join(store.Dir(), "agents", "writer.yaml"))
}

func TestFileStore_MissingDirectoryReadsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope"), nil, nil)
	got, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Agents)
	assert.Empty(t, got.Workflows)
}

func TestFileStore_CorruptFileFailsRead(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, YAMLCodec{}, nil)
	require.NoError(t, store.Write(context.Background(), sampleSnapshot()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "workflows", "broken.yaml"), []byte("pattern: [unterminated"), 0o644))

	_, err := store.Read(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestFileStore_EscapesIDs(t *testing.T) {
	store := NewFileStore(t.TempDir(), JSONCodec{}, nil)
	def := agent.NewBuilder("team/lead").WithModel("m").MustBuild()
	require.NoError(t, store.Write(context.Background(), registry.Snapshot{Agents: []agent.Definition{def}}))

	assert.FileExists(t, filepath.Join(store.Dir(), "agents", "team%2Flead.json"))
	got, err := store.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Agents, 1)
	assert.Equal(t, "team/lead", got.Agents[0].ID)
}

func TestFileStore_EscapesLeadingDot(t *testing.T) {
	store := NewFileStore(t.TempDir(), YAMLCodec{}, nil)
	snap := registry.Snapshot{Agents: []agent.Definition{
		agent.NewBuilder(".hidden").WithModel("m").MustBuild(),
		agent.NewBuilder("..").WithModel("m").MustBuild(),
	}}
	require.NoError(t, store.Write(context.Background(), snap))

	assert.FileExists(t, filepath.Join(store.Dir(), "agents", "%2Ehidden.yaml"))
	got, err := store.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Agents, 2)
	assert.Equal(t, "..", got.Agents[0].ID)
	assert.Equal(t, ".hidden", got.Agents[1].ID)
}

func TestFileStore_CancelledContext(t *testing.T) {
	store := NewFileStore(t.TempDir(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Write(ctx, sampleSnapshot()), context.Canceled)
}

func TestFileStore_ConcurrentRegistrySaves(t *testing.T) {
	store := NewFileStore(t.TempDir(), YAMLCodec{}, nil)
	reg := registry.New(nil)

	for round := range 5 {
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				def := agent.NewBuilder(fmt.Sprintf("r%d-a%d", round, i)).WithModel("m").MustBuild()
				assert.NoError(t, reg.RegisterAgent(def))
				assert.NoError(t, reg.Save(context.Background(), store))
			}()
		}
		wg.Wait()

		got, err := store.Read(context.Background())
		require.NoError(t, err)
		agents, _ := reg.Len()
		require.Len(t, got.Agents, agents, "round %d", round)
	}
}
