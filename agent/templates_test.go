package agent

import (
	"testing"

	"github.com/BaSui01/agentweave/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates_Names(t *testing.T) {
	assert.Equal(t, []string{"critic", "executor", "planner", "researcher", "writer"}, Templates())
}

func TestTemplate_PrefillsRoleAndInstructions(t *testing.T) {
	for _, name := range Templates() {
		t.Run(name, func(t *testing.T) {
			b, err := Template(name)
			require.NoError(t, err)

			def, err := b.WithModel("gpt-4o").Build()
			require.NoError(t, err)
			assert.Equal(t, name, def.ID)
			assert.Equal(t, Role(name), def.Role)
			assert.NotEmpty(t, def.Description)
			assert.Contains(t, def.Instructions, "Your Task:")
		})
	}
}

func TestTemplate_RequiresModel(t *testing.T) {
	b, err := Template("critic")
	require.NoError(t, err)
	_, err = b.Build()
	assert.Error(t, err)
}

func TestTemplate_Unknown(t *testing.T) {
	_, err := Template("poet")
	require.Error(t, err)
	assert.Equal(t, types.ErrNotFound, types.CodeOf(err))
}
