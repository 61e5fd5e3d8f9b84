package agent

import (
	"errors"
	"testing"

	"github.com/BaSui01/agentweave/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuilder_Defaults(t *testing.T) {
	def, err := NewBuilder("writer").WithModel("gpt-4o").Build()
	require.NoError(t, err)

	assert.Equal(t, "writer", def.ID)
	assert.Equal(t, RoleCustom, def.Role)
	assert.Equal(t, DefaultTemperature, def.Temperature)
	assert.Equal(t, DefaultMaxTokens, def.MaxTokens)
	assert.NotNil(t, def.Tools)
	assert.Empty(t, def.Tools)
	assert.Nil(t, def.Metadata)
}

func TestBuilder_FullDefinition(t *testing.T) {
	def, err := NewBuilder("researcher").
		WithRole(RoleResearcher).
		WithDescription("Gathers information").
		WithInstructions("Cite sources.").
		WithModel("claude").
		WithTemperature(0.2).
		WithMaxTokens(2048).
		WithTools("search", "browse").
		WithMetadata("team", "content").
		Build()
	require.NoError(t, err)

	assert.Equal(t, Definition{
		ID:           "researcher",
		Role:         RoleResearcher,
		Description:  "Gathers information",
		Instructions: "Cite sources.",
		ModelID:      "claude",
		Temperature:  0.2,
		MaxTokens:    2048,
		Tools:        []string{"search", "browse"},
		Metadata:     map[string]string{"team": "content"},
	}, def)
}

func TestBuilder_ReportsEveryViolation(t *testing.T) {
	_, err := NewBuilder("").
		WithRole("").
		WithTemperature(2.5).
		WithMaxTokens(0).
		WithTools("ok", " ").
		Build()
	require.Error(t, err)

	var ve *types.ValidationError
	require.True(t, errors.As(err, &ve))

	fields := make([]string, len(ve.Violations))
	for i, v := range ve.Violations {
		fields[i] = v.Field
	}
	assert.Equal(t, []string{"id", "role", "model_id", "temperature", "max_tokens", "tools[1]"}, fields)
	assert.Equal(t, types.ErrValidation, types.CodeOf(err))
}

func TestBuilder_TemperatureBounds(t *testing.T) {
	tests := []struct {
		name    string
		temp    float64
		wantErr bool
	}{
		{"zero", 0, false},
		{"two", 2, false},
		{"negative", -0.01, true},
		{"above", 2.01, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder("a").WithModel("m").WithTemperature(tt.temp).Build()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuilder_BlankMetadataKey(t *testing.T) {
	_, err := NewBuilder("a").WithModel("m").WithMetadata("  ", "v").Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata: key must not be blank")
}

func TestFrom_DoesNotAliasSource(t *testing.T) {
	src := Definition{ID: "a", Role: RoleWriter, ModelID: "m", Temperature: 1, MaxTokens: 10, Tools: []string{"x"}}
	def, err := From(src).WithTools("y").Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"x"}, src.Tools)
	assert.Equal(t, []string{"x", "y"}, def.Tools)
}

func TestMustBuild_Panics(t *testing.T) {
	assert.Panics(t, func() { NewBuilder("").MustBuild() })
}

func TestBuilder_DraftIsUnvalidatedCopy(t *testing.T) {
	b, err := Template("writer")
	require.NoError(t, err)

	draft := b.Draft()
	assert.Equal(t, "writer", draft.ID)
	assert.Equal(t, RoleWriter, draft.Role)
	assert.Empty(t, draft.ModelID)

	draft.Tools = append(draft.Tools, "search")
	assert.Empty(t, b.Draft().Tools)
}
