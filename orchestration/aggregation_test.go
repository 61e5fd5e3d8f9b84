package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestConcatAggregator_SkipsFailures(t *testing.T) {
	out, err := ConcatAggregator{Separator: " | "}.Aggregate(context.Background(), []StepResult{
		{AgentID: "a", Output: "one"},
		{AgentID: "b", Err: errors.New("down")},
		{AgentID: "c", Output: "three"},
	})
	require.NoError(t, err)
	assert.Equal(t, "one | three", out)
}

func TestLabeledAggregator(t *testing.T) {
	out, err := LabeledAggregator{}.Aggregate(context.Background(), []StepResult{
		{AgentID: "a", Output: "one"},
		{AgentID: "b", Output: "two"},
	})
	require.NoError(t, err)
	assert.Equal(t, "[a]\none\n\n[b]\ntwo", out)
}

func TestQuorumPolicies(t *testing.T) {
	assert.Equal(t, 2, required(Majority, 3))
	assert.Equal(t, 3, required(Majority, 4))
	assert.Equal(t, 5, required(All, 5))
	assert.Equal(t, 2, required(AtLeast(2), 5))
	assert.Equal(t, 3, required(AtLeast(10), 3))
	assert.Equal(t, 1, required(AtLeast(0), 3))
	assert.Equal(t, 2, required(Fraction(0.5), 4))
	assert.Equal(t, 3, required(Fraction(0.5), 5))
}

func TestRequired_AlwaysWithinBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(1, 100).Draw(t, "total")
		n := rapid.IntRange(-10, 200).Draw(t, "n")
		f := rapid.Float64Range(0, 2).Draw(t, "f")

		for _, q := range []QuorumPolicy{Majority, All, AtLeast(n), Fraction(f)} {
			got := required(q, total)
			if got < 1 || got > total {
				t.Fatalf("required = %d, want within [1, %d]", got, total)
			}
		}
	})
}

func TestParseQuorum(t *testing.T) {
	tests := []struct {
		in      string
		total   int
		want    int
		wantErr bool
	}{
		{"", 4, 3, false},
		{"majority", 5, 3, false},
		{" ALL ", 4, 4, false},
		{"2", 5, 2, false},
		{"0", 5, 0, true},
		{"most", 5, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q, err := ParseQuorum(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, required(q, tt.total))
		})
	}
}

func TestParseDispatch(t *testing.T) {
	d, err := ParseDispatch("")
	require.NoError(t, err)
	assert.Equal(t, DispatchParallel, d)

	d, err = ParseDispatch("Sequential")
	require.NoError(t, err)
	assert.Equal(t, DispatchSequential, d)

	_, err = ParseDispatch("random")
	assert.Error(t, err)
}
