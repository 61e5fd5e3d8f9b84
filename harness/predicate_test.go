package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestPredicates(t *testing.T) {
	out := "Go makes concurrency approachable. DONE"
	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"contains", Contains("concurrency"), true},
		{"contains is case-sensitive", Contains("go makes"), false},
		{"contains fold", ContainsFold("go makes"), true},
		{"contains any", ContainsAny("rust", "GO"), true},
		{"contains any none", ContainsAny("rust", "zig"), false},
		{"not contains", NotContains("error"), true},
		{"not contains hit", NotContains("DONE"), false},
		{"matches", Matches(`DONE$`), true},
		{"not empty", NotEmpty(), true},
		{"func", Func("short", func(s string) bool { return len(s) < 10 }), false},
		{"zero predicate", Predicate{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Eval(out))
		})
	}

	assert.False(t, NotEmpty().Eval("  \n"))
	assert.Equal(t, `contains "x"`, Contains("x").String())
}

func TestMatches_InvalidExpressionPanics(t *testing.T) {
	assert.Panics(t, func() { Matches("(") })
}

func TestContainsAndNotContainsAreComplementary(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		out := rapid.String().Draw(t, "out")
		sub := rapid.String().Draw(t, "sub")
		if Contains(sub).Eval(out) == NotContains(sub).Eval(out) {
			t.Fatalf("Contains and NotContains agree for %q in %q", sub, out)
		}
	})
}
