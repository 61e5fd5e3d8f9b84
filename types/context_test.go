package types

import (
	"context"
	"testing"
)

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if _, ok := RunID(ctx); ok {
		t.Fatalf("RunID should be absent on a bare context")
	}

	ctx = WithTraceID(ctx, "t1")
	if got, ok := TraceID(ctx); !ok || got != "t1" {
		t.Fatalf("TraceID mismatch: %v %v", got, ok)
	}

	ctx = WithRunID(ctx, "run")
	if got, ok := RunID(ctx); !ok || got != "run" {
		t.Fatalf("RunID mismatch: %v %v", got, ok)
	}

	ctx = WithWorkflowID(ctx, "blog")
	if got, ok := WorkflowID(ctx); !ok || got != "blog" {
		t.Fatalf("WorkflowID mismatch: %v %v", got, ok)
	}

	ctx = WithAgentID(ctx, "writer")
	if got, ok := AgentID(ctx); !ok || got != "writer" {
		t.Fatalf("AgentID mismatch: %v %v", got, ok)
	}

	ctx = WithAttempt(ctx, 2)
	if got, ok := Attempt(ctx); !ok || got != 2 {
		t.Fatalf("Attempt mismatch: %v %v", got, ok)
	}
}
