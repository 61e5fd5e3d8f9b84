package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/BaSui01/agentweave/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Invoker 外部调用能力：把对话交给某个 agent 并取回它的一条回复
// 失败时返回 *types.InvocationError（Timeout / ProviderError / RateLimited）
type Invoker interface {
	Invoke(ctx context.Context, def Definition, conversation []types.Message, timeout time.Duration) (types.Message, error)
}

// InvokerFunc adapts a plain function to Invoker.
type InvokerFunc func(ctx context.Context, def Definition, conversation []types.Message, timeout time.Duration) (types.Message, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, def Definition, conversation []types.Message, timeout time.Duration) (types.Message, error) {
	return f(ctx, def, conversation, timeout)
}

// Middleware decorates an Invoker.
type Middleware func(Invoker) Invoker

// Chain applies middlewares so the first one is outermost.
func Chain(inv Invoker, middlewares ...Middleware) Invoker {
	for i := len(middlewares) - 1; i >= 0; i-- {
		inv = middlewares[i](inv)
	}
	return inv
}

// RateLimited waits on limiter before each call. A wait that cannot be
// satisfied before the deadline surfaces as a RateLimited invocation error.
func RateLimited(inv Invoker, limiter *rate.Limiter) Invoker {
	if limiter == nil {
		return inv
	}
	return InvokerFunc(func(ctx context.Context, def Definition, conversation []types.Message, timeout time.Duration) (types.Message, error) {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return types.Message{}, ctx.Err()
			}
			return types.Message{}, types.NewInvocationError(def.ID, types.CauseRateLimited, err)
		}
		return inv.Invoke(ctx, def, conversation, timeout)
	})
}

// WithRateLimit is RateLimited as a Middleware.
func WithRateLimit(limiter *rate.Limiter) Middleware {
	return func(inv Invoker) Invoker { return RateLimited(inv, limiter) }
}

// WithLogging logs every invocation at debug level and failures at warn.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "invoker"))
	return func(inv Invoker) Invoker {
		return InvokerFunc(func(ctx context.Context, def Definition, conversation []types.Message, timeout time.Duration) (types.Message, error) {
			start := time.Now()
			msg, err := inv.Invoke(ctx, def, conversation, timeout)
			fields := []zap.Field{
				zap.String("agent_id", def.ID),
				zap.String("model_id", def.ModelID),
				zap.Int("messages", len(conversation)),
				zap.Duration("latency", time.Since(start)),
			}
			if runID, ok := types.RunID(ctx); ok {
				fields = append(fields, zap.String("run_id", runID))
			}
			if workflowID, ok := types.WorkflowID(ctx); ok {
				fields = append(fields, zap.String("workflow_id", workflowID))
			}
			if traceID, ok := types.TraceID(ctx); ok {
				fields = append(fields, zap.String("trace_id", traceID))
			}
			if attempt, ok := types.Attempt(ctx); ok {
				fields = append(fields, zap.Int("attempt", attempt))
			}
			if err != nil {
				logger.Warn("invocation failed", append(fields, zap.Error(err))...)
				return msg, err
			}
			logger.Debug("invocation completed", fields...)
			return msg, nil
		})
	}
}

// EchoInvoker answers every call with the last message content prefixed by
// the agent id. It backs dry-run mode and is handy in examples.
type EchoInvoker struct{}

// Invoke implements Invoker.
func (EchoInvoker) Invoke(ctx context.Context, def Definition, conversation []types.Message, _ time.Duration) (types.Message, error) {
	if err := ctx.Err(); err != nil {
		return types.Message{}, err
	}
	return types.NewAssistantMessage(def.ID, fmt.Sprintf("[%s] %s", def.ID, types.LastContent(conversation))), nil
}
