package orchestration

import (
	"context"
	"time"

	"github.com/BaSui01/agentweave/agent"
	"github.com/BaSui01/agentweave/types"
	"github.com/BaSui01/agentweave/workflow"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/BaSui01/agentweave/orchestration"

// Resolver looks up definitions by id. *registry.Registry implements it.
type Resolver interface {
	GetAgent(id string) (agent.Definition, error)
	GetWorkflow(id string) (workflow.Definition, error)
}

// RunResult 一次运行的结果
type RunResult struct {
	RunID      string
	WorkflowID string
	Pattern    workflow.PatternKind
	Status     RunStatus
	Output     string
	Transcript *Transcript
	Err        error
	StartedAt  time.Time
	Duration   time.Duration
}

// Succeeded reports whether the run reached StatusSucceeded.
func (r *RunResult) Succeeded() bool { return r.Status == StatusSucceeded }

// Engine 编排引擎
// 除注册表外不持有任何跨运行的可变状态，可被多个 goroutine 并发调用
type Engine struct {
	resolver Resolver
	invoker  agent.Invoker
	defaults Options
	observer Observer
	tracer   trace.Tracer
	logger   *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver adds a lifecycle observer. May be given more than once.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		if o == nil {
			return
		}
		if m, ok := e.observer.(multiObserver); ok {
			e.observer = append(m, o)
			return
		}
		if _, nop := e.observer.(NopObserver); nop {
			e.observer = o
			return
		}
		e.observer = multiObserver{e.observer, o}
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) EngineOption {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithDefaultOptions sets the options used for zero fields of per-run Options.
func WithDefaultOptions(o Options) EngineOption {
	return func(e *Engine) {
		e.defaults = o.withDefaults(DefaultOptions())
	}
}

// New 创建编排引擎
func New(resolver Resolver, invoker agent.Invoker, opts ...EngineOption) *Engine {
	e := &Engine{
		resolver: resolver,
		invoker:  invoker,
		defaults: DefaultOptions(),
		observer: NopObserver{},
		tracer:   otel.Tracer(tracerName),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("component", "orchestration"))
	return e
}

// Defaults returns the engine-level default options.
func (e *Engine) Defaults() Options { return e.defaults }

// RunByID looks the workflow up and runs it. An unknown id yields a Failed
// result carrying a NotFoundError.
func (e *Engine) RunByID(ctx context.Context, workflowID string, input []types.Message, opts Options) *RunResult {
	def, err := e.resolver.GetWorkflow(workflowID)
	if err != nil {
		now := time.Now()
		return &RunResult{
			RunID:      uuid.NewString(),
			WorkflowID: workflowID,
			Status:     StatusFailed,
			Transcript: newTranscript(),
			Err:        err,
			StartedAt:  now,
		}
	}
	return e.Run(ctx, def, input, opts)
}

// Run 执行工作流
// 失败总是体现在返回的 RunResult 中，从不 panic 也不返回 error
func (e *Engine) Run(ctx context.Context, def workflow.Definition, input []types.Message, opts Options) *RunResult {
	result := &RunResult{
		RunID:      uuid.NewString(),
		WorkflowID: def.ID,
		Pattern:    def.Kind(),
		Status:     StatusPending,
		Transcript: newTranscript(),
		StartedAt:  time.Now(),
	}

	ctx, span := e.tracer.Start(ctx, "orchestration.run", trace.WithAttributes(
		attribute.String("run.id", result.RunID),
		attribute.String("workflow.id", def.ID),
		attribute.String("workflow.pattern", string(def.Kind())),
	))
	defer span.End()

	ctx = types.WithRunID(ctx, result.RunID)
	ctx = types.WithWorkflowID(ctx, def.ID)
	if sc := span.SpanContext(); sc.HasTraceID() {
		ctx = types.WithTraceID(ctx, sc.TraceID().String())
	}

	logger := e.logger.With(
		zap.String("run_id", result.RunID),
		zap.String("workflow_id", def.ID),
		zap.String("pattern", string(def.Kind())),
	)

	e.observer.RunStarted(result.RunID, def.ID, def.Kind())
	result.Status = StatusRunning
	logger.Info("run started", zap.Int("input_messages", len(input)))

	output, err := e.execute(ctx, def, input, opts.withDefaults(e.defaults), result.Transcript, logger)
	result.Transcript.seal()
	result.Duration = time.Since(result.StartedAt)

	switch {
	case err == nil:
		result.Status = StatusSucceeded
		result.Output = output
	case ctx.Err() != nil:
		result.Status = StatusCancelled
		result.Err = ctx.Err()
	default:
		result.Status = StatusFailed
		result.Err = err
	}

	span.SetAttributes(
		attribute.String("run.status", string(result.Status)),
		attribute.Int("run.turns", result.Transcript.Len()),
	)
	if result.Err != nil {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	fields := []zap.Field{
		zap.String("status", string(result.Status)),
		zap.Int("turns", result.Transcript.Len()),
		zap.Duration("duration", result.Duration),
	}
	if result.Err != nil {
		fields = append(fields, zap.Error(result.Err))
	}
	if result.Status == StatusFailed {
		logger.Warn("run finished", fields...)
	} else {
		logger.Info("run finished", fields...)
	}

	e.observer.RunFinished(result)
	return result
}

// execute validates and resolves def, then dispatches on its pattern.
// Configuration errors surface here before any invocation.
func (e *Engine) execute(ctx context.Context, def workflow.Definition, input []types.Message, opts Options, tr *Transcript, logger *zap.Logger) (string, error) {
	if err := def.Check(); err != nil {
		return "", err
	}
	agents, err := e.resolve(def)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r := &runner{
		ctx:        ctx,
		engine:     e,
		def:        def,
		opts:       opts,
		agents:     agents,
		input:      types.CloneMessages(input),
		transcript: tr,
		logger:     logger,
	}
	if err := def.Pattern.Accept(r); err != nil {
		return "", err
	}
	return r.output, nil
}

// resolve looks up every agent referenced by def. The first missing id fails
// the run with a NotFoundError.
func (e *Engine) resolve(def workflow.Definition) (map[string]agent.Definition, error) {
	ids := def.AgentIDs()
	agents := make(map[string]agent.Definition, len(ids))
	for _, id := range ids {
		a, err := e.resolver.GetAgent(id)
		if err != nil {
			return nil, err
		}
		agents[id] = a
	}
	return agents, nil
}
