package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/BaSui01/agentweave/orchestration"
	"github.com/BaSui01/agentweave/types"
	"github.com/BaSui01/agentweave/workflow"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// =============================================================================
// ▶️ Workflow 运行 Handler
// =============================================================================

// Runner 执行工作流；*orchestration.Engine 实现了它
type Runner interface {
	RunByID(ctx context.Context, workflowID string, input []types.Message, opts orchestration.Options) *orchestration.RunResult
}

// RunHandler 处理 POST /v1/workflows/{id}/run
type RunHandler struct {
	runner  Runner
	limiter *rate.Limiter
	logger  *zap.Logger

	mu       sync.RWMutex
	defaults orchestration.Options
}

// RunRequest 运行请求；input 与 messages 二选一
type RunRequest struct {
	Input    string          `json:"input,omitempty"`
	Messages []types.Message `json:"messages,omitempty"`
	Options  *RunOptions     `json:"options,omitempty"`
}

// RunOptions 单次运行可覆盖的参数，零值表示使用服务端默认值
type RunOptions struct {
	TimeoutMs     int64  `json:"timeout_ms,omitempty"`
	StepTimeoutMs int64  `json:"step_timeout_ms,omitempty"`
	MaxAttempts   int    `json:"max_attempts,omitempty"`
	Concurrency   int    `json:"concurrency,omitempty"`
	FailFast      *bool  `json:"fail_fast,omitempty"`
	Quorum        string `json:"quorum,omitempty"`
	Dispatch      string `json:"dispatch,omitempty"`
}

// RunResponse 运行结果；失败时作为错误响应的 data 返回
type RunResponse struct {
	RunID      string                    `json:"run_id"`
	WorkflowID string                    `json:"workflow_id"`
	Pattern    workflow.PatternKind      `json:"pattern,omitempty"`
	Status     orchestration.RunStatus   `json:"status"`
	Output     string                    `json:"output,omitempty"`
	StartedAt  time.Time                 `json:"started_at"`
	DurationMs int64                     `json:"duration_ms"`
	Transcript *orchestration.Transcript `json:"transcript"`
}

// NewRunHandler creates a run handler. A nil limiter disables rate limiting.
func NewRunHandler(runner Runner, limiter *rate.Limiter, defaults orchestration.Options, logger *zap.Logger) *RunHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunHandler{
		runner:   runner,
		limiter:  limiter,
		defaults: defaults,
		logger:   logger.With(zap.String("component", "run_handler")),
	}
}

// SetDefaults 替换服务端默认运行参数，供配置热更新使用
func (h *RunHandler) SetDefaults(o orchestration.Options) {
	h.mu.Lock()
	h.defaults = o
	h.mu.Unlock()
}

// Defaults returns the current server-side run options.
func (h *RunHandler) Defaults() orchestration.Options {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.defaults
}

// HandleRun POST /v1/workflows/{id}/run
func (h *RunHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow() {
		WriteError(w, types.NewError(types.ErrRateLimited, "too many run requests").
			WithRetryable(true).
			WithHTTPStatus(http.StatusTooManyRequests), h.logger)
		return
	}

	var req RunRequest
	if !DecodeJSONBody(w, r, &req, true, h.logger) {
		return
	}
	input, err := req.messages()
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	opts, err := req.Options.apply(h.Defaults())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	ctx := r.Context()
	if req.Options != nil && req.Options.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.Options.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	result := h.runner.RunByID(ctx, r.PathValue("id"), input, opts)
	resp := RunResponse{
		RunID:      result.RunID,
		WorkflowID: result.WorkflowID,
		Pattern:    result.Pattern,
		Status:     result.Status,
		Output:     result.Output,
		StartedAt:  result.StartedAt,
		DurationMs: result.Duration.Milliseconds(),
		Transcript: result.Transcript,
	}

	switch result.Status {
	case orchestration.StatusSucceeded:
		WriteSuccess(w, resp)
	case orchestration.StatusCancelled:
		info := errorInfo(types.NewError(types.ErrRunCancelled, "run cancelled: "+result.Err.Error()).
			WithCause(result.Err))
		writeErrorWithData(w, info, resp, result.Err, h.logger)
	default:
		writeErrorWithData(w, runErrorInfo(result.Err), resp, result.Err, h.logger)
	}
}

// runErrorInfo 配置类错误保持 4xx，其余执行失败统一为 500
func runErrorInfo(err error) *ErrorInfo {
	info := errorInfo(err)
	switch types.ErrorCode(info.Code) {
	case types.ErrNotFound, types.ErrValidation, types.ErrInvalidRequest:
	default:
		info.HTTPStatus = http.StatusInternalServerError
	}
	return info
}

// messages 把请求转换为初始对话
func (req RunRequest) messages() ([]types.Message, error) {
	hasInput := strings.TrimSpace(req.Input) != ""
	switch {
	case hasInput && len(req.Messages) > 0:
		return nil, invalidRequest("input and messages are mutually exclusive")
	case hasInput:
		return []types.Message{types.NewUserMessage(req.Input)}, nil
	case len(req.Messages) > 0:
		return types.CloneMessages(req.Messages), nil
	default:
		return nil, invalidRequest("input or messages is required")
	}
}

// apply 把请求参数叠加到 base 上
func (o *RunOptions) apply(base orchestration.Options) (orchestration.Options, error) {
	if o == nil {
		return base, nil
	}
	if o.TimeoutMs < 0 || o.StepTimeoutMs < 0 || o.MaxAttempts < 0 || o.Concurrency < 0 {
		return base, invalidRequest("options must not be negative")
	}
	if o.StepTimeoutMs > 0 {
		base.StepTimeout = time.Duration(o.StepTimeoutMs) * time.Millisecond
	}
	if o.MaxAttempts > 0 {
		base.MaxAttempts = o.MaxAttempts
	}
	if o.Concurrency > 0 {
		base.Concurrency = o.Concurrency
	}
	if o.FailFast != nil {
		failFast := *o.FailFast
		base.FailFast = &failFast
	}
	if o.Quorum != "" {
		q, err := orchestration.ParseQuorum(o.Quorum)
		if err != nil {
			return base, invalidRequest(err.Error())
		}
		base.Quorum = q
	}
	if o.Dispatch != "" {
		d, err := orchestration.ParseDispatch(o.Dispatch)
		if err != nil {
			return base, invalidRequest(err.Error())
		}
		base.Dispatch = d
	}
	return base, nil
}

func invalidRequest(msg string) error {
	return types.NewError(types.ErrInvalidRequest, msg).WithHTTPStatus(http.StatusBadRequest)
}
