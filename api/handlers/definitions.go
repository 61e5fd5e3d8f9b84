package handlers

import (
	"context"
	"errors"
	"iter"
	"net/http"

	"github.com/BaSui01/agentweave/agent"
	"github.com/BaSui01/agentweave/harness"
	"github.com/BaSui01/agentweave/types"
	"github.com/BaSui01/agentweave/workflow"
	"go.uber.org/zap"
)

// =============================================================================
// 🗂️ Agent / Workflow 定义管理
// =============================================================================

// Registry 定义存储；*registry.Registry 实现了它
type Registry interface {
	RegisterAgent(def agent.Definition) error
	ReplaceAgent(def agent.Definition) error
	GetAgent(id string) (agent.Definition, error)
	HasAgent(id string) bool
	DeleteAgent(id string) error
	Agents() iter.Seq[agent.Definition]

	RegisterWorkflow(def workflow.Definition) error
	ReplaceWorkflow(def workflow.Definition) error
	GetWorkflow(id string) (workflow.Definition, error)
	DeleteWorkflow(id string) error
	Workflows() iter.Seq[workflow.Definition]
}

// ChangeHook 在每次成功的定义变更后调用，例如把注册表写回存储
type ChangeHook func(ctx context.Context) error

// DefinitionHandler 处理 agent、workflow 与模板端点
type DefinitionHandler struct {
	registry Registry
	onChange ChangeHook
	logger   *zap.Logger
}

// NewDefinitionHandler creates a definition handler. onChange may be nil.
func NewDefinitionHandler(reg Registry, onChange ChangeHook, logger *zap.Logger) *DefinitionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefinitionHandler{
		registry: reg,
		onChange: onChange,
		logger:   logger.With(zap.String("component", "definition_handler")),
	}
}

// ValidationReport 静态校验结果
type ValidationReport struct {
	WorkflowID string            `json:"workflow_id"`
	Valid      bool              `json:"valid"`
	Violations []types.Violation `json:"violations"`
}

// TemplateInfo 预定义 agent 模板
type TemplateInfo struct {
	Name         string     `json:"name"`
	Role         agent.Role `json:"role"`
	Description  string     `json:"description"`
	Instructions string     `json:"instructions"`
}

// PatternInfo 支持的编排模式
type PatternInfo struct {
	Kind        workflow.PatternKind `json:"kind"`
	Description string               `json:"description"`
}

// InstantiateTemplateRequest 由模板创建 agent 的请求
type InstantiateTemplateRequest struct {
	ID          string   `json:"id,omitempty"`
	ModelID     string   `json:"model_id"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Tools       []string `json:"tools,omitempty"`
}

// =============================================================================
// 🤖 Agents
// =============================================================================

// HandleListAgents GET /v1/agents[?role=writer]
func (h *DefinitionHandler) HandleListAgents(w http.ResponseWriter, r *http.Request) {
	role := agent.Role(r.URL.Query().Get("role"))
	out := make([]agent.Definition, 0)
	for def := range h.registry.Agents() {
		if role == "" || def.Role == role {
			out = append(out, def)
		}
	}
	WriteSuccess(w, out)
}

// HandleGetAgent GET /v1/agents/{id}
func (h *DefinitionHandler) HandleGetAgent(w http.ResponseWriter, r *http.Request) {
	def, err := h.registry.GetAgent(r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, def)
}

// HandleCreateAgent POST /v1/agents
func (h *DefinitionHandler) HandleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var def agent.Definition
	if !DecodeJSONBody(w, r, &def, false, h.logger) {
		return
	}
	if err := h.registry.RegisterAgent(def); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.changed(r.Context())
	WriteCreated(w, def.Normalize())
}

// HandlePutAgent PUT /v1/agents/{id}：存在则替换，否则创建
func (h *DefinitionHandler) HandlePutAgent(w http.ResponseWriter, r *http.Request) {
	var def agent.Definition
	if !DecodeJSONBody(w, r, &def, false, h.logger) {
		return
	}
	id, ok := h.pathID(w, r, def.ID)
	if !ok {
		return
	}
	def.ID = id

	created, err := upsert(def, h.registry.ReplaceAgent, h.registry.RegisterAgent)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.changed(r.Context())
	if created {
		WriteCreated(w, def.Normalize())
		return
	}
	WriteSuccess(w, def.Normalize())
}

// HandleDeleteAgent DELETE /v1/agents/{id}
func (h *DefinitionHandler) HandleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.DeleteAgent(r.PathValue("id")); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.changed(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// 🔀 Workflows
// =============================================================================

// HandleListWorkflows GET /v1/workflows[?pattern=parallel]
func (h *DefinitionHandler) HandleListWorkflows(w http.ResponseWriter, r *http.Request) {
	kind := workflow.PatternKind(r.URL.Query().Get("pattern"))
	out := make([]workflow.Definition, 0)
	for def := range h.registry.Workflows() {
		if kind == "" || def.Kind() == kind {
			out = append(out, def)
		}
	}
	WriteSuccess(w, out)
}

// HandleGetWorkflow GET /v1/workflows/{id}
func (h *DefinitionHandler) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	def, err := h.registry.GetWorkflow(r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, def)
}

// HandleCreateWorkflow POST /v1/workflows
func (h *DefinitionHandler) HandleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var def workflow.Definition
	if !DecodeJSONBody(w, r, &def, false, h.logger) {
		return
	}
	if err := h.registry.RegisterWorkflow(def); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.changed(r.Context())
	WriteCreated(w, def.Normalize())
}

// HandlePutWorkflow PUT /v1/workflows/{id}：存在则替换，否则创建
func (h *DefinitionHandler) HandlePutWorkflow(w http.ResponseWriter, r *http.Request) {
	var def workflow.Definition
	if !DecodeJSONBody(w, r, &def, false, h.logger) {
		return
	}
	id, ok := h.pathID(w, r, def.ID)
	if !ok {
		return
	}
	def.ID = id

	created, err := upsert(def, h.registry.ReplaceWorkflow, h.registry.RegisterWorkflow)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.changed(r.Context())
	if created {
		WriteCreated(w, def.Normalize())
		return
	}
	WriteSuccess(w, def.Normalize())
}

// HandleDeleteWorkflow DELETE /v1/workflows/{id}
func (h *DefinitionHandler) HandleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.DeleteWorkflow(r.PathValue("id")); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.changed(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// HandleValidateWorkflow GET /v1/workflows/{id}/validate
// 静态校验结构并检查所有 agent 引用是否可解析
func (h *DefinitionHandler) HandleValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	def, err := h.registry.GetWorkflow(r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	vs := harness.WorkflowValidator{}.Check(def, h.registry)
	if vs == nil {
		vs = []types.Violation{}
	}
	WriteSuccess(w, ValidationReport{WorkflowID: def.ID, Valid: len(vs) == 0, Violations: vs})
}

// =============================================================================
// 📋 Templates
// =============================================================================

// HandleListTemplates GET /v1/templates
func (h *DefinitionHandler) HandleListTemplates(w http.ResponseWriter, _ *http.Request) {
	names := agent.Templates()
	out := make([]TemplateInfo, 0, len(names))
	for _, name := range names {
		b, err := agent.Template(name)
		if err != nil {
			continue
		}
		out = append(out, templateInfo(name, b))
	}
	WriteSuccess(w, out)
}

// HandleGetTemplate GET /v1/templates/{name}
func (h *DefinitionHandler) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	b, err := agent.Template(name)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, templateInfo(name, b))
}

func templateInfo(name string, b *agent.Builder) TemplateInfo {
	draft := b.Draft()
	return TemplateInfo{
		Name:         name,
		Role:         draft.Role,
		Description:  draft.Description,
		Instructions: draft.Instructions,
	}
}

// HandleListPatterns GET /v1/patterns
func (h *DefinitionHandler) HandleListPatterns(w http.ResponseWriter, _ *http.Request) {
	kinds := workflow.Kinds()
	out := make([]PatternInfo, len(kinds))
	for i, k := range kinds {
		out[i] = PatternInfo{Kind: k, Description: k.Describe()}
	}
	WriteSuccess(w, out)
}

// HandleInstantiateTemplate POST /v1/templates/{name}
// 由模板创建并注册一个 agent
func (h *DefinitionHandler) HandleInstantiateTemplate(w http.ResponseWriter, r *http.Request) {
	var req InstantiateTemplateRequest
	if !DecodeJSONBody(w, r, &req, true, h.logger) {
		return
	}
	b, err := agent.Template(r.PathValue("name"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	if req.ID != "" {
		b.WithID(req.ID)
	}
	b.WithModel(req.ModelID)
	if req.Temperature != nil {
		b.WithTemperature(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		b.WithMaxTokens(req.MaxTokens)
	}
	if len(req.Tools) > 0 {
		b.WithTools(req.Tools...)
	}

	def, err := b.Build()
	if err == nil {
		err = h.registry.RegisterAgent(def)
	}
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.changed(r.Context())
	WriteCreated(w, def)
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// pathID 取路径中的 id；请求体中的 id 为空或与路径一致时才接受
func (h *DefinitionHandler) pathID(w http.ResponseWriter, r *http.Request, bodyID string) (string, bool) {
	id := r.PathValue("id")
	if bodyID != "" && bodyID != id {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"id in body does not match id in path", h.logger)
		return "", false
	}
	return id, true
}

// changed 通知变更；持久化失败只记录日志，内存中的变更已经生效
func (h *DefinitionHandler) changed(ctx context.Context) {
	if h.onChange == nil {
		return
	}
	if err := h.onChange(ctx); err != nil {
		h.logger.Error("persisting definitions failed", zap.Error(err))
	}
}

// upsert 先尝试替换，不存在时注册
func upsert[T any](def T, replace, register func(T) error) (created bool, err error) {
	err = replace(def)
	if err == nil {
		return false, nil
	}
	var nf *types.NotFoundError
	if !errors.As(err, &nf) {
		return false, err
	}
	return true, register(def)
}
