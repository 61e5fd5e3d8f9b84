package handlers

import "net/http"

// =============================================================================
// 🧭 路由注册
// =============================================================================

// Routes 需要挂载的 handler；为 nil 的分组不注册
type Routes struct {
	Definitions *DefinitionHandler
	Runs        *RunHandler
	Health      *HealthHandler
}

// Register 在 mux 上注册全部 API 路由。
// 路由使用 Go 1.22 的 method pattern，r.Pattern 可作为低基数的指标标签。
func Register(mux *http.ServeMux, rt Routes) {
	if h := rt.Health; h != nil {
		mux.HandleFunc("GET /health", h.HandleHealth)
		mux.HandleFunc("GET /healthz", h.HandleHealthz)
		mux.HandleFunc("GET /ready", h.HandleReady)
		mux.HandleFunc("GET /readyz", h.HandleReady)
	}

	if h := rt.Definitions; h != nil {
		mux.HandleFunc("GET /v1/agents", h.HandleListAgents)
		mux.HandleFunc("POST /v1/agents", h.HandleCreateAgent)
		mux.HandleFunc("GET /v1/agents/{id}", h.HandleGetAgent)
		mux.HandleFunc("PUT /v1/agents/{id}", h.HandlePutAgent)
		mux.HandleFunc("DELETE /v1/agents/{id}", h.HandleDeleteAgent)

		mux.HandleFunc("GET /v1/workflows", h.HandleListWorkflows)
		mux.HandleFunc("POST /v1/workflows", h.HandleCreateWorkflow)
		mux.HandleFunc("GET /v1/workflows/{id}", h.HandleGetWorkflow)
		mux.HandleFunc("PUT /v1/workflows/{id}", h.HandlePutWorkflow)
		mux.HandleFunc("DELETE /v1/workflows/{id}", h.HandleDeleteWorkflow)
		mux.HandleFunc("GET /v1/workflows/{id}/validate", h.HandleValidateWorkflow)

		mux.HandleFunc("GET /v1/templates", h.HandleListTemplates)
		mux.HandleFunc("GET /v1/templates/{name}", h.HandleGetTemplate)
		mux.HandleFunc("POST /v1/templates/{name}", h.HandleInstantiateTemplate)
		mux.HandleFunc("GET /v1/patterns", h.HandleListPatterns)
	}

	if h := rt.Runs; h != nil {
		mux.HandleFunc("POST /v1/workflows/{id}/run", h.HandleRun)
	}
}

// NewRouter 创建注册了全部路由的 ServeMux
func NewRouter(rt Routes) *http.ServeMux {
	mux := http.NewServeMux()
	Register(mux, rt)
	return mux
}
