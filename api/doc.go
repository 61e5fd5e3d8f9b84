// Copyright (c) AgentWeave Authors.
// Licensed under the MIT License.

// Package api documents the AgentWeave HTTP API. The handlers live in
// api/handlers.
//
// # API Overview
//
// AgentWeave provides a RESTful API for:
//   - Agent definition management (/v1/agents)
//   - Workflow definition management and static validation (/v1/workflows)
//   - Running a workflow and returning its transcript (/v1/workflows/{id}/run)
//   - Built-in agent templates (/v1/templates)
//   - Health monitoring (/health, /healthz, /ready)
//
// Prometheus metrics are served on a separate port at /metrics.
//
// # Response Envelope
//
// Every JSON response uses the same envelope:
//
//	{"success": true, "data": {...}, "timestamp": "..."}
//	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}, "timestamp": "..."}
//
// A failed run also carries the run result, including the partial
// transcript, in "data".
//
// # Error Codes
//
//	VALIDATION_ERROR, INVALID_REQUEST   400
//	NOT_FOUND                           404
//	RATE_LIMITED                        429
//	engine failures                     500
//	RUN_CANCELLED, SERVICE_UNAVAILABLE  503
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
package api
