package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/voiceforge/forge-gateway/internal/common"
	"github.com/voiceforge/forge-gateway/internal/dispatch"
)

// TestToolHandler lets operators invoke a tool directly with an arbitrary
// parameter object, bypassing the platform envelope. For verification only.
type TestToolHandler struct {
	executor *dispatch.Executor
	logger   *common.Logger
}

// NewTestToolHandler creates a new test-tool handler.
func NewTestToolHandler(executor *dispatch.Executor, logger *common.Logger) *TestToolHandler {
	return &TestToolHandler{executor: executor, logger: logger}
}

// ServeHTTP handles POST /test-tool/{name}.
func (h *TestToolHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	toolName := strings.TrimPrefix(r.URL.Path, "/test-tool/")
	if toolName == "" || strings.Contains(toolName, "/") {
		WriteError(w, http.StatusNotFound, "tool name missing from path")
		return
	}

	var parameters map[string]any
	if err := json.NewDecoder(r.Body).Decode(&parameters); err != nil {
		WriteError(w, http.StatusBadRequest, "request body must be a JSON parameter object")
		return
	}

	h.logger.Info().Str("tool", toolName).Msg("test-tool invocation")

	result, err := h.executor.Execute(r.Context(), toolName, parameters)
	if err != nil {
		WriteJSON(w, http.StatusOK, map[string]any{
			"tool_name":  toolName,
			"parameters": parameters,
			"error":      err.Error(),
			"status":     "error",
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"tool_name":  toolName,
		"parameters": parameters,
		"result":     result,
		"status":     "success",
	})
}
