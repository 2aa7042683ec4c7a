package handlers

import (
	"net/http"

	"github.com/voiceforge/forge-gateway/internal/common"
	"github.com/voiceforge/forge-gateway/internal/tools"
)

// ToolsHandler lists the tools in the current registry snapshot.
type ToolsHandler struct {
	registry *tools.Store
	logger   *common.Logger
}

// NewToolsHandler creates a new tools listing handler.
func NewToolsHandler(registry *tools.Store, logger *common.Logger) *ToolsHandler {
	return &ToolsHandler{registry: registry, logger: logger}
}

// toolSummary is the outward view of a tool: the action block (URLs,
// templates) stays internal.
type toolSummary struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Parameters  tools.ParameterSchema `json:"parameters"`
}

// ServeHTTP handles GET /tools.
func (h *ToolsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	defs := h.registry.Current().List()
	summaries := make([]toolSummary, 0, len(defs))
	for _, td := range defs {
		summaries = append(summaries, toolSummary{
			Name:        td.Name,
			Description: td.Description,
			Parameters:  td.Parameters,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"tools": summaries,
	})
}
