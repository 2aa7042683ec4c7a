package handlers

import (
	"net/http"

	"github.com/voiceforge/forge-gateway/internal/common"
	"github.com/voiceforge/forge-gateway/internal/services"
	"github.com/voiceforge/forge-gateway/internal/tools"
)

// ReloadHandler re-reads the tool and service documents and swaps both
// snapshots. Each swap is atomic; requests in flight keep the snapshot they
// captured at entry.
type ReloadHandler struct {
	registry    *tools.Store
	directory   *services.Store
	logger      *common.Logger
	afterReload func()
}

// NewReloadHandler creates a new reload handler.
func NewReloadHandler(registry *tools.Store, directory *services.Store, logger *common.Logger) *ReloadHandler {
	return &ReloadHandler{registry: registry, directory: directory, logger: logger}
}

// SetAfterReload registers a callback run after both snapshots have been
// swapped successfully (used to refresh the MCP tool set).
func (h *ReloadHandler) SetAfterReload(fn func()) {
	h.afterReload = fn
}

// ServeHTTP handles POST /admin/reload.
func (h *ReloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.registry.Reload(); err != nil {
		h.logger.Error().Err(err).Msg("tool registry reload failed")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.directory.Reload(); err != nil {
		h.logger.Error().Err(err).Msg("service directory reload failed")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.afterReload != nil {
		h.afterReload()
	}

	toolCount := h.registry.Current().Len()
	h.logger.Info().Int("tools", toolCount).Msg("configuration reloaded")

	WriteJSON(w, http.StatusOK, map[string]any{
		"message":     "Configuration reloaded successfully",
		"tools_count": toolCount,
		"status":      "success",
	})
}
