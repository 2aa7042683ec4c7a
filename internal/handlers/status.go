package handlers

import (
	"net/http"
	"strings"

	"github.com/voiceforge/forge-gateway/internal/common"
	"github.com/voiceforge/forge-gateway/internal/services"
	"github.com/voiceforge/forge-gateway/internal/tools"
)

// StatusHandler reports aggregated system status: per-service health, the
// environment summary, and the tool registry size.
type StatusHandler struct {
	registry  *tools.Store
	directory *services.Store
	checker   *services.Checker
	publicURL string
	logger    *common.Logger
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(registry *tools.Store, directory *services.Store, checker *services.Checker, publicURL string, logger *common.Logger) *StatusHandler {
	return &StatusHandler{
		registry:  registry,
		directory: directory,
		checker:   checker,
		publicURL: publicURL,
		logger:    logger,
	}
}

// ServeHTTP handles GET /api/status.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	dir := h.directory.Current()
	health := h.checker.HealthCheckAll(r.Context(), dir)

	WriteJSON(w, http.StatusOK, map[string]any{
		"gateway": map[string]any{
			"online":  true,
			"message": "Running",
		},
		"services": health,
		"environment": map[string]any{
			"public_server_url": h.publicURL,
			"tunnel_active":     h.publicURL != "" && !strings.Contains(h.publicURL, "localhost"),
			"deployment_type":   dir.Deployment().DeploymentType,
		},
		"configuration": map[string]any{
			"tools_count": h.registry.Current().Len(),
		},
		"status": "success",
	})
}

// ServicesHandler exposes the service directory view with deployment info.
type ServicesHandler struct {
	directory *services.Store
	logger    *common.Logger
}

// NewServicesHandler creates a new services directory handler.
func NewServicesHandler(directory *services.Store, logger *common.Logger) *ServicesHandler {
	return &ServicesHandler{directory: directory, logger: logger}
}

// ServeHTTP handles GET /api/services.
func (h *ServicesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	dir := h.directory.Current()
	WriteJSON(w, http.StatusOK, map[string]any{
		"deployment": dir.Deployment(),
		"status":     "success",
	})
}
