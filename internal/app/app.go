package app

import (
	"fmt"

	"github.com/voiceforge/forge-gateway/internal/common"
	"github.com/voiceforge/forge-gateway/internal/config"
	"github.com/voiceforge/forge-gateway/internal/dispatch"
	"github.com/voiceforge/forge-gateway/internal/handlers"
	"github.com/voiceforge/forge-gateway/internal/mcp"
	"github.com/voiceforge/forge-gateway/internal/services"
	"github.com/voiceforge/forge-gateway/internal/tools"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Registry  *tools.Store
	Directory *services.Store
	Executor  *dispatch.Executor

	// HTTP handlers
	WebhookHandler  *handlers.WebhookHandler
	CatchAllHandler *handlers.CatchAllWebhookHandler
	TestToolHandler *handlers.TestToolHandler
	ToolsHandler    *handlers.ToolsHandler
	StatusHandler   *handlers.StatusHandler
	ServicesHandler *handlers.ServicesHandler
	ReloadHandler   *handlers.ReloadHandler
	HealthHandler   *handlers.HealthHandler
	VersionHandler  *handlers.VersionHandler
	MCPHandler      *mcp.Handler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	registry, err := tools.NewStore(cfg.Documents.Tools)
	if err != nil {
		return nil, fmt.Errorf("failed to load tool registry: %w", err)
	}
	a.Registry = registry

	directory, err := services.NewStore(cfg.Documents.Services)
	if err != nil {
		return nil, fmt.Errorf("failed to load service directory: %w", err)
	}
	a.Directory = directory

	a.Executor = dispatch.NewExecutor(registry, directory, logger)

	logger.Info().
		Int("tools", registry.Current().Len()).
		Str("deployment", directory.Current().Deployment().DeploymentType).
		Msg("tool registry and service directory loaded")

	a.initHandlers()

	logger.Info().Msg("application initialization complete")

	return a, nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	checker := services.NewChecker()

	a.WebhookHandler = handlers.NewWebhookHandler(a.Executor, a.Logger)
	a.CatchAllHandler = handlers.NewCatchAllWebhookHandler(a.Logger)
	a.TestToolHandler = handlers.NewTestToolHandler(a.Executor, a.Logger)
	a.ToolsHandler = handlers.NewToolsHandler(a.Registry, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.Registry, a.Directory, checker, a.Config.Server.PublicURL, a.Logger)
	a.ServicesHandler = handlers.NewServicesHandler(a.Directory, a.Logger)
	a.ReloadHandler = handlers.NewReloadHandler(a.Registry, a.Directory, a.Logger)
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)

	a.MCPHandler = mcp.NewHandler(a.Registry, a.Executor, a.Logger)
	a.ReloadHandler.SetAfterReload(a.MCPHandler.Refresh)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close closes all application resources.
func (a *App) Close() error {
	return nil
}
