// Package mcp exposes the gateway's tool registry over the Model Context
// Protocol, giving operators a second verification channel alongside the
// /test-tool endpoint. Tool calls route through the same dispatch path as
// platform webhooks.
package mcp

import (
	"context"
	"net/http"
	"sync"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/voiceforge/forge-gateway/internal/common"
	"github.com/voiceforge/forge-gateway/internal/dispatch"
	"github.com/voiceforge/forge-gateway/internal/tools"
)

// Handler is the HTTP handler for the /mcp endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	server     *mcpserver.MCPServer
	streamable *mcpserver.StreamableHTTPServer
	registry   *tools.Store
	executor   *dispatch.Executor
	logger     *common.Logger

	mu         sync.Mutex
	registered []string
}

// NewHandler creates an MCP handler serving the registry's current tools.
func NewHandler(registry *tools.Store, executor *dispatch.Executor, logger *common.Logger) *Handler {
	mcpSrv := mcpserver.NewMCPServer(
		"forge-gateway",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	h := &Handler{
		server:   mcpSrv,
		registry: registry,
		executor: executor,
		logger:   logger,
	}
	h.streamable = mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithStateLess(true),
	)

	count := h.registerSnapshot()
	logger.Info().Int("tools", count).Msg("MCP handler initialized")

	return h
}

// Refresh re-registers tools from the current registry snapshot. Called
// after an administrative reload so the MCP surface tracks the registry.
func (h *Handler) Refresh() {
	count := h.registerSnapshot()
	h.logger.Info().Int("tools", count).Msg("MCP tool set refreshed")
}

// registerSnapshot swaps the registered MCP tool set for the registry's
// current snapshot and returns the new tool count.
func (h *Handler) registerSnapshot() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.registered) > 0 {
		h.server.DeleteTools(h.registered...)
		h.registered = nil
	}

	defs := h.registry.Current().List()
	for _, td := range defs {
		h.server.AddTool(buildMCPTool(td), h.toolHandler(td.Name))
		h.registered = append(h.registered, td.Name)
	}
	return len(defs)
}

// toolHandler routes an MCP tool call through the dispatch executor.
func (h *Handler) toolHandler(toolName string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, r mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		result, err := h.executor.Execute(ctx, toolName, r.GetArguments())
		if err != nil {
			return mcpgo.NewToolResultError(err.Error()), nil
		}
		return mcpgo.NewToolResultText(result), nil
	}
}

// buildMCPTool converts a registry ToolDefinition into an mcp.Tool with the
// equivalent parameter schema.
func buildMCPTool(td tools.ToolDefinition) mcpgo.Tool {
	required := make(map[string]bool, len(td.Parameters.Required))
	for _, name := range td.Parameters.Required {
		required[name] = true
	}

	opts := []mcpgo.ToolOption{mcpgo.WithDescription(td.Description)}
	for name, prop := range td.Parameters.Properties {
		opts = append(opts, buildParamOption(name, prop, required[name]))
	}
	return mcpgo.NewTool(td.Name, opts...)
}

// buildParamOption maps one parameter to the appropriate mcp-go tool option.
func buildParamOption(name string, prop tools.Property, required bool) mcpgo.ToolOption {
	var opts []mcpgo.PropertyOption
	if prop.Description != "" {
		opts = append(opts, mcpgo.Description(prop.Description))
	}
	if required {
		opts = append(opts, mcpgo.Required())
	}
	if len(prop.Enum) > 0 {
		opts = append(opts, mcpgo.Enum(prop.Enum...))
	}

	switch prop.Type {
	case "number", "integer":
		return mcpgo.WithNumber(name, opts...)
	case "boolean":
		return mcpgo.WithBoolean(name, opts...)
	case "array":
		opts = append([]mcpgo.PropertyOption{mcpgo.WithStringItems()}, opts...)
		return mcpgo.WithArray(name, opts...)
	default:
		// string, object, or unknown — all passed as string
		return mcpgo.WithString(name, opts...)
	}
}

// ServeHTTP delegates to the mcp-go StreamableHTTPServer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.streamable.ServeHTTP(w, r)
}
