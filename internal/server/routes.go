package server

import "net/http"

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Platform webhook. The catch-all keeps alternate webhook paths the
	// platform probes from surfacing as 404s.
	mux.HandleFunc("/webhook/tool-call", s.app.WebhookHandler.ServeHTTP)
	mux.HandleFunc("/webhook/", s.app.CatchAllHandler.ServeHTTP)

	// Operator endpoints
	mux.HandleFunc("/test-tool/", s.app.TestToolHandler.ServeHTTP)
	mux.HandleFunc("/tools", s.app.ToolsHandler.ServeHTTP)

	// MCP endpoint (JSON-RPC over HTTP)
	if s.app.MCPHandler != nil {
		mux.Handle("/mcp", s.app.MCPHandler)
	}

	// Admin routes
	mux.HandleFunc("/admin/reload", s.app.ReloadHandler.ServeHTTP)

	// API routes
	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/status", s.app.StatusHandler.ServeHTTP)
	mux.HandleFunc("/api/services", s.app.ServicesHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}
