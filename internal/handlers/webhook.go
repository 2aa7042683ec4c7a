package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/voiceforge/forge-gateway/internal/common"
	"github.com/voiceforge/forge-gateway/internal/dispatch"
	"github.com/voiceforge/forge-gateway/internal/webhook"
)

// WebhookHandler handles the platform's tool-call webhook.
//
// The endpoint always answers HTTP 200 with the platform envelope; all
// failures travel in-band. Known gap: the platform does not sign these
// webhooks, so the endpoint is unauthenticated by contract — deployments
// that need protection must front it with a network-level control.
type WebhookHandler struct {
	executor *dispatch.Executor
	logger   *common.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(executor *dispatch.Executor, logger *common.Logger) *WebhookHandler {
	return &WebhookHandler{executor: executor, logger: logger}
}

// ServeHTTP handles POST /webhook/tool-call.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	log := h.requestLogger(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read webhook body")
		WriteJSON(w, http.StatusOK, webhook.NoopEnvelope(fmt.Sprintf("Error: Invalid JSON - %v", err)))
		return
	}

	result, err := webhook.Normalize(body)
	if err != nil {
		// Normalization errors (malformed body, malformed arguments, no tool
		// name) are reported in-band; without a call id the simplified
		// fallback envelope applies.
		log.Warn().Err(err).Msg("webhook payload did not normalize")
		WriteJSON(w, http.StatusOK, webhook.FailureEnvelope("", err.Error()))
		return
	}

	if result.IsNoop() {
		log.Debug().Str("marker", result.NoopMarker).Msg("non-actionable webhook message")
		WriteJSON(w, http.StatusOK, webhook.NoopEnvelope(result.NoopMarker))
		return
	}

	call := result.Call
	log.Info().Str("tool", call.ToolName).Str("tool_call_id", call.CallID).Msg("tool call received")

	formatted, err := h.executor.Execute(r.Context(), call.ToolName, call.Arguments)
	if err != nil {
		log.Warn().Str("tool", call.ToolName).Err(err).Msg("tool invocation failed")
		WriteJSON(w, http.StatusOK, webhook.FailureEnvelope(call.CallID, err.Error()))
		return
	}

	log.Info().Str("tool", call.ToolName).Msg("tool invocation succeeded")
	WriteJSON(w, http.StatusOK, webhook.SuccessEnvelope(call.CallID, formatted))
}

// requestLogger attaches the request correlation ID when present.
func (h *WebhookHandler) requestLogger(r *http.Request) *common.Logger {
	if id := r.Header.Get("X-Correlation-ID"); id != "" {
		return h.logger.WithCorrelationId(id)
	}
	return h.logger
}

// CatchAllWebhookHandler answers any other /webhook/* path. The platform is
// known to probe alternate webhook URLs; answering keeps those probes out of
// the error logs.
type CatchAllWebhookHandler struct {
	logger *common.Logger
}

// NewCatchAllWebhookHandler creates the catch-all handler.
func NewCatchAllWebhookHandler(logger *common.Logger) *CatchAllWebhookHandler {
	return &CatchAllWebhookHandler{logger: logger}
}

// ServeHTTP handles POST /webhook/{anything}.
func (h *CatchAllWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug().Str("path", r.URL.Path).Msg("catch-all webhook hit")
	WriteJSON(w, http.StatusOK, webhook.NoopEnvelope("Caught by catch-all"))
}
