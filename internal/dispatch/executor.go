package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/voiceforge/forge-gateway/internal/common"
	"github.com/voiceforge/forge-gateway/internal/services"
	"github.com/voiceforge/forge-gateway/internal/tools"
)

// maxResponseSize caps the downstream response body to prevent OOM from
// unexpectedly large responses.
const maxResponseSize = 10 << 20 // 10MB

// defaultTimeout bounds one downstream dispatch. There is no retry; a slow
// tool backend extends the webhook's latency up to this bound.
const defaultTimeout = 30 * time.Second

// Executor runs tool invocations against their downstream backends.
// Registry and directory snapshots are captured once per invocation, so a
// concurrent reload never yields a mixed view within one call.
type Executor struct {
	registry   *tools.Store
	directory  *services.Store
	httpClient *http.Client
	logger     *common.Logger
	timeout    time.Duration
}

// NewExecutor creates an executor over the given registry and directory
// stores.
func NewExecutor(registry *tools.Store, directory *services.Store, logger *common.Logger) *Executor {
	return &Executor{
		registry:   registry,
		directory:  directory,
		httpClient: &http.Client{},
		logger:     logger,
		timeout:    defaultTimeout,
	}
}

// SetTimeout overrides the per-dispatch timeout bound.
func (e *Executor) SetTimeout(d time.Duration) {
	e.timeout = d
}

// Execute runs one tool invocation end to end: lookup, required-parameter
// presence check, URL resolution, template substitution, a single HTTP
// dispatch, and response formatting. All failures come back as typed errors
// for the envelope layer; nothing is retried.
func (e *Executor) Execute(ctx context.Context, toolName string, args map[string]any) (string, error) {
	reg := e.registry.Current()
	dir := e.directory.Current()

	td, err := reg.Lookup(toolName)
	if err != nil {
		return "", err
	}

	for _, name := range td.Parameters.Required {
		if _, ok := args[name]; !ok {
			return "", fmt.Errorf("%w: %q for tool %q", ErrMissingParameter, name, toolName)
		}
	}

	method := strings.ToUpper(td.Action.Method)
	if method != http.MethodGet && method != http.MethodPost {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMethod, td.Action.Method)
	}

	resolvedURL, err := dir.Resolve(td.Action.URL)
	if err != nil {
		return "", err
	}
	url := tools.Substitute(resolvedURL, args)

	var bodyReader io.Reader
	if method == http.MethodPost && td.Action.JSONBody != nil {
		body := tools.SubstituteBody(td.Action.JSONBody, args)
		jsonData, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	respBody, err := e.dispatch(ctx, method, url, bodyReader)
	if err != nil {
		return "", err
	}

	return formatResponse(td, respBody)
}

// dispatch performs exactly one HTTP request with the configured timeout.
func (e *Executor) dispatch(ctx context.Context, method, url string, body io.Reader) ([]byte, error) {
	e.logger.Debug().Str("method", method).Str("url", url).Msg("dispatching tool request")

	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, url, body)
	if err != nil {
		return nil, &DownstreamError{Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		e.logger.Error().Str("method", method).Str("url", url).Int64("duration_ms", duration.Milliseconds()).Err(err).Msg("tool request failed")
		return nil, &DownstreamError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &DownstreamError{Message: fmt.Sprintf("failed to read response: %v", err)}
	}

	e.logger.Debug().Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Msg("tool response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &DownstreamError{Status: resp.StatusCode, Message: truncate(string(respBody), 512)}
	}

	return respBody, nil
}

// formatResponse selects exactly one formatting strategy per tool, in
// precedence order: response_template, response_path, verbatim JSON.
func formatResponse(td tools.ToolDefinition, respBody []byte) (string, error) {
	var decoded any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", &DownstreamError{Message: fmt.Sprintf("invalid JSON response: %v", err)}
	}

	if tmpl := td.Action.ResponseTemplate; tmpl != "" {
		// Substitute {field} tokens from the top-level keys of the
		// response. Unmatched fields stay literal, same as URL templates.
		fields, _ := decoded.(map[string]any)
		return tools.Substitute(tmpl, fields), nil
	}

	if path := td.Action.ResponsePath; path != "" {
		value := gjson.GetBytes(respBody, path)
		if !value.Exists() {
			return "", fmt.Errorf("%w: %q", ErrPathNotFound, path)
		}
		if value.IsObject() || value.IsArray() {
			return value.Raw, nil
		}
		return value.String(), nil
	}

	pretty, err := json.MarshalIndent(decoded, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize response: %w", err)
	}
	return string(pretty), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
