// Package webhook converts the calling platform's tool-call payloads into a
// normalized invocation record and builds the response envelope the platform
// requires. The platform emits several incompatible JSON shapes depending on
// version and proxy layer; normalization tries an ordered list of shape
// matchers and the first match wins.
package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedArguments is returned when a tool call carries string-encoded
// arguments that are not valid JSON.
var ErrMalformedArguments = errors.New("invalid JSON arguments")

// ErrNoToolName is returned when a matched tool call has no function name.
var ErrNoToolName = errors.New("no tool name provided")

// No-op markers answered for non-actionable messages. The exact strings are
// part of the platform contract and observed by operators in call logs.
const (
	NoopNonToolMessage = "Non-tool message processed"
	NoopNoToolCalls    = "No tool calls to process"
)

// nonActionableTypes are message types the platform sends that never carry a
// tool call; they short-circuit to a no-op regardless of shape.
var nonActionableTypes = map[string]bool{
	"end-of-call-report":  true,
	"conversation-update": true,
	"status-update":       true,
}

// ToolCall is the normalized invocation record: which tool, with which
// arguments, correlated by the platform's call id when one was supplied.
type ToolCall struct {
	CallID    string
	ToolName  string
	Arguments map[string]any
}

// Result is the outcome of normalization. Call is nil for non-actionable
// messages, in which case NoopMarker holds the in-band response text.
type Result struct {
	Call       *ToolCall
	NoopMarker string
}

// IsNoop reports whether the payload carried no actionable tool call.
func (r Result) IsNoop() bool {
	return r.Call == nil
}

// payload gives matchers access to both the message object and the raw root.
type payload struct {
	root    map[string]any
	message map[string]any
}

// A matcher inspects one known wire shape and returns the tool-call objects
// it found, in {id?, function:{name, arguments}} form. Matchers are
// independent and tried in order; the first that matches wins.
type matcher struct {
	name  string
	match func(p payload) ([]map[string]any, bool)
}

// matchers is the ordered shape list. Order is significant: the canonical
// toolCallList shape is tried first and the key-scan heuristic last.
var matchers = []matcher{
	{"message.toolCallList", matchToolCallList},
	{"message.toolCalls", matchToolCalls},
	{"root.toolCall", matchRootToolCall},
	{"message.functionCall", matchFunctionCall},
	{"message.conversation", matchConversation},
	{"root key scan", matchAnyToolShaped},
}

// Normalize converts a raw webhook body into a normalized tool call, or a
// no-op result for non-actionable and unrecognized messages. Unrecognized
// shapes — including a body that is not a JSON object at all — are
// deliberately not errors: the inbound endpoint must always be able to
// answer the platform. The only errors are per-call defects (malformed
// arguments, missing tool name).
func Normalize(raw []byte) (Result, error) {
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return Result{NoopMarker: fmt.Sprintf("Error: Invalid JSON - %v", err)}, nil
	}
	return NormalizeMap(root)
}

// NormalizeMap normalizes an already-decoded payload.
func NormalizeMap(root map[string]any) (Result, error) {
	p := payload{root: root}
	if msg, ok := root["message"].(map[string]any); ok {
		p.message = msg
	}

	if msgType, _ := p.message["type"].(string); nonActionableTypes[msgType] {
		return Result{NoopMarker: NoopNonToolMessage}, nil
	}

	for _, m := range matchers {
		calls, ok := m.match(p)
		if !ok || len(calls) == 0 {
			continue
		}
		// The platform sends one tool call per request; only the first
		// entry of a batch is processed.
		call, err := extractCall(calls[0])
		if err != nil {
			return Result{}, err
		}
		return Result{Call: call}, nil
	}

	return Result{NoopMarker: NoopNoToolCalls}, nil
}

// extractCall pulls name, call id, and arguments out of a matched
// {id?, function:{name, arguments}} object. String-encoded arguments are
// decoded; non-string arguments are used as-is.
func extractCall(rawCall map[string]any) (*ToolCall, error) {
	function, _ := rawCall["function"].(map[string]any)
	name, _ := function["name"].(string)
	if name == "" {
		return nil, ErrNoToolName
	}

	callID, _ := rawCall["id"].(string)

	args, err := decodeArguments(function["arguments"])
	if err != nil {
		return nil, err
	}

	return &ToolCall{CallID: callID, ToolName: name, Arguments: args}, nil
}

// decodeArguments accepts arguments as either a decoded object or a
// JSON-encoded string.
func decodeArguments(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case string:
		var args map[string]any
		if err := json.Unmarshal([]byte(v), &args); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedArguments, v)
		}
		return args, nil
	default:
		return nil, fmt.Errorf("%w: arguments have unexpected type %T", ErrMalformedArguments, raw)
	}
}

// matchToolCallList handles the canonical shape:
// message.toolCallList = [{id, function: {name, arguments}}].
func matchToolCallList(p payload) ([]map[string]any, bool) {
	return objectList(p.message["toolCallList"])
}

// matchToolCalls handles message.toolCalls = [{function: {...}}], the shape
// used by test harnesses; entries may or may not carry an id.
func matchToolCalls(p payload) ([]map[string]any, bool) {
	return objectList(p.message["toolCalls"])
}

// matchRootToolCall handles a single toolCall object at the payload root.
func matchRootToolCall(p payload) ([]map[string]any, bool) {
	call, ok := p.root["toolCall"].(map[string]any)
	if !ok {
		return nil, false
	}
	return []map[string]any{call}, true
}

// matchFunctionCall handles the legacy message.functionCall shape, which
// uses "parameters" in place of "arguments".
func matchFunctionCall(p payload) ([]map[string]any, bool) {
	fc, ok := p.message["functionCall"].(map[string]any)
	if !ok {
		return nil, false
	}
	return []map[string]any{{
		"function": map[string]any{
			"name":      fc["name"],
			"arguments": fc["parameters"],
		},
	}}, true
}

// matchConversation scans message.conversation for a role=="tool_calls"
// entry carrying a nested toolCalls list.
func matchConversation(p payload) ([]map[string]any, bool) {
	conv, ok := p.message["conversation"].([]any)
	if !ok {
		return nil, false
	}
	for _, item := range conv {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if role, _ := entry["role"].(string); role != "tool_calls" {
			continue
		}
		if calls, ok := objectList(entry["toolCalls"]); ok {
			return calls, true
		}
	}
	return nil, false
}

// matchAnyToolShaped is the last-resort heuristic: scan every top-level key
// of the raw payload for an object that either wraps a "function" field or
// itself looks like {name, arguments}. Keys are scanned in sorted order so
// the winner is deterministic when more than one looks tool-shaped.
func matchAnyToolShaped(p payload) ([]map[string]any, bool) {
	keys := make([]string, 0, len(p.root))
	for key := range p.root {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		obj, ok := p.root[key].(map[string]any)
		if !ok {
			continue
		}
		if fn, ok := obj["function"].(map[string]any); ok {
			return []map[string]any{{"function": fn}}, true
		}
		_, hasName := obj["name"]
		_, hasArgs := obj["arguments"]
		if hasName && hasArgs {
			return []map[string]any{{"function": obj}}, true
		}
	}
	return nil, false
}

// objectList converts an []any of JSON objects into typed maps.
func objectList(raw any) ([]map[string]any, bool) {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
