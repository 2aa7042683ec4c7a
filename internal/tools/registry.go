// Package tools holds the tool registry: declarative tool definitions loaded
// from a YAML document, with atomic snapshot replacement on reload.
package tools

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// ErrUnknownTool is returned by Lookup when no tool has the requested name.
var ErrUnknownTool = errors.New("unknown tool")

// Property describes one parameter of a tool.
type Property struct {
	Type        string   `yaml:"type" json:"type"`
	Description string   `yaml:"description" json:"description"`
	Enum        []string `yaml:"enum,omitempty" json:"enum,omitempty"`
}

// ParameterSchema is the declared parameter block of a tool
// (JSON-schema style: type/properties/required).
type ParameterSchema struct {
	Type       string              `yaml:"type" json:"type"`
	Properties map[string]Property `yaml:"properties" json:"properties"`
	Required   []string            `yaml:"required,omitempty" json:"required,omitempty"`
}

// Action describes how to turn a tool call into a downstream HTTP request.
// URL may be a literal URL, a service://name/path reference, or contain
// ${VAR} tokens; it is resolved through the service directory before
// argument substitution.
type Action struct {
	Method           string         `yaml:"method" json:"method"`
	URL              string         `yaml:"url" json:"url"`
	JSONBody         map[string]any `yaml:"json_body,omitempty" json:"json_body,omitempty"`
	ResponseTemplate string         `yaml:"response_template,omitempty" json:"response_template,omitempty"`
	ResponsePath     string         `yaml:"response_path,omitempty" json:"response_path,omitempty"`
}

// ToolDefinition is one entry of the tool document.
type ToolDefinition struct {
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description" json:"description"`
	Parameters  ParameterSchema `yaml:"parameters" json:"parameters"`
	Action      Action          `yaml:"action" json:"action"`
}

// document is the on-disk shape of the tool configuration file.
type document struct {
	Tools []ToolDefinition `yaml:"tools"`
}

// Registry is an immutable snapshot of tool definitions.
// A request captures one snapshot at entry and uses it throughout;
// reloads build a new Registry and swap it in behind a Store.
type Registry struct {
	order []string
	tools map[string]ToolDefinition
}

// Load parses a YAML tool document and validates it.
// It fails on duplicate tool names and on tools missing required fields.
func Load(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tool document: %w", err)
	}
	return fromDefinitions(doc.Tools)
}

// LoadFile reads and parses the tool document at the given path.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tool document %s: %w", path, err)
	}
	return Load(data)
}

// fromDefinitions builds a Registry from validated definitions.
func fromDefinitions(defs []ToolDefinition) (*Registry, error) {
	r := &Registry{
		order: make([]string, 0, len(defs)),
		tools: make(map[string]ToolDefinition, len(defs)),
	}
	for i, td := range defs {
		if err := validateTool(td); err != nil {
			return nil, fmt.Errorf("tool %d: %w", i, err)
		}
		if _, exists := r.tools[td.Name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", td.Name)
		}
		r.tools[td.Name] = td
		r.order = append(r.order, td.Name)
	}
	return r, nil
}

// validateTool checks one tool definition for required fields.
// The HTTP method is deliberately not restricted here: an unsupported
// method fails at dispatch time with an in-band error, not at load.
func validateTool(td ToolDefinition) error {
	if td.Name == "" {
		return fmt.Errorf("tool has empty name")
	}
	if td.Description == "" {
		return fmt.Errorf("tool %q has empty description", td.Name)
	}
	if td.Action.Method == "" {
		return fmt.Errorf("tool %q has empty action method", td.Name)
	}
	if td.Action.URL == "" {
		return fmt.Errorf("tool %q has empty action url", td.Name)
	}
	if td.Action.ResponseTemplate != "" && td.Action.ResponsePath != "" {
		return fmt.Errorf("tool %q declares both response_template and response_path", td.Name)
	}
	return nil
}

// Lookup returns the tool with the given name, or ErrUnknownTool.
func (r *Registry) Lookup(name string) (ToolDefinition, error) {
	td, ok := r.tools[name]
	if !ok {
		return ToolDefinition{}, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return td, nil
}

// List returns the tool definitions in document order.
func (r *Registry) List() []ToolDefinition {
	out := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Store holds the current Registry snapshot and reloads it atomically.
// Readers call Current() once per request and keep that snapshot; a
// concurrent Reload never exposes a partially-replaced registry.
type Store struct {
	path    string
	current atomic.Pointer[Registry]
}

// NewStore loads the tool document at path and returns a Store serving it.
func NewStore(path string) (*Store, error) {
	reg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path}
	s.current.Store(reg)
	return s, nil
}

// NewStaticStore wraps an already-built Registry. Reload is a no-op
// re-validation; used by tests and the MCP surface.
func NewStaticStore(reg *Registry) *Store {
	s := &Store{}
	s.current.Store(reg)
	return s
}

// Current returns the active Registry snapshot.
func (s *Store) Current() *Registry {
	return s.current.Load()
}

// Reload re-parses the backing document and swaps the snapshot.
// On error the previous snapshot stays active.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	reg, err := LoadFile(s.path)
	if err != nil {
		return err
	}
	s.current.Store(reg)
	return nil
}
