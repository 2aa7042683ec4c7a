// Package services provides the service directory: resolution of symbolic
// service references to concrete base URLs across deployment topologies,
// plus health checking of the registered endpoints.
package services

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// ErrUnresolvedService is returned when a service:// reference names a
// service that no tier of the directory can resolve.
var ErrUnresolvedService = errors.New("unresolved service")

const (
	defaultHealthPath     = "/health"
	defaultTimeoutSeconds = 5
)

// ServiceEndpoint is one resolved entry of the directory.
type ServiceEndpoint struct {
	Name           string `yaml:"-" json:"name"`
	BaseURL        string `yaml:"url" json:"url"`
	HealthPath     string `yaml:"health_path" json:"health_path"`
	TimeoutSeconds int    `yaml:"timeout" json:"timeout"`
	Required       bool   `yaml:"required" json:"required"`
}

// HealthURL joins the base URL and health path.
func (e ServiceEndpoint) HealthURL() string {
	return strings.TrimRight(e.BaseURL, "/") + e.HealthPath
}

// IsLocalhost reports whether the endpoint targets the local machine.
func (e ServiceEndpoint) IsLocalhost() bool {
	u, err := url.Parse(e.BaseURL)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "0.0.0.0":
		return true
	}
	return false
}

// docEntry accepts either a bare URL string or a full endpoint object,
// matching the two forms the services document allows.
type docEntry struct {
	endpoint ServiceEndpoint
}

func (d *docEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&d.endpoint.BaseURL)
	}
	return value.Decode(&d.endpoint)
}

// document is the on-disk shape of the services file.
type document struct {
	Services map[string]docEntry `yaml:"services"`
}

// Directory is an immutable snapshot of the service directory. Resolution
// precedence for a symbolic name is fixed and total:
// explicit override -> <NAME>_SERVICE_URL env var -> document entry ->
// compiled-in default. A name absent from all four tiers is unresolvable.
type Directory struct {
	overrides map[string]string
	env       map[string]string
	file      map[string]ServiceEndpoint
	defaults  map[string]ServiceEndpoint
}

// Option customizes directory construction.
type Option func(*Directory)

// WithOverrides installs per-deployment (e.g. per-tenant) base URL
// overrides that win over every other tier.
func WithOverrides(overrides map[string]string) Option {
	return func(d *Directory) {
		for name, u := range overrides {
			d.overrides[name] = u
		}
	}
}

// Load builds a Directory from a services document (may be empty) and the
// current process environment.
func Load(data []byte, opts ...Option) (*Directory, error) {
	d := &Directory{
		overrides: make(map[string]string),
		env:       make(map[string]string),
		file:      make(map[string]ServiceEndpoint),
		defaults:  compiledDefaults(),
	}

	if len(data) > 0 {
		var doc document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse services document: %w", err)
		}
		for name, entry := range doc.Services {
			ep := entry.endpoint
			ep.Name = name
			if ep.BaseURL == "" {
				return nil, fmt.Errorf("service %q has empty url", name)
			}
			applyEndpointDefaults(&ep)
			d.file[name] = ep
		}
	}

	d.loadEnvironment()

	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// LoadFile reads and parses the services document at the given path.
// A missing file yields a directory of environment and compiled defaults
// only, matching the document's optional status.
func LoadFile(path string, opts ...Option) (*Directory, error) {
	if path == "" {
		return Load(nil, opts...)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Load(nil, opts...)
		}
		return nil, fmt.Errorf("failed to read services document %s: %w", path, err)
	}
	return Load(data, opts...)
}

// loadEnvironment captures <NAME>_SERVICE_URL variables for every name any
// tier knows about. Capturing at load keeps resolution deterministic
// between reloads.
func (d *Directory) loadEnvironment() {
	for name := range d.knownNames() {
		d.env[name] = os.Getenv(envVarName(name))
	}
}

// knownNames returns the union of names across the file and default tiers.
func (d *Directory) knownNames() map[string]struct{} {
	names := make(map[string]struct{}, len(d.file)+len(d.defaults))
	for name := range d.file {
		names[name] = struct{}{}
	}
	for name := range d.defaults {
		names[name] = struct{}{}
	}
	return names
}

// envURL returns the environment-tier URL for a name. Names known at load
// time were captured then; names first seen at resolve time (a service://
// reference outside the document) fall through to a live lookup.
func (d *Directory) envURL(name string) string {
	if u, ok := d.env[name]; ok {
		return u
	}
	return os.Getenv(envVarName(name))
}

// envVarName maps a service name to its environment variable.
func envVarName(name string) string {
	return strings.ToUpper(name) + "_SERVICE_URL"
}

// compiledDefaults is the all-localhost topology used when nothing else is
// configured.
func compiledDefaults() map[string]ServiceEndpoint {
	publicBackend := os.Getenv("PUBLIC_SERVER_URL")
	if publicBackend == "" {
		publicBackend = "http://localhost:8000"
	}
	defaults := map[string]ServiceEndpoint{
		"langgraph":      {Name: "langgraph", BaseURL: "http://localhost:8082"},
		"tesseract":      {Name: "tesseract", BaseURL: "http://localhost:8081", HealthPath: "/"},
		"research":       {Name: "research", BaseURL: "http://localhost:8082"},
		"content":        {Name: "content", BaseURL: "http://localhost:8082"},
		"workflow":       {Name: "workflow", BaseURL: "http://localhost:8081", HealthPath: "/"},
		"backend":        {Name: "backend", BaseURL: "http://localhost:8000"},
		"public_backend": {Name: "public_backend", BaseURL: publicBackend},
	}
	for name, ep := range defaults {
		applyEndpointDefaults(&ep)
		ep.Required = true
		defaults[name] = ep
	}
	return defaults
}

func applyEndpointDefaults(ep *ServiceEndpoint) {
	if ep.HealthPath == "" {
		ep.HealthPath = defaultHealthPath
	}
	if ep.TimeoutSeconds <= 0 {
		ep.TimeoutSeconds = defaultTimeoutSeconds
	}
}

// Endpoint returns the effective endpoint for a symbolic name, walking the
// precedence chain. Override and environment tiers produce an endpoint that
// inherits health settings from the lower tiers when available.
func (d *Directory) Endpoint(name string) (ServiceEndpoint, error) {
	base, haveBase := d.file[name]
	if !haveBase {
		base, haveBase = d.defaults[name]
	}

	if u, ok := d.overrides[name]; ok {
		return d.withBaseURL(name, u, base, haveBase), nil
	}
	if u := d.envURL(name); u != "" {
		return d.withBaseURL(name, u, base, haveBase), nil
	}
	if haveBase {
		return base, nil
	}
	return ServiceEndpoint{}, fmt.Errorf("%w: %q", ErrUnresolvedService, name)
}

func (d *Directory) withBaseURL(name, baseURL string, base ServiceEndpoint, haveBase bool) ServiceEndpoint {
	ep := ServiceEndpoint{Name: name, BaseURL: baseURL, Required: true}
	if haveBase {
		ep.HealthPath = base.HealthPath
		ep.TimeoutSeconds = base.TimeoutSeconds
		ep.Required = base.Required
	}
	applyEndpointDefaults(&ep)
	return ep
}

// Endpoints returns every resolvable endpoint, keyed by name.
func (d *Directory) Endpoints() map[string]ServiceEndpoint {
	out := make(map[string]ServiceEndpoint)
	for name := range d.knownNames() {
		if ep, err := d.Endpoint(name); err == nil {
			out[name] = ep
		}
	}
	for name := range d.overrides {
		if _, ok := out[name]; !ok {
			if ep, err := d.Endpoint(name); err == nil {
				out[name] = ep
			}
		}
	}
	return out
}

// varPattern matches ${VAR} tokens in URL references.
var varPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Resolve turns a tool's URL reference into a concrete URL.
//
//	service://langgraph/research -> base URL of "langgraph" + /research
//	${LANGGRAPH_SERVICE_URL}/x   -> environment substitution
//	http://host:8082/research    -> returned unchanged
//
// Unresolved ${VAR} tokens are left literal; an unknown service:// name
// fails with ErrUnresolvedService.
func (d *Directory) Resolve(ref string) (string, error) {
	if strings.HasPrefix(ref, "service://") {
		rest := strings.TrimPrefix(ref, "service://")
		name, path, _ := strings.Cut(rest, "/")
		ep, err := d.Endpoint(name)
		if err != nil {
			return "", err
		}
		base := strings.TrimRight(ep.BaseURL, "/")
		if path == "" {
			return base, nil
		}
		return base + "/" + path, nil
	}

	if strings.Contains(ref, "${") {
		return varPattern.ReplaceAllStringFunc(ref, func(match string) string {
			varName := match[2 : len(match)-1]
			if v := os.Getenv(varName); v != "" {
				return v
			}
			return match
		}), nil
	}

	return ref, nil
}

// DeploymentInfo summarizes the directory topology for operators.
type DeploymentInfo struct {
	DeploymentType    string            `json:"deployment_type"`
	LocalhostServices []string          `json:"localhost_services"`
	ExternalServices  []string          `json:"external_services"`
	TotalServices     int               `json:"total_services"`
	Services          map[string]string `json:"services"`
}

// Deployment classifies the directory as localhost or distributed.
func (d *Directory) Deployment() DeploymentInfo {
	info := DeploymentInfo{Services: make(map[string]string)}
	for name, ep := range d.Endpoints() {
		info.Services[name] = ep.BaseURL
		if ep.IsLocalhost() {
			info.LocalhostServices = append(info.LocalhostServices, name)
		} else {
			info.ExternalServices = append(info.ExternalServices, name)
		}
	}
	info.TotalServices = len(info.Services)
	info.DeploymentType = "distributed"
	if len(info.LocalhostServices) > len(info.ExternalServices) {
		info.DeploymentType = "localhost"
	}
	return info
}

// Store holds the current Directory snapshot and reloads it atomically.
type Store struct {
	path    string
	opts    []Option
	current atomic.Pointer[Directory]
}

// NewStore loads the services document at path (optional) and returns a
// Store serving the resulting directory.
func NewStore(path string, opts ...Option) (*Store, error) {
	dir, err := LoadFile(path, opts...)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, opts: opts}
	s.current.Store(dir)
	return s, nil
}

// NewStaticStore wraps an already-built Directory; used by tests.
func NewStaticStore(dir *Directory) *Store {
	s := &Store{}
	s.current.Store(dir)
	return s
}

// Current returns the active Directory snapshot.
func (s *Store) Current() *Directory {
	return s.current.Load()
}

// Reload re-reads the document and environment and swaps the snapshot.
// On error the previous snapshot stays active.
func (s *Store) Reload() error {
	dir, err := LoadFile(s.path, s.opts...)
	if err != nil {
		return err
	}
	s.current.Store(dir)
	return nil
}
