package services

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"
)

// maxHealthBody caps how much of a health response body is retained.
const maxHealthBody = 64 << 10 // 64KB

// Health status values reported for a service endpoint.
const (
	StatusHealthy     = "healthy"
	StatusUnhealthy   = "unhealthy"
	StatusUnreachable = "unreachable"
	StatusUnknown     = "unknown"
)

// HealthResult is the outcome of one endpoint health check.
type HealthResult struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	URL        string `json:"url,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"response,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Checker performs health checks against directory endpoints.
type Checker struct {
	httpClient *http.Client
}

// NewChecker creates a health checker with a shared HTTP client.
// Per-endpoint timeouts are applied via request contexts.
func NewChecker() *Checker {
	return &Checker{
		httpClient: &http.Client{},
	}
}

// HealthCheck issues a GET to the endpoint's health URL with the endpoint's
// timeout. An unknown name yields StatusUnknown rather than an error so the
// aggregated status view stays total.
func (c *Checker) HealthCheck(ctx context.Context, d *Directory, name string) HealthResult {
	ep, err := d.Endpoint(name)
	if err != nil {
		return HealthResult{Name: name, Status: StatusUnknown, Error: err.Error()}
	}
	return c.checkEndpoint(ctx, ep)
}

func (c *Checker) checkEndpoint(ctx context.Context, ep ServiceEndpoint) HealthResult {
	result := HealthResult{Name: ep.Name, URL: ep.BaseURL}

	timeout := time.Duration(ep.TimeoutSeconds) * time.Second
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, ep.HealthURL(), nil)
	if err != nil {
		result.Status = StatusUnreachable
		result.Error = err.Error()
		return result
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Status = StatusUnreachable
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxHealthBody))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		result.Status = StatusHealthy
		result.Body = string(body)
		return result
	}

	result.Status = StatusUnhealthy
	result.StatusCode = resp.StatusCode
	return result
}

// HealthCheckAll fans out one concurrent check per resolvable endpoint and
// joins all results. At expected scale (tens of services) no additional
// concurrency bound is needed.
func (c *Checker) HealthCheckAll(ctx context.Context, d *Directory) map[string]HealthResult {
	endpoints := d.Endpoints()

	results := make(map[string]HealthResult, len(endpoints))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for name, ep := range endpoints {
		wg.Add(1)
		go func(name string, ep ServiceEndpoint) {
			defer wg.Done()
			r := c.checkEndpoint(ctx, ep)
			mu.Lock()
			results[name] = r
			mu.Unlock()
		}(name, ep)
	}

	wg.Wait()
	return results
}
