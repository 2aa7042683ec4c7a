package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func directoryFor(t *testing.T, servers map[string]string) *Directory {
	t.Helper()
	doc := "services:\n"
	for name, base := range servers {
		doc += fmt.Sprintf("  %s: %s\n", name, base)
	}
	d, err := Load([]byte(doc))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return d
}

func TestHealthCheck_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected health path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	d := directoryFor(t, map[string]string{"graph": srv.URL})
	result := NewChecker().HealthCheck(context.Background(), d, "graph")

	if result.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s (%s)", result.Status, result.Error)
	}
	if result.Body != `{"status":"ok"}` {
		t.Errorf("unexpected body: %s", result.Body)
	}
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := directoryFor(t, map[string]string{"graph": srv.URL})
	result := NewChecker().HealthCheck(context.Background(), d, "graph")

	if result.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", result.Status)
	}
	if result.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status code 503, got %d", result.StatusCode)
	}
}

func TestHealthCheck_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	d := directoryFor(t, map[string]string{"graph": base})
	result := NewChecker().HealthCheck(context.Background(), d, "graph")

	if result.Status != StatusUnreachable {
		t.Errorf("expected unreachable, got %s", result.Status)
	}
	if result.Error == "" {
		t.Error("expected transport error detail")
	}
}

func TestHealthCheck_UnknownService(t *testing.T) {
	d := directoryFor(t, nil)
	result := NewChecker().HealthCheck(context.Background(), d, "nonexistent")

	if result.Status != StatusUnknown {
		t.Errorf("expected unknown, got %s", result.Status)
	}
}

func TestHealthCheckAll_FansOut(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer healthy.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	d := directoryFor(t, map[string]string{
		"up":   healthy.URL,
		"down": failing.URL,
	})

	results := NewChecker().HealthCheckAll(context.Background(), d)

	if results["up"].Status != StatusHealthy {
		t.Errorf("expected up healthy, got %s", results["up"].Status)
	}
	if results["down"].Status != StatusUnhealthy {
		t.Errorf("expected down unhealthy, got %s", results["down"].Status)
	}
	// Compiled defaults are part of the fan-out too.
	if _, ok := results["langgraph"]; !ok {
		t.Error("expected default services in aggregated results")
	}
}
