package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/voiceforge/forge-gateway/internal/common"
	"github.com/voiceforge/forge-gateway/internal/services"
	"github.com/voiceforge/forge-gateway/internal/tools"
)

func newTestExecutor(t *testing.T, toolsDoc string) *Executor {
	t.Helper()
	reg, err := tools.Load([]byte(toolsDoc))
	if err != nil {
		t.Fatalf("tools.Load failed: %v", err)
	}
	dir, err := services.Load(nil)
	if err != nil {
		t.Fatalf("services.Load failed: %v", err)
	}
	return NewExecutor(tools.NewStaticStore(reg), services.NewStaticStore(dir), common.NewSilentLogger())
}

func TestExecute_GetWithResponseTemplate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/search/golang" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"query": "golang", "count": 3}`))
	}))
	defer srv.Close()

	doc := fmt.Sprintf(`
tools:
  - name: search
    description: Searches.
    action:
      method: GET
      url: %s/search/{query}
      response_template: "Found {count} results for {query}"
`, srv.URL)

	exec := newTestExecutor(t, doc)
	got, err := exec.Execute(context.Background(), "search", map[string]any{"query": "golang"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got != "Found 3 results for golang" {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestExecute_TemplateUnmatchedFieldLeftLiteral(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query": "x"}`))
	}))
	defer srv.Close()

	doc := fmt.Sprintf(`
tools:
  - name: search
    description: Searches.
    action: {method: GET, url: %s/s, response_template: "Found: {query} in {scope}"}
`, srv.URL)

	exec := newTestExecutor(t, doc)
	got, err := exec.Execute(context.Background(), "search", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got != "Found: x in {scope}" {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestExecute_PostWithBodySubstitution(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %s", ct)
		}
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &received)
		w.Write([]byte(`{"job_id": "j-42"}`))
	}))
	defer srv.Close()

	doc := fmt.Sprintf(`
tools:
  - name: start_research
    description: Starts a research job.
    parameters:
      type: object
      properties:
        topic: {type: string, description: Topic.}
      required: ["topic"]
    action:
      method: POST
      url: %s/research
      json_body:
        topic: "{topic}"
        depth: standard
      response_path: job_id
`, srv.URL)

	exec := newTestExecutor(t, doc)
	got, err := exec.Execute(context.Background(), "start_research", map[string]any{"topic": "ai"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got != "j-42" {
		t.Errorf("unexpected result: %q", got)
	}
	if received["topic"] != "ai" || received["depth"] != "standard" {
		t.Errorf("unexpected downstream body: %v", received)
	}
}

func TestExecute_ResponsePathNested(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"status": "running", "items": [1, 2]}}`))
	}))
	defer srv.Close()

	cases := []struct {
		name string
		path string
		want string
	}{
		{"scalar", "data.status", "running"},
		{"object", "data", `{"status": "running", "items": [1, 2]}`},
		{"array", "data.items", `[1, 2]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := fmt.Sprintf(`
tools:
  - name: status
    description: Reads status.
    action: {method: GET, url: %s/s, response_path: "%s"}
`, srv.URL, tc.path)

			exec := newTestExecutor(t, doc)
			got, err := exec.Execute(context.Background(), "status", nil)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestExecute_ResponsePathMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"other": 1}`))
	}))
	defer srv.Close()

	doc := fmt.Sprintf(`
tools:
  - name: status
    description: Reads status.
    action: {method: GET, url: %s/s, response_path: data.status}
`, srv.URL)

	exec := newTestExecutor(t, doc)
	_, err := exec.Execute(context.Background(), "status", nil)
	if !errors.Is(err, ErrPathNotFound) {
		t.Errorf("expected ErrPathNotFound, got %v", err)
	}
}

func TestExecute_DefaultVerbatimJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"a": 1}`))
	}))
	defer srv.Close()

	doc := fmt.Sprintf(`
tools:
  - name: raw
    description: Raw passthrough.
    action: {method: GET, url: %s/s}
`, srv.URL)

	exec := newTestExecutor(t, doc)
	got, err := exec.Execute(context.Background(), "raw", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := "{\n  \"a\": 1\n}"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestExecute_UnsupportedMethodNoDispatch(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer srv.Close()

	doc := fmt.Sprintf(`
tools:
  - name: updater
    description: Uses a method the dispatcher refuses.
    action: {method: PUT, url: %s/s}
`, srv.URL)

	exec := newTestExecutor(t, doc)
	_, err := exec.Execute(context.Background(), "updater", nil)
	if !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}
	if err.Error() != "Unsupported HTTP method: PUT" {
		t.Errorf("unexpected error text: %q", err.Error())
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("expected zero downstream requests, got %d", n)
	}
}

func TestExecute_UnknownTool(t *testing.T) {
	exec := newTestExecutor(t, `tools: []`)
	_, err := exec.Execute(context.Background(), "missing", nil)
	if !errors.Is(err, tools.ErrUnknownTool) {
		t.Errorf("expected ErrUnknownTool, got %v", err)
	}
}

func TestExecute_MissingRequiredParameter(t *testing.T) {
	doc := `
tools:
  - name: search
    description: Searches.
    parameters:
      type: object
      properties:
        query: {type: string, description: Query.}
      required: ["query"]
    action: {method: GET, url: http://localhost:1/s}
`
	exec := newTestExecutor(t, doc)
	_, err := exec.Execute(context.Background(), "search", map[string]any{})
	if !errors.Is(err, ErrMissingParameter) {
		t.Errorf("expected ErrMissingParameter, got %v", err)
	}
}

func TestExecute_UnresolvedService(t *testing.T) {
	doc := `
tools:
  - name: t
    description: References an unknown service.
    action: {method: GET, url: service://nonexistent/path}
`
	exec := newTestExecutor(t, doc)
	_, err := exec.Execute(context.Background(), "t", nil)
	if !errors.Is(err, services.ErrUnresolvedService) {
		t.Errorf("expected ErrUnresolvedService, got %v", err)
	}
}

func TestExecute_DownstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	doc := fmt.Sprintf(`
tools:
  - name: t
    description: Hits a failing backend.
    action: {method: GET, url: %s/s}
`, srv.URL)

	exec := newTestExecutor(t, doc)
	_, err := exec.Execute(context.Background(), "t", nil)

	var de *DownstreamError
	if !errors.As(err, &de) {
		t.Fatalf("expected DownstreamError, got %v", err)
	}
	if de.Status != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", de.Status)
	}
	if !strings.HasPrefix(err.Error(), "API call failed: ") {
		t.Errorf("unexpected error text: %q", err.Error())
	}
	if !strings.Contains(err.Error(), "upstream exploded") {
		t.Errorf("expected body excerpt in error, got %q", err.Error())
	}
}

func TestExecute_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	doc := fmt.Sprintf(`
tools:
  - name: t
    description: Hits a dead backend.
    action: {method: GET, url: %s/s}
`, base)

	exec := newTestExecutor(t, doc)
	_, err := exec.Execute(context.Background(), "t", nil)

	var de *DownstreamError
	if !errors.As(err, &de) {
		t.Fatalf("expected DownstreamError, got %v", err)
	}
	if de.Status != 0 {
		t.Errorf("expected zero status for transport failure, got %d", de.Status)
	}
}

func TestExecute_SeesReloadedRegistry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	doc := fmt.Sprintf(`
tools:
  - name: t
    description: Survives within a captured snapshot.
    action: {method: GET, url: %s/s, response_path: ok}
`, srv.URL)

	path := filepath.Join(t.TempDir(), "tools.yaml")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	store, err := tools.NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	dir, err := services.Load(nil)
	if err != nil {
		t.Fatalf("services.Load failed: %v", err)
	}
	exec := NewExecutor(store, services.NewStaticStore(dir), common.NewSilentLogger())

	// Replace the document with an empty catalog and reload, as an admin
	// reload would.
	if err := os.WriteFile(path, []byte(`tools: []`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	_, err = exec.Execute(context.Background(), "t", nil)
	if !errors.Is(err, tools.ErrUnknownTool) {
		t.Errorf("expected new snapshot to drop tool, got %v", err)
	}
}
