package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/risklens/bowtie/pkg/cache"
	"github.com/risklens/bowtie/pkg/pipeline"
	"github.com/risklens/bowtie/pkg/store"
)

const sampleDoc = `title Cyber Attacks
cause Phishing Emails
cause Weak Passwords
event Loss of Sensitive Data
consequence Financial Loss
consequence Legal Consequences
barrier Multi-Factor Authentication: Weak Passwords
barrier Legal Compliance: Financial Loss, Legal Consequences
`

func testServer(t *testing.T) *Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return NewServer(Config{
		Addr:   ":0",
		Runner: pipeline.NewRunner(cache.NewMemoryCache(), nil, logger),
		Store:  store.NewMemoryStore(),
		Logger: logger,
	})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "text/plain")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, testServer(t), http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestCompile(t *testing.T) {
	w := do(t, testServer(t), http.MethodPost, "/v1/compile", sampleDoc)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp compileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.DocHash == "" {
		t.Error("missing doc hash")
	}
	if resp.Graph.Event != "Loss of Sensitive Data" {
		t.Errorf("event = %q", resp.Graph.Event)
	}
	if len(resp.Layout.Causes) != 2 {
		t.Errorf("layout causes = %d", len(resp.Layout.Causes))
	}
}

func TestCompileValidationIssues(t *testing.T) {
	doc := "cause A\ncause A\nevent E\nbarrier X: Ghost\n"
	w := do(t, testServer(t), http.MethodPost, "/v1/compile", doc)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Issues) != 2 {
		t.Errorf("issues = %d, want 2: %+v", len(resp.Issues), resp.Issues)
	}
}

func TestCompileParseError(t *testing.T) {
	w := do(t, testServer(t), http.MethodPost, "/v1/compile", "nonsense line\n")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Issues) != 1 {
		t.Errorf("issues = %+v", resp.Issues)
	}
}

func TestCompileEmptyBody(t *testing.T) {
	w := do(t, testServer(t), http.MethodPost, "/v1/compile", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestDiagramLifecycle(t *testing.T) {
	s := testServer(t)

	// Create
	w := do(t, s, http.MethodPost, "/v1/diagrams", sampleDoc)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	var d store.Diagram
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.ID == "" || d.Title != "Cyber Attacks" {
		t.Fatalf("diagram = %+v", d)
	}
	if loc := w.Header().Get("Location"); loc != "/v1/diagrams/"+d.ID {
		t.Errorf("Location = %q", loc)
	}

	// Fetch
	w = do(t, s, http.MethodGet, "/v1/diagrams/"+d.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	// List
	w = do(t, s, http.MethodGet, "/v1/diagrams/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list []store.Diagram
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("list = %d entries", len(list))
	}

	// SVG render
	w = do(t, s, http.MethodGet, "/v1/diagrams/"+d.ID+"/svg", "")
	if w.Code != http.StatusOK {
		t.Fatalf("svg status = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Loss of Sensitive Data") {
		t.Error("svg missing event")
	}

	// Delete
	w = do(t, s, http.MethodDelete, "/v1/diagrams/"+d.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = do(t, s, http.MethodGet, "/v1/diagrams/"+d.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", w.Code)
	}
	w = do(t, s, http.MethodDelete, "/v1/diagrams/"+d.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("double delete status = %d", w.Code)
	}
}

func TestDiagramNotFound(t *testing.T) {
	w := do(t, testServer(t), http.MethodGet, "/v1/diagrams/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListLimitValidation(t *testing.T) {
	w := do(t, testServer(t), http.MethodGet, "/v1/diagrams/?limit=-1", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

// prefixCountingCache records stored key prefixes so tests can observe which
// pipeline stages wrote to the cache.
type prefixCountingCache struct {
	cache.Cache
	sets map[string]int
}

func newPrefixCountingCache() *prefixCountingCache {
	return &prefixCountingCache{Cache: cache.NewMemoryCache(), sets: map[string]int{}}
}

func (c *prefixCountingCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	prefix, _, _ := strings.Cut(key, ":")
	c.sets[prefix]++
	return c.Cache.Set(ctx, key, data, ttl)
}

func TestCompileDoesNotRender(t *testing.T) {
	counting := newPrefixCountingCache()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	s := NewServer(Config{
		Addr:   ":0",
		Runner: pipeline.NewRunner(counting, nil, logger),
		Store:  store.NewMemoryStore(),
		Logger: logger,
	})

	w := do(t, s, http.MethodPost, "/v1/compile", sampleDoc)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	if counting.sets["graph"] != 1 || counting.sets["layout"] != 1 {
		t.Errorf("expected one graph and one layout write, got %v", counting.sets)
	}
	if counting.sets["artifact"] != 0 {
		t.Errorf("compile must not render artifacts, got %v", counting.sets)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := testServer(t)

	w := do(t, s, http.MethodGet, "/healthz", "")
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("missing generated request ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "client-id")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-Id") != "client-id" {
		t.Error("client-supplied request ID not honored")
	}
}
