package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netlayout/pkg/cache"
	"github.com/matzehuels/netlayout/pkg/errors"
	"github.com/matzehuels/netlayout/pkg/observability"
	"github.com/matzehuels/netlayout/pkg/pipeline"
)

const divider = "V1 n1 0 DC 5\nR1 n1 n2 1k\nR2 n2 0 1k\n"

func testServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
	srv := httptest.NewServer(New(runner, logger, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func body(t *testing.T, opts map[string]any) string {
	t.Helper()
	data, err := json.Marshal(opts)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestHealth(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("response has no request id")
	}
}

func TestLayout(t *testing.T) {
	srv := testServer(t)
	resp := post(t, srv, "/v1/layout", body(t, map[string]any{
		"netlist": divider,
		"formats": []string{"json", "dot"},
	}))
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body = %s", resp.StatusCode, data)
	}

	var got layoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Layout == nil || len(got.Layout.Devices) != 3 {
		t.Fatalf("layout = %+v, want three devices", got.Layout)
	}
	if got.Layout.Stats.Levels != 3 {
		t.Errorf("levels = %d, want 3", got.Layout.Stats.Levels)
	}
	if !strings.HasPrefix(got.Artifacts["dot"], "digraph") {
		t.Errorf("dot artifact = %q, want a digraph", got.Artifacts["dot"])
	}
	if _, ok := got.Artifacts["json"]; ok {
		t.Error("json is returned as layout, not as artifact")
	}
	if got.RequestID != resp.Header.Get(RequestIDHeader) {
		t.Errorf("request_id = %q, header = %q", got.RequestID, resp.Header.Get(RequestIDHeader))
	}
}

func TestLayoutKeepsRequestID(t *testing.T) {
	srv := testServer(t)
	const id = "0b8e5c1e-7f3a-4f61-9d2c-6c1f5d0e8a11"
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/layout",
		strings.NewReader(body(t, map[string]any{"netlist": divider})))
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}
}

func TestRenderDOT(t *testing.T) {
	srv := testServer(t)
	resp := post(t, srv, "/v1/render/dot", body(t, map[string]any{"netlist": divider}))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q", ct)
	}
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), `"R1"`) {
		t.Errorf("body = %s, want R1 node", data)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"malformed body", "/v1/layout", `{"netlist":`, 400, errors.ErrCodeInvalidInput},
		{"unknown field", "/v1/layout", `{"netlist":"R1 a 0 1","colour":"red"}`, 400, errors.ErrCodeInvalidInput},
		{"no netlist", "/v1/layout", `{"seeds":["V1"]}`, 400, errors.ErrCodeInvalidInput},
		{"parse error", "/v1/layout", `{"netlist":"V1 n1\n"}`, 400, errors.ErrCodeParse},
		{"bad mode", "/v1/layout", `{"netlist":"V1 n1 0 1\n","mode":"some"}`, 400, errors.ErrCodeInvalidConfig},
		{"disconnected", "/v1/layout", `{"netlist":"V1 n1 0 1\nR1 n1 0 1\nR9 x y 1\n"}`, 422, errors.ErrCodeLayeringIncomplete},
		{"oversized anneal", "/v1/layout", `{"netlist":"V1 n1 0 1\n","anneal":true,"steps_per_temp":1000000000}`, 400, errors.ErrCodeInvalidConfig},
		{"bad format", "/v1/render/gif", `{"netlist":"V1 n1 0 1\n"}`, 400, errors.ErrCodeInvalidConfig},
	}
	srv := testServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var got errorBody
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if got.Error.Code != tt.code {
				t.Errorf("code = %s, want %s (message %q)", got.Error.Code, tt.code, got.Error.Message)
			}
		})
	}
}

func TestRequestTimeoutStopsAnnealing(t *testing.T) {
	srv := testServer(t, WithRequestTimeout(time.Nanosecond))
	resp := post(t, srv, "/v1/layout", body(t, map[string]any{
		"netlist": "V1 n1 0 5\nR1 n1 n2 1k\nC1 n2 0 1u\nR2 n2 n3 1k\nC2 n3 0 1u\n",
		"anneal":  true,
	}))
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body = %s", resp.StatusCode, data)
	}
	var got layoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if a := got.Layout.Stats.Anneal; a == nil || !a.Stopped {
		t.Errorf("anneal stats = %+v, want stopped at the request deadline", a)
	}
}

type httpCounter struct {
	observability.NoopHTTPHooks
	mu        sync.Mutex
	requests  int
	responses map[int]int
	errors    int
}

func (c *httpCounter) OnRequest(context.Context, string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
}

func (c *httpCounter) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[status]++
}

func (c *httpCounter) OnError(context.Context, string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors++
}

func TestHTTPHooks(t *testing.T) {
	counter := &httpCounter{responses: make(map[int]int)}
	observability.SetHTTPHooks(counter)
	t.Cleanup(observability.Reset)

	srv := testServer(t)
	for _, b := range []string{body(t, map[string]any{"netlist": divider}), `{}`} {
		// Draining the body waits for the handler chain to return.
		io.ReadAll(post(t, srv, "/v1/layout", b).Body)
	}

	counter.mu.Lock()
	defer counter.mu.Unlock()
	if counter.requests != 2 {
		t.Errorf("requests = %d, want 2", counter.requests)
	}
	if counter.responses[200] != 1 || counter.responses[400] != 1 {
		t.Errorf("responses = %v, want one 200 and one 400", counter.responses)
	}
	if counter.errors != 1 {
		t.Errorf("errors = %d, want 1", counter.errors)
	}
}
