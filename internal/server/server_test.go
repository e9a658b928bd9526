package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodeformat/pkg/cache"
	"github.com/matzehuels/nodeformat/pkg/config"
	"github.com/matzehuels/nodeformat/pkg/errors"
	"github.com/matzehuels/nodeformat/pkg/layout"
)

const doc = `{
  "type": "blueprint",
  "nodes": [
    {"id": "begin", "kind": "event", "x": 0, "y": 0, "width": 196, "height": 96,
     "pins": [{"id": "begin.then", "dir": "out", "exec": true}]},
    {"id": "print", "x": 300, "y": 40, "width": 196, "height": 96,
     "pins": [{"id": "print.exec", "dir": "in", "exec": true}]}
  ],
  "links": [{"from": "begin.then", "to": "print.exec"}]
}`

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)
	ts := httptest.NewServer(New(config.Default(), opts...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct{ Status string }
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		t.Errorf("GET /healthz = %d %q, want 200 ok", resp.StatusCode, body.Status)
	}
}

func TestFormat(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts, "/v1/format", `{"node": "begin", "graph": `+doc+`}`)
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body %s", resp.StatusCode, b)
	}
	var out struct {
		Result layout.Result
		Graph  struct {
			Nodes []struct {
				ID   string
				X, Y float64
			}
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Result.Status != layout.StatusFormatted {
		t.Errorf("Status = %v, want %v", out.Result.Status, layout.StatusFormatted)
	}
	if n := out.Graph.Nodes[1]; n.X != 296 || n.Y != 0 {
		t.Errorf("print at (%v, %v), want (296, 0)", n.X, n.Y)
	}
}

func TestFormatConfigOverride(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts, "/v1/format", `{"node": "begin", "config": {"padding": {"x": 204, "y": 100}}, "graph": `+doc+`}`)
	var out struct {
		Graph struct{ Nodes []struct{ X float64 } }
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if got := out.Graph.Nodes[1].X; got != 400 {
		t.Errorf("print.x = %v, want 400", got)
	}
}

func TestFormatAll(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts, "/v1/format-all", `{"graph": `+doc+`}`)
	var out struct{ Batch layout.BatchResult }
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || len(out.Batch.Results) != 1 {
		t.Errorf("format-all = %d with %d results, want 200 with 1", resp.StatusCode, len(out.Batch.Results))
	}
}

func TestRender(t *testing.T) {
	c := cache.NewMemoryCache(0)
	ts := newTestServer(t, WithCache(c, 0))
	body := `{"node": "begin", "graph": ` + doc + `}`

	for i := 0; i < 2; i++ {
		resp := post(t, ts, "/v1/render", body)
		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("render %d status = %d, body %s", i, resp.StatusCode, data)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
			t.Errorf("Content-Type = %q, want image/svg+xml", ct)
		}
		if !bytes.Contains(data, []byte(`id="node-print"`)) {
			t.Errorf("render %d output has no print node", i)
		}
	}
	if got := c.Len(); got != 1 {
		t.Errorf("cache entries = %d, want 1", got)
	}

	resp := post(t, ts, "/v1/render", `{"output": "dot", "graph": `+doc+`}`)
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), `"begin" -> "print"`) {
		t.Errorf("dot output = %s", data)
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t)
	missingSize := strings.Replace(doc, `"width": 196, "height": 96,
     "pins": [{"id": "print.exec"`, `"pins": [{"id": "print.exec"`, 1)
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"bad json", "/v1/format", `{`, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"no node", "/v1/format", `{"graph": ` + doc + `}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown node", "/v1/format", `{"node": "ghost", "graph": ` + doc + `}`, http.StatusNotFound, errors.ErrCodeNodeNotFound},
		{"bad config", "/v1/format", `{"node": "begin", "config": {"direction": "sideways"}, "graph": ` + doc + `}`, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"bad graph", "/v1/format-all", `{"graph": {"nodes": [{"id": ""}], "links": []}}`, http.StatusBadRequest, errors.ErrCodeInvalidGraph},
		{"native png", "/v1/render", `{"output": "png", "graph": ` + doc + `}`, http.StatusNotImplemented, errors.ErrCodeUnsupported},
		{"missing size", "/v1/render", `{"graph": ` + missingSize + `}`, http.StatusConflict, errors.ErrCodeMissingSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts, tt.path, tt.body)
			var body errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status || body.Code != tt.code {
				t.Errorf("POST %s = %d %s (%s), want %d %s", tt.path, resp.StatusCode, body.Code, body.Error, tt.status, tt.code)
			}
		})
	}
}
