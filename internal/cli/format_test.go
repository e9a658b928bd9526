package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/graphio"
)

func TestRunFormat(t *testing.T) {
	input := writeTestGraph(t)
	out := filepath.Join(t.TempDir(), "out.json")

	c := newTestCLI()
	if err := c.runFormat(context.Background(), input, formatOpts{node: "begin", output: out}); err != nil {
		t.Fatalf("runFormat() error = %v", err)
	}

	g, _, err := graphio.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", out, err)
	}
	tests := []struct {
		id   string
		want geom.Vec
	}{
		{"begin", geom.V(0, 0)},
		{"print", geom.V(296, 0)},
		{"tick", geom.V(0, 400)},
	}
	for _, tt := range tests {
		n, ok := g.Node(graph.NodeID(tt.id))
		if !ok {
			t.Fatalf("node %s missing", tt.id)
		}
		if n.Pos != tt.want {
			t.Errorf("%s.Pos = %v, want %v", tt.id, n.Pos, tt.want)
		}
	}
}

func TestRunFormatUnknownNode(t *testing.T) {
	c := newTestCLI()
	if err := c.runFormat(context.Background(), writeTestGraph(t), formatOpts{node: "ghost", inPlace: true}); err == nil {
		t.Error("runFormat(ghost) error = nil, want error")
	}
}

func TestFormatOutputPath(t *testing.T) {
	tests := []struct {
		name string
		opts formatOpts
		want string
	}{
		{"default", formatOpts{}, "dir/graph.formatted.json"},
		{"explicit", formatOpts{output: "x.json"}, "x.json"},
		{"in place", formatOpts{inPlace: true}, "dir/graph.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatOutputPath("dir/graph.json", tt.opts); got != tt.want {
				t.Errorf("formatOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
