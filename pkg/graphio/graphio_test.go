package graphio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/nodeformat/pkg/errors"
	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
)

const sample = `{
  "type": "blueprint",
  "nodes": [
    {"id": "begin", "kind": "event", "x": 0, "y": 0, "width": 196, "height": 96,
     "pins": [{"id": "begin.then", "name": "then", "dir": "out", "exec": true}]},
    {"id": "print", "title": "Print String", "x": 300, "y": 40, "width": 196, "height": 96, "extra_root": true,
     "pins": [
       {"id": "print.exec", "dir": "in", "exec": true},
       {"id": "print.text", "dir": "in", "offset": {"x": 0, "y": 70}}
     ]},
    {"id": "value", "x": 0, "y": 200,
     "pins": [{"id": "value.out", "dir": "out"}]},
    {"id": "frame", "kind": "group", "x": -30, "y": -66, "width": 556, "height": 232,
     "contains": ["begin", "print"]}
  ],
  "links": [
    {"from": "begin.then", "to": "print.exec"},
    {"from": "print.text", "to": "value.out"}
  ]
}`

func TestRead(t *testing.T) {
	g, sizes, err := Read(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if g.Type != "blueprint" || g.NodeCount() != 4 {
		t.Fatalf("Read() = %q with %d nodes, want blueprint with 4", g.Type, g.NodeCount())
	}

	begin, _ := g.Node("begin")
	prt, _ := g.Node("print")
	value, _ := g.Node("value")
	frame, _ := g.Node("frame")

	if begin.Kind != graph.KindEvent || !prt.ExtraRoot || prt.Title != "Print String" {
		t.Errorf("node fields not decoded: begin=%v print=%+v", begin.Kind, prt)
	}
	if s, ok := sizes.Size(prt); !ok || s != geom.V(196, 96) {
		t.Errorf("Size(print) = %v, %v, want (196, 96), true", s, ok)
	}
	if _, ok := sizes.Size(value); ok {
		t.Error("Size(value) ok = true, want unmeasured")
	}
	if frame.Size != geom.V(556, 232) || len(frame.Contains) != 2 {
		t.Errorf("frame = %v %v, want size (556, 232) with 2 members", frame.Size, frame.Contains)
	}
	if _, ok := sizes.Size(frame); ok {
		t.Error("group size stored in the cache")
	}

	text, _ := g.Pin("print.text")
	if got := sizes.PinOffset(text, geom.V(196, 96)); got != geom.V(0, 70) {
		t.Errorf("PinOffset(print.text) = %v, want (0, 70)", got)
	}
	// Links may be listed from either side.
	out, _ := g.Pin("value.out")
	if !out.IsLinkedTo(text) {
		t.Error("value.out not linked to print.text")
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{"not json", `{`, errors.ErrCodeInvalidFormat},
		{"bad type", `{"type": "Blue Print", "nodes": [], "links": []}`, errors.ErrCodeInvalidGraph},
		{"empty id", `{"nodes": [{"id": ""}], "links": []}`, errors.ErrCodeInvalidGraph},
		{"duplicate id", `{"nodes": [{"id": "a"}, {"id": "a"}], "links": []}`, errors.ErrCodeInvalidGraph},
		{"unknown kind", `{"nodes": [{"id": "a", "kind": "widget"}], "links": []}`, errors.ErrCodeInvalidGraph},
		{"bad direction", `{"nodes": [{"id": "a", "pins": [{"id": "a.x", "dir": "up"}]}], "links": []}`, errors.ErrCodeInvalidGraph},
		{"group with pins", `{"nodes": [{"id": "g", "kind": "group", "pins": [{"id": "g.x", "dir": "in"}]}], "links": []}`, errors.ErrCodeInvalidGraph},
		{"unknown member", `{"nodes": [{"id": "g", "kind": "group", "contains": ["ghost"]}], "links": []}`, errors.ErrCodeInvalidGraph},
		{"unknown pin", `{"nodes": [{"id": "a", "pins": [{"id": "a.o", "dir": "out"}]}], "links": [{"from": "a.o", "to": "b.i"}]}`, errors.ErrCodeInvalidGraph},
		{"two outputs", `{"nodes": [
			{"id": "a", "pins": [{"id": "a.o", "dir": "out"}]},
			{"id": "b", "pins": [{"id": "b.o", "dir": "out"}]}
		], "links": [{"from": "a.o", "to": "b.o"}]}`, errors.ErrCodeInvalidGraph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Read(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.code) {
				t.Errorf("Read() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestWriteReadsBack(t *testing.T) {
	g, sizes, err := Read(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, g, sizes); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	g2, sizes2, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read(Write()) error = %v", err)
	}

	a, b := FromGraph(g, sizes), FromGraph(g2, sizes2)
	if len(a.Nodes) != len(b.Nodes) || len(a.Links) != len(b.Links) {
		t.Fatalf("documents differ: %d/%d nodes, %d/%d links", len(a.Nodes), len(b.Nodes), len(a.Links), len(b.Links))
	}
	for i := range a.Nodes {
		if a.Nodes[i].ID != b.Nodes[i].ID || a.Nodes[i].Width != b.Nodes[i].Width || len(a.Nodes[i].Pins) != len(b.Nodes[i].Pins) {
			t.Errorf("node %d = %+v, want %+v", i, b.Nodes[i], a.Nodes[i])
		}
	}
}

func TestFromGraph(t *testing.T) {
	g, sizes, err := Read(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	doc := FromGraph(g, sizes)

	// Links are reported from the output side.
	want := []Link{{From: "begin.then", To: "print.exec"}, {From: "value.out", To: "print.text"}}
	if len(doc.Links) != len(want) {
		t.Fatalf("Links = %v, want %v", doc.Links, want)
	}
	for i := range want {
		if doc.Links[i] != want[i] {
			t.Errorf("Links[%d] = %v, want %v", i, doc.Links[i], want[i])
		}
	}
	if doc.Nodes[0].Kind != "event" || doc.Nodes[1].Kind != "" {
		t.Errorf("kinds = %q, %q, want event and empty", doc.Nodes[0].Kind, doc.Nodes[1].Kind)
	}
	if p := doc.Nodes[1].Pins[1]; p.Offset == nil || *p.Offset != (Offset{X: 0, Y: 70}) {
		t.Errorf("print.text offset = %v, want {0 70}", p.Offset)
	}
	if p := doc.Nodes[1].Pins[0]; p.Offset != nil {
		t.Errorf("print.exec offset = %v, want none", p.Offset)
	}

	if doc := FromGraph(g, nil); doc.Nodes[0].Width != 0 || doc.Nodes[3].Width != 556 {
		t.Errorf("FromGraph(nil sizes) widths = %v, %v, want 0, 556", doc.Nodes[0].Width, doc.Nodes[3].Width)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	g, sizes, err := Read(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "graph.json")
	if err := WriteFile(path, g, sizes); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	g2, _, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if g2.NodeCount() != g.NodeCount() {
		t.Errorf("ReadFile() nodes = %d, want %d", g2.NodeCount(), g.NodeCount())
	}

	if _, _, err := ReadFile(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ReadFile(missing) error = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}
