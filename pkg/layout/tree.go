package layout

import (
	"slices"

	"github.com/matzehuels/nodeformat/pkg/geom"
	"github.com/matzehuels/nodeformat/pkg/graph"
)

// record is one node of a spanning tree. Records live in an arena and refer
// to each other by index.
type record struct {
	node     *graph.Node
	link     graph.PinLink // link from the parent; zero for the root
	parent   int
	children []int
}

// spanTree is the spanning tree the primary solver builds and the secondary
// solver walks. Index 0 is the root.
type spanTree struct {
	recs   []record
	index  map[graph.NodeID]int
	path   []graph.PinLink
	inPath map[graph.PinLink]bool
}

func newSpanTree(root *graph.Node) *spanTree {
	t := &spanTree{
		index:  make(map[graph.NodeID]int),
		inPath: make(map[graph.PinLink]bool),
	}
	t.add(root, graph.PinLink{}, -1)
	return t
}

func (t *spanTree) add(n *graph.Node, link graph.PinLink, parent int) int {
	i := len(t.recs)
	t.recs = append(t.recs, record{node: n, link: link, parent: parent})
	t.index[n.ID] = i
	if parent >= 0 {
		t.recs[parent].children = append(t.recs[parent].children, i)
		t.accept(link)
	}
	return i
}

func (t *spanTree) accept(l graph.PinLink) {
	if t.inPath[l] {
		return
	}
	t.inPath[l] = true
	t.path = append(t.path, l)
}

func (t *spanTree) reject(l graph.PinLink) {
	if !t.inPath[l] {
		return
	}
	delete(t.inPath, l)
	t.path = slices.DeleteFunc(t.path, func(x graph.PinLink) bool { return x == l })
}

// reparent moves record i under parent, reached through link.
func (t *spanTree) reparent(i, parent int, link graph.PinLink) {
	rec := &t.recs[i]
	if old := rec.parent; old >= 0 {
		t.recs[old].children = slices.DeleteFunc(t.recs[old].children, func(c int) bool { return c == i })
	}
	t.reject(rec.link)
	rec.parent = parent
	rec.link = link
	t.recs[parent].children = append(t.recs[parent].children, i)
	t.accept(link)
}

// isAncestor reports whether anc is i or lies on i's parent chain.
func (t *spanTree) isAncestor(anc, i int) bool {
	for ; i >= 0; i = t.recs[i].parent {
		if i == anc {
			return true
		}
	}
	return false
}

// subtree returns i and all its descendants in pre-order.
func (t *spanTree) subtree(i int) []int {
	out := []int{}
	stack := []int{i}
	for len(stack) > 0 {
		j := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, j)
		ch := t.recs[j].children
		for k := len(ch) - 1; k >= 0; k-- {
			stack = append(stack, ch[k])
		}
	}
	return out
}

func (t *spanTree) nodes() []*graph.Node {
	out := make([]*graph.Node, len(t.recs))
	for i, r := range t.recs {
		out[i] = r.node
	}
	return out
}

// subtreeBounds unions bounds over i and its descendants.
func (t *spanTree) subtreeBounds(i int, bounds func(*graph.Node) geom.Rect) geom.Rect {
	var b geom.Bounds
	for _, j := range t.subtree(i) {
		b.Add(bounds(t.recs[j].node))
	}
	r, _ := b.Rect()
	return r
}
