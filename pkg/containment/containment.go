package containment

import (
	"cmp"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/matzehuels/nodeformat/pkg/graph"
)

// Container is the containment record of one group box.
type Container struct {
	// Node is the group node this record describes.
	Node *graph.Node

	parent   *Container
	children []*Container
	owned    []*graph.Node
	all      mapset.Set[graph.NodeID]
	order    []*graph.Node
	height   int
}

// ID returns the group's node ID.
func (c *Container) ID() graph.NodeID { return c.Node.ID }

// Parent returns the innermost group that directly encloses c, or nil for a
// root container.
func (c *Container) Parent() *Container { return c.parent }

// Children returns the containers whose parent is c, in group order.
func (c *Container) Children() []*Container { return slices.Clone(c.children) }

// Owned returns the non-group nodes for which c is the innermost container.
func (c *Container) Owned() []*graph.Node { return slices.Clone(c.owned) }

// Height is 0 for a group that contains no other group, otherwise one more
// than the tallest contained group.
func (c *Container) Height() int { return c.height }

// Contains reports whether id is enclosed by c, directly or through nested
// groups.
func (c *Container) Contains(id graph.NodeID) bool { return c.all.Contains(id) }

// All returns every node enclosed by c, nested groups and their members
// included, in discovery order.
func (c *Container) All() []*graph.Node { return slices.Clone(c.order) }

// Members returns the non-group nodes enclosed by c, transitively.
func (c *Container) Members() []*graph.Node {
	var out []*graph.Node
	for _, n := range c.order {
		if !n.IsGroup() {
			out = append(out, n)
		}
	}
	return out
}

// IsEmpty reports whether c encloses no non-group node.
func (c *Container) IsEmpty() bool { return len(c.Members()) == 0 }

// Graph is the group forest of a graph: every group's enclosed set, its
// nesting parent, and which group owns each node.
//
// A Graph is a snapshot. Mutating the underlying graph's Contains lists does
// not update it; use [Graph.AddNode] and [Graph.DeleteNode] or rebuild.
type Graph struct {
	source     *graph.Graph
	containers []*Container
	byID       map[graph.NodeID]*Container
	owner      map[graph.NodeID]*Container
}

// Build computes the containment graph of every group in g.
func Build(g *graph.Graph) *Graph {
	groups := g.Groups()
	return build(g, groups, func(c *Container) []graph.NodeID { return c.Node.Contains })
}

// Subset returns a containment graph restricted to the containers accepted
// by keep. Empty containers are always dropped. Nesting and ownership are
// recomputed over the retained groups only, so a node owned by a dropped group
// becomes owned by the next retained group around it.
func (cg *Graph) Subset(keep func(*Container) bool) *Graph {
	retained := mapset.NewThreadUnsafeSet[graph.NodeID]()
	var groups []*graph.Node
	for _, c := range cg.containers {
		if c.IsEmpty() || (keep != nil && !keep(c)) {
			continue
		}
		retained.Add(c.ID())
		groups = append(groups, c.Node)
	}
	return build(cg.source, groups, func(c *Container) []graph.NodeID {
		orig := cg.byID[c.ID()]
		var ids []graph.NodeID
		for _, n := range orig.order {
			if !n.IsGroup() || retained.Contains(n.ID) {
				ids = append(ids, n.ID)
			}
		}
		return ids
	})
}

func build(g *graph.Graph, groups []*graph.Node, direct func(*Container) []graph.NodeID) *Graph {
	cg := &Graph{
		source: g,
		byID:   make(map[graph.NodeID]*Container, len(groups)),
		owner:  make(map[graph.NodeID]*Container),
	}
	for _, n := range groups {
		c := &Container{Node: n, all: mapset.NewThreadUnsafeSet[graph.NodeID]()}
		cg.containers = append(cg.containers, c)
		cg.byID[n.ID] = c
	}

	directOf := make(map[*Container][]*graph.Node, len(cg.containers))
	for _, c := range cg.containers {
		for _, id := range direct(c) {
			n, ok := g.Node(id)
			if !ok || n == c.Node {
				continue
			}
			if n.IsGroup() && cg.byID[id] == nil {
				continue
			}
			directOf[c] = append(directOf[c], n)
		}
	}

	for _, c := range cg.containers {
		cg.closure(c, directOf)
	}

	state := make(map[*Container]int)
	for _, c := range cg.containers {
		cg.computeHeight(c, state)
	}

	cg.assignParents()
	cg.assignOwners()
	return cg
}

func (cg *Graph) closure(c *Container, directOf map[*Container][]*graph.Node) {
	stack := slices.Clone(directOf[c])
	slices.Reverse(stack)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == c.Node || c.all.Contains(n.ID) {
			continue
		}
		c.all.Add(n.ID)
		c.order = append(c.order, n)
		if sub := cg.byID[n.ID]; sub != nil {
			next := slices.Clone(directOf[sub])
			slices.Reverse(next)
			stack = append(stack, next...)
		}
	}
}

const (
	visiting = iota + 1
	done
)

func (cg *Graph) computeHeight(c *Container, state map[*Container]int) int {
	switch state[c] {
	case visiting:
		return 0
	case done:
		return c.height
	}
	state[c] = visiting
	h := 0
	for _, n := range c.order {
		sub := cg.byID[n.ID]
		if sub == nil || sub == c {
			continue
		}
		h = max(h, cg.computeHeight(sub, state)+1)
	}
	c.height = h
	state[c] = done
	return h
}

func (cg *Graph) assignParents() {
	byHeight := slices.Clone(cg.containers)
	slices.SortStableFunc(byHeight, func(a, b *Container) int { return cmp.Compare(b.height, a.height) })
	for _, a := range byHeight {
		for _, n := range a.order {
			b := cg.byID[n.ID]
			if b == nil || b == a || isAncestor(b, a) {
				continue
			}
			if b.parent == nil || a.height == b.height+1 {
				b.parent = a
			}
		}
	}
	for _, c := range cg.containers {
		if c.parent != nil {
			c.parent.children = append(c.parent.children, c)
		}
	}
}

// isAncestor reports whether anc appears on c's parent chain, c included.
func isAncestor(anc, c *Container) bool {
	for ; c != nil; c = c.parent {
		if c == anc {
			return true
		}
	}
	return false
}

func (cg *Graph) assignOwners() {
	for _, c := range cg.byAscendingHeight() {
		for _, n := range c.order {
			if n.IsGroup() {
				continue
			}
			if _, ok := cg.owner[n.ID]; ok {
				continue
			}
			cg.owner[n.ID] = c
			c.owned = append(c.owned, n)
		}
	}
}

func (cg *Graph) byAscendingHeight() []*Container {
	out := slices.Clone(cg.containers)
	slices.SortStableFunc(out, func(a, b *Container) int { return cmp.Compare(a.height, b.height) })
	return out
}

// Container returns the record for the group with the given ID.
func (cg *Graph) Container(id graph.NodeID) (*Container, bool) {
	c, ok := cg.byID[id]
	return c, ok
}

// Owner returns the innermost container of a non-group node, or nil.
func (cg *Graph) Owner(id graph.NodeID) *Container { return cg.owner[id] }

// Containing returns every container enclosing id, innermost first.
func (cg *Graph) Containing(id graph.NodeID) []*Container {
	var out []*Container
	for _, c := range cg.byAscendingHeight() {
		if c.all.Contains(id) {
			out = append(out, c)
		}
	}
	return out
}

// Roots returns the containers with no parent, in group order.
func (cg *Graph) Roots() []*Container {
	var out []*Container
	for _, c := range cg.containers {
		if c.parent == nil {
			out = append(out, c)
		}
	}
	return out
}

// Containers returns every container in group order.
func (cg *Graph) Containers() []*Container { return slices.Clone(cg.containers) }

// Len returns the number of containers.
func (cg *Graph) Len() int { return len(cg.containers) }

// AddNode records n as enclosed by the group with ID group. The group's
// Contains list in the underlying graph is updated too. Every container that
// encloses the group now encloses n, and n is owned by the innermost one.
//
// Adding a group rebuilds nesting, heights and ownership, so containers
// returned before the call no longer belong to cg.
func (cg *Graph) AddNode(group graph.NodeID, n *graph.Node) bool {
	c, ok := cg.byID[group]
	if !ok || n.ID == group {
		return false
	}
	if !slices.Contains(c.Node.Contains, n.ID) {
		c.Node.Contains = append(c.Node.Contains, n.ID)
	}
	for _, o := range cg.containers {
		if o == c || o.all.Contains(group) {
			if !o.all.Contains(n.ID) {
				o.all.Add(n.ID)
				o.order = append(o.order, n)
			}
		}
	}
	if n.IsGroup() {
		cg.regroup(n)
		return true
	}
	if cur := cg.owner[n.ID]; cur != nil {
		if cur.height <= c.height {
			return true
		}
		cur.owned = slices.DeleteFunc(cur.owned, func(x *graph.Node) bool { return x == n })
	}
	cg.owner[n.ID] = c
	c.owned = append(c.owned, n)
	return true
}

// regroup rebuilds the forest after group g was nested into a container. A
// group cg did not know yet gets a container of its own.
func (cg *Graph) regroup(g *graph.Node) {
	prev := cg.byID
	groups := make([]*graph.Node, 0, len(cg.containers)+1)
	for _, c := range cg.containers {
		groups = append(groups, c.Node)
	}
	if prev[g.ID] == nil {
		groups = append(groups, g)
	}
	*cg = *build(cg.source, groups, func(c *Container) []graph.NodeID {
		old := prev[c.ID()]
		if old == nil {
			return c.Node.Contains
		}
		ids := make([]graph.NodeID, 0, len(old.order))
		for _, n := range old.order {
			ids = append(ids, n.ID)
		}
		return ids
	})
}

// DeleteNode removes a node from the containment graph. Deleting a group
// re-parents its children to its parent and hands its owned nodes to the next
// enclosing container. The underlying graph is not modified.
func (cg *Graph) DeleteNode(id graph.NodeID) {
	for _, o := range cg.containers {
		if o.all.Contains(id) {
			o.all.Remove(id)
			o.order = slices.DeleteFunc(o.order, func(x *graph.Node) bool { return x.ID == id })
		}
	}

	c, isGroup := cg.byID[id]
	if !isGroup {
		if cur := cg.owner[id]; cur != nil {
			cur.owned = slices.DeleteFunc(cur.owned, func(x *graph.Node) bool { return x.ID == id })
			delete(cg.owner, id)
		}
		return
	}

	for _, child := range c.children {
		child.parent = c.parent
		if c.parent != nil {
			c.parent.children = append(c.parent.children, child)
		}
	}
	if c.parent != nil {
		c.parent.children = slices.DeleteFunc(c.parent.children, func(x *Container) bool { return x == c })
	}
	cg.containers = slices.DeleteFunc(cg.containers, func(x *Container) bool { return x == c })
	delete(cg.byID, id)

	asc := cg.byAscendingHeight()
	for _, n := range c.owned {
		delete(cg.owner, n.ID)
		for _, o := range asc {
			if o.all.Contains(n.ID) {
				cg.owner[n.ID] = o
				o.owned = append(o.owned, n)
				break
			}
		}
	}
}
