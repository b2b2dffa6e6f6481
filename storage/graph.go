package storage

import "github.com/perfgraph/perfgraph/component"

// Node is one call-graph entry for one component kind. Nodes are created on
// first insertion at the active position under a given label and scope,
// mutated on each completed lap, and released only when the whole graph is
// torn down after merging.
type Node struct {
	// Label is the hashed region label; Name keeps the original text for
	// reporting.
	Label uint64
	Name  string
	// PathSig identifies the ancestor label sequence. Together with Label
	// and Scope it forms the merge identity key.
	PathSig uint64
	Depth   int32
	Scope   Scope

	Value     int64
	Accum     int64
	Last      int64
	Laps      uint64
	Transient bool

	// Sources counts the threads or processes folded into this node by a
	// collapsing merge. Origin tags the contributing thread or process when
	// collapsing is disabled.
	Sources uint32
	Origin  string

	parent   int32
	children []int32
}

// Graph is an arena of nodes rooted at a synthetic entry at index 0.
// Children own nothing beyond their index lists; parents are plain indexes,
// so the structure is acyclic and cheap to tear down.
type Graph struct {
	kind  component.Kind
	nodes []Node
}

const graphRoot int32 = 0

// NewGraph returns a graph holding only the synthetic root.
func NewGraph(kind component.Kind) *Graph {
	g := &Graph{kind: kind}
	g.nodes = append(g.nodes, Node{parent: -1, Depth: -1})
	return g
}

// Kind returns the component kind this graph measures.
func (g *Graph) Kind() component.Kind { return g.kind }

// Size is the number of real nodes, excluding the synthetic root.
func (g *Graph) Size() int { return len(g.nodes) - 1 }

// Node returns the arena entry at idx. The pointer is valid until the next
// insertion, which may grow the arena.
func (g *Graph) Node(idx int32) *Node { return &g.nodes[idx] }

// Parent returns the parent index of idx, or -1 for the root.
func (g *Graph) Parent(idx int32) int32 { return g.nodes[idx].parent }

// Children returns the child index list of idx.
func (g *Graph) Children(idx int32) []int32 { return g.nodes[idx].children }

// findChild locates an existing child of parent with the given label and
// scope. Timeline children never match: every timeline insertion is new.
func (g *Graph) findChild(parent int32, label uint64, scope Scope) (int32, bool) {
	if scope == ScopeTimeline {
		return -1, false
	}
	for _, c := range g.nodes[parent].children {
		if g.nodes[c].Label == label && g.nodes[c].Scope == scope {
			return c, true
		}
	}
	return -1, false
}

// addChild appends a fresh node under parent and returns its index.
func (g *Graph) addChild(parent int32, label uint64, name string, scope Scope) int32 {
	idx := int32(len(g.nodes))
	g.nodes = append(g.nodes, Node{
		Label:   label,
		Name:    name,
		PathSig: mixPath(g.nodes[parent].PathSig, label),
		Depth:   g.nodes[parent].Depth + 1,
		Scope:   scope,
		parent:  parent,
	})
	g.nodes[parent].children = append(g.nodes[parent].children, idx)
	return idx
}

// Walk visits every real node in depth-first preorder. Returning false from
// fn stops the walk.
func (g *Graph) Walk(fn func(*Node) bool) {
	var dfs func(int32) bool
	dfs = func(idx int32) bool {
		if idx != graphRoot && !fn(&g.nodes[idx]) {
			return false
		}
		for _, c := range g.nodes[idx].children {
			if !dfs(c) {
				return false
			}
		}
		return true
	}
	dfs(graphRoot)
}

// MaxDepth returns the deepest node depth, or -1 for an empty graph.
func (g *Graph) MaxDepth() int32 {
	max := int32(-1)
	g.Walk(func(n *Node) bool {
		if n.Depth > max {
			max = n.Depth
		}
		return true
	})
	return max
}
