package storage

import (
	"fmt"

	"github.com/perfgraph/perfgraph/component"
)

// ExportedNode is the flat projection of a node used by serialization
// collaborators. Parent is an index into the exported slice, -1 for
// children of the root. The arena is append-only, so a parent always
// precedes its children and the slice round-trips without a fixup pass.
type ExportedNode struct {
	Label     uint64
	Name      string
	Depth     int32
	Scope     uint8
	Parent    int32
	Value     int64
	Accum     int64
	Last      int64
	Laps      uint64
	Transient bool
	Sources   uint32
	Origin    string
}

// Export flattens the graph, excluding the synthetic root.
func (g *Graph) Export() []ExportedNode {
	out := make([]ExportedNode, 0, len(g.nodes)-1)
	for i := 1; i < len(g.nodes); i++ {
		n := &g.nodes[i]
		out = append(out, ExportedNode{
			Label:     n.Label,
			Name:      n.Name,
			Depth:     n.Depth,
			Scope:     uint8(n.Scope),
			Parent:    n.parent - 1,
			Value:     n.Value,
			Accum:     n.Accum,
			Last:      n.Last,
			Laps:      n.Laps,
			Transient: n.Transient,
			Sources:   n.Sources,
			Origin:    n.Origin,
		})
	}
	return out
}

// Import rebuilds a graph from its flat projection. Path signatures are
// recomputed from the ancestor chain rather than trusted from the wire.
func Import(kind component.Kind, nodes []ExportedNode) (*Graph, error) {
	g := NewGraph(kind)
	for i := range nodes {
		en := &nodes[i]
		parent := en.Parent + 1
		if parent < 0 || int(parent) >= len(g.nodes) {
			return nil, fmt.Errorf("node %d: parent %d out of range", i, en.Parent)
		}
		idx := g.addChild(parent, en.Label, en.Name, Scope(en.Scope))
		n := g.Node(idx)
		n.Value = en.Value
		n.Accum = en.Accum
		n.Last = en.Last
		n.Laps = en.Laps
		n.Transient = en.Transient
		n.Sources = en.Sources
		n.Origin = en.Origin
	}
	return g, nil
}
