package storage

import (
	"sync"

	"github.com/perfgraph/perfgraph/component"
)

// Global is the merge target for one component kind: the union of every
// finished thread graph and, when cross-process combination is enabled,
// graphs gathered from other processes.
//
// Global is the only storage type shared between goroutines, and only
// around merges and reads after finalize; the measurement hot path never
// touches it.
type Global struct {
	mu       sync.Mutex
	kind     component.Kind
	graph    *Graph
	collapse bool
	sources  int
}

// NodeView is the read-only per-node projection exposed to report and
// export collaborators.
type NodeView struct {
	Name      string
	Label     uint64
	PathSig   uint64
	Depth     int32
	Scope     Scope
	Value     int64
	Accum     int64
	Last      int64
	Laps      uint64
	Transient bool
	Sources   uint32
	Origin    string
}

// NewGlobal creates an empty merge target. collapse selects whether
// same-identity nodes from different sources combine or stay distinct.
func NewGlobal(kind component.Kind, collapse bool) *Global {
	return &Global{
		kind:     kind,
		graph:    NewGraph(kind),
		collapse: collapse,
	}
}

// Kind returns the component kind aggregated here.
func (g *Global) Kind() component.Kind { return g.kind }

// Merge folds one source graph in. Safe for concurrent contributors.
func (g *Global) Merge(src *Graph, origin string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := Merge(g.graph, src, MergeOptions{Collapse: g.collapse, Origin: origin}); err != nil {
		return err
	}
	g.sources++
	return nil
}

// Size is the merged node count, used for diagnostics and tests.
func (g *Global) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.graph.Size()
}

// Sources reports how many graphs have been merged in.
func (g *Global) Sources() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sources
}

// Walk visits the merged nodes in depth-first preorder under the lock.
// fn must not call back into this Global.
func (g *Global) Walk(fn func(NodeView) bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.graph.Walk(func(n *Node) bool {
		return fn(NodeView{
			Name:      n.Name,
			Label:     n.Label,
			PathSig:   n.PathSig,
			Depth:     n.Depth,
			Scope:     n.Scope,
			Value:     n.Value,
			Accum:     n.Accum,
			Last:      n.Last,
			Laps:      n.Laps,
			Transient: n.Transient,
			Sources:   n.Sources,
			Origin:    n.Origin,
		})
	})
}

// Graph returns the merged graph. Intended for serialization after all
// contributors have finalized; callers must not mutate it.
func (g *Global) Graph() *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.graph
}

// Clear discards all merged data.
func (g *Global) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.graph = NewGraph(g.kind)
	g.sources = 0
}
