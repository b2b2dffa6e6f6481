package storage

import "github.com/perfgraph/perfgraph/component"

// State tracks the lifecycle of a Thread's graph.
type State uint8

const (
	// StateUninitialized means no insertion has happened yet.
	StateUninitialized State = iota
	// StateActive means the owning goroutine is inserting and popping.
	StateActive
	// StateFinalizing means the graph has been handed to the merge engine
	// and no longer accepts insertions.
	StateFinalizing
	// StateMerged means the graph has contributed to a merge and is inert.
	StateMerged
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateFinalizing:
		return "finalizing"
	case StateMerged:
		return "merged"
	default:
		return "unknown"
	}
}

// Settings is the effective configuration a Thread operates under. The
// values arrive pre-validated from the configuration layer; NewThread still
// clamps rather than trusting callers.
type Settings struct {
	Enabled       bool
	MaxDepth      int32
	Scope         Scope
	MaxBookmarks  int
	ThrottleCount uint64
	ThrottleValue int64
}

// Bookmark is a lightweight reference to a node's position: enough identity
// to relocate the node in a merged graph without re-walking from the root.
type Bookmark struct {
	Node    int32
	Label   uint64
	PathSig uint64
	Depth   int32
}

// frame records one open insertion. pushed is false when the insertion was
// swallowed (disabled, throttled, or folded at the depth ceiling); the
// matching Pop must then leave the cursor unmoved.
type frame struct {
	node   int32
	pushed bool
}

// Thread owns one call graph for one component kind on one goroutine.
// Insert, Record and Pop are the hot path: they never allocate beyond arena
// growth and never take a lock.
type Thread struct {
	kind   component.Kind
	origin string

	graph  *Graph
	cursor int32
	frames []frame
	state  State
	set    Settings

	throttle  *Throttle
	bookmarks []Bookmark
	flushes   uint64

	// onFlush receives the current graph when the bookmark table
	// overflows, letting the owner merge early instead of failing the
	// measurement.
	onFlush func(*Graph)
}

// NewThread creates storage for one kind. origin tags this thread's subtree
// when merges do not collapse (for example "thread/3").
func NewThread(kind component.Kind, origin string, set Settings) *Thread {
	if set.MaxDepth < 1 {
		set.MaxDepth = 1
	}
	return &Thread{
		kind:     kind,
		origin:   origin,
		graph:    NewGraph(kind),
		cursor:   graphRoot,
		set:      set,
		throttle: NewThrottle(set.ThrottleCount, set.ThrottleValue),
	}
}

// SetFlushFunc installs the early-merge sink used when the bookmark table
// overflows. Must be set before the first insertion.
func (t *Thread) SetFlushFunc(fn func(*Graph)) { t.onFlush = fn }

// Kind returns the component kind measured by this thread's graph.
func (t *Thread) Kind() component.Kind { return t.kind }

// Origin returns the thread's merge tag.
func (t *Thread) Origin() string { return t.origin }

// State returns the storage lifecycle state.
func (t *Thread) State() State { return t.state }

// Graph exposes the underlying graph for inspection. Callers other than the
// merge engine must not mutate it.
func (t *Thread) Graph() *Graph { return t.graph }

// Enabled reports whether insertions currently create nodes.
func (t *Thread) Enabled() bool { return t.set.Enabled }

// SetEnabled toggles node creation. Already-created nodes are unaffected.
func (t *Thread) SetEnabled(v bool) { t.set.Enabled = v }

// MaxDepth returns the effective depth ceiling.
func (t *Thread) MaxDepth() int32 { return t.set.MaxDepth }

// SetMaxDepth updates the depth ceiling, clamping to at least one.
func (t *Thread) SetMaxDepth(n int32) {
	if n < 1 {
		n = 1
	}
	t.set.MaxDepth = n
}

// Flushes reports how many early bookmark-overflow merges have happened.
func (t *Thread) Flushes() uint64 { return t.flushes }

// Bookmarks returns the current bookmark table.
func (t *Thread) Bookmarks() []Bookmark { return t.bookmarks }

// Throttle exposes the per-label throttle, nil when throttling is off.
func (t *Thread) Throttle() *Throttle { return t.throttle }

// Insert opens a measurement region for name under the current position.
// It returns true when a node will record this region's delta (including
// the depth-ceiling case, where the delta folds into the deepest permitted
// ancestor), and false when the region is skipped outright (storage
// disabled, finalized, or the label throttled). Either way the matching Pop
// keeps the stack balanced.
func (t *Thread) Insert(scope Scope, name string) bool {
	if !t.set.Enabled || t.state == StateFinalizing || t.state == StateMerged {
		t.frames = append(t.frames, frame{node: -1})
		return false
	}
	label := HashLabel(name)
	if t.throttle.Disabled(label) {
		t.frames = append(t.frames, frame{node: -1})
		return false
	}
	if t.state == StateUninitialized {
		t.state = StateActive
	}

	// Depth ceiling: fold into the current deepest permitted node and
	// leave the cursor unmoved.
	if t.graph.Node(t.cursor).Depth+1 >= t.set.MaxDepth {
		t.frames = append(t.frames, frame{node: t.cursor})
		return true
	}

	parent := t.cursor
	if scope == ScopeFlat {
		parent = graphRoot
	}
	idx, ok := t.graph.findChild(parent, label, scope)
	created := !ok
	if created {
		idx = t.graph.addChild(parent, label, name, scope)
	}
	// The frame must be on the stack before the bookmark check: an
	// overflow flush rebuilds the arena from the open frames, so an
	// in-flight node not yet framed would be lost and leave the cursor
	// pointing into the discarded graph.
	t.cursor = idx
	t.frames = append(t.frames, frame{node: idx, pushed: true})
	if created {
		t.addBookmark(idx)
	}
	return true
}

// Current returns the node that will record the open region's delta.
func (t *Thread) Current() (int32, bool) {
	if len(t.frames) == 0 {
		return -1, false
	}
	f := t.frames[len(t.frames)-1]
	if f.node < 0 {
		return -1, false
	}
	return f.node, true
}

// Record folds a completed lap's delta into the open region's node using
// the kind's combination operator.
func (t *Thread) Record(delta int64, transient bool, combine func(accum, delta int64) int64) {
	idx, ok := t.Current()
	if !ok {
		return
	}
	n := t.graph.Node(idx)
	n.Value = delta
	n.Last = delta
	n.Accum = combine(n.Accum, delta)
	n.Laps++
	if transient {
		n.Transient = true
	}
	t.throttle.Observe(n.Label, delta)
}

// AppendSecondary materializes auxiliary sub-results as child nodes of the
// open region's node. Each sub-result is its own tree-scoped child keyed by
// name; repeated laps accumulate into the same child.
func (t *Thread) AppendSecondary(items []component.Secondary) {
	idx, ok := t.Current()
	if !ok {
		return
	}
	// Secondary children honor the same ceiling as primary insertions.
	if t.graph.Node(idx).Depth+1 >= t.set.MaxDepth {
		return
	}
	for _, item := range items {
		label := HashLabel(item.Name)
		child, found := t.graph.findChild(idx, label, ScopeTree)
		if !found {
			child = t.graph.addChild(idx, label, item.Name, ScopeTree)
		}
		n := t.graph.Node(child)
		n.Value = item.Value
		n.Last = item.Value
		n.Accum += item.Value
		n.Laps++
		if item.Value != 0 {
			n.Transient = true
		}
	}
}

// Pop closes the innermost open region, restoring the cursor to its parent.
// Pops matching swallowed insertions are no-ops, preserving stack balance.
// The node itself is never deleted.
func (t *Thread) Pop() error {
	if len(t.frames) == 0 {
		return ErrUnbalancedPop
	}
	f := t.frames[len(t.frames)-1]
	t.frames = t.frames[:len(t.frames)-1]
	if f.pushed {
		t.cursor = t.graph.Parent(f.node)
	}
	return nil
}

// Depth returns the number of open, node-backed regions.
func (t *Thread) Depth() int32 {
	return t.graph.Node(t.cursor).Depth + 1
}

// Finalize transitions the graph to Finalizing and hands it to the merge
// engine. Further insertions are skipped. Finalizing twice is an error.
func (t *Thread) Finalize() (*Graph, error) {
	switch t.state {
	case StateFinalizing:
		return nil, ErrNotFinalized
	case StateMerged:
		return nil, ErrAlreadyMerged
	}
	t.state = StateFinalizing
	return t.graph, nil
}

// MarkMerged records that the merge engine has consumed this graph.
func (t *Thread) MarkMerged() { t.state = StateMerged }

func (t *Thread) addBookmark(idx int32) {
	n := t.graph.Node(idx)
	t.bookmarks = append(t.bookmarks, Bookmark{
		Node:    idx,
		Label:   n.Label,
		PathSig: n.PathSig,
		Depth:   n.Depth,
	})
	if t.set.MaxBookmarks > 0 && len(t.bookmarks) > t.set.MaxBookmarks {
		t.flush()
	}
}

// flush handles bookmark-table overflow: the accumulated graph is merged
// out early through onFlush and replaced by a fresh graph holding just the
// open ancestor chain with zeroed statistics. Merge associativity makes the
// early contribution equivalent to merging everything at finalize. Without
// a flush sink, only the bookmark table is released.
func (t *Thread) flush() {
	t.flushes++
	t.bookmarks = t.bookmarks[:0]
	if t.onFlush == nil {
		return
	}

	old := t.graph
	t.onFlush(old)

	fresh := NewGraph(t.kind)
	remap := make(map[int32]int32, len(t.frames)+1)
	remap[graphRoot] = graphRoot
	parent := graphRoot
	for i := range t.frames {
		f := &t.frames[i]
		if !f.pushed {
			continue
		}
		n := old.Node(f.node)
		under := parent
		if n.Scope == ScopeFlat {
			under = graphRoot
		}
		child := fresh.addChild(under, n.Label, n.Name, n.Scope)
		remap[f.node] = child
		parent = child
	}
	// Fold frames target a node on the open chain; remap them too.
	for i := range t.frames {
		f := &t.frames[i]
		if f.node >= 0 {
			if nn, ok := remap[f.node]; ok {
				f.node = nn
			}
		}
	}
	t.graph = fresh
	t.cursor = parent
}
