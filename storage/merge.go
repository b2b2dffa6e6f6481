package storage

import "github.com/perfgraph/perfgraph/component"

// MergeOptions controls how one source graph folds into a target.
type MergeOptions struct {
	// Collapse combines nodes that share an identity key (hashed label,
	// ancestor path, scope) via the kind's plus operator and counts the
	// contributing sources. When false, each origin keeps a distinct
	// subtree under a marker node tagged with Origin.
	Collapse bool
	// Origin identifies the contributing thread or process, for example
	// "thread/3" or a process id.
	Origin string
}

// Merge folds src into dst. The operation is associative and commutative
// over collapsing merges: merging any permutation of sources yields the
// same aggregated value, accumulation and lap count per identity key.
// Sibling order is a display concern, never a correctness one.
//
// When collapsing is off, sources stay separate per origin; repeated
// contributions from the same origin (early bookmark flushes) still combine
// inside that origin's subtree.
func Merge(dst, src *Graph, opts MergeOptions) error {
	if dst.kind != src.kind {
		return ErrKindMismatch
	}
	combine := component.Combine(dst.kind)

	target := graphRoot
	origin := ""
	if !opts.Collapse {
		origin = opts.Origin
		label := HashLabel(opts.Origin)
		idx, ok := dst.findChild(graphRoot, label, ScopeTree)
		if !ok {
			idx = dst.addChild(graphRoot, label, opts.Origin, ScopeTree)
			dst.Node(idx).Origin = opts.Origin
		}
		target = idx
	}

	for _, c := range src.Children(graphRoot) {
		mergeNode(dst, target, src, c, origin, combine)
	}
	return nil
}

func mergeNode(dst *Graph, dstParent int32, src *Graph, srcIdx int32, origin string, combine func(int64, int64) int64) {
	sn := src.Node(srcIdx)

	// Timeline nodes never match in findChild, so every timeline
	// occurrence stays a distinct node here as well.
	di, found := dst.findChild(dstParent, sn.Label, sn.Scope)
	if found {
		dn := dst.Node(di)
		dn.Value = combine(dn.Value, sn.Value)
		dn.Accum = combine(dn.Accum, sn.Accum)
		dn.Last = sn.Last
		dn.Laps += sn.Laps
		if sn.Transient {
			dn.Transient = true
		}
		dn.Sources += sourceCount(sn)
	} else {
		di = dst.addChild(dstParent, sn.Label, sn.Name, sn.Scope)
		dn := dst.Node(di)
		dn.Value = sn.Value
		dn.Accum = sn.Accum
		dn.Last = sn.Last
		dn.Laps = sn.Laps
		dn.Transient = sn.Transient
		dn.Sources = sourceCount(sn)
		dn.Origin = sn.Origin
		if origin != "" {
			dn.Origin = origin
		}
	}

	for _, c := range src.Children(srcIdx) {
		mergeNode(dst, di, src, c, origin, combine)
	}
}

// sourceCount normalizes a node that has never been through a merge (zero
// sources) to one contributing source.
func sourceCount(n *Node) uint32 {
	if n.Sources == 0 {
		return 1
	}
	return n.Sources
}
