// Package storage implements the hierarchical call-graph behind the
// measurement lifecycle: one arena-allocated tree per goroutine per
// component kind, mirroring nested measurement regions, plus the merge
// engine that combines finished per-thread (and per-process) graphs into a
// single global graph.
//
// Ownership is strict. A Thread is mutated only by the goroutine that owns
// it; the Insert/Pop hot path never takes a lock. Cross-goroutine
// coordination happens only at the Finalizing -> Merged transition, when the
// merge engine reads a graph that has stopped changing. Nodes live in a
// per-graph arena with index-based parent links, so the tree is acyclic by
// construction and teardown is a single slice release.
package storage
