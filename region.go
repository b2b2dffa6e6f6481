package perfgraph

import (
	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/storage"
)

// Thread is the explicit per-goroutine measurement handle. There is no
// implicit thread-local state: the goroutine that calls Manager.Thread owns
// the handle and is the only one allowed to use it. Pass it down the call
// stack directly or through a context (see ContextWithThread).
type Thread struct {
	m      *Manager
	id     uint64
	stores map[component.Kind]*storage.Thread
	closed bool
}

// ID is the thread's registration number, used in origin tags.
func (t *Thread) ID() uint64 { return t.id }

// Begin opens a measurement region with the manager's default scope.
func (t *Thread) Begin(label string) *Region {
	return t.BeginScoped(t.m.scope, label)
}

// BeginScoped opens a measurement region with an explicit scope policy.
// Begin and End are the hot path: no locks, no logging, no allocation
// beyond the region record and its component instances.
func (t *Thread) BeginScoped(scope Scope, label string) *Region {
	r := &Region{t: t, label: label}
	if t.closed || !t.m.enabled.Load() {
		return r
	}
	r.open = true
	r.parts = make([]regionPart, 0, len(t.m.kinds))
	for _, k := range t.m.kinds {
		st := t.stores[k]
		recording := st.Insert(scope, label)
		comp := component.New(k)
		t.m.fault(comp.Start())
		r.parts = append(r.parts, regionPart{comp: comp, store: st, recording: recording})
	}
	return r
}

// Close finalizes the thread's graphs and merges them into the global
// storage ahead of Manager.Finalize. After Close the handle is inert:
// regions begun on it create no nodes.
func (t *Thread) Close() error {
	if t.closed {
		return ErrThreadClosed
	}
	t.closed = true
	return t.m.collect(t)
}

// Region is one open measurement: a set of started components plus their
// call-graph positions. End completes the lap.
type Region struct {
	t     *Thread
	label string
	parts []regionPart
	open  bool
}

type regionPart struct {
	comp      component.Component
	store     *storage.Thread
	recording bool
}

// Label returns the region's label.
func (r *Region) Label() string { return r.label }

// End stops every component, folds each delta into its node via the
// kind's combination operator, appends secondary sub-results when
// configured, and pops the storage cursors. Ending a region twice, or one
// begun while measurement was disabled, is a no-op.
func (r *Region) End() {
	if !r.open {
		return
	}
	r.open = false
	addSecondary := r.t.m.cfg.AddSecondary
	for i := range r.parts {
		p := &r.parts[i]
		if err := p.comp.Stop(); err != nil {
			r.t.m.fault(err)
		} else if p.recording {
			p.store.Record(p.comp.Last(), p.comp.Transient(), component.Combine(p.comp.Kind()))
			if addSecondary {
				if src, ok := p.comp.(component.SecondarySource); ok {
					p.store.AppendSecondary(src.Secondary())
				}
			}
		}
		if err := p.store.Pop(); err != nil {
			r.t.m.fault(err)
		}
	}
}

// Components exposes the region's live component instances, primarily for
// tests and custom collaborators.
func (r *Region) Components() []component.Component {
	out := make([]component.Component, 0, len(r.parts))
	for i := range r.parts {
		out = append(out, r.parts[i].comp)
	}
	return out
}
