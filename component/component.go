package component

// Component is the uniform measurement lifecycle implemented by every kind.
//
// The protocol is strictly paired: Start captures a baseline snapshot and
// Stop folds the delta into the statistics. Start on a running instance and
// Stop on a stopped one return a UsageError and leave all statistics
// untouched, so a lenient caller can drop the fault without corrupting
// accumulated data.
type Component interface {
	// Kind identifies the measured quantity.
	Kind() Kind

	// Start captures a baseline snapshot and marks the instance running.
	Start() error
	// Stop computes the delta from the baseline, folds it into the
	// accumulation via the kind's combination operator, increments the lap
	// count and clears the running state.
	Stop() error
	// Measure records an instantaneous snapshot into the current value
	// without touching running state or laps.
	Measure() int64
	// Reset zeroes value, accumulation, laps and flags.
	Reset()

	// Value is the most recent measurement (last lap delta, or the last
	// Measure snapshot).
	Value() int64
	// Accum is the running combination of all lap deltas.
	Accum() int64
	// Last is the delta produced by the most recent completed lap.
	Last() int64
	// Laps is the number of completed start/stop cycles.
	Laps() uint64
	// Running reports whether a region is currently open.
	Running() bool
	// Transient reports whether the latest lap produced a non-degenerate
	// delta.
	Transient() bool

	// Plus folds another instance of the same kind into this one,
	// componentwise on value, accumulation and laps.
	Plus(other Component) error
	// Minus removes another instance's contribution.
	Minus(other Component) error
	// Multiply scales value and accumulation componentwise.
	Multiply(other Component) error
	// Divide divides value and accumulation componentwise, skipping zero
	// divisors.
	Divide(other Component) error
}

// SecondarySource is implemented by kinds whose stop produces auxiliary
// sub-results. Each pair materializes as its own child node in storage when
// secondary output is enabled, rather than folding into the parent value.
type SecondarySource interface {
	Secondary() []Secondary
}

// Secondary is one auxiliary sub-result of a completed lap.
type Secondary struct {
	Name  string
	Value int64
}

// New constructs a fresh instance of the given kind. Unknown kinds return
// nil; callers validate kinds against Capabilities before use.
func New(kind Kind) Component {
	switch kind {
	case KindWallClock:
		return NewWallClock()
	case KindProcessCPU:
		return NewProcessCPU()
	case KindHeapAlloc:
		return NewHeapAlloc()
	case KindPeakHeap:
		return NewPeakHeap()
	case KindGoroutineCount:
		return NewGoroutineCount()
	default:
		return nil
	}
}

// base carries the statistics and lifecycle state shared by all kinds.
// Concrete kinds embed it and supply a recorder plus a combination operator.
type base struct {
	kind      Kind
	record    recorder
	combine   func(accum, delta int64) int64
	value     int64
	accum     int64
	last      int64
	baseline  int64
	laps      uint64
	running   bool
	transient bool
}

func (b *base) init(kind Kind, rec recorder, combine func(int64, int64) int64) {
	b.kind = kind
	b.record = rec
	b.combine = combine
}

func (b *base) Kind() Kind { return b.kind }

func (b *base) Start() error {
	if b.running {
		return usageErr("component.Start", b.kind, ErrAlreadyRunning)
	}
	b.baseline = b.record()
	b.running = true
	return nil
}

func (b *base) Stop() error {
	if !b.running {
		return usageErr("component.Stop", b.kind, ErrNotRunning)
	}
	delta := b.record() - b.baseline
	b.value = delta
	b.last = delta
	b.transient = delta != 0
	b.accum = b.combine(b.accum, delta)
	b.laps++
	b.running = false
	return nil
}

func (b *base) Measure() int64 {
	v := b.record()
	b.value = v
	return v
}

func (b *base) Reset() {
	b.value = 0
	b.accum = 0
	b.last = 0
	b.baseline = 0
	b.laps = 0
	b.running = false
	b.transient = false
}

func (b *base) Value() int64    { return b.value }
func (b *base) Accum() int64    { return b.accum }
func (b *base) Last() int64     { return b.last }
func (b *base) Laps() uint64    { return b.laps }
func (b *base) Running() bool   { return b.running }
func (b *base) Transient() bool { return b.transient }
