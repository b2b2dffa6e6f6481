package component

// Kind identifies one measurable quantity.
type Kind uint8

const (
	// KindWallClock measures elapsed monotonic wall time per region.
	KindWallClock Kind = iota
	// KindProcessCPU measures process CPU seconds consumed per region.
	KindProcessCPU
	// KindHeapAlloc measures bytes allocated on the heap per region.
	KindHeapAlloc
	// KindPeakHeap measures the high-water growth of live heap bytes.
	KindPeakHeap
	// KindGoroutineCount samples the number of live goroutines.
	KindGoroutineCount

	kindCount
)

// String returns the canonical lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindWallClock:
		return "wall_clock"
	case KindProcessCPU:
		return "process_cpu"
	case KindHeapAlloc:
		return "heap_alloc"
	case KindPeakHeap:
		return "peak_heap"
	case KindGoroutineCount:
		return "goroutine_count"
	default:
		return "unknown"
	}
}

// Kinds returns all registered kinds in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// CapabilitySet describes what a component kind supports. Lifecycle code and
// the storage layer dispatch through this record rather than switching on
// concrete types.
type CapabilitySet struct {
	// HasAccum indicates the kind keeps a running accumulation across laps.
	HasAccum bool
	// HasLast indicates the kind retains the most recent lap delta.
	HasLast bool
	// ImplementsStorage indicates start/stop participates in call-graph
	// storage. Kinds that opt out (pure samplers) never create nodes.
	ImplementsStorage bool
	// HasSecondaryData indicates stop produces auxiliary sub-results that
	// materialize as their own child nodes when secondary output is enabled.
	HasSecondaryData bool
	// IsSampler indicates the kind supports Sample observations.
	IsSampler bool

	// Category flags used by reporting and exporters.
	IsTimingCategory bool
	IsMemoryCategory bool

	// Unit flags. At most one is set.
	UsesTimingUnits bool
	UsesMemoryUnits bool
	UsesPercentUnits bool
}

var capabilityTable = [kindCount]CapabilitySet{
	KindWallClock: {
		HasAccum:          true,
		HasLast:           true,
		ImplementsStorage: true,
		IsTimingCategory:  true,
		UsesTimingUnits:   true,
	},
	KindProcessCPU: {
		HasAccum:          true,
		HasLast:           true,
		ImplementsStorage: true,
		IsTimingCategory:  true,
		UsesTimingUnits:   true,
	},
	KindHeapAlloc: {
		HasAccum:          true,
		HasLast:           true,
		ImplementsStorage: true,
		HasSecondaryData:  true,
		IsMemoryCategory:  true,
		UsesMemoryUnits:   true,
	},
	KindPeakHeap: {
		HasAccum:          true,
		HasLast:           true,
		ImplementsStorage: true,
		IsMemoryCategory:  true,
		UsesMemoryUnits:   true,
	},
	KindGoroutineCount: {
		HasLast:   true,
		IsSampler: true,
	},
}

// Capabilities returns the capability record for a kind. Unknown kinds
// return the zero set, which opts out of everything.
func Capabilities(k Kind) CapabilitySet {
	if k >= kindCount {
		return CapabilitySet{}
	}
	return capabilityTable[k]
}

// Combine returns the kind's statistical combination operator: sum for
// duration-like kinds, max for peak metrics. The same operator is applied
// when folding a lap into an instance and when the merge engine collapses
// nodes across threads or processes.
func Combine(k Kind) func(accum, delta int64) int64 {
	if k == KindPeakHeap || k == KindGoroutineCount {
		return combineMax
	}
	return combineSum
}
