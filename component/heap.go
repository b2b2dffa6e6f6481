package component

// HeapAlloc measures bytes allocated on the heap during a region. Laps sum.
// It also tracks the object allocation and free counts for each region as
// secondary data, which storage materializes as child nodes when secondary
// output is enabled.
type HeapAlloc struct {
	base
	allocBaseline int64
	freeBaseline  int64
	allocObjects  int64
	freeObjects   int64
}

// NewHeapAlloc returns a stopped heap-allocation instance.
func NewHeapAlloc() *HeapAlloc {
	h := &HeapAlloc{}
	h.init(KindHeapAlloc, recordHeapAllocBytes, combineSum)
	return h
}

// Start additionally snapshots the allocation and free object counters.
func (h *HeapAlloc) Start() error {
	if err := h.base.Start(); err != nil {
		return err
	}
	h.allocBaseline = readMetric(metricAllocCount)
	h.freeBaseline = readMetric(metricFreeCount)
	return nil
}

// Stop folds the byte delta and accumulates the object-count sub-results.
func (h *HeapAlloc) Stop() error {
	allocs := readMetric(metricAllocCount)
	frees := readMetric(metricFreeCount)
	if err := h.base.Stop(); err != nil {
		return err
	}
	h.allocObjects += allocs - h.allocBaseline
	h.freeObjects += frees - h.freeBaseline
	return nil
}

// Reset zeroes the secondary counters along with the base statistics.
func (h *HeapAlloc) Reset() {
	h.base.Reset()
	h.allocBaseline = 0
	h.freeBaseline = 0
	h.allocObjects = 0
	h.freeObjects = 0
}

// Secondary returns the accumulated object counts for the completed laps.
func (h *HeapAlloc) Secondary() []Secondary {
	return []Secondary{
		{Name: "alloc_objects", Value: h.allocObjects},
		{Name: "free_objects", Value: h.freeObjects},
	}
}

// PeakHeap measures the high-water growth of live heap bytes across a
// region. Laps combine by maximum: the accumulation is the largest single
// lap growth, which approximates the region's peak working-set demand.
type PeakHeap struct {
	base
}

// NewPeakHeap returns a stopped peak-heap instance.
func NewPeakHeap() *PeakHeap {
	p := &PeakHeap{}
	p.init(KindPeakHeap, recordHeapObjectBytes, combineMax)
	return p
}
