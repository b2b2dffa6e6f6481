package component

// WallClock measures elapsed wall time per region using the monotonic
// clock. Laps sum: the accumulation is total inclusive time spent in the
// region across all laps.
type WallClock struct {
	base
}

// NewWallClock returns a stopped wall-clock instance.
func NewWallClock() *WallClock {
	w := &WallClock{}
	w.init(KindWallClock, recordWallNanos, combineSum)
	return w
}

// ProcessCPU measures CPU seconds consumed by the process, normalized to
// nanoseconds. The reading comes from runtime/metrics and is an estimate
// updated by the scheduler, so very short regions may record a zero delta;
// such laps clear the transient flag instead of polluting statistics.
type ProcessCPU struct {
	base
}

// NewProcessCPU returns a stopped process-CPU instance.
func NewProcessCPU() *ProcessCPU {
	c := &ProcessCPU{}
	c.init(KindProcessCPU, recordProcessCPU, combineSum)
	return c
}
