package component

import (
	"runtime"
	"runtime/metrics"
	"time"
)

// A recorder produces the raw int64 snapshot a kind measures. Deltas are
// always snapshot-now minus snapshot-earlier; the combination operator
// decides whether laps sum or take the maximum.
type recorder func() int64

// processEpoch anchors wall-clock snapshots so deltas ride the monotonic
// clock rather than the wall calendar.
var processEpoch = time.Now()

func recordWallNanos() int64 {
	return int64(time.Since(processEpoch))
}

// Runtime metric names read by the CPU and memory kinds. All of these are
// cumulative or instantaneous gauges documented by runtime/metrics.
const (
	metricCPUUser     = "/cpu/classes/user:cpu-seconds"
	metricHeapAllocs  = "/gc/heap/allocs:bytes"
	metricAllocCount  = "/gc/heap/allocs:objects"
	metricFreeCount   = "/gc/heap/frees:objects"
	metricHeapObjects = "/memory/classes/heap/objects:bytes"
)

func readMetric(name string) int64 {
	sample := []metrics.Sample{{Name: name}}
	metrics.Read(sample)
	switch sample[0].Value.Kind() {
	case metrics.KindUint64:
		return int64(sample[0].Value.Uint64())
	case metrics.KindFloat64:
		// CPU classes report seconds; normalize to nanoseconds so every
		// timing kind shares one unit base.
		return int64(sample[0].Value.Float64() * float64(time.Second))
	default:
		return 0
	}
}

func recordProcessCPU() int64 {
	return readMetric(metricCPUUser)
}

func recordHeapAllocBytes() int64 {
	return readMetric(metricHeapAllocs)
}

func recordHeapObjectBytes() int64 {
	return readMetric(metricHeapObjects)
}

func recordGoroutines() int64 {
	return int64(runtime.NumGoroutine())
}

// Combination operators applied when folding a lap delta into the running
// accumulation.

func combineSum(accum, delta int64) int64 {
	return accum + delta
}

func combineMax(accum, delta int64) int64 {
	if delta > accum {
		return delta
	}
	return accum
}
