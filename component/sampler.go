package component

import "time"

// Sample is one timestamped sampler observation.
type Sample struct {
	At    time.Time
	Value int64
}

// defaultSampleCap bounds the observation list when the caller never
// configures one. The cap is a degrade guard, not a ring: once full, new
// observations are dropped and DroppedSamples counts them.
const defaultSampleCap = 1024

// GoroutineCount samples the number of live goroutines. It is a pure
// sampler: it opts out of call-graph storage (see Capabilities) and is used
// through Measure and Sample rather than paired start/stop regions.
type GoroutineCount struct {
	base
	cap     int
	samples []Sample
	dropped uint64
}

// NewGoroutineCount returns a goroutine sampler with the default cap.
func NewGoroutineCount() *GoroutineCount {
	g := &GoroutineCount{cap: defaultSampleCap}
	g.init(KindGoroutineCount, recordGoroutines, combineMax)
	return g
}

// SetSampleCap bounds the observation list. Values below one fall back to
// the default cap.
func (g *GoroutineCount) SetSampleCap(n int) {
	if n < 1 {
		n = defaultSampleCap
	}
	g.cap = n
}

// Sample appends a timestamped observation and records it as the current
// value. Running state and lap counts are unaffected.
func (g *GoroutineCount) Sample() (Sample, error) {
	caps := Capabilities(g.kind)
	if !caps.IsSampler {
		return Sample{}, usageErr("component.Sample", g.kind, ErrNotSampler)
	}
	s := Sample{At: time.Now(), Value: g.Measure()}
	if len(g.samples) >= g.cap {
		g.dropped++
		return s, nil
	}
	g.samples = append(g.samples, s)
	return s, nil
}

// Samples returns the recorded observations.
func (g *GoroutineCount) Samples() []Sample {
	return g.samples
}

// DroppedSamples reports observations discarded after the cap was reached.
func (g *GoroutineCount) DroppedSamples() uint64 {
	return g.dropped
}

// Reset clears statistics and the observation list.
func (g *GoroutineCount) Reset() {
	g.base.Reset()
	g.samples = nil
	g.dropped = 0
}
