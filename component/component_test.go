package component

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWallClockLifecycle(t *testing.T) {
	w := NewWallClock()
	require.False(t, w.Running())

	require.NoError(t, w.Start())
	require.True(t, w.Running())
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, w.Stop())

	assert.False(t, w.Running())
	assert.Equal(t, uint64(1), w.Laps())
	assert.Greater(t, w.Last(), int64(0))
	assert.Equal(t, w.Last(), w.Accum())
	assert.True(t, w.Transient())
}

func TestLifecycleFaults(t *testing.T) {
	w := NewWallClock()

	// Stop before any start is a protocol violation.
	err := w.Stop()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotRunning)

	var usage *UsageError
	require.ErrorAs(t, err, &usage)
	assert.Equal(t, "component.Stop", usage.Op)
	assert.Equal(t, KindWallClock, usage.Kind)

	// Double start must not disturb the open measurement.
	require.NoError(t, w.Start())
	err = w.Start()
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	require.NoError(t, w.Stop())
	assert.Equal(t, uint64(1), w.Laps())
}

func TestFaultsLeaveStatisticsUntouched(t *testing.T) {
	w := NewWallClock()
	require.NoError(t, w.Start())
	time.Sleep(time.Millisecond)
	require.NoError(t, w.Stop())

	accum, laps := w.Accum(), w.Laps()
	require.Error(t, w.Stop())
	assert.Equal(t, accum, w.Accum())
	assert.Equal(t, laps, w.Laps())
}

func TestAccumulationAcrossLaps(t *testing.T) {
	w := NewWallClock()
	var total int64
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Start())
		time.Sleep(time.Millisecond)
		require.NoError(t, w.Stop())
		total += w.Last()
	}
	assert.Equal(t, uint64(3), w.Laps())
	assert.Equal(t, total, w.Accum())
}

func TestMeasureDoesNotAffectLifecycle(t *testing.T) {
	w := NewWallClock()
	v := w.Measure()
	assert.GreaterOrEqual(t, v, int64(0))
	assert.False(t, w.Running())
	assert.Equal(t, uint64(0), w.Laps())
	assert.Equal(t, v, w.Value())
}

func TestReset(t *testing.T) {
	w := NewWallClock()
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
	w.Reset()

	assert.Equal(t, int64(0), w.Value())
	assert.Equal(t, int64(0), w.Accum())
	assert.Equal(t, uint64(0), w.Laps())
	assert.False(t, w.Transient())
}

func TestPlusCombinesStatistics(t *testing.T) {
	a := NewWallClock()
	b := NewWallClock()
	for _, c := range []*WallClock{a, b} {
		require.NoError(t, c.Start())
		time.Sleep(time.Millisecond)
		require.NoError(t, c.Stop())
	}

	want := a.Accum() + b.Accum()
	require.NoError(t, a.Plus(b))
	assert.Equal(t, want, a.Accum())
	assert.Equal(t, uint64(2), a.Laps())
}

func TestPeakHeapCombinesByMax(t *testing.T) {
	a := NewPeakHeap()
	b := NewPeakHeap()

	// Drive the accumulators directly through laps with synthetic recorders
	// is not possible without stubbing, so combine two measured instances
	// and check the max semantics on the accumulation.
	require.NoError(t, a.Start())
	require.NoError(t, a.Stop())
	require.NoError(t, b.Start())
	sink := make([]byte, 1<<20)
	_ = sink
	require.NoError(t, b.Stop())

	hi := a.Accum()
	if b.Accum() > hi {
		hi = b.Accum()
	}
	require.NoError(t, a.Plus(b))
	assert.Equal(t, hi, a.Accum())
}

func TestOperatorFaults(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{
			name: "kind mismatch",
			run: func() error {
				return NewWallClock().Plus(NewHeapAlloc())
			},
			want: ErrKindMismatch,
		},
		{
			name: "nil operand",
			run: func() error {
				return NewWallClock().Plus(nil)
			},
			want: ErrKindMismatch,
		},
		{
			name: "running operand",
			run: func() error {
				other := NewWallClock()
				if err := other.Start(); err != nil {
					return err
				}
				return NewWallClock().Plus(other)
			},
			want: ErrCombineRunning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMinusSaturatesLaps(t *testing.T) {
	a := NewWallClock()
	b := NewWallClock()
	require.NoError(t, b.Start())
	require.NoError(t, b.Stop())

	require.NoError(t, a.Minus(b))
	assert.Equal(t, uint64(0), a.Laps())
}

func TestDivideSkipsZeroDivisor(t *testing.T) {
	a := NewWallClock()
	require.NoError(t, a.Start())
	time.Sleep(time.Millisecond)
	require.NoError(t, a.Stop())

	accum := a.Accum()
	require.NoError(t, a.Divide(NewWallClock()))
	assert.Equal(t, accum, a.Accum())
}

func TestHeapAllocSecondary(t *testing.T) {
	h := NewHeapAlloc()
	require.NoError(t, h.Start())
	buf := make([][]byte, 0, 64)
	for i := 0; i < 64; i++ {
		buf = append(buf, make([]byte, 1024))
	}
	_ = buf
	require.NoError(t, h.Stop())

	sec := h.Secondary()
	require.Len(t, sec, 2)
	assert.Equal(t, "alloc_objects", sec[0].Name)
	assert.Equal(t, "free_objects", sec[1].Name)
	assert.Greater(t, sec[0].Value, int64(0))
}

func TestGoroutineSampler(t *testing.T) {
	g := NewGoroutineCount()
	g.SetSampleCap(2)

	for i := 0; i < 3; i++ {
		s, err := g.Sample()
		require.NoError(t, err)
		assert.Greater(t, s.Value, int64(0))
	}

	assert.Len(t, g.Samples(), 2)
	assert.Equal(t, uint64(1), g.DroppedSamples())

	g.Reset()
	assert.Empty(t, g.Samples())
	assert.Equal(t, uint64(0), g.DroppedSamples())
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		kind    Kind
		storage bool
		sampler bool
	}{
		{KindWallClock, true, false},
		{KindProcessCPU, true, false},
		{KindHeapAlloc, true, false},
		{KindPeakHeap, true, false},
		{KindGoroutineCount, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			caps := Capabilities(tt.kind)
			if caps.ImplementsStorage != tt.storage {
				t.Errorf("ImplementsStorage = %v, want %v", caps.ImplementsStorage, tt.storage)
			}
			if caps.IsSampler != tt.sampler {
				t.Errorf("IsSampler = %v, want %v", caps.IsSampler, tt.sampler)
			}
		})
	}

	// Unknown kinds opt out of everything.
	assert.Equal(t, CapabilitySet{}, Capabilities(Kind(250)))
}

func TestNewConstructsEveryKind(t *testing.T) {
	for _, k := range Kinds() {
		c := New(k)
		require.NotNil(t, c, "kind %s", k)
		assert.Equal(t, k, c.Kind())
	}
	assert.Nil(t, New(Kind(250)))
}

func TestSecondarySourceIsHeapAllocOnly(t *testing.T) {
	for _, k := range Kinds() {
		_, ok := New(k).(SecondarySource)
		assert.Equal(t, Capabilities(k).HasSecondaryData, ok, "kind %s", k)
	}
}
