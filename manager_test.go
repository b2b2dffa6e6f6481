package perfgraph

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/config"
	"github.com/perfgraph/perfgraph/storage"
)

func newTestManager(t *testing.T, opts ...config.Option) *Manager {
	t.Helper()
	cfg, _, err := config.New(opts...)
	require.NoError(t, err)
	m, err := New(cfg, component.KindWallClock)
	require.NoError(t, err)
	m.SetLogger(nopLogger{})
	return m
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}

func TestRegionLifecycleEndToEnd(t *testing.T) {
	m := newTestManager(t)
	th, err := m.Thread()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		r := th.Begin("work")
		time.Sleep(time.Millisecond)
		inner := th.Begin("inner")
		inner.End()
		r.End()
	}

	require.NoError(t, m.Finalize(context.Background()))

	global := m.Global(component.KindWallClock)
	require.NotNil(t, global)
	assert.Equal(t, 2, global.Size())

	var work, inner storage.NodeView
	global.Walk(func(n storage.NodeView) bool {
		switch n.Name {
		case "work":
			work = n
		case "inner":
			inner = n
		}
		return true
	})
	assert.Equal(t, uint64(3), work.Laps)
	assert.Equal(t, uint64(3), inner.Laps)
	assert.Equal(t, int32(0), work.Depth)
	assert.Equal(t, int32(1), inner.Depth)
	assert.Greater(t, work.Accum, inner.Accum)
	assert.True(t, work.Transient)
}

func TestDisableCreatesNoNodes(t *testing.T) {
	m := newTestManager(t)
	th, err := m.Thread()
	require.NoError(t, err)

	m.Enable(false)
	r := th.Begin("invisible")
	r.End()
	m.Enable(true)
	r = th.Begin("visible")
	r.End()

	require.NoError(t, m.Finalize(context.Background()))

	names := map[string]bool{}
	m.Global(component.KindWallClock).Walk(func(n storage.NodeView) bool {
		names[n.Name] = true
		return true
	})
	assert.Equal(t, map[string]bool{"visible": true}, names)
}

func TestDisableMidRegionKeepsNode(t *testing.T) {
	m := newTestManager(t)
	th, err := m.Thread()
	require.NoError(t, err)

	r := th.Begin("partial")
	m.Enable(false)
	r.End()

	require.NoError(t, m.Finalize(context.Background()))
	assert.Equal(t, 1, m.Size(component.KindWallClock))
}

func TestStrictModePanicsOnUsageFault(t *testing.T) {
	m := newTestManager(t, config.WithStrict(true))
	th, err := m.Thread()
	require.NoError(t, err)

	r := th.Begin("w")
	r.End()
	assert.NotPanics(t, func() { r.End() }, "double End is an explicit no-op")

	comps := th.Begin("x").Components()
	require.NotEmpty(t, comps)
	assert.Panics(t, func() { m.fault(comps[0].Start()) })
}

func TestLenientModeCountsDroppedFaults(t *testing.T) {
	m := newTestManager(t)
	th, err := m.Thread()
	require.NoError(t, err)

	r := th.Begin("w")
	comps := r.Components()
	require.NotEmpty(t, comps)
	require.NoError(t, comps[0].Stop()) // steal the stop; End's stop then faults
	r.End()

	assert.Equal(t, uint64(1), m.DroppedFaults())

	// Statistics survive: the node exists with one recorded lap missing.
	require.NoError(t, m.Finalize(context.Background()))
	assert.Equal(t, 1, m.Size(component.KindWallClock))
}

func TestThreadClose(t *testing.T) {
	m := newTestManager(t)
	th, err := m.Thread()
	require.NoError(t, err)

	r := th.Begin("early")
	r.End()
	require.NoError(t, th.Close())
	assert.ErrorIs(t, th.Close(), ErrThreadClosed)

	// Closed handles are inert.
	r = th.Begin("late")
	r.End()

	require.NoError(t, m.Finalize(context.Background()))
	assert.Equal(t, 1, m.Size(component.KindWallClock))
}

func TestFinalizeTwice(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Finalize(context.Background()))
	assert.ErrorIs(t, m.Finalize(context.Background()), ErrFinalized)
	_, err := m.Thread()
	assert.ErrorIs(t, err, ErrFinalized)
}

func TestClearResetsManager(t *testing.T) {
	m := newTestManager(t)
	th, err := m.Thread()
	require.NoError(t, err)
	th.Begin("w").End()
	require.NoError(t, m.Finalize(context.Background()))
	require.Equal(t, 1, m.Size(component.KindWallClock))

	m.Clear()
	assert.Equal(t, 0, m.Size(component.KindWallClock))

	// Usable again after Clear.
	th2, err := m.Thread()
	require.NoError(t, err)
	th2.Begin("again").End()
	require.NoError(t, m.Finalize(context.Background()))
	assert.Equal(t, 1, m.Size(component.KindWallClock))
}

func TestConcurrentThreadsCollapse(t *testing.T) {
	const workers = 16
	m := newTestManager(t)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		th, err := m.Thread()
		require.NoError(t, err)
		wg.Add(1)
		go func(th *Thread) {
			defer wg.Done()
			outer := th.Begin("outer")
			for i := 0; i < 4; i++ {
				inner := th.Begin("inner")
				inner.End()
			}
			outer.End()
		}(th)
	}
	wg.Wait()

	require.NoError(t, m.Finalize(context.Background()))

	global := m.Global(component.KindWallClock)
	assert.Equal(t, 2, global.Size())
	global.Walk(func(n storage.NodeView) bool {
		assert.Equal(t, uint32(workers), n.Sources, "node %s", n.Name)
		return true
	})
}

func TestConcurrentThreadsNoCollapse(t *testing.T) {
	const workers = 4
	m := newTestManager(t, config.WithCollapseThreads(false))

	handles := make([]*Thread, workers)
	for w := range handles {
		th, err := m.Thread()
		require.NoError(t, err)
		handles[w] = th
	}
	var wg sync.WaitGroup
	for _, th := range handles {
		wg.Add(1)
		go func(th *Thread) {
			defer wg.Done()
			th.Begin("outer").End()
		}(th)
	}
	wg.Wait()

	require.NoError(t, m.Finalize(context.Background()))
	// One origin marker plus one region node per worker.
	assert.Equal(t, workers*2, m.Size(component.KindWallClock))
}

func TestMaxDepthAdmin(t *testing.T) {
	m := newTestManager(t, config.WithMaxDepth(4))
	assert.Equal(t, 4, m.MaxDepth())

	m.SetMaxDepth(-1)
	assert.Equal(t, 1, m.MaxDepth())

	m.SetMaxDepth(2)
	th, err := m.Thread()
	require.NoError(t, err)
	var regions []*Region
	for i := 0; i < 5; i++ {
		regions = append(regions, th.Begin(fmt.Sprintf("level/%d", i)))
	}
	for i := len(regions) - 1; i >= 0; i-- {
		regions[i].End()
	}

	require.NoError(t, m.Finalize(context.Background()))
	assert.Equal(t, 2, m.Size(component.KindWallClock))
}

func TestContextHelpers(t *testing.T) {
	m := newTestManager(t)
	th, err := m.Thread()
	require.NoError(t, err)

	ctx := ContextWithThread(context.Background(), th)
	got, ok := ThreadFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, th, got)

	r := Begin(ctx, "from-context")
	r.End()

	// Without a handle, Begin returns an inert region.
	inert := Begin(context.Background(), "nowhere")
	assert.NotPanics(t, inert.End)

	require.NoError(t, m.Finalize(context.Background()))
	assert.Equal(t, 1, m.Size(component.KindWallClock))
}

func TestMultiKindManager(t *testing.T) {
	cfg, _, err := config.New()
	require.NoError(t, err)
	m, err := New(cfg, component.KindWallClock, component.KindHeapAlloc)
	require.NoError(t, err)
	m.SetLogger(nopLogger{})

	th, err := m.Thread()
	require.NoError(t, err)
	r := th.Begin("alloc")
	waste := make([]byte, 1<<16)
	_ = waste
	r.End()

	require.NoError(t, m.Finalize(context.Background()))

	assert.Equal(t, 1, m.Size(component.KindWallClock))
	// HeapAlloc carries secondary children under the region node.
	assert.GreaterOrEqual(t, m.Size(component.KindHeapAlloc), 1)
}

func TestSamplerRejectedAsStorageKind(t *testing.T) {
	cfg, _, err := config.New()
	require.NoError(t, err)
	_, err = New(cfg, component.KindGoroutineCount)
	assert.Error(t, err)
}

func TestManagerSampler(t *testing.T) {
	m := newTestManager(t, config.WithMaxSamples(3))
	s := m.NewSampler()
	for i := 0; i < 5; i++ {
		_, err := s.Sample()
		require.NoError(t, err)
	}
	assert.Len(t, s.Samples(), 3)
	assert.Equal(t, uint64(2), s.DroppedSamples())
}
