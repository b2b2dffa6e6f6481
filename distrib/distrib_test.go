package distrib

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/storage"
)

func buildGraph(t *testing.T, weight int64) *storage.Graph {
	t.Helper()
	set := storage.Settings{Enabled: true, MaxDepth: 64, Scope: storage.ScopeTree, MaxBookmarks: 1024}
	th := storage.NewThread(component.KindWallClock, "thread/0", set)
	combine := component.Combine(component.KindWallClock)

	th.Insert(storage.ScopeTree, "main")
	th.Insert(storage.ScopeTree, "kernel")
	th.Record(weight, true, combine)
	require.NoError(t, th.Pop())
	th.Record(weight*3, true, combine)
	require.NoError(t, th.Pop())

	g, err := th.Finalize()
	require.NoError(t, err)
	return g
}

func TestCodecRoundTripMergesLikeOriginal(t *testing.T) {
	src := buildGraph(t, 100)

	data, err := Encode(component.KindWallClock, "proc-a", src)
	require.NoError(t, err)
	p, decoded, err := Decode(data, component.KindWallClock)
	require.NoError(t, err)
	assert.Equal(t, "proc-a", p.Process)
	require.Equal(t, src.Size(), decoded.Size())

	// The decoded graph merges identically to the in-memory one.
	direct := storage.NewGlobal(component.KindWallClock, true)
	require.NoError(t, direct.Merge(src, "p"))
	viaWire := storage.NewGlobal(component.KindWallClock, true)
	require.NoError(t, viaWire.Merge(decoded, "p"))

	type stat struct {
		accum int64
		laps  uint64
	}
	collect := func(g *storage.Global) map[string]stat {
		out := map[string]stat{}
		g.Walk(func(n storage.NodeView) bool {
			out[fmt.Sprintf("%s/%d", n.Name, n.Depth)] = stat{n.Accum, n.Laps}
			return true
		})
		return out
	}
	assert.Equal(t, collect(direct), collect(viaWire))
}

func TestDecodeRejectsKindMismatch(t *testing.T) {
	data, err := Encode(component.KindWallClock, "p", buildGraph(t, 1))
	require.NoError(t, err)
	_, _, err = Decode(data, component.KindHeapAlloc)
	assert.ErrorIs(t, err, storage.ErrKindMismatch)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, err := Decode([]byte("not msgpack"), component.KindWallClock)
	assert.Error(t, err)
}

func newTestExchange(t *testing.T) *RedisExchange {
	t.Helper()
	url := os.Getenv("PERFGRAPH_REDIS_URL")
	if url == "" {
		t.Skip("PERFGRAPH_REDIS_URL not set; skipping Redis integration test")
	}
	x, err := NewRedisExchange(context.Background(), ExchangeOptions{
		RedisURL:  url,
		Namespace: "perfgraph-test",
		RunID:     uuid.NewString(),
		TTL:       time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = x.Clear(context.Background())
		_ = x.Close()
	})
	return x
}

func TestPublishGatherTwoProcesses(t *testing.T) {
	x := newTestExchange(t)
	ctx := context.Background()

	require.NoError(t, x.Publish(ctx, component.KindWallClock, "proc-a", buildGraph(t, 100)))
	require.NoError(t, x.Publish(ctx, component.KindWallClock, "proc-b", buildGraph(t, 900)))

	dst := storage.NewGlobal(component.KindWallClock, true)
	merged, err := x.Gather(ctx, component.KindWallClock, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, merged)
	assert.Equal(t, 2, dst.Size())

	dst.Walk(func(n storage.NodeView) bool {
		assert.Equal(t, uint32(2), n.Sources, "node %s", n.Name)
		if n.Name == "kernel" {
			assert.Equal(t, int64(1000), n.Accum)
		}
		return true
	})
}

func TestGatherSkipsOtherKinds(t *testing.T) {
	x := newTestExchange(t)
	ctx := context.Background()

	require.NoError(t, x.Publish(ctx, component.KindWallClock, "proc-a", buildGraph(t, 5)))

	dst := storage.NewGlobal(component.KindHeapAlloc, true)
	merged, err := x.Gather(ctx, component.KindHeapAlloc, dst)
	require.NoError(t, err)
	assert.Equal(t, 0, merged)
	assert.Equal(t, 0, dst.Size())
}

func TestClearRemovesRun(t *testing.T) {
	x := newTestExchange(t)
	ctx := context.Background()

	require.NoError(t, x.Publish(ctx, component.KindWallClock, "proc-a", buildGraph(t, 5)))
	require.NoError(t, x.Clear(ctx))

	dst := storage.NewGlobal(component.KindWallClock, true)
	merged, err := x.Gather(ctx, component.KindWallClock, dst)
	require.NoError(t, err)
	assert.Equal(t, 0, merged)
}
