package perfgraph

import (
	"context"

	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/distrib"
	"github.com/perfgraph/perfgraph/storage"
)

// NewExchange connects a Redis exchange from the manager's distributed
// configuration. The run ID defaults to the configured one and falls back
// to this process's ID, which makes a single-process run valid but
// pointless; coordinated runs should set a shared PERFGRAPH_RUN_ID.
func (m *Manager) NewExchange(ctx context.Context) (*distrib.RedisExchange, error) {
	d := m.cfg.Distrib
	runID := d.RunID
	if runID == "" {
		runID = m.processID
	}
	return distrib.NewRedisExchange(ctx, distrib.ExchangeOptions{
		RedisURL:  d.RedisURL,
		Namespace: d.Namespace,
		RunID:     runID,
		TTL:       d.TTL,
		Logger:    m.logger,
	})
}

// PublishGraphs pushes every kind's merged graph to the exchange under
// this process's ID. Finalize first.
func (m *Manager) PublishGraphs(ctx context.Context, x *distrib.RedisExchange) error {
	for _, k := range m.kinds {
		if err := x.Publish(ctx, k, m.processID, m.Global(k).Graph()); err != nil {
			return err
		}
	}
	return nil
}

// GatherGraphs merges every participating process's graphs for kind into
// a fresh global, collapsed or kept per origin according to the
// CollapseProcesses setting.
func (m *Manager) GatherGraphs(ctx context.Context, x *distrib.RedisExchange, kind component.Kind) (*storage.Global, int, error) {
	dst := storage.NewGlobal(kind, m.cfg.CollapseProcesses)
	n, err := x.Gather(ctx, kind, dst)
	if err != nil {
		return nil, n, err
	}
	return dst, n, nil
}
