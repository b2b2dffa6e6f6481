package perfgraph

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/perfgraph/perfgraph/export"
	"github.com/perfgraph/perfgraph/storage"
)

// NewOTelExporter builds a trace exporter from the manager's export
// configuration. With PERFGRAPH_OTEL_EXPORTER unset or "none" the
// exporter is a no-op.
func (m *Manager) NewOTelExporter(ctx context.Context) (*export.OTelExporter, error) {
	return export.NewOTelExporter(ctx, export.OTelConfig{
		ServiceName: "perfgraph",
		Exporter:    m.cfg.Export.OTELExporter,
		Endpoint:    m.cfg.Export.OTELEndpoint,
	})
}

// NewPrometheusBridge registers graph gauges on reg using the configured
// namespace.
func (m *Manager) NewPrometheusBridge(reg prometheus.Registerer) *export.PrometheusBridge {
	return export.NewPrometheusBridge(reg, m.cfg.Export.PrometheusNamespace)
}

// PublishMetrics refreshes the bridge from every registered kind's graph.
func (m *Manager) PublishMetrics(b *export.PrometheusBridge) {
	globals := make([]*storage.Global, 0, len(m.kinds))
	for _, k := range m.kinds {
		if g := m.Global(k); g != nil {
			globals = append(globals, g)
		}
	}
	b.PublishAll(globals...)
}
