// Package export publishes merged call graphs to external observability
// backends: Prometheus gauges and OpenTelemetry traces.
package export

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/perfgraph/perfgraph/storage"
)

// PrometheusBridge projects graph nodes onto gauge vectors. Each node
// becomes one series per statistic, labeled by kind, node name, depth, and
// path signature.
type PrometheusBridge struct {
	accum *prometheus.GaugeVec
	last  *prometheus.GaugeVec
	laps  *prometheus.GaugeVec
}

// The path label disambiguates same-named nodes at different call-graph
// positions.
var bridgeLabels = []string{"kind", "name", "depth", "path"}

// NewPrometheusBridge registers the gauge vectors on reg under the given
// namespace. Pass prometheus.DefaultRegisterer for the process-global
// registry.
func NewPrometheusBridge(reg prometheus.Registerer, namespace string) *PrometheusBridge {
	factory := promauto.With(reg)
	return &PrometheusBridge{
		accum: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_accum",
			Help:      "Accumulated measurement per call-graph node",
		}, bridgeLabels),
		last: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_last",
			Help:      "Most recent lap measurement per call-graph node",
		}, bridgeLabels),
		laps: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_laps",
			Help:      "Completed laps per call-graph node",
		}, bridgeLabels),
	}
}

// Publish replaces the bridge's series with the graph's current nodes.
func (b *PrometheusBridge) Publish(g *storage.Global) {
	b.PublishAll(g)
}

// PublishAll replaces the bridge's series with the nodes of every given
// graph, one kind per graph.
func (b *PrometheusBridge) PublishAll(graphs ...*storage.Global) {
	b.accum.Reset()
	b.last.Reset()
	b.laps.Reset()
	for _, g := range graphs {
		b.fill(g)
	}
}

func (b *PrometheusBridge) fill(g *storage.Global) {
	kind := g.Kind().String()
	g.Walk(func(n storage.NodeView) bool {
		labels := prometheus.Labels{
			"kind":  kind,
			"name":  n.Name,
			"depth": strconv.Itoa(int(n.Depth)),
			"path":  strconv.FormatUint(n.PathSig, 16),
		}
		b.accum.With(labels).Set(float64(n.Accum))
		b.last.With(labels).Set(float64(n.Last))
		b.laps.With(labels).Set(float64(n.Laps))
		return true
	})
}
