package config

import "fmt"

// Setting describes one knob for diagnostics: its YAML key, environment
// variable, current value and a one-line description.
type Setting struct {
	Key         string
	Env         string
	Value       string
	Description string
}

// Describe enumerates the effective settings. Output collaborators use it
// to embed the run configuration alongside results.
func (c *Config) Describe() []Setting {
	v := func(x interface{}) string { return fmt.Sprintf("%v", x) }
	return []Setting{
		{"enabled", "PERFGRAPH_ENABLED", v(c.Enabled), "gate all node creation"},
		{"max_depth", "PERFGRAPH_MAX_DEPTH", v(c.MaxDepth), "call-graph depth ceiling"},
		{"scope", "PERFGRAPH_SCOPE", c.Scope, "default label policy (tree/flat/timeline)"},
		{"collapse_threads", "PERFGRAPH_COLLAPSE_THREADS", v(c.CollapseThreads), "combine same-identity nodes across threads"},
		{"collapse_processes", "PERFGRAPH_COLLAPSE_PROCESSES", v(c.CollapseProcesses), "combine gathered process graphs"},
		{"max_thread_bookmarks", "PERFGRAPH_MAX_THREAD_BOOKMARKS", v(c.MaxThreadBookmarks), "bookmark table bound per thread"},
		{"add_secondary", "PERFGRAPH_ADD_SECONDARY", v(c.AddSecondary), "materialize secondary sub-results"},
		{"throttle_count", "PERFGRAPH_THROTTLE_COUNT", v(c.ThrottleCount), "laps before a cheap label is shut off"},
		{"throttle_value", "PERFGRAPH_THROTTLE_VALUE", v(c.ThrottleValue), "mean delta below which a label is cheap"},
		{"max_samples", "PERFGRAPH_MAX_SAMPLES", v(c.MaxSamples), "sampler observation bound"},
		{"strict", "PERFGRAPH_STRICT", v(c.Strict), "panic on usage faults"},
		{"export.otel_exporter", "PERFGRAPH_OTEL_EXPORTER", c.Export.OTELExporter, "trace exporter (none/stdout/otlp)"},
		{"export.otel_endpoint", "PERFGRAPH_OTEL_ENDPOINT", c.Export.OTELEndpoint, "OTLP gRPC endpoint"},
		{"export.prometheus_namespace", "PERFGRAPH_PROM_NAMESPACE", c.Export.PrometheusNamespace, "metric name prefix"},
		{"distrib.redis_url", "PERFGRAPH_REDIS_URL", c.Distrib.RedisURL, "cross-process exchange backend"},
		{"distrib.namespace", "PERFGRAPH_DISTRIB_NAMESPACE", c.Distrib.Namespace, "exchange key prefix"},
		{"distrib.run_id", "PERFGRAPH_RUN_ID", c.Distrib.RunID, "measurement run grouping id"},
		{"distrib.ttl", "PERFGRAPH_DISTRIB_TTL", v(c.Distrib.TTL), "published graph lifetime"},
	}
}
