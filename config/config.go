// Package config holds the settings registry for the instrumentation
// toolkit. Configuration is resolved in three layers, lowest priority
// first:
//
//  1. Built-in defaults
//  2. Environment variables (PERFGRAPH_*)
//  3. Functional options, including WithConfigFile for YAML files
//
// Invalid values are a configuration fault, never a fatal one: Normalize
// clamps every knob to its nearest valid value and reports what it changed.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every knob the toolkit consumes.
type Config struct {
	// Enabled gates all node creation. Disabled measurement costs one
	// branch per region.
	Enabled bool `yaml:"enabled" env:"PERFGRAPH_ENABLED"`

	// MaxDepth is the call-graph depth ceiling. Regions nested deeper
	// fold into the deepest permitted ancestor.
	MaxDepth int `yaml:"max_depth" env:"PERFGRAPH_MAX_DEPTH"`

	// Scope is the default label policy: tree, flat or timeline.
	Scope string `yaml:"scope" env:"PERFGRAPH_SCOPE"`

	// CollapseThreads combines same-identity nodes across threads at
	// finalize. When false each thread keeps a tagged subtree.
	CollapseThreads bool `yaml:"collapse_threads" env:"PERFGRAPH_COLLAPSE_THREADS"`

	// CollapseProcesses combines gathered per-process graphs the same way.
	CollapseProcesses bool `yaml:"collapse_processes" env:"PERFGRAPH_COLLAPSE_PROCESSES"`

	// MaxThreadBookmarks bounds the per-thread bookmark table; overflow
	// forces an early merge instead of failing the measurement.
	MaxThreadBookmarks int `yaml:"max_thread_bookmarks" env:"PERFGRAPH_MAX_THREAD_BOOKMARKS"`

	// AddSecondary materializes auxiliary sub-results as child nodes.
	AddSecondary bool `yaml:"add_secondary" env:"PERFGRAPH_ADD_SECONDARY"`

	// ThrottleCount and ThrottleValue gate auto-disabling of hot, cheap
	// labels: a label is shut off after ThrottleCount laps with a mean
	// delta under ThrottleValue raw units. Zero disables throttling.
	ThrottleCount int `yaml:"throttle_count" env:"PERFGRAPH_THROTTLE_COUNT"`
	ThrottleValue int `yaml:"throttle_value" env:"PERFGRAPH_THROTTLE_VALUE"`

	// MaxSamples bounds sampler observation lists.
	MaxSamples int `yaml:"max_samples" env:"PERFGRAPH_MAX_SAMPLES"`

	// Strict makes usage faults panic with a diagnostic instead of being
	// counted and dropped. Meant for instrumented test builds.
	Strict bool `yaml:"strict" env:"PERFGRAPH_STRICT"`

	Logging LoggingConfig `yaml:"logging"`
	Export  ExportConfig  `yaml:"export"`
	Distrib DistribConfig `yaml:"distrib"`
}

// LoggingConfig controls the toolkit's own diagnostics.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"PERFGRAPH_LOG_LEVEL"`
	Format string `yaml:"format" env:"PERFGRAPH_LOG_FORMAT"`
}

// ExportConfig configures the report/export collaborators.
type ExportConfig struct {
	// OTELExporter selects the trace exporter: none, stdout or otlp.
	OTELExporter string `yaml:"otel_exporter" env:"PERFGRAPH_OTEL_EXPORTER"`
	// OTELEndpoint is the OTLP gRPC endpoint when OTELExporter is otlp.
	OTELEndpoint string `yaml:"otel_endpoint" env:"PERFGRAPH_OTEL_ENDPOINT"`
	// PrometheusNamespace prefixes bridged metric names.
	PrometheusNamespace string `yaml:"prometheus_namespace" env:"PERFGRAPH_PROM_NAMESPACE"`
}

// DistribConfig configures cross-process result exchange.
type DistribConfig struct {
	// RedisURL enables the exchange when non-empty.
	RedisURL string `yaml:"redis_url" env:"PERFGRAPH_REDIS_URL"`
	// Namespace prefixes every exchange key.
	Namespace string `yaml:"namespace" env:"PERFGRAPH_DISTRIB_NAMESPACE"`
	// RunID groups the processes of one measurement run.
	RunID string `yaml:"run_id" env:"PERFGRAPH_RUN_ID"`
	// TTL bounds how long published graphs outlive their run.
	TTL time.Duration `yaml:"ttl" env:"PERFGRAPH_DISTRIB_TTL"`
}

// Depth and sample ceilings used by Normalize.
const (
	minDepth      = 1
	maxDepthLimit = 65536
	minSamples    = 1
)

// Default returns the built-in defaults, before environment and options.
func Default() *Config {
	return &Config{
		Enabled:            true,
		MaxDepth:           64,
		Scope:              "tree",
		CollapseThreads:    true,
		CollapseProcesses:  true,
		MaxThreadBookmarks: 4096,
		AddSecondary:       true,
		ThrottleCount:      10000,
		ThrottleValue:      10000,
		MaxSamples:         1024,
		Logging:            LoggingConfig{Level: "INFO"},
		Export:             ExportConfig{OTELExporter: "none", PrometheusNamespace: "perfgraph"},
		Distrib:            DistribConfig{Namespace: "perfgraph", TTL: 10 * time.Minute},
	}
}

// New resolves the three configuration layers and normalizes the result.
// The returned warnings list one entry per clamped value.
func New(opts ...Option) (*Config, []string, error) {
	cfg := Default()
	cfg.applyEnvironment()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, nil, err
		}
	}
	warnings := cfg.Normalize()
	return cfg, warnings, nil
}

// applyEnvironment overlays PERFGRAPH_* variables onto the defaults.
func (c *Config) applyEnvironment() {
	envBool("PERFGRAPH_ENABLED", &c.Enabled)
	envInt("PERFGRAPH_MAX_DEPTH", &c.MaxDepth)
	envString("PERFGRAPH_SCOPE", &c.Scope)
	envBool("PERFGRAPH_COLLAPSE_THREADS", &c.CollapseThreads)
	envBool("PERFGRAPH_COLLAPSE_PROCESSES", &c.CollapseProcesses)
	envInt("PERFGRAPH_MAX_THREAD_BOOKMARKS", &c.MaxThreadBookmarks)
	envBool("PERFGRAPH_ADD_SECONDARY", &c.AddSecondary)
	envInt("PERFGRAPH_THROTTLE_COUNT", &c.ThrottleCount)
	envInt("PERFGRAPH_THROTTLE_VALUE", &c.ThrottleValue)
	envInt("PERFGRAPH_MAX_SAMPLES", &c.MaxSamples)
	envBool("PERFGRAPH_STRICT", &c.Strict)

	envString("PERFGRAPH_LOG_LEVEL", &c.Logging.Level)
	envString("PERFGRAPH_LOG_FORMAT", &c.Logging.Format)

	envString("PERFGRAPH_OTEL_EXPORTER", &c.Export.OTELExporter)
	envString("PERFGRAPH_OTEL_ENDPOINT", &c.Export.OTELEndpoint)
	envString("PERFGRAPH_PROM_NAMESPACE", &c.Export.PrometheusNamespace)

	envString("PERFGRAPH_REDIS_URL", &c.Distrib.RedisURL)
	envString("PERFGRAPH_DISTRIB_NAMESPACE", &c.Distrib.Namespace)
	envString("PERFGRAPH_RUN_ID", &c.Distrib.RunID)
	envDuration("PERFGRAPH_DISTRIB_TTL", &c.Distrib.TTL)
}

// Normalize clamps every knob to its nearest valid value and returns one
// warning per adjustment. It never fails.
func (c *Config) Normalize() []string {
	var warnings []string
	clampInt := func(name string, v *int, lo, hi int) {
		if *v < lo {
			warnings = append(warnings, fmt.Sprintf("%s %d below minimum, clamped to %d", name, *v, lo))
			*v = lo
		} else if *v > hi {
			warnings = append(warnings, fmt.Sprintf("%s %d above maximum, clamped to %d", name, *v, hi))
			*v = hi
		}
	}

	clampInt("max_depth", &c.MaxDepth, minDepth, maxDepthLimit)
	clampInt("max_samples", &c.MaxSamples, minSamples, 1<<20)
	if c.MaxThreadBookmarks < 0 {
		warnings = append(warnings, fmt.Sprintf("max_thread_bookmarks %d negative, clamped to 0", c.MaxThreadBookmarks))
		c.MaxThreadBookmarks = 0
	}
	if c.ThrottleCount < 0 {
		warnings = append(warnings, "throttle_count negative, throttling disabled")
		c.ThrottleCount = 0
	}
	if c.ThrottleValue < 0 {
		warnings = append(warnings, "throttle_value negative, throttling disabled")
		c.ThrottleValue = 0
	}

	switch strings.ToLower(c.Scope) {
	case "tree", "flat", "timeline":
		c.Scope = strings.ToLower(c.Scope)
	default:
		warnings = append(warnings, fmt.Sprintf("scope %q unknown, clamped to tree", c.Scope))
		c.Scope = "tree"
	}

	switch strings.ToLower(c.Export.OTELExporter) {
	case "none", "stdout", "otlp":
		c.Export.OTELExporter = strings.ToLower(c.Export.OTELExporter)
	default:
		warnings = append(warnings, fmt.Sprintf("otel_exporter %q unknown, clamped to none", c.Export.OTELExporter))
		c.Export.OTELExporter = "none"
	}

	if c.Distrib.TTL <= 0 {
		c.Distrib.TTL = 10 * time.Minute
	}
	return warnings
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
