package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Option is a functional configuration option, the highest-priority layer.
type Option func(*Config) error

// WithEnabled gates all measurement.
func WithEnabled(v bool) Option {
	return func(c *Config) error {
		c.Enabled = v
		return nil
	}
}

// WithMaxDepth sets the call-graph depth ceiling.
func WithMaxDepth(n int) Option {
	return func(c *Config) error {
		c.MaxDepth = n
		return nil
	}
}

// WithScope sets the default label policy: tree, flat or timeline.
func WithScope(scope string) Option {
	return func(c *Config) error {
		c.Scope = scope
		return nil
	}
}

// WithCollapseThreads selects whether finalize combines per-thread graphs.
func WithCollapseThreads(v bool) Option {
	return func(c *Config) error {
		c.CollapseThreads = v
		return nil
	}
}

// WithCollapseProcesses selects whether gathered process graphs combine.
func WithCollapseProcesses(v bool) Option {
	return func(c *Config) error {
		c.CollapseProcesses = v
		return nil
	}
}

// WithMaxThreadBookmarks bounds the per-thread bookmark table.
func WithMaxThreadBookmarks(n int) Option {
	return func(c *Config) error {
		c.MaxThreadBookmarks = n
		return nil
	}
}

// WithAddSecondary toggles materializing secondary sub-results.
func WithAddSecondary(v bool) Option {
	return func(c *Config) error {
		c.AddSecondary = v
		return nil
	}
}

// WithThrottle sets both throttle gates at once.
func WithThrottle(count, value int) Option {
	return func(c *Config) error {
		c.ThrottleCount = count
		c.ThrottleValue = value
		return nil
	}
}

// WithMaxSamples bounds sampler observation lists.
func WithMaxSamples(n int) Option {
	return func(c *Config) error {
		c.MaxSamples = n
		return nil
	}
}

// WithStrict makes usage faults panic instead of being dropped.
func WithStrict(v bool) Option {
	return func(c *Config) error {
		c.Strict = v
		return nil
	}
}

// WithLogLevel sets the toolkit's own log level.
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		c.Logging.Level = level
		return nil
	}
}

// WithOTELExporter selects the trace exporter (none, stdout, otlp) and its
// endpoint.
func WithOTELExporter(exporter, endpoint string) Option {
	return func(c *Config) error {
		c.Export.OTELExporter = exporter
		c.Export.OTELEndpoint = endpoint
		return nil
	}
}

// WithPrometheusNamespace prefixes bridged metric names.
func WithPrometheusNamespace(ns string) Option {
	return func(c *Config) error {
		c.Export.PrometheusNamespace = ns
		return nil
	}
}

// WithRedisURL enables cross-process exchange through the given Redis.
func WithRedisURL(url string) Option {
	return func(c *Config) error {
		c.Distrib.RedisURL = url
		return nil
	}
}

// WithRunID groups this process with the others of one measurement run.
func WithRunID(id string) Option {
	return func(c *Config) error {
		c.Distrib.RunID = id
		return nil
	}
}

// WithConfigFile overlays a YAML settings file. The file is an overlay, not
// a replacement: keys absent from the file keep their current values.
func WithConfigFile(path string) Option {
	return func(c *Config) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}
}
