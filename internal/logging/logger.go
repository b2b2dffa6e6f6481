// Package logging provides the toolkit's self-contained structured logger.
// It keeps the library dependency-free on the logging side while still
// producing JSON in aggregated environments (Kubernetes) and readable text
// locally. Nothing on the measurement hot path logs; callers log only at
// init, finalize, export and fault boundaries.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Logger is the minimal structured logging interface carried through the
// toolkit. Fields travel as a map so call sites stay free of formatting
// concerns.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

func parseLevel(s string) level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return levelDebug
	case "WARN", "WARNING":
		return levelWarn
	case "ERROR":
		return levelError
	default:
		return levelInfo
	}
}

// StandardLogger writes leveled, structured records to one writer.
// Error records are rate limited so a failing export backend cannot flood
// the instrumented application's logs.
type StandardLogger struct {
	component string
	level     level
	format    string // "text" or "json"

	mu      sync.Mutex
	out     io.Writer
	errGate *rateGate
}

// New builds a logger from the environment:
//
//	PERFGRAPH_LOG_LEVEL   DEBUG | INFO | WARN | ERROR (default INFO)
//	PERFGRAPH_LOG_FORMAT  text | json (default: json inside Kubernetes)
func New(component string) *StandardLogger {
	format := "text"
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		format = "json"
	}
	if v := os.Getenv("PERFGRAPH_LOG_FORMAT"); v != "" {
		format = v
	}
	return NewWithOptions(component, os.Getenv("PERFGRAPH_LOG_LEVEL"), format, os.Stderr)
}

// NewWithSettings builds a logger from configuration values, falling back
// to the environment for anything left empty.
func NewWithSettings(component, lvl, format string) *StandardLogger {
	if lvl == "" {
		lvl = os.Getenv("PERFGRAPH_LOG_LEVEL")
	}
	if format == "" {
		format = os.Getenv("PERFGRAPH_LOG_FORMAT")
	}
	if format == "" && os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		format = "json"
	}
	return NewWithOptions(component, lvl, format, os.Stderr)
}

// NewWithOptions builds a logger with explicit settings, used by tests and
// by callers that manage configuration themselves.
func NewWithOptions(component, lvl, format string, out io.Writer) *StandardLogger {
	if format != "json" {
		format = "text"
	}
	return &StandardLogger{
		component: component,
		level:     parseLevel(lvl),
		format:    format,
		out:       out,
		errGate:   newRateGate(5 * time.Second),
	}
}

func (l *StandardLogger) Debug(msg string, fields map[string]interface{}) {
	l.log(levelDebug, "DEBUG", msg, fields)
}

func (l *StandardLogger) Info(msg string, fields map[string]interface{}) {
	l.log(levelInfo, "INFO", msg, fields)
}

func (l *StandardLogger) Warn(msg string, fields map[string]interface{}) {
	l.log(levelWarn, "WARN", msg, fields)
}

// Error is rate limited: repeated errors inside the gate interval are
// counted and surfaced on the next record that passes.
func (l *StandardLogger) Error(msg string, fields map[string]interface{}) {
	suppressed, ok := l.errGate.allow()
	if !ok {
		return
	}
	if suppressed > 0 {
		if fields == nil {
			fields = map[string]interface{}{}
		}
		fields["suppressed_errors"] = suppressed
	}
	l.log(levelError, "ERROR", msg, fields)
}

func (l *StandardLogger) log(lv level, tag, msg string, fields map[string]interface{}) {
	if lv < l.level {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var line []byte
	if l.format == "json" {
		record := map[string]interface{}{
			"ts":        now,
			"level":     tag,
			"component": l.component,
			"msg":       msg,
		}
		for k, v := range fields {
			record[k] = v
		}
		b, err := json.Marshal(record)
		if err != nil {
			b = []byte(fmt.Sprintf(`{"ts":%q,"level":%q,"msg":%q}`, now, tag, msg))
		}
		line = append(b, '\n')
	} else {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s %-5s [%s] %s", now, tag, l.component, msg)
		for _, k := range sortedKeys(fields) {
			fmt.Fprintf(&sb, " %s=%v", k, fields[k])
		}
		sb.WriteByte('\n')
		line = []byte(sb.String())
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(line)
}

func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// nopLogger discards everything. Used when logging is disabled.
type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}

// NewNop returns a logger that discards all records.
func NewNop() Logger { return nopLogger{} }

// rateGate admits at most one event per interval and counts suppressed
// events between admissions.
type rateGate struct {
	interval   time.Duration
	mu         sync.Mutex
	last       time.Time
	suppressed uint64
}

func newRateGate(interval time.Duration) *rateGate {
	return &rateGate{interval: interval}
}

func (g *rateGate) allow() (suppressed uint64, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now()
	if now.Sub(g.last) < g.interval {
		g.suppressed++
		return 0, false
	}
	g.last = now
	suppressed = g.suppressed
	g.suppressed = 0
	return suppressed, true
}
