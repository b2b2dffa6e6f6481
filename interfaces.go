package perfgraph

import "github.com/perfgraph/perfgraph/storage"

// Logger is the minimal structured logging interface the toolkit consumes.
// The built-in logger satisfies it; applications can inject their own.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Re-export scope policies so callers rarely need the storage package
// directly.
type Scope = storage.Scope

const (
	ScopeTree     = storage.ScopeTree
	ScopeFlat     = storage.ScopeFlat
	ScopeTimeline = storage.ScopeTimeline
)
