package storage

import "fmt"

// Scope is the policy applied when the same label is inserted repeatedly.
type Scope uint8

const (
	// ScopeTree collapses repeats of a label at the same call position
	// into one node; distinct positions keep distinct nodes.
	ScopeTree Scope = iota
	// ScopeFlat ignores ancestry: every occurrence of a label collapses
	// into one node directly under the thread root.
	ScopeFlat
	// ScopeTimeline never reuses: every occurrence creates a new node,
	// preserving temporal order instead of aggregating.
	ScopeTimeline
)

// String returns the canonical lowercase scope name.
func (s Scope) String() string {
	switch s {
	case ScopeTree:
		return "tree"
	case ScopeFlat:
		return "flat"
	case ScopeTimeline:
		return "timeline"
	default:
		return "unknown"
	}
}

// ParseScope maps a scope name to its value. Unknown names return an error
// alongside ScopeTree so callers can clamp instead of failing.
func ParseScope(name string) (Scope, error) {
	switch name {
	case "tree", "":
		return ScopeTree, nil
	case "flat":
		return ScopeFlat, nil
	case "timeline":
		return ScopeTimeline, nil
	default:
		return ScopeTree, fmt.Errorf("unknown scope %q", name)
	}
}
