package perfgraph

import "context"

// threadKey is the context key carrying a Thread handle. Contexts move
// down one goroutine's call stack, matching the handle's single-owner
// rule; never share a context carrying a Thread across goroutines.
type threadKey struct{}

// ContextWithThread attaches a thread handle to a context so instrumented
// call sites deep in a stack can open regions without plumbing the handle
// explicitly.
func ContextWithThread(ctx context.Context, t *Thread) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, threadKey{}, t)
}

// ThreadFromContext retrieves the attached thread handle.
func ThreadFromContext(ctx context.Context) (*Thread, bool) {
	if ctx == nil {
		return nil, false
	}
	t, ok := ctx.Value(threadKey{}).(*Thread)
	if !ok || t == nil {
		return nil, false
	}
	return t, true
}

// Begin opens a region on the context's thread handle. With no handle
// attached it returns an inert region, so instrumented library code works
// unchanged whether or not the caller set up measurement.
func Begin(ctx context.Context, label string) *Region {
	t, ok := ThreadFromContext(ctx)
	if !ok {
		return &Region{label: label}
	}
	return t.Begin(label)
}
