// Package perfgraph is an embeddable instrumentation toolkit: application
// code marks measurement regions, and the library builds a hierarchical
// call graph describing where wall time, CPU time and memory were spent,
// per goroutine, mergeable across goroutines and processes.
//
// The entry point is a Manager. Each worker goroutine takes a Thread
// handle, opens regions on it, and the Manager merges all finished graphs
// into one global graph per component kind at finalize:
//
//	mgr, _ := perfgraph.New(nil, component.KindWallClock, component.KindHeapAlloc)
//	th, _ := mgr.Thread()
//	defer th.Close()
//
//	r := th.Begin("load-index")
//	loadIndex()
//	r.End()
//
//	mgr.Finalize(ctx)
//	report.Write(os.Stdout, mgr.Global(component.KindWallClock), report.Options{})
//
// The start/stop path is synchronous and lock-free; only thread
// registration and finalize coordinate across goroutines. Rendering,
// serialization and export of the merged graph live in the report, export
// and distrib packages.
package perfgraph
