// Package component implements the measurement lifecycle shared by every
// quantity kind the toolkit can record: wall time, CPU time, heap traffic,
// peak heap and goroutine counts.
//
// Each kind is described by a CapabilitySet record instead of compile-time
// specialization: the lifecycle (Start/Stop/Measure/Reset/Sample) and the
// statistical combination operators (Plus/Minus/Multiply/Divide) are uniform,
// and callers consult Capabilities to decide which operations a kind
// participates in (call-graph storage, sampling, secondary data).
//
// Components are not safe for concurrent use. Each instance belongs to one
// goroutine for the duration of a measurement region; the started/stopped
// protocol is enforced with explicit errors so callers can choose between
// strict (panic) and lenient (skip) handling.
package component
