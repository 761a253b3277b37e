// Package chain provides a fluent builder for pipelines.
//
// It composes valves and the control valves of package valve behind a
// convenient Chain type, collecting construction errors so they surface once
// from Build.
//
// Key operations:
// - Start: begin a chain from valves
// - Then/ThenFunc: append a valve
// - Ensure: run a side effect and continue
// - Sub/If/Loop/While/TryCatch: append composite valves
// - BreakIf/Exit: append interruptions
// - Build: validate and produce the pipeline
package chain
