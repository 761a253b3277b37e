// Package pipeline contains the valve execution engine: an ordered list of
// valves that run as an explicit chain of responsibility. A valve continues the
// chain by calling InvokeNext, stops it silently by returning, or interrupts
// one or more nested pipelines with BreakPipeline / BreakToLabel.
//
// Highlights:
// - New/MustNew: build an immutable Pipeline from valves and options
// - NewInvocation/NewNestedInvocation: create root or nested invocations
// - Invocation: the per-run control object (Context and Handle)
// - Attribute/SetAttribute: state store, read-inherited and write-local
// - Hooks: optional callbacks at valve entry/exit and pipeline end
package pipeline
