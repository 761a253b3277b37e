// Package valve contains control-flow valves composed from nested pipelines:
// conditionals, loops, try/catch/finally and breaks. Each composite valve runs
// its blocks as nested invocations of the current context, so breaks and
// labels inside a block address the enclosing pipelines as well.
//
// Highlights:
// - Tee/Sub: side effects and plain sub-pipelines
// - If/Choose: conditional blocks
// - Loop/While: repeated bodies bounded by MaxLoopCount
// - TryCatchFinally: error recovery with an always-run finally block
// - Break/BreakIf/BreakUnless/Exit: controlled interruption by levels or label
package valve
