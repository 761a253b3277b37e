// Package condition provides Condition implementations that live outside the
// pipeline core: boolean combinators and expressions evaluated against the
// pipeline attributes.
package condition
