package condition

import (
	"fmt"
	"strings"

	"github.com/ib-77/valves/pkg/pipeline"
)

// Func names a predicate so it prints well inside valve descriptions.
type Func struct {
	Name string
	Fn   func(states pipeline.States) bool
}

func (c Func) IsSatisfied(states pipeline.States) bool {
	return c.Fn != nil && c.Fn(states)
}

func (c Func) String() string {
	return c.Name
}

// Not negates a condition.
type Not struct {
	Condition pipeline.Condition
}

func (c Not) IsSatisfied(states pipeline.States) bool {
	return !c.Condition.IsSatisfied(states)
}

func (c Not) String() string {
	return fmt.Sprintf("not(%s)", describe(c.Condition))
}

// All is satisfied when every condition is; it stops at the first failure.
// An empty All is satisfied.
type All []pipeline.Condition

func (c All) IsSatisfied(states pipeline.States) bool {
	for _, cond := range c {
		if !cond.IsSatisfied(states) {
			return false
		}
	}
	return true
}

func (c All) String() string {
	return join("all", c)
}

// Any is satisfied when one condition is; it stops at the first success.
// An empty Any is not satisfied.
type Any []pipeline.Condition

func (c Any) IsSatisfied(states pipeline.States) bool {
	for _, cond := range c {
		if cond.IsSatisfied(states) {
			return true
		}
	}
	return false
}

func (c Any) String() string {
	return join("any", c)
}

// None is satisfied when no condition is.
type None []pipeline.Condition

func (c None) IsSatisfied(states pipeline.States) bool {
	return !Any(c).IsSatisfied(states)
}

func (c None) String() string {
	return join("none", c)
}

// Attribute is satisfied when key is visible from the current invocation,
// even with a nil value.
type Attribute string

func (c Attribute) IsSatisfied(states pipeline.States) bool {
	_, ok := states.Attribute(string(c))
	return ok
}

func (c Attribute) String() string {
	return "attribute(" + string(c) + ")"
}

func join(op string, conds []pipeline.Condition) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = describe(c)
	}
	return op + "(" + strings.Join(parts, ", ") + ")"
}

func describe(c pipeline.Condition) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", c)
}
