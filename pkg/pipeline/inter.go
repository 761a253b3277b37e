package pipeline

import "github.com/google/uuid"

// TopLabel addresses the outermost pipeline of the current invocation stack.
const TopLabel = "#TOP"

// Valve is a single step of work in a pipeline.
type Valve interface {
	// Invoke runs the step. Call ctx.InvokeNext to continue the chain.
	Invoke(ctx Context) error
}

// ValveFunc adapts a function to the Valve interface.
type ValveFunc func(ctx Context) error

func (f ValveFunc) Invoke(ctx Context) error {
	return f(ctx)
}

// States is the state surface shared by valves and conditions.
type States interface {
	// Level returns 1 for a root invocation and parent level + 1 otherwise
	Level() int
	// Index returns the executing index + 1
	Index() int
	// FindLabel returns the relative depth of the pipeline carrying label
	FindLabel(label string) (int, error)
	// IsBroken returns true once the invocation has been broken
	IsBroken() bool
	// IsFinished returns true if every valve ran and nothing broke
	IsFinished() bool
	// Attribute looks the key up locally, then in the parent invocations.
	// A stored nil returns (nil, true); an absent key returns (nil, false).
	Attribute(key string) (any, bool)
	// SetAttribute always writes to the current invocation
	SetAttribute(key string, value any)
}

// Context is handed to a valve while it runs.
type Context interface {
	States
	// InvokeNext runs the next valve of the same pipeline
	InvokeNext() error
	// BreakPipeline breaks the current pipeline and levels of its parents
	BreakPipeline(levels int) error
	// BreakToLabel breaks every pipeline up to the one carrying label
	BreakToLabel(label string) error
}

// Handle is what the caller of a pipeline holds.
type Handle interface {
	Context
	// Invoke starts (or restarts) the invocation
	Invoke() error
	// ID identifies the invocation in logs and hooks
	ID() uuid.UUID
	// State reports where the invocation is in its lifecycle
	State() State
}

// Condition is a predicate over the pipeline states.
type Condition interface {
	IsSatisfied(states States) bool
}

// ConditionFunc adapts a function to the Condition interface.
type ConditionFunc func(states States) bool

func (f ConditionFunc) IsSatisfied(states States) bool {
	return f(states)
}

// State is the lifecycle position of an invocation.
type State int

const (
	NotStarted State = iota
	Running
	Finished
	Broken
	// Stopped means a valve returned without calling InvokeNext
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Broken:
		return "broken"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
