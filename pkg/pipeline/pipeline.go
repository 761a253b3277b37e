package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
)

// Pipeline is an immutable, ordered list of valves with an optional label.
type Pipeline struct {
	valves []Valve
	label  string
	logger *slog.Logger
	hooks  []Hooks
}

// New validates the valves and builds a pipeline. An empty list is a no-op
// pipeline; a nil entry fails.
func New(valves []Valve, opts ...Option) (*Pipeline, error) {
	for i, v := range valves {
		if IsNil(v) {
			return nil, invalidArgument("valves[%d] == nil", i)
		}
	}

	p := &Pipeline{
		valves: append([]Valve(nil), valves...),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// MustNew is like New but panics on invalid valves.
func MustNew(valves []Valve, opts ...Option) *Pipeline {
	p, err := New(valves, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Label returns the pipeline label, "" if none.
func (p *Pipeline) Label() string {
	return p.label
}

// Valves returns a copy of the valves.
func (p *Pipeline) Valves() []Valve {
	return append([]Valve(nil), p.valves...)
}

func (p *Pipeline) Len() int {
	return len(p.valves)
}

// NewInvocation creates a root invocation (level 1).
func (p *Pipeline) NewInvocation() *Invocation {
	return newInvocation(p, nil)
}

// NewNestedInvocation creates an invocation running under parent, typically
// from a valve that runs a sub-pipeline.
func (p *Pipeline) NewNestedInvocation(parent Context) (*Invocation, error) {
	if IsNil(parent) {
		return nil, invalidArgument("no parent pipeline context")
	}
	return newInvocation(p, parent), nil
}

func (p *Pipeline) String() string {
	name := "Pipeline"
	if p.label != "" {
		name = fmt.Sprintf("Pipeline(%s)", p.label)
	}

	if len(p.valves) == 0 {
		return name + "[]"
	}

	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteString(" [\n")
	for i, v := range p.valves {
		fmt.Fprintf(&sb, "  [%d/%d] %s\n", i+1, len(p.valves), ValveName(v))
	}
	sb.WriteString("]")
	return sb.String()
}
