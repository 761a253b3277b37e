package pipeline

import (
	"context"
	"log/slog"
	"maps"
	"strings"

	"github.com/google/uuid"
)

// nullValue marks an attribute explicitly set to nil.
type nullValue struct{}

// Invocation is one run of a pipeline. It is the Context handed to valves and
// the Handle returned to callers. An invocation belongs to a single call chain
// and is not safe for concurrent use.
type Invocation struct {
	id       uuid.UUID
	pipeline *Pipeline
	parent   Context
	level    int

	executingIndex int
	executedIndex  int
	broken         bool
	started        bool
	running        bool

	attributes map[string]any
}

var _ Handle = (*Invocation)(nil)

func newInvocation(p *Pipeline, parent Context) *Invocation {
	level := 1
	if parent != nil {
		level = parent.Level() + 1
	}

	return &Invocation{
		id:             uuid.New(),
		pipeline:       p,
		parent:         parent,
		level:          level,
		executingIndex: -1,
		executedIndex:  -1,
	}
}

func (inv *Invocation) ID() uuid.UUID {
	return inv.id
}

// Pipeline returns the pipeline being invoked.
func (inv *Invocation) Pipeline() *Pipeline {
	return inv.pipeline
}

// Parent returns the enclosing context, nil for a root invocation.
func (inv *Invocation) Parent() Context {
	return inv.parent
}

func (inv *Invocation) Level() int {
	return inv.level
}

// Index is executingIndex + 1: 0 until a valve is executing, then the 1-based
// position of the innermost executing valve of this invocation.
func (inv *Invocation) Index() int {
	return inv.executingIndex + 1
}

func (inv *Invocation) IsBroken() bool {
	return inv.broken
}

func (inv *Invocation) IsFinished() bool {
	return !inv.broken && inv.executedIndex >= len(inv.pipeline.valves)
}

func (inv *Invocation) State() State {
	switch {
	case inv.broken:
		return Broken
	case inv.running:
		return Running
	case !inv.started:
		return NotStarted
	case inv.IsFinished():
		return Finished
	default:
		return Stopped
	}
}

// Invoke runs the pipeline from its first valve. Broken or finished
// invocations cannot be invoked again; a stopped one restarts from scratch.
func (inv *Invocation) Invoke() error {
	switch {
	case inv.broken:
		return illegalState("cannot reinvoke a broken pipeline")
	case inv.running:
		return illegalState("pipeline is already running: %s", inv)
	case inv.started && inv.IsFinished():
		return illegalState("cannot reinvoke a finished pipeline")
	}

	inv.started = true
	inv.running = true
	defer func() { inv.running = false }()

	inv.executingIndex, inv.executedIndex = -1, -1
	return inv.InvokeNext()
}

// InvokeNext claims the next slot and runs its valve. It is a no-op once the
// invocation is broken.
func (inv *Invocation) InvokeNext() error {
	if inv.broken {
		return nil
	}

	inv.executingIndex++
	defer func() { inv.executingIndex-- }()

	valves := inv.pipeline.valves

	if inv.executingIndex <= inv.executedIndex {
		return illegalState("%s has already been invoked: %s", inv.describeValve(), inv.valveNameAt(inv.executingIndex))
	}

	inv.executedIndex++

	if inv.executingIndex >= len(valves) {
		inv.logDebug("pipeline reaches its end")
		inv.pipeline.end(inv.event(nil))
		return nil
	}

	v := valves[inv.executingIndex]
	ev := inv.event(v)

	inv.logDebug("entering valve", slog.String("valve", ValveName(v)))
	inv.pipeline.enter(ev)

	err := v.Invoke(inv)

	inv.logDebug("exited valve", slog.String("valve", ValveName(v)))
	inv.pipeline.exit(ev, err)

	if err != nil {
		if IsPipelineError(err) {
			return err
		}
		return &Error{
			Index: inv.Index(),
			Total: len(valves),
			Level: inv.level,
			Valve: ValveName(v),
			Err:   err,
		}
	}

	// the valve neither reached the end nor continued: it stopped or broke
	if inv.executedIndex < len(valves) && inv.executedIndex == inv.executingIndex {
		inv.logDebug("pipeline execution was interrupted", slog.String("valve", ValveName(v)))
		inv.pipeline.interrupt(ev)
	}

	return nil
}

func (inv *Invocation) BreakPipeline(levels int) error {
	if levels < 0 || levels >= inv.level {
		return invalidArgument("invalid break levels: %d, should be in range of [0, %d)", levels, inv.level)
	}

	inv.broken = true

	if levels > 0 {
		return inv.parent.BreakPipeline(levels - 1)
	}
	return nil
}

func (inv *Invocation) BreakToLabel(label string) error {
	levels, err := inv.FindLabel(label)
	if err != nil {
		return err
	}
	return inv.BreakPipeline(levels)
}

func (inv *Invocation) FindLabel(label string) (int, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0, invalidArgument("no label")
	}

	switch {
	case label == TopLabel && inv.parent == nil:
		return 0, nil
	case label == inv.pipeline.label:
		return 0, nil
	case inv.parent != nil:
		levels, err := inv.parent.FindLabel(label)
		if err != nil {
			return 0, err
		}
		return levels + 1, nil
	default:
		return 0, &LabelNotDefinedError{Label: label}
	}
}

func (inv *Invocation) Attribute(key string) (any, bool) {
	if value, ok := inv.attributes[key]; ok {
		if _, isNull := value.(nullValue); isNull {
			return nil, true
		}
		return value, true
	}

	if inv.parent != nil {
		return inv.parent.Attribute(key)
	}

	return nil, false
}

func (inv *Invocation) SetAttribute(key string, value any) {
	if inv.attributes == nil {
		inv.attributes = make(map[string]any)
	}

	if value == nil {
		value = nullValue{}
	}

	inv.attributes[key] = value
}

// Renew returns a fresh invocation of the same pipeline under the same parent
// with a copy of the local attributes. Loops use it to run a body again after
// a round has finished.
func (inv *Invocation) Renew() *Invocation {
	next := newInvocation(inv.pipeline, inv.parent)
	if inv.attributes != nil {
		next.attributes = maps.Clone(inv.attributes)
	}
	return next
}

func (inv *Invocation) String() string {
	return "Executing Pipeline " + inv.describeValve()
}

func (inv *Invocation) describeValve() string {
	return describePosition(inv.Index(), len(inv.pipeline.valves), inv.level)
}

func (inv *Invocation) valveNameAt(i int) string {
	if i < 0 || i >= len(inv.pipeline.valves) {
		return "<end of pipeline>"
	}
	return ValveName(inv.pipeline.valves[i])
}

func (inv *Invocation) event(v Valve) Event {
	return Event{
		InvocationID: inv.id,
		Label:        inv.pipeline.label,
		Level:        inv.level,
		Index:        inv.Index(),
		Total:        len(inv.pipeline.valves),
		Valve:        v,
	}
}

func (inv *Invocation) logDebug(msg string, attrs ...slog.Attr) {
	logger := inv.pipeline.logger
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs = append(attrs,
		slog.String("invocation", inv.id.String()),
		slog.String("position", inv.describeValve()),
	)
	logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}
