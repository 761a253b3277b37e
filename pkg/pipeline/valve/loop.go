package valve

import (
	"fmt"
	"strings"

	"github.com/ib-77/valves/pkg/pipeline"
)

const (
	DefaultMaxLoopCount    = 10
	DefaultLoopCounterName = "loopCount"
)

type LoopOption func(l *Loop)

// WithMaxLoopCount bounds the number of rounds; zero or less means unlimited.
func WithMaxLoopCount(max int) LoopOption {
	return func(l *Loop) {
		if max < 0 {
			max = 0
		}
		l.MaxLoopCount = max
	}
}

// WithLoopCounterName sets the attribute holding the 0-based round number.
// Blank names keep the default.
func WithLoopCounterName(name string) LoopOption {
	return func(l *Loop) {
		if name = strings.TrimSpace(name); name != "" {
			l.LoopCounterName = name
		}
	}
}

// Loop runs Body until a round breaks the body invocation, then continues.
// Breaking more than one level from the body ends the enclosing pipelines too.
type Loop struct {
	Body            *pipeline.Pipeline
	MaxLoopCount    int
	LoopCounterName string
}

func NewLoop(body *pipeline.Pipeline, opts ...LoopOption) (*Loop, error) {
	if body == nil {
		return nil, invalid("no loop body")
	}

	l := &Loop{
		Body:            body,
		MaxLoopCount:    DefaultMaxLoopCount,
		LoopCounterName: DefaultLoopCounterName,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (v *Loop) Invoke(ctx pipeline.Context) error {
	if v.Body == nil {
		return notInitialized(v)
	}
	if err := v.run(ctx, nil); err != nil {
		return err
	}
	return ctx.InvokeNext()
}

func (v *Loop) String() string {
	return fmt.Sprintf("Loop(max=%d, counter=%s)", v.MaxLoopCount, v.counterName())
}

func (v *Loop) counterName() string {
	if v.LoopCounterName == "" {
		return DefaultLoopCounterName
	}
	return v.LoopCounterName
}

// run drives the rounds. Each round is a fresh invocation of the body carrying
// the attributes of the previous one; while, if set, is checked before a round.
func (v *Loop) run(ctx pipeline.Context, while pipeline.Condition) error {
	handle, err := v.Body.NewNestedInvocation(ctx)
	if err != nil {
		return err
	}

	counter := v.counterName()

	for count := 0; ; count++ {
		handle.SetAttribute(counter, count)

		if while != nil && !while.IsSatisfied(handle) {
			return nil
		}
		if v.MaxLoopCount > 0 && count >= v.MaxLoopCount {
			return &TooManyLoopsError{Max: v.MaxLoopCount}
		}

		if err := handle.Invoke(); err != nil {
			return err
		}
		if handle.IsBroken() {
			return nil
		}

		handle = handle.Renew()
	}
}

// While is a Loop guarded by Condition, checked before every round against the
// body invocation, so the loop counter is visible to it.
type While struct {
	Loop
	Condition pipeline.Condition
}

func NewWhile(condition pipeline.Condition, body *pipeline.Pipeline, opts ...LoopOption) (*While, error) {
	loop, err := NewLoop(body, opts...)
	if err != nil {
		return nil, err
	}
	if pipeline.IsNil(condition) {
		return nil, invalid("no condition")
	}
	return &While{Loop: *loop, Condition: condition}, nil
}

func (v *While) Invoke(ctx pipeline.Context) error {
	if v.Body == nil || pipeline.IsNil(v.Condition) {
		return notInitialized(v)
	}
	if err := v.run(ctx, v.Condition); err != nil {
		return err
	}
	return ctx.InvokeNext()
}

func (v *While) String() string {
	return fmt.Sprintf("While(%s, max=%d, counter=%s)", describeCondition(v.Condition), v.MaxLoopCount, v.counterName())
}
