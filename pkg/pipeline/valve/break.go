package valve

import (
	"fmt"
	"strings"

	"github.com/ib-77/valves/pkg/pipeline"
)

// Break interrupts Levels pipelines, or up to ToLabel when it is set.
type Break struct {
	Levels  int
	ToLabel string
}

func (v *Break) Invoke(ctx pipeline.Context) error {
	return breakPipeline(ctx, v.Levels, v.ToLabel)
}

func (v *Break) String() string {
	return "Break" + describeTarget(v.Levels, v.ToLabel)
}

// BreakIf breaks when Condition is satisfied and continues otherwise.
type BreakIf struct {
	Condition pipeline.Condition
	Levels    int
	ToLabel   string
}

func NewBreakIf(condition pipeline.Condition, levels int, toLabel string) (*BreakIf, error) {
	if pipeline.IsNil(condition) {
		return nil, invalid("no condition")
	}
	return &BreakIf{Condition: condition, Levels: levels, ToLabel: toLabel}, nil
}

func (v *BreakIf) Invoke(ctx pipeline.Context) error {
	if pipeline.IsNil(v.Condition) {
		return notInitialized(v)
	}
	if v.Condition.IsSatisfied(ctx) {
		return breakPipeline(ctx, v.Levels, v.ToLabel)
	}
	return ctx.InvokeNext()
}

func (v *BreakIf) String() string {
	return fmt.Sprintf("BreakIf(%s)%s", describeCondition(v.Condition), describeTarget(v.Levels, v.ToLabel))
}

// BreakUnless breaks when Condition is not satisfied and continues otherwise.
type BreakUnless struct {
	Condition pipeline.Condition
	Levels    int
	ToLabel   string
}

func NewBreakUnless(condition pipeline.Condition, levels int, toLabel string) (*BreakUnless, error) {
	if pipeline.IsNil(condition) {
		return nil, invalid("no condition")
	}
	return &BreakUnless{Condition: condition, Levels: levels, ToLabel: toLabel}, nil
}

func (v *BreakUnless) Invoke(ctx pipeline.Context) error {
	if pipeline.IsNil(v.Condition) {
		return notInitialized(v)
	}
	if !v.Condition.IsSatisfied(ctx) {
		return breakPipeline(ctx, v.Levels, v.ToLabel)
	}
	return ctx.InvokeNext()
}

func (v *BreakUnless) String() string {
	return fmt.Sprintf("BreakUnless(%s)%s", describeCondition(v.Condition), describeTarget(v.Levels, v.ToLabel))
}

// Exit breaks every pipeline of the invocation stack.
type Exit struct{}

func (Exit) Invoke(ctx pipeline.Context) error {
	return ctx.BreakToLabel(pipeline.TopLabel)
}

func (Exit) String() string {
	return "Exit"
}

func breakPipeline(ctx pipeline.Context, levels int, toLabel string) error {
	if strings.TrimSpace(toLabel) != "" {
		return ctx.BreakToLabel(toLabel)
	}
	return ctx.BreakPipeline(levels)
}

func describeTarget(levels int, toLabel string) string {
	if label := strings.TrimSpace(toLabel); label != "" {
		return "[" + label + "]"
	}
	return fmt.Sprintf("[%d]", levels)
}
