package valve

import (
	"fmt"

	"github.com/ib-77/valves/pkg/pipeline"
)

// If runs Block when Condition is satisfied, then continues.
type If struct {
	Condition pipeline.Condition
	Block     *pipeline.Pipeline
}

func NewIf(condition pipeline.Condition, block *pipeline.Pipeline) (*If, error) {
	if pipeline.IsNil(condition) {
		return nil, invalid("no condition")
	}
	if block == nil {
		return nil, invalid("no if-block")
	}
	return &If{Condition: condition, Block: block}, nil
}

func (v *If) Invoke(ctx pipeline.Context) error {
	if pipeline.IsNil(v.Condition) || v.Block == nil {
		return notInitialized(v)
	}

	if v.Condition.IsSatisfied(ctx) {
		if _, err := runNested(ctx, v.Block); err != nil {
			return err
		}
	}

	return ctx.InvokeNext()
}

func (v *If) String() string {
	return fmt.Sprintf("If(%s)", describeCondition(v.Condition))
}

// When pairs a condition with the block it guards.
type When struct {
	Condition pipeline.Condition
	Block     *pipeline.Pipeline
}

// Choose runs the block of the first satisfied When, or Otherwise when none
// matches, then continues.
type Choose struct {
	Whens     []When
	Otherwise *pipeline.Pipeline
}

func NewChoose(whens []When, otherwise *pipeline.Pipeline) (*Choose, error) {
	for i, w := range whens {
		if pipeline.IsNil(w.Condition) {
			return nil, invalid("when[%d].condition == nil", i)
		}
		if w.Block == nil {
			return nil, invalid("when[%d] == nil", i)
		}
	}
	return &Choose{Whens: append([]When(nil), whens...), Otherwise: otherwise}, nil
}

func (v *Choose) Invoke(ctx pipeline.Context) error {
	block := v.Otherwise
	for _, w := range v.Whens {
		if pipeline.IsNil(w.Condition) || w.Block == nil {
			return notInitialized(v)
		}
		if w.Condition.IsSatisfied(ctx) {
			block = w.Block
			break
		}
	}

	if block != nil {
		if _, err := runNested(ctx, block); err != nil {
			return err
		}
	}

	return ctx.InvokeNext()
}

func (v *Choose) String() string {
	return fmt.Sprintf("Choose(%d whens, otherwise=%t)", len(v.Whens), v.Otherwise != nil)
}
