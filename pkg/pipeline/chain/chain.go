package chain

import (
	"github.com/ib-77/valves/pkg/pipeline"
	"github.com/ib-77/valves/pkg/pipeline/valve"
)

// Chain accumulates valves and pipeline options.
type Chain struct {
	valves []pipeline.Valve
	opts   []pipeline.Option
	errs   []error
}

// Start creates a new chain from valves
func Start(valves ...pipeline.Valve) *Chain {
	return &Chain{valves: append([]pipeline.Valve(nil), valves...)}
}

// With adds pipeline options such as labels, loggers and hooks
func (c *Chain) With(opts ...pipeline.Option) *Chain {
	c.opts = append(c.opts, opts...)
	return c
}

// Label names the pipeline
func (c *Chain) Label(label string) *Chain {
	return c.With(pipeline.WithLabel(label))
}

// Then appends a valve
func (c *Chain) Then(v pipeline.Valve) *Chain {
	c.valves = append(c.valves, v)
	return c
}

// ThenFunc appends a function valve
func (c *Chain) ThenFunc(fn func(ctx pipeline.Context) error) *Chain {
	return c.Then(pipeline.ValveFunc(fn))
}

// Ensure performs a side effect and continues the chain
func (c *Chain) Ensure(name string, fn func(states pipeline.States)) *Chain {
	return c.Then(&valve.Tee{Name: name, Fn: fn})
}

// Sub runs p nested and continues
func (c *Chain) Sub(p *pipeline.Pipeline) *Chain {
	return c.add(valve.NewSub(p))
}

// If runs block when condition is satisfied
func (c *Chain) If(condition pipeline.Condition, block *pipeline.Pipeline) *Chain {
	return c.add(valve.NewIf(condition, block))
}

// Loop repeats body until it breaks
func (c *Chain) Loop(body *pipeline.Pipeline, opts ...valve.LoopOption) *Chain {
	return c.add(valve.NewLoop(body, opts...))
}

// While repeats body while condition holds
func (c *Chain) While(condition pipeline.Condition, body *pipeline.Pipeline, opts ...valve.LoopOption) *Chain {
	return c.add(valve.NewWhile(condition, body, opts...))
}

// TryCatch runs try, recovering with catch and always running finally; catch
// and finally may be nil
func (c *Chain) TryCatch(try, catch, finally *pipeline.Pipeline) *Chain {
	return c.Then(&valve.TryCatchFinally{Try: try, Catch: catch, Finally: finally})
}

// BreakIf breaks levels (or to label when not blank) when condition holds
func (c *Chain) BreakIf(condition pipeline.Condition, levels int, label string) *Chain {
	return c.add(valve.NewBreakIf(condition, levels, label))
}

// Exit breaks every pipeline of the invocation stack
func (c *Chain) Exit() *Chain {
	return c.Then(valve.Exit{})
}

// Build validates the chain and returns the pipeline
func (c *Chain) Build() (*pipeline.Pipeline, error) {
	if err := pipeline.JoinErrors(c.errs...); err != nil {
		return nil, err
	}
	return pipeline.New(c.valves, c.opts...)
}

// MustBuild is like Build but panics on error
func (c *Chain) MustBuild() *pipeline.Pipeline {
	p, err := c.Build()
	if err != nil {
		panic(err)
	}
	return p
}

func (c *Chain) add(v pipeline.Valve, err error) *Chain {
	if err != nil {
		c.errs = append(c.errs, err)
		return c
	}
	return c.Then(v)
}
