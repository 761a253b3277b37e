package valve

import (
	"github.com/ib-77/valves/pkg/pipeline"
)

// runNested invokes block under ctx and returns the nested invocation.
func runNested(ctx pipeline.Context, block *pipeline.Pipeline) (*pipeline.Invocation, error) {
	handle, err := block.NewNestedInvocation(ctx)
	if err != nil {
		return nil, err
	}
	return handle, handle.Invoke()
}

// Tee runs a side effect and continues the chain.
type Tee struct {
	Name string
	Fn   func(states pipeline.States)
}

func (v *Tee) Invoke(ctx pipeline.Context) error {
	if v.Fn != nil {
		v.Fn(ctx)
	}
	return ctx.InvokeNext()
}

func (v *Tee) String() string {
	if v.Name != "" {
		return "Tee(" + v.Name + ")"
	}
	return "Tee"
}

// Sub runs a pipeline nested under the current context, then continues.
type Sub struct {
	Pipeline *pipeline.Pipeline
}

func NewSub(p *pipeline.Pipeline) (*Sub, error) {
	if p == nil {
		return nil, invalid("no sub-pipeline")
	}
	return &Sub{Pipeline: p}, nil
}

func (v *Sub) Invoke(ctx pipeline.Context) error {
	if v.Pipeline == nil {
		return notInitialized(v)
	}
	if _, err := runNested(ctx, v.Pipeline); err != nil {
		return err
	}
	return ctx.InvokeNext()
}

func (v *Sub) String() string {
	if v.Pipeline != nil && v.Pipeline.Label() != "" {
		return "Sub(" + v.Pipeline.Label() + ")"
	}
	return "Sub"
}
