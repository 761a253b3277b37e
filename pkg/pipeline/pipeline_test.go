package pipeline_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/valves/internal/testutil"
	"github.com/ib-77/valves/pkg/pipeline"
)

func invokeAndAssert(t *testing.T, p *pipeline.Pipeline, broken bool) *pipeline.Invocation {
	t.Helper()

	handle := p.NewInvocation()
	require.NoError(t, handle.Invoke())
	assert.Equal(t, broken, handle.IsBroken(), "broken")
	return handle
}

// threeLevels builds p1 [log, sub(p2), log], p2 [log, sub(p3), log], p3 [log, middle, log].
func threeLevels(log *testutil.ExecutionLog, middle pipeline.Valve, labels ...string) (p1, p2, p3 *pipeline.Pipeline) {
	label := func(i int) pipeline.Option {
		if i < len(labels) {
			return pipeline.WithLabel(labels[i])
		}
		return pipeline.WithLabel("")
	}

	p3 = pipeline.MustNew([]pipeline.Valve{&testutil.LogValve{Log: log}, middle, &testutil.LogValve{Log: log}}, label(2))
	p2 = pipeline.MustNew([]pipeline.Valve{
		&testutil.LogValve{Log: log}, &testutil.LogAndInvokeSubValve{Log: log, Sub: p3}, &testutil.LogValve{Log: log},
	}, label(1))
	p1 = pipeline.MustNew([]pipeline.Valve{
		&testutil.LogValve{Log: log}, &testutil.LogAndInvokeSubValve{Log: log, Sub: p2}, &testutil.LogValve{Log: log},
	}, label(0))
	return p1, p2, p3
}

func TestNew_Label(t *testing.T) {
	t.Parallel()

	p := pipeline.MustNew(nil)
	assert.Equal(t, "", p.Label())

	p = pipeline.MustNew(nil, pipeline.WithLabel(" "))
	assert.Equal(t, "", p.Label())

	p = pipeline.MustNew(nil, pipeline.WithLabel(" testLabel"))
	assert.Equal(t, "testLabel", p.Label())
}

func TestNew_NilValve(t *testing.T) {
	t.Parallel()

	log := testutil.NewExecutionLog()

	_, err := pipeline.New([]pipeline.Valve{&testutil.LogValve{Log: log}, nil, &testutil.LogValve{Log: log}})
	require.ErrorIs(t, err, pipeline.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "valves[1] == nil")

	var typedNil *testutil.LogValve
	_, err = pipeline.New([]pipeline.Valve{typedNil})
	require.ErrorIs(t, err, pipeline.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "valves[0] == nil")
}

func TestNew_CopiesValves(t *testing.T) {
	t.Parallel()

	log := testutil.NewExecutionLog()
	valves := testutil.Logs(log, 2)
	p := pipeline.MustNew(valves)

	valves[0] = nil
	assert.NotNil(t, p.Valves()[0])
	assert.Equal(t, 2, p.Len())
}

func TestNewNestedInvocation_NoParent(t *testing.T) {
	t.Parallel()

	p := pipeline.MustNew(testutil.Logs(testutil.NewExecutionLog(), 3))

	_, err := p.NewNestedInvocation(nil)
	require.ErrorIs(t, err, pipeline.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "no parent pipeline context")

	var typedNil *pipeline.Invocation
	_, err = p.NewNestedInvocation(typedNil)
	require.ErrorIs(t, err, pipeline.ErrInvalidArgument)
}

func TestPipeline_String(t *testing.T) {
	t.Parallel()

	log := testutil.NewExecutionLog()
	assert.Equal(t, "Pipeline[]", pipeline.MustNew(nil).String())

	p := pipeline.MustNew([]pipeline.Valve{
		&testutil.LogValve{Log: log}, &testutil.LogAndBreakValve{Log: log}, &testutil.LogValve{Log: log},
	}, pipeline.WithLabel("main"))

	expected := "Pipeline(main) [\n" +
		"  [1/3] LogValve\n" +
		"  [2/3] LogAndBreakValve[0]\n" +
		"  [3/3] LogValve\n" +
		"]"
	assert.Equal(t, expected, p.String())
}

func TestInvocation_String(t *testing.T) {
	t.Parallel()

	p := pipeline.MustNew(testutil.Logs(testutil.NewExecutionLog(), 3))
	assert.Equal(t, "Executing Pipeline Valve[#0/3, level 1]", p.NewInvocation().String())
}

func TestInvoke_NoValves(t *testing.T) {
	t.Parallel()

	p := pipeline.MustNew(nil)

	handle := invokeAndAssert(t, p, false)
	assert.True(t, handle.IsFinished())
	assert.Equal(t, pipeline.Finished, handle.State())
}

func TestInvoke_Simple(t *testing.T) {
	t.Parallel()

	log := testutil.NewExecutionLog()
	p := pipeline.MustNew(testutil.Logs(log, 3))

	handle := p.NewInvocation()
	assert.Equal(t, pipeline.NotStarted, handle.State())
	assert.False(t, handle.IsBroken())
	assert.False(t, handle.IsFinished())

	require.NoError(t, handle.Invoke())
	assert.Equal(t, []string{"1-1", "1-2", "1-3"}, log.Take())
	assert.False(t, handle.IsBroken())
	assert.True(t, handle.IsFinished())
	assert.Equal(t, pipeline.Finished, handle.State())
}

func TestInvoke_IndexBeforeAndDuring(t *testing.T) {
	t.Parallel()

	var seen []int
	record := pipeline.ValveFunc(func(ctx pipeline.Context) error {
		seen = append(seen, ctx.Index())
		return ctx.InvokeNext()
	})

	p := pipeline.MustNew([]pipeline.Valve{record, record})
	handle := p.NewInvocation()
	assert.Equal(t, 0, handle.Index())

	require.NoError(t, handle.Invoke())
	assert.Equal(t, []int{1, 2}, seen)
	// every step has unwound
	assert.Equal(t, 0, handle.Index())
}

func TestInvoke_AlreadyInvoked(t *testing.T) {
	t.Parallel()

	log := testutil.NewExecutionLog()
	var second error

	twice := pipeline.ValveFunc(func(ctx pipeline.Context) error {
		log.Add(ctx)
		require.NoError(t, ctx.InvokeNext())

		second = ctx.InvokeNext()
		return ctx.InvokeNext()
	})

	p := pipeline.MustNew([]pipeline.Valve{&testutil.LogValve{Log: log}, twice, &testutil.LogValve{Log: log}})

	err := p.NewInvocation().Invoke()
	require.ErrorIs(t, second, pipeline.ErrIllegalState)
	assert.Contains(t, second.Error(), "Valve[#3/3, level 1] has already been invoked: LogValve")

	require.Error(t, err)
	require.ErrorIs(t, err, pipeline.ErrIllegalState)

	var pe *pipeline.Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Index)
	assert.Equal(t, 1, pe.Level)
	assert.Equal(t, "ValveFunc", pe.Valve)

	assert.Equal(t, []string{"1-1", "1-2", "1-3"}, log.Take())
}

func TestInvoke_SubPipeline(t *testing.T) {
	t.Parallel()

	log := testutil.NewExecutionLog()
	p1, _, _ := threeLevels(log, &testutil.LogValve{Log: log})

	invokeAndAssert(t, p1, false)
	assert.Equal(t, []string{"1-1", "1-2", "2-1", "2-2", "3-1", "3-2", "3-3", "2-3", "1-3"}, log.Take())
}

func TestInvoke_AgainAfterFinish(t *testing.T) {
	t.Parallel()

	log := testutil.NewExecutionLog()
	p := pipeline.MustNew(testutil.Logs(log, 3))

	handle := p.NewInvocation()
	require.NoError(t, handle.Invoke())

	err := handle.Invoke()
	require.ErrorIs(t, err, pipeline.ErrIllegalState)
	assert.Contains(t, err.Error(), "cannot reinvoke a finished pipeline")
	assert.Equal(t, []string{"1-1", "1-2", "1-3"}, log.Take())

	// a renewed invocation runs again
	require.NoError(t, handle.Renew().Invoke())
	assert.Equal(t, []string{"1-1", "1-2", "1-3"}, log.Take())
}

func TestInvoke_BrokenPipeline(t *testing.T) {
	t.Parallel()

	log := testutil.NewExecutionLog()
	p := pipeline.MustNew([]pipeline.Valve{
		&testutil.LogValve{Log: log}, &testutil.LogAndBreakValve{Log: log}, &testutil.LogValve{Log: log},
	})

	handle := invokeAndAssert(t, p, true)
	assert.False(t, handle.IsFinished())
	assert.Equal(t, pipeline.Broken, handle.State())
	assert.Equal(t, []string{"1-1", "1-2"}, log.Take())

	err := handle.Invoke()
	require.ErrorIs(t, err, pipeline.ErrIllegalState)
	assert.Contains(t, err.Error(), "cannot reinvoke a broken pipeline")
	assert.Empty(t, log.Take())
}

func TestInvoke_StoppedWithoutBreak(t *testing.T) {
	t.Parallel()

	log := testutil.NewExecutionLog()
	p := pipeline.MustNew([]pipeline.Valve{
		&testutil.LogValve{Log: log}, &testutil.LogAndReturnValve{Log: log}, &testutil.LogValve{Log: log},
	})

	handle := invokeAndAssert(t, p, false)
	assert.False(t, handle.IsFinished())
	assert.Equal(t, pipeline.Stopped, handle.State())
	assert.Equal(t, []string{"1-1", "1-2"}, log.Take())

	// a stopped invocation may run again from the start
	require.NoError(t, handle.Invoke())
	assert.Equal(t, []string{"1-1", "1-2"}, log.Take())
}

func TestInvoke_Reentrant(t *testing.T) {
	t.Parallel()

	var handle *pipeline.Invocation
	var inner error

	p := pipeline.MustNew([]pipeline.Valve{pipeline.ValveFunc(func(ctx pipeline.Context) error {
		inner = handle.Invoke()
		return ctx.InvokeNext()
	})})

	handle = p.NewInvocation()
	require.NoError(t, handle.Invoke())
	require.ErrorIs(t, inner, pipeline.ErrIllegalState)
	assert.Contains(t, inner.Error(), "already running")
	assert.True(t, handle.IsFinished())
}

func TestInvoke_ValveErrorWrapped(t *testing.T) {
	t.Parallel()

	log := testutil.NewExecutionLog()
	p1, _, _ := threeLevels(log, &testutil.WrongValve{Log: log})

	err := p1.NewInvocation().Invoke()
	require.ErrorIs(t, err, testutil.ErrSomethingWrong)
	assert.Equal(t, "failed to invoke Valve[#2/3, level 3]: WrongValve: something wrong", err.Error())

	// wrapped only once, at the innermost level
	var pe *pipeline.Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Level)
	assert.Same(t, testutil.ErrSomethingWrong, pe.Err)

	assert.Equal(t, []string{"1-1", "1-2", "2-1", "2-2", "3-1", "3-2"}, log.Take())
}

func TestBreak_Simple(t *testing.T) {
	t.Parallel()

	log := testutil.NewExecutionLog()
	p := pipeline.MustNew([]pipeline.Valve{
		&testutil.LogValve{Log: log}, &testutil.LogAndBreakValve{Log: log}, &testutil.LogValve{Log: log},
	})

	invokeAndAssert(t, p, true)
	assert.Equal(t, []string{"1-1", "1-2"}, log.Take())

	invokeAndAssert(t, p, true)
	assert.Equal(t, []string{"1-1", "1-2"}, log.Take())
}

func TestBreak_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		levels   int
		broken   bool
		expected []string
	}{
		{2, true, []string{"1-1", "1-2", "2-1", "2-2", "3-1", "3-2"}},
		{1, false, []string{"1-1", "1-2", "2-1", "2-2", "3-1", "3-2", "1-3"}},
		{0, false, []string{"1-1", "1-2", "2-1", "2-2", "3-1", "3-2", "2-3", "1-3"}},
	}

	for _, tt := range tests {
		log := testutil.NewExecutionLog()
		p1, _, _ := threeLevels(log, &testutil.LogAndBreakValve{Log: log, Levels: tt.levels})

		invokeAndAssert(t, p1, tt.broken)
		assert.Equal(t, tt.expected, log.Take(), "levels=%d", tt.levels)
	}
}

func TestBreak_MarksAncestors(t *testing.T) {
	t.Parallel()

	var contexts []pipeline.Context
	capture := func(next func(ctx pipeline.Context) error) pipeline.Valve {
		return pipeline.ValveFunc(func(ctx pipeline.Context) error {
			contexts = append(contexts, ctx)
			return next(ctx)
		})
	}

	inner := pipeline.MustNew([]pipeline.Valve{capture(func(ctx pipeline.Context) error {
		return ctx.BreakPipeline(1)
	})})
	middle := pipeline.MustNew([]pipeline.Valve{capture(func(ctx pipeline.Context) error {
		h, err := inner.NewNestedInvocation(ctx)
		if err != nil {
			return err
		}
		if err := h.Invoke(); err != nil {
			return err
		}
		return ctx.InvokeNext()
	})})
	outer := pipeline.MustNew([]pipeline.Valve{capture(func(ctx pipeline.Context) error {
		h, err := middle.NewNestedInvocation(ctx)
		if err != nil {
			return err
		}
		if err := h.Invoke(); err != nil {
			return err
		}
		return ctx.InvokeNext()
	})})

	handle := outer.NewInvocation()
	require.NoError(t, handle.Invoke())

	require.Len(t, contexts, 3)
	assert.False(t, contexts[0].IsBroken())
	assert.True(t, contexts[1].IsBroken())
	assert.True(t, contexts[2].IsBroken())
	assert.Equal(t, []int{1, 2, 3}, []int{contexts[0].Level(), contexts[1].Level(), contexts[2].Level()})
	assert.True(t, handle.IsFinished())
}

func TestBreak_LevelsOutOfBounds(t *testing.T) {
	t.Parallel()

	for _, levels := range []int{3, -1} {
		log := testutil.NewExecutionLog()
		p1, _, _ := threeLevels(log, &testutil.LogAndBreakValve{Log: log, Levels: levels})

		err := p1.NewInvocation().Invoke()
		require.ErrorIs(t, err, pipeline.ErrInvalidArgument)
		assert.Contains(t, err.Error(), "failed to invoke Valve[#2/3, level 3]")
		assert.Contains(t, err.Error(), "should be in range of [0, 3)")
	}
}

func TestBreak_LabelEmpty(t *testing.T) {
	t.Parallel()

	log := testutil.NewExecutionLog()
	p := pipeline.MustNew([]pipeline.Valve{&testutil.LogAndBreakValve{Log: log, Label: "  ", UseLabel: true}})

	err := p.NewInvocation().Invoke()
	require.ErrorIs(t, err, pipeline.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "no label")
}

func TestBreak_LabelNotFound(t *testing.T) {
	t.Parallel()

	log := testutil.NewExecutionLog()
	p1, _, _ := threeLevels(log, &testutil.LogAndBreakValve{Log: log, Label: " mylabel ", UseLabel: true}, "mylabel2")

	err := p1.NewInvocation().Invoke()
	require.ErrorIs(t, err, pipeline.ErrLabelNotDefined)

	// pipeline-specific errors are never wrapped
	var lnd *pipeline.LabelNotDefinedError
	require.True(t, errors.As(err, &lnd))
	assert.Same(t, lnd, err)
	assert.Equal(t, `could not find pipeline or sub-pipeline with label "mylabel" in the pipeline invocation stack`, err.Error())
}

func TestBreak_Label(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		labels   []string
		broken   bool
		expected []string
	}{
		{"outermost", []string{"mylabel"}, true, []string{"1-1", "1-2", "2-1", "2-2", "3-1", "3-2"}},
		{"middle", []string{"mylabel", "mylabel"}, false, []string{"1-1", "1-2", "2-1", "2-2", "3-1", "3-2", "1-3"}},
		{"innermost", []string{"mylabel", "mylabel", "mylabel"}, false,
			[]string{"1-1", "1-2", "2-1", "2-2", "3-1", "3-2", "2-3", "1-3"}},
		{"top", nil, true, []string{"1-1", "1-2", "2-1", "2-2", "3-1", "3-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := testutil.NewExecutionLog()
			label := " mylabel "
			if tt.labels == nil {
				label = " " + pipeline.TopLabel + " "
			}
			p1, _, _ := threeLevels(log, &testutil.LogAndBreakValve{Log: log, Label: label, UseLabel: true}, tt.labels...)

			invokeAndAssert(t, p1, tt.broken)
			assert.Equal(t, tt.expected, log.Take())
		})
	}
}

func TestFindLabel(t *testing.T) {
	t.Parallel()

	type found struct {
		levels int
		err    error
	}
	results := map[string]found{}

	probe := pipeline.ValveFunc(func(ctx pipeline.Context) error {
		for _, label := range []string{"inner", "outer", pipeline.TopLabel, "missing"} {
			levels, err := ctx.FindLabel(label)
			results[label] = found{levels, err}
		}
		return ctx.InvokeNext()
	})

	inner := pipeline.MustNew([]pipeline.Valve{probe}, pipeline.WithLabel("inner"))
	outer := pipeline.MustNew([]pipeline.Valve{pipeline.ValveFunc(func(ctx pipeline.Context) error {
		h, err := inner.NewNestedInvocation(ctx)
		if err != nil {
			return err
		}
		if err := h.Invoke(); err != nil {
			return err
		}
		return ctx.InvokeNext()
	})}, pipeline.WithLabel("outer"))

	require.NoError(t, outer.NewInvocation().Invoke())

	assert.Equal(t, found{0, nil}, results["inner"])
	assert.Equal(t, found{1, nil}, results["outer"])
	assert.Equal(t, found{1, nil}, results[pipeline.TopLabel])
	assert.ErrorIs(t, results["missing"].err, pipeline.ErrLabelNotDefined)
}

func TestBreakToOuterLabel_SkipsRest(t *testing.T) {
	t.Parallel()

	var ran []string
	step := func(name string) pipeline.Valve {
		return pipeline.ValveFunc(func(ctx pipeline.Context) error {
			ran = append(ran, name)
			return ctx.InvokeNext()
		})
	}

	sub := pipeline.MustNew([]pipeline.Valve{
		step("P"),
		pipeline.ValveFunc(func(ctx pipeline.Context) error {
			ran = append(ran, "Q")
			return ctx.BreakToLabel("outerLabel")
		}),
	})

	var outerCtx pipeline.Context
	runsSub := pipeline.ValveFunc(func(ctx pipeline.Context) error {
		outerCtx = ctx
		h, err := sub.NewNestedInvocation(ctx)
		if err != nil {
			return err
		}
		if err := h.Invoke(); err != nil {
			return err
		}
		assert.True(t, ctx.IsBroken())
		return ctx.InvokeNext()
	})

	outer := pipeline.MustNew([]pipeline.Valve{step("X"), runsSub, step("Y")}, pipeline.WithLabel("outerLabel"))

	handle := invokeAndAssert(t, outer, true)
	assert.Same(t, handle, outerCtx)
	assert.False(t, handle.IsFinished())
	assert.Equal(t, []string{"X", "P", "Q"}, ran)
}

func TestEndToEnd_BreakInsteadOfNext(t *testing.T) {
	t.Parallel()

	var ran []string
	a := pipeline.ValveFunc(func(ctx pipeline.Context) error { ran = append(ran, "A"); return ctx.InvokeNext() })
	b := pipeline.ValveFunc(func(ctx pipeline.Context) error { ran = append(ran, "B"); return ctx.BreakPipeline(0) })
	c := pipeline.ValveFunc(func(ctx pipeline.Context) error { ran = append(ran, "C"); return ctx.InvokeNext() })

	handle := invokeAndAssert(t, pipeline.MustNew([]pipeline.Valve{a, b, c}), true)
	assert.False(t, handle.IsFinished())
	assert.Equal(t, []string{"A", "B"}, ran)
}
