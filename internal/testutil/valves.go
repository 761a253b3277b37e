package testutil

import (
	"errors"
	"fmt"

	"github.com/ib-77/valves/pkg/pipeline"
)

// LogValve records itself and continues.
type LogValve struct {
	Log *ExecutionLog
}

func (v *LogValve) Invoke(ctx pipeline.Context) error {
	v.Log.Add(ctx)
	return ctx.InvokeNext()
}

// LogAndReturnValve records itself and stops without breaking.
type LogAndReturnValve struct {
	Log *ExecutionLog
}

func (v *LogAndReturnValve) Invoke(ctx pipeline.Context) error {
	v.Log.Add(ctx)
	return nil
}

// LogAndBreakValve records itself and breaks levels, or to Label when set.
type LogAndBreakValve struct {
	Log      *ExecutionLog
	Levels   int
	Label    string
	UseLabel bool
}

func (v *LogAndBreakValve) Invoke(ctx pipeline.Context) error {
	v.Log.Add(ctx)
	if v.UseLabel {
		return ctx.BreakToLabel(v.Label)
	}
	return ctx.BreakPipeline(v.Levels)
}

func (v *LogAndBreakValve) String() string {
	if v.UseLabel {
		return fmt.Sprintf("LogAndBreakValve[%q]", v.Label)
	}
	return fmt.Sprintf("LogAndBreakValve[%d]", v.Levels)
}

// LogAndInvokeSubValve records itself, runs Sub nested, then continues.
type LogAndInvokeSubValve struct {
	Log *ExecutionLog
	Sub *pipeline.Pipeline
}

func (v *LogAndInvokeSubValve) Invoke(ctx pipeline.Context) error {
	v.Log.Add(ctx)

	handle, err := v.Sub.NewNestedInvocation(ctx)
	if err != nil {
		return err
	}
	if err := handle.Invoke(); err != nil {
		return err
	}

	return ctx.InvokeNext()
}

// ErrSomethingWrong is returned by WrongValve.
var ErrSomethingWrong = errors.New("something wrong")

// WrongValve records itself and fails.
type WrongValve struct {
	Log *ExecutionLog
}

func (v *WrongValve) Invoke(ctx pipeline.Context) error {
	v.Log.Add(ctx)
	return ErrSomethingWrong
}

// Logs builds n LogValves sharing log.
func Logs(log *ExecutionLog, n int) []pipeline.Valve {
	valves := make([]pipeline.Valve, n)
	for i := range valves {
		valves[i] = &LogValve{Log: log}
	}
	return valves
}
