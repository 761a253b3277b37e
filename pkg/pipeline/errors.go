package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalState reports a protocol violation at runtime, e.g. a valve
	// slot invoked twice or a broken invocation invoked again.
	ErrIllegalState = errors.New("illegal state")
	// ErrInvalidArgument reports bad construction input or break levels.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrLabelNotDefined is matched by *LabelNotDefinedError.
	ErrLabelNotDefined = errors.New("label not defined")
)

// Failure is implemented by pipeline-specific errors. They cross valve
// boundaries without being wrapped again.
type Failure interface {
	error
	PipelineError()
}

// IsPipelineError reports whether err carries a pipeline-specific failure.
func IsPipelineError(err error) bool {
	var f Failure
	return errors.As(err, &f)
}

// Error wraps a failure raised by a valve with its position.
type Error struct {
	Index int
	Total int
	Level int
	Valve string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to invoke %s: %s: %v", describePosition(e.Index, e.Total, e.Level), e.Valve, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) PipelineError() {}

// LabelNotDefinedError is returned when no invocation in the stack carries the label.
type LabelNotDefinedError struct {
	Label string
}

func (e *LabelNotDefinedError) Error() string {
	return fmt.Sprintf("could not find pipeline or sub-pipeline with label %q in the pipeline invocation stack", e.Label)
}

func (e *LabelNotDefinedError) Is(target error) bool {
	return target == ErrLabelNotDefined
}

func (e *LabelNotDefinedError) PipelineError() {}

func illegalState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalState, fmt.Sprintf(format, args...))
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func describePosition(index, total, level int) string {
	return fmt.Sprintf("Valve[#%d/%d, level %d]", index, total, level)
}
