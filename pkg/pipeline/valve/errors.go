package valve

import (
	"fmt"

	"github.com/ib-77/valves/pkg/pipeline"
)

// TooManyLoopsError stops a loop that exceeded its maximum count.
type TooManyLoopsError struct {
	Max int
}

func (e *TooManyLoopsError) Error() string {
	return fmt.Sprintf("too many loops: exceeds the maximum count: %d", e.Max)
}

func (e *TooManyLoopsError) PipelineError() {}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", pipeline.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func notInitialized(v pipeline.Valve) error {
	return fmt.Errorf("%w: %s has not been initialized yet", pipeline.ErrIllegalState, pipeline.ValveName(v))
}

func describeCondition(c pipeline.Condition) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	if pipeline.IsNil(c) {
		return "<nil>"
	}
	return fmt.Sprintf("%T", c)
}

var _ pipeline.Failure = (*TooManyLoopsError)(nil)
