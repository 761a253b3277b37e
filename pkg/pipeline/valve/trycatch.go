package valve

import (
	"strings"

	"github.com/ib-77/valves/pkg/pipeline"
)

const DefaultErrorName = "exception"

// TryCatchFinally runs Try; an error from it is handed to Catch under
// ErrorName; Finally runs in any case. Without a Catch the error is returned
// after Finally. A break inside Try still runs Finally.
type TryCatchFinally struct {
	Try       *pipeline.Pipeline
	Catch     *pipeline.Pipeline
	Finally   *pipeline.Pipeline
	ErrorName string
}

func (v *TryCatchFinally) Invoke(ctx pipeline.Context) error {
	err := v.try(ctx)

	if v.Finally != nil {
		if _, ferr := runNested(ctx, v.Finally); ferr != nil {
			err = pipeline.JoinErrors(err, ferr)
		}
	}

	if err != nil {
		return err
	}
	return ctx.InvokeNext()
}

func (v *TryCatchFinally) try(ctx pipeline.Context) error {
	if v.Try == nil {
		return nil
	}

	_, err := runNested(ctx, v.Try)
	if err == nil || v.Catch == nil {
		return err
	}

	handle, herr := v.Catch.NewNestedInvocation(ctx)
	if herr != nil {
		return herr
	}
	handle.SetAttribute(v.errorName(), err)
	return handle.Invoke()
}

func (v *TryCatchFinally) errorName() string {
	if name := strings.TrimSpace(v.ErrorName); name != "" {
		return name
	}
	return DefaultErrorName
}

func (v *TryCatchFinally) String() string {
	var parts []string
	if v.Try != nil {
		parts = append(parts, "try")
	}
	if v.Catch != nil {
		parts = append(parts, "catch")
	}
	if v.Finally != nil {
		parts = append(parts, "finally")
	}
	return "TryCatchFinally{" + strings.Join(parts, ", ") + "}"
}
