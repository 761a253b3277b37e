package condition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/ib-77/valves/pkg/pipeline"
)

// Expression is a boolean expression over pipeline attributes, e.g.
// "loopCount <= 2 && mode == 'fast'". Unknown names evaluate to nil; "level"
// and "index" resolve to the invocation state unless shadowed by attributes.
type Expression struct {
	source string
	expr   *govaluate.EvaluableExpression
	logger *slog.Logger
}

type ExpressionOption func(e *Expression)

func WithLogger(logger *slog.Logger) ExpressionOption {
	return func(e *Expression) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExpression compiles source; syntax errors are reported here rather than
// at evaluation time.
func NewExpression(source string, opts ...ExpressionOption) (*Expression, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("%w: empty expression", pipeline.ErrInvalidArgument)
	}

	expr, err := govaluate.NewEvaluableExpression(source)
	if err != nil {
		return nil, err
	}

	e := &Expression{source: source, expr: expr, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// MustExpression is like NewExpression but panics on a bad expression.
func MustExpression(source string, opts ...ExpressionOption) *Expression {
	e, err := NewExpression(source, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// IsSatisfied evaluates the expression. Evaluation errors and non-boolean
// results are logged and count as not satisfied.
func (e *Expression) IsSatisfied(states pipeline.States) bool {
	result, err := e.expr.Eval(parameters{states: states})
	if err != nil {
		e.logger.LogAttrs(context.Background(), slog.LevelWarn, "failed to evaluate condition",
			slog.String("expression", e.source), slog.Any("error", err))
		return false
	}

	satisfied, ok := result.(bool)
	if !ok {
		e.logger.LogAttrs(context.Background(), slog.LevelWarn, "condition is not a boolean",
			slog.String("expression", e.source), slog.Any("result", result))
		return false
	}
	return satisfied
}

func (e *Expression) String() string {
	return e.source
}

// parameters resolves expression variables through the pipeline states.
type parameters struct {
	states pipeline.States
}

func (p parameters) Get(name string) (interface{}, error) {
	if v, ok := p.states.Attribute(name); ok {
		return v, nil
	}

	switch name {
	case "level":
		return p.states.Level(), nil
	case "index":
		return p.states.Index(), nil
	}
	return nil, nil
}
