// Package tracing reports valve executions as OpenTelemetry spans. Nested
// pipelines produce nested spans when they share one Tracer.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ib-77/valves/pkg/pipeline"
)

const instrumentationName = "github.com/ib-77/valves/pkg/pipeline"

// Tracer keeps the stack of open valve spans. Like an invocation it follows a
// single call chain and is not safe for concurrent use.
type Tracer struct {
	root   context.Context
	tracer trace.Tracer
	spans  []trace.Span
}

// New traces with tp, parenting the outermost spans on ctx.
func New(ctx context.Context, tp trace.TracerProvider) *Tracer {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Tracer{
		root:   ctx,
		tracer: tp.Tracer(instrumentationName),
	}
}

// Hooks returns the hooks to install with pipeline.WithHooks.
func (t *Tracer) Hooks() pipeline.Hooks {
	return pipeline.Hooks{
		OnEnter:     t.enter,
		OnExit:      t.exit,
		OnInterrupt: t.interrupt,
		OnEnd:       t.end,
	}
}

func (t *Tracer) enter(ev pipeline.Event) {
	parent := t.root
	if top := t.top(); top != nil {
		parent = trace.ContextWithSpan(parent, top)
	}

	name := pipeline.ValveName(ev.Valve)
	_, span := t.tracer.Start(parent, "valve "+name, trace.WithAttributes(
		attribute.String("pipeline.invocation", ev.InvocationID.String()),
		attribute.String("pipeline.label", ev.Label),
		attribute.Int("pipeline.level", ev.Level),
		attribute.Int("pipeline.index", ev.Index),
		attribute.Int("pipeline.total", ev.Total),
		attribute.String("pipeline.valve", name),
	))
	t.spans = append(t.spans, span)
}

func (t *Tracer) exit(_ pipeline.Event, err error) {
	span := t.top()
	if span == nil {
		return
	}
	t.spans = t.spans[:len(t.spans)-1]

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// interrupt fires after the valve span ended; it is noted on the enclosing one.
func (t *Tracer) interrupt(ev pipeline.Event) {
	if span := t.top(); span != nil {
		span.AddEvent("pipeline interrupted", trace.WithAttributes(
			attribute.Int("pipeline.level", ev.Level),
			attribute.Int("pipeline.index", ev.Index),
		))
	}
}

func (t *Tracer) end(ev pipeline.Event) {
	if span := t.top(); span != nil {
		span.AddEvent("pipeline reaches its end", trace.WithAttributes(
			attribute.Int("pipeline.level", ev.Level),
		))
	}
}

func (t *Tracer) top() trace.Span {
	if len(t.spans) == 0 {
		return nil
	}
	return t.spans[len(t.spans)-1]
}
