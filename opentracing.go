package redistrace

import (
	"context"

	"github.com/opentracing/opentracing-go"
)

// OpenTracing adapts an opentracing.Tracer. Spans are started as children of
// any opentracing span found in the context.
func OpenTracing(t opentracing.Tracer) Tracer {
	return openTracer{tracer: t}
}

// ambientTracer resolves opentracing.GlobalTracer() at call time.
func ambientTracer() Tracer {
	return openTracer{tracer: opentracing.GlobalTracer()}
}

type openTracer struct {
	tracer opentracing.Tracer
}

func (o openTracer) StartSpan(ctx context.Context, operationName string) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, o.tracer, operationName)
	return ctx, OpenTracingSpan{Span: span}
}

// OpenTracingSpan is the Span handed out by OpenTracing tracers. Start-span
// callbacks may type-assert to it to reach the underlying span.
type OpenTracingSpan struct {
	Span opentracing.Span
}

// SetTag implements Span.
func (s OpenTracingSpan) SetTag(key string, value interface{}) {
	s.Span.SetTag(key, value)
}

// Finish implements Span.
func (s OpenTracingSpan) Finish() {
	s.Span.Finish()
}
