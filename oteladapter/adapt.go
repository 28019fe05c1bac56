package oteladapter

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoobzio/redistrace"
)

// ScopeName is the instrumentation scope used for the OTEL tracer.
const ScopeName = "github.com/zoobzio/redistrace"

// Adapt wraps a concrete OTEL TracerProvider.
func Adapt(provider trace.TracerProvider) redistrace.Tracer {
	return &tracer{otel: provider.Tracer(ScopeName)}
}

type tracer struct {
	otel trace.Tracer
}

func (t *tracer) StartSpan(ctx context.Context, operationName string) (context.Context, redistrace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := t.otel.Start(ctx, operationName, trace.WithSpanKind(trace.SpanKindClient))
	return ctx, &Span{otel: span}
}

// Span adapts an OTEL span to redistrace.Span.
type Span struct {
	otel trace.Span
}

// OTEL returns the underlying OTEL span.
func (s *Span) OTEL() trace.Span {
	return s.otel
}

// SetTag implements redistrace.Span.
func (s *Span) SetTag(key string, value interface{}) {
	switch key {
	case redistrace.TagError:
		if toOTELString(value) == "true" {
			s.otel.SetStatus(codes.Error, "")
		}
		return
	case redistrace.TagErrorObject:
		if err, ok := value.(error); ok {
			s.otel.RecordError(err)
			s.otel.SetStatus(codes.Error, err.Error())
			return
		}
	}
	s.otel.SetAttributes(toOTELKeyValue(key, value))
}

// Finish implements redistrace.Span.
func (s *Span) Finish() {
	s.otel.End()
}
