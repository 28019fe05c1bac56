// Package oteladapter implements a redistrace tracing adapter for the OTEL Go
// SDK.
//
// # Usage
//
// Callers use the [Adapt] API in this package to wrap a concrete OTEL SDK
// TracerProvider:
//
//	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	err := redistrace.InitTracing(redistrace.WithTracer(oteladapter.Adapt(provider)))
//
// # OTEL Attributes
//
// Span tags become OTEL attributes. Supported value types (including their
// slice-of variants) are bool, int, int64, float64 and string; a
// [fmt.Stringer] is recorded through String and any other value through
// fmt.Sprintf("%#v").
//
// The "error" and "error.object" tags are not recorded as attributes. They set
// the span status to Error and, when the value is an error, record it as an
// exception event.
package oteladapter
