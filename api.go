// Package redistrace wraps Redis commands and pipelines in tracing spans.
//
// Every command a traced client issues produces one span named
// "<prefix>/<COMMAND>", and every executed pipeline or transaction produces
// one span named "<prefix>/MULTI" whose statement lists the queued commands.
// Tracing is transparent: return values and errors are passed back unchanged.
//
// Core Components:
//   - Tracer, Span: The pluggable tracing collaborator.
//   - Config: Tracer, span-name prefix, start-span callback and logger.
//   - TracedClient: Decorator for the Client dispatch interface.
//   - TracedPipeline: Decorator for the Pipeline batch interface.
//   - Hook: A go-redis hook applying the same contract to go-redis clients.
//
// Basic Usage:
//
//	if err := redistrace.InitTracing(redistrace.WithTracer(tracer)); err != nil {
//		return err
//	}
//
//	client := redistrace.Wrap(redistrace.FromRedis(rdb))
//	reply, err := client.ExecuteCommand(ctx, "GET", "foo") // span "Redis/GET"
//
//	pipe := client.Pipeline(true, "")
//	pipe.Queue("SET", "a", 1)
//	pipe.Queue("SET", "b", 2)
//	_, err = pipe.Execute(ctx, true) // span "Redis/MULTI", statement "SET a 1;SET b 2"
//
// Global vs Scoped:
//
// InitTracing stores a process-wide Config. With WithTraceAllClients(true),
// the default, every client built with Wrap or NewClient is traced, including
// ones built before InitTracing ran. Otherwise only clients passed to
// TraceClient are traced. NewTracedClient takes an explicit Config and never
// consults process-wide state.
//
// Ambient Tracer:
//
// When no tracer is configured, opentracing.GlobalTracer() is looked up each
// time a span starts, so the global tracer may be registered after
// InitTracing.
package redistrace

import (
	"context"
)

// Tracer creates spans.
type Tracer interface {
	// StartSpan starts a span named operationName. The returned context
	// carries the span so that nested work can parent to it.
	StartSpan(ctx context.Context, operationName string) (context.Context, Span)
}

// Span is a single unit of traced work.
type Span interface {
	SetTag(key string, value interface{})
	Finish()
}

// StartSpanCallback decorates a span after the base tags are set and before
// the command runs.
type StartSpanCallback func(span Span)

// Span tag keys.
const (
	TagComponent   = "component"
	TagDBType      = "db.type"
	TagDBStatement = "db.statement"
	TagSpanKind    = "span.kind"
	TagError       = "error"
	TagErrorObject = "error.object"
)

// Fixed tag values and names.
const (
	ComponentName  = "redis-client"
	DBType         = "redis"
	SpanKindClient = "client"
	DefaultPrefix  = "Redis"
	MultiOperation = "MULTI"
)
