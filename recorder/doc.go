// Package recorder is an in-process span recorder for redistrace.
//
// It records the spans produced by traced Redis clients without shipping them
// anywhere, which makes it the tracer of choice for tests, local debugging and
// for feeding per-command metrics.
//
// Core Components:
//   - Tracer: Creates spans and hands finished ones to collectors and handlers.
//   - ActiveSpan: Thread-safe handle for a span that is still running.
//   - Span: The record of a finished span, with Redis accessors
//     (Command, Statement, Commands, Err).
//   - Collector: Bounded in-memory buffer, queried with Filters.
//   - Metrics: Prometheus series per command, fed from finished spans.
//
// Basic Usage:
//
//	rec := recorder.New()
//	defer rec.Close()
//
//	collector := recorder.NewCollector("redis", 1000)
//	rec.AddCollector(collector)
//
//	cfg, _ := redistrace.NewConfig(redistrace.WithTracer(rec))
//	client := redistrace.NewTracedClient(store, cfg)
//	_, _ = client.ExecuteCommand(ctx, "GET", "foo")
//
//	failed := collector.Select(recorder.ByCommand("GET"), recorder.Failures())
//
// Resource Cleanup:
//
// Call Tracer.Close() to stop ID generation and detach collectors. Collectors
// keep the spans they already buffered.
package recorder
