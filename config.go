package redistrace

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Config controls how commands and pipelines are traced.
// A Config is immutable once built and safe for concurrent use.
type Config struct {
	tracer          Tracer
	startSpanCb     StartSpanCallback
	logger          *zap.Logger
	prefix          string
	traceAllClients bool
}

// Option configures a Config.
type Option func(*Config) error

// DefaultConfig returns the configuration used when nothing else is set:
// the ambient tracer, the "Redis" prefix and class-wide tracing.
func DefaultConfig() *Config {
	return &Config{
		prefix:          DefaultPrefix,
		traceAllClients: true,
		logger:          zap.NewNop(),
	}
}

// NewConfig builds a Config from opts without touching process-wide state.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithTracer sets the tracer. A tracer exposing Unwrap() Tracer is replaced
// by the tracer it wraps.
func WithTracer(t Tracer) Option {
	return func(c *Config) error {
		if t == nil {
			return &ConfigError{Option: "tracer", Err: ErrNilTracer}
		}
		if w, ok := t.(interface{ Unwrap() Tracer }); ok {
			if inner := w.Unwrap(); inner != nil {
				t = inner
			}
		}
		c.tracer = t
		return nil
	}
}

// WithTraceAllClients toggles class-wide tracing.
func WithTraceAllClients(enabled bool) Option {
	return func(c *Config) error {
		c.traceAllClients = enabled
		return nil
	}
}

// WithPrefix sets the span-name prefix. An empty prefix yields bare command names.
func WithPrefix(prefix string) Option {
	return func(c *Config) error {
		c.prefix = prefix
		return nil
	}
}

// WithoutPrefix is shorthand for WithPrefix("").
func WithoutPrefix() Option {
	return WithPrefix("")
}

// WithStartSpanCallback sets the span decoration callback.
func WithStartSpanCallback(cb StartSpanCallback) Option {
	return func(c *Config) error {
		if cb == nil {
			return &ConfigError{Option: "start span callback", Err: ErrInvalidStartSpanCallback}
		}
		c.startSpanCb = cb
		return nil
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return &ConfigError{Option: "logger", Err: ErrNilLogger}
		}
		c.logger = logger
		return nil
	}
}

// Tracer returns the configured tracer, or the ambient one when none is set.
// The ambient tracer is looked up on every call.
func (c *Config) Tracer() Tracer {
	if c.tracer != nil {
		return c.tracer
	}
	return ambientTracer()
}

// HasTracer reports whether an explicit tracer was configured.
func (c *Config) HasTracer() bool {
	return c.tracer != nil
}

// TraceAllClients reports whether class-wide tracing is enabled.
func (c *Config) TraceAllClients() bool {
	return c.traceAllClients
}

// Prefix returns the span-name prefix.
func (c *Config) Prefix() string {
	return c.prefix
}

// StartSpanCallback returns the decoration callback, if any.
func (c *Config) StartSpanCallback() StartSpanCallback {
	return c.startSpanCb
}

// Logger returns the diagnostics logger.
func (c *Config) Logger() *zap.Logger {
	return c.logger
}

// OperationName returns the span name for command.
func (c *Config) OperationName(command string) string {
	if c.prefix == "" {
		return command
	}
	return c.prefix + "/" + command
}

// startSpan opens a span for one command or batch and applies the base tags
// and the decoration callback.
func (c *Config) startSpan(ctx context.Context, command, statement string) (context.Context, Span) {
	ctx, span := c.Tracer().StartSpan(ctx, c.OperationName(command))
	span.SetTag(TagComponent, ComponentName)
	span.SetTag(TagDBType, DBType)
	span.SetTag(TagDBStatement, statement)
	span.SetTag(TagSpanKind, SpanKindClient)
	c.decorate(span)
	return ctx, span
}

// decorate runs the start-span callback. A panicking callback is logged and
// does not affect the command.
func (c *Config) decorate(span Span) {
	if c.startSpanCb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("start span callback panicked",
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	c.startSpanCb(span)
}

// finishSpan tags the span with err or the recovered panic value, finishes
// it, and resumes the panic if there was one.
func finishSpan(span Span, err error, recovered interface{}) {
	if recovered != nil {
		tagError(span, panicError{value: recovered})
		span.Finish()
		panic(recovered)
	}
	if err != nil {
		tagError(span, err)
	}
	span.Finish()
}

func tagError(span Span, err error) {
	span.SetTag(TagError, "true")
	span.SetTag(TagErrorObject, err)
}
