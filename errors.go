package redistrace

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStartSpanCallback is returned when a nil start-span callback is supplied.
	ErrInvalidStartSpanCallback = errors.New("start span callback must be a non-nil function")

	// ErrNilTracer is returned when WithTracer is given a nil tracer.
	ErrNilTracer = errors.New("tracer must not be nil")

	// ErrNilLogger is returned when WithLogger is given a nil logger.
	ErrNilLogger = errors.New("logger must not be nil")
)

// ConfigError reports an option that could not be applied.
type ConfigError struct {
	Option string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("redistrace: invalid %s: %v", e.Option, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// panicError stands in for a panic value when a span has to be tagged
// before the panic resumes.
type panicError struct {
	value interface{}
}

func (e panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}
