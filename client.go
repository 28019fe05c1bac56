package redistrace

import (
	"context"
)

// Client is the dispatch surface of a store client. Every command goes
// through ExecuteCommand; args[0] is the command name.
type Client interface {
	ExecuteCommand(ctx context.Context, args ...interface{}) (interface{}, error)
	Pipeline(transaction bool, shardHint string) Pipeline
}

// Pipeline queues commands and sends them as one unit on Execute.
type Pipeline interface {
	Queue(args ...interface{})
	// CommandStack returns the commands queued so far, in order. It must not
	// have side effects.
	CommandStack() []Command
	Execute(ctx context.Context, raiseOnError bool) ([]interface{}, error)
}

// configSource yields the Config for one call, or nil to skip tracing.
type configSource func() *Config

func staticConfig(cfg *Config) configSource {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return func() *Config { return cfg }
}

var (
	_ Client   = (*TracedClient)(nil)
	_ Pipeline = (*TracedPipeline)(nil)
)

// TracedClient is a Client that emits one span per command.
type TracedClient struct {
	next   Client
	config configSource
	// explicit marks a decorator built with its own Config.
	explicit bool
}

// NewTracedClient traces next with cfg, independent of InitTracing.
// A nil cfg means DefaultConfig.
func NewTracedClient(next Client, cfg *Config) *TracedClient {
	return &TracedClient{next: unwrapClient(next), config: staticConfig(cfg), explicit: true}
}

// TraceClient enables tracing for one client using the process-wide Config,
// read on every call. Tracing an already traced client wraps the underlying
// client once rather than stacking decorators. A client from
// NewTracedClient keeps its own Config and is returned as is.
func TraceClient(next Client) *TracedClient {
	if tc, ok := next.(*TracedClient); ok {
		if tc.explicit {
			return tc
		}
		currentOrDefault().logger.Debug("client already traced, replacing decorator")
	}
	return &TracedClient{next: unwrapClient(next), config: currentOrDefault}
}

// Wrap returns a client that is traced whenever the process-wide Config has
// class-wide tracing enabled. The check happens on every call, so clients
// wrapped before InitTracing are traced once it runs. A client that is
// already traced is returned as is.
func Wrap(next Client) Client {
	if tc, ok := next.(*TracedClient); ok {
		return tc
	}
	return &TracedClient{next: next, config: classWideConfig}
}

func unwrapClient(c Client) Client {
	if tc, ok := c.(*TracedClient); ok {
		return tc.next
	}
	return c
}

// Unwrap returns the client being traced.
func (c *TracedClient) Unwrap() Client {
	return c.next
}

// ExecuteCommand runs the command inside a span named after args[0]. The
// reply and error of the wrapped client are returned unchanged.
func (c *TracedClient) ExecuteCommand(ctx context.Context, args ...interface{}) (reply interface{}, err error) {
	cfg := c.config()
	if cfg == nil {
		return c.next.ExecuteCommand(ctx, args...)
	}

	spanCtx, span := cfg.startSpan(ctx, Command(args).Name(), Statement(args))
	defer func() { finishSpan(span, err, recover()) }()

	return c.next.ExecuteCommand(spanCtx, args...)
}

// Pipeline returns a traced pipeline from the wrapped client.
func (c *TracedClient) Pipeline(transaction bool, shardHint string) Pipeline {
	return &TracedPipeline{
		next:     c.next.Pipeline(transaction, shardHint),
		config:   c.config,
		explicit: c.explicit,
	}
}
