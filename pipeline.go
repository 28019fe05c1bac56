package redistrace

import (
	"context"
)

// TracedPipeline is a Pipeline that emits one MULTI span per Execute.
type TracedPipeline struct {
	next     Pipeline
	config   configSource
	explicit bool
}

// NewTracedPipeline traces next with cfg. A nil cfg means DefaultConfig.
func NewTracedPipeline(next Pipeline, cfg *Config) *TracedPipeline {
	return &TracedPipeline{next: unwrapPipeline(next), config: staticConfig(cfg), explicit: true}
}

// TracePipeline enables tracing for one pipeline using the process-wide
// Config. An already traced pipeline is not traced twice, and one traced
// with its own Config keeps it.
func TracePipeline(next Pipeline) *TracedPipeline {
	if tp, ok := next.(*TracedPipeline); ok && tp.explicit {
		return tp
	}
	return &TracedPipeline{next: unwrapPipeline(next), config: currentOrDefault}
}

func unwrapPipeline(p Pipeline) Pipeline {
	if tp, ok := p.(*TracedPipeline); ok {
		return tp.next
	}
	return p
}

// Unwrap returns the pipeline being traced.
func (p *TracedPipeline) Unwrap() Pipeline {
	return p.next
}

// Queue adds a command to the wrapped pipeline.
func (p *TracedPipeline) Queue(args ...interface{}) {
	p.next.Queue(args...)
}

// CommandStack returns the wrapped pipeline's queued commands.
func (p *TracedPipeline) CommandStack() []Command {
	return p.next.CommandStack()
}

// Execute runs the queued commands inside one span. The statement is taken
// from the command stack before the batch runs.
func (p *TracedPipeline) Execute(ctx context.Context, raiseOnError bool) (replies []interface{}, err error) {
	cfg := p.config()
	if cfg == nil {
		return p.next.Execute(ctx, raiseOnError)
	}

	spanCtx, span := cfg.startSpan(ctx, MultiOperation, BatchStatement(p.next.CommandStack()))
	defer func() { finishSpan(span, err, recover()) }()

	return p.next.Execute(spanCtx, raiseOnError)
}
