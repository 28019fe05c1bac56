package recorder

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/clockz"

	"github.com/zoobzio/redistrace"
)

var _ redistrace.Tracer = (*Tracer)(nil)

// SpanHandler is called synchronously with every finished span.
type SpanHandler func(span Span)

type handlerEntry struct {
	handler SpanHandler
	id      uint64
}

// Tracer records spans in memory and hands finished ones to its collectors
// and handlers. Safe for concurrent use.
type Tracer struct {
	clock      clockz.Clock
	traceIDs   *idPool
	spanIDs    *idPool
	collectors map[string]*Collector
	handlers   []handlerEntry
	nextID     uint64
	panics     atomic.Uint64
	mu         sync.RWMutex
	closed     bool
}

// New creates a tracer timed by the real clock.
func New() *Tracer {
	return NewWithClock(clockz.RealClock)
}

// NewWithClock creates a tracer timed by clock.
func NewWithClock(clock clockz.Clock) *Tracer {
	size := runtime.NumCPU() * 64
	return &Tracer{
		clock:      clock,
		traceIDs:   newIDPool(16, size, clock.Now),
		spanIDs:    newIDPool(8, size, clock.Now),
		collectors: make(map[string]*Collector),
	}
}

// AddCollector registers c under its name, replacing any collector already
// registered under that name.
func (t *Tracer) AddCollector(c *Collector) {
	if c == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.collectors[c.Name()] = c
}

// RemoveCollector detaches the collector registered under name.
func (t *Tracer) RemoveCollector(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.collectors, name)
}

// OnSpanComplete registers handler and returns its ID for RemoveHandler.
// A nil handler is ignored and yields 0.
func (t *Tracer) OnSpanComplete(handler SpanHandler) uint64 {
	if handler == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	t.handlers = append(t.handlers, handlerEntry{handler: handler, id: t.nextID})
	return t.nextID
}

// RemoveHandler unregisters the handler with the given ID.
func (t *Tracer) RemoveHandler(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, h := range t.handlers {
		if h.id == id {
			t.handlers = append(t.handlers[:i:i], t.handlers[i+1:]...)
			return
		}
	}
}

// HandlerPanics returns how many handler calls panicked. A panicking handler
// never reaches the traced Redis call.
func (t *Tracer) HandlerPanics() uint64 {
	return t.panics.Load()
}

// Start opens a span named name. If ctx carries a span, the new span joins
// its trace as a child. The returned context carries the new span.
func (t *Tracer) Start(ctx context.Context, name string) (context.Context, *ActiveSpan) {
	if ctx == nil {
		ctx = context.Background()
	}

	span := &ActiveSpan{
		tracer: t,
		span: Span{
			Name:      name,
			SpanID:    t.spanIDs.next(),
			StartTime: t.clock.Now(),
		},
	}
	if parent := SpanFromContext(ctx); parent != nil {
		span.span.TraceID = parent.TraceID()
		span.span.ParentID = parent.SpanID()
	} else {
		span.span.TraceID = t.traceIDs.next()
	}

	return ContextWithSpan(ctx, span), span
}

// StartSpan implements redistrace.Tracer.
func (t *Tracer) StartSpan(ctx context.Context, operationName string) (context.Context, redistrace.Span) {
	return t.Start(ctx, operationName)
}

func (t *Tracer) record(span Span) {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return
	}
	for _, c := range t.collectors {
		c.Collect(span)
	}
	handlers := t.handlers
	t.mu.RUnlock()

	for _, h := range handlers {
		t.call(h.handler, span)
	}
}

func (t *Tracer) call(handler SpanHandler, span Span) {
	defer func() {
		if r := recover(); r != nil {
			t.panics.Add(1)
		}
	}()
	handler(span.clone())
}

// Reset empties every registered collector.
func (t *Tracer) Reset() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, c := range t.collectors {
		c.Reset()
	}
}

// Close detaches collectors and handlers and stops ID generation. Spans
// finished afterwards are discarded; collectors keep what they buffered.
func (t *Tracer) Close() {
	t.mu.Lock()
	t.closed = true
	t.collectors = make(map[string]*Collector)
	t.handlers = nil
	t.mu.Unlock()

	t.traceIDs.close()
	t.spanIDs.close()
}
