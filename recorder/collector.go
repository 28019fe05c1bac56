package recorder

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Filter selects spans in Collector.Select.
type Filter func(Span) bool

// ByCommand matches spans for one command, compared case-insensitively since
// go-redis sends lowercase names. ByCommand("MULTI") matches batches.
func ByCommand(name string) Filter {
	return func(s Span) bool { return strings.EqualFold(s.Command(), name) }
}

// Batches matches pipeline and transaction spans.
func Batches() Filter {
	return Span.IsBatch
}

// Failures matches spans tagged as errors.
func Failures() Filter {
	return Span.Failed
}

// InTrace matches spans belonging to traceID.
func InTrace(traceID string) Filter {
	return func(s Span) bool { return s.TraceID == traceID }
}

// Collector buffers finished spans in memory. Once limit spans are buffered,
// further spans are dropped and counted until the buffer is exported or reset.
// Safe for concurrent use.
type Collector struct {
	name    string
	spans   []Span
	limit   int
	dropped atomic.Int64
	mu      sync.Mutex
}

// NewCollector creates a collector holding at most limit spans. A limit of
// zero or less means unbounded.
func NewCollector(name string, limit int) *Collector {
	return &Collector{name: name, limit: limit}
}

// Name returns the name the collector was created with.
func (c *Collector) Name() string {
	return c.name
}

// Collect buffers a copy of span.
func (c *Collector) Collect(span Span) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.limit > 0 && len(c.spans) >= c.limit {
		c.dropped.Add(1)
		return
	}
	c.spans = append(c.spans, span.clone())
}

// Export returns the buffered spans in finish order and empties the buffer.
func (c *Collector) Export() []Span {
	c.mu.Lock()
	defer c.mu.Unlock()
	spans := c.spans
	c.spans = nil
	return spans
}

// Select returns copies of the buffered spans matching every filter, leaving
// the buffer untouched.
func (c *Collector) Select(filters ...Filter) []Span {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Span
next:
	for _, span := range c.spans {
		for _, match := range filters {
			if !match(span) {
				continue next
			}
		}
		out = append(out, span.clone())
	}
	return out
}

// Count returns the number of buffered spans.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.spans)
}

// DroppedCount returns the number of spans dropped because the buffer was full.
func (c *Collector) DroppedCount() int64 {
	return c.dropped.Load()
}

// Reset empties the buffer and zeroes the drop counter.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spans = nil
	c.dropped.Store(0)
}
