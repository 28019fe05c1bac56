package recorder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zoobzio/redistrace"
)

// Span is the record of one finished Redis command or batch.
//
//nolint:govet // Field order follows the JSON output.
type Span struct {
	Tags      map[string]string `json:"tags,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Duration  time.Duration     `json:"duration"`
	TraceID   string            `json:"trace_id"`
	SpanID    string            `json:"span_id"`
	ParentID  string            `json:"parent_id,omitempty"`
	Name      string            `json:"name"`
}

// Tag returns the value recorded under key, or "" when absent.
func (s Span) Tag(key string) string {
	return s.Tags[key]
}

// Command returns the command the span covers in upper case: the span name
// without its prefix, e.g. "GET" for "Redis/get" and "MULTI" for a batch.
func (s Span) Command() string {
	name := s.Name
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToUpper(name)
}

// IsBatch reports whether the span covers a pipeline or transaction.
func (s Span) IsBatch() bool {
	return s.Command() == redistrace.MultiOperation
}

// Statement returns the db.statement tag.
func (s Span) Statement() string {
	return s.Tags[redistrace.TagDBStatement]
}

// Commands splits a batch statement into its commands. A single command
// span yields its own statement.
func (s Span) Commands() []string {
	stmt := s.Statement()
	if !s.IsBatch() {
		return []string{stmt}
	}
	if stmt == "" {
		return nil
	}
	return strings.Split(stmt, ";")
}

// Failed reports whether the span was tagged as an error.
func (s Span) Failed() bool {
	return s.Tags[redistrace.TagError] == "true"
}

// Err returns the recorded error text, or "" for a successful span.
func (s Span) Err() string {
	return s.Tags[redistrace.TagErrorObject]
}

func (s Span) clone() Span {
	if s.Tags != nil {
		tags := make(map[string]string, len(s.Tags))
		for k, v := range s.Tags {
			tags[k] = v
		}
		s.Tags = tags
	}
	return s
}

// ActiveSpan is a span still in flight. Safe for concurrent use.
type ActiveSpan struct {
	tracer   *Tracer
	span     Span
	mu       sync.Mutex
	finished bool
}

var _ redistrace.Span = (*ActiveSpan)(nil)

// SetTag records value under key in its string form. Errors are stored as
// their message. Tags set after Finish are ignored.
func (a *ActiveSpan) SetTag(key string, value interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finished {
		return
	}
	if a.span.Tags == nil {
		a.span.Tags = make(map[string]string)
	}
	a.span.Tags[key] = tagString(value)
}

// Tag returns the value recorded under key.
func (a *ActiveSpan) Tag(key string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.span.Tags[key]
	return v, ok
}

// TraceID returns the trace the span belongs to.
func (a *ActiveSpan) TraceID() string { return a.span.TraceID }

// SpanID returns the span's own ID.
func (a *ActiveSpan) SpanID() string { return a.span.SpanID }

// Finish stamps the end time and hands a copy of the span to the tracer.
// Only the first call has an effect.
func (a *ActiveSpan) Finish() {
	a.mu.Lock()
	if a.finished {
		a.mu.Unlock()
		return
	}
	a.finished = true
	a.span.EndTime = a.tracer.clock.Now()
	a.span.Duration = a.span.EndTime.Sub(a.span.StartTime)
	done := a.span.clone()
	a.mu.Unlock()

	a.tracer.record(done)
}

type spanKey struct{}

// ContextWithSpan returns a copy of ctx carrying span, so spans started from
// it become its children.
func ContextWithSpan(ctx context.Context, span *ActiveSpan) context.Context {
	return context.WithValue(ctx, spanKey{}, span)
}

// SpanFromContext returns the span carried by ctx, or nil.
func SpanFromContext(ctx context.Context) *ActiveSpan {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanKey{}).(*ActiveSpan)
	return span
}

func tagString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
