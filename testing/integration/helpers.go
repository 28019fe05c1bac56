package integration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/zoobzio/redistrace"
	"github.com/zoobzio/redistrace/recorder"
)

// MockCollector wraps a recorder collector with test utilities.
// Collection is synchronous so spans are visible as soon as Finish returns.
//
//nolint:govet // Field alignment optimized for test helper readability
type MockCollector struct {
	exported []recorder.Span
	*recorder.Collector
	t  *testing.T
	mu sync.Mutex
}

// NewMockCollector creates a collector for testing.
func NewMockCollector(t *testing.T, name string) *MockCollector {
	return &MockCollector{
		Collector: recorder.NewCollector(name, 0),
		t:         t,
		exported:  make([]recorder.Span, 0),
	}
}

// Export returns collected spans and clears the buffer.
func (m *MockCollector) Export() []recorder.Span {
	m.mu.Lock()
	defer m.mu.Unlock()

	spans := m.Collector.Export()
	m.exported = append(m.exported, spans...)
	return spans
}

// GetAll returns every span seen so far without losing earlier exports.
func (m *MockCollector) GetAll() []recorder.Span {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current := m.Collector.Export(); len(current) > 0 {
		m.exported = append(m.exported, current...)
	}

	all := make([]recorder.Span, len(m.exported))
	copy(all, m.exported)
	return all
}

// AssertSpanCount verifies the exact number of spans buffered since the last export.
func (m *MockCollector) AssertSpanCount(expected int) []recorder.Span {
	m.t.Helper()
	spans := m.Export()
	if len(spans) != expected {
		m.t.Errorf("Expected %d spans, got %d:\n%s", expected, len(spans), PrintSpanTree(BuildSpanTree(spans)))
	}
	return spans
}

// AssertSpanNamed returns the first span with the given name.
func (m *MockCollector) AssertSpanNamed(name string) *recorder.Span {
	m.t.Helper()
	spans := m.GetAll()
	for i := range spans {
		if spans[i].Name == name {
			return &spans[i]
		}
	}
	m.t.Errorf("Span named '%s' not found", name)
	return nil
}

// AssertParentChild verifies that childName was recorded under parentName.
func (m *MockCollector) AssertParentChild(parentName, childName string) {
	m.t.Helper()
	spans := m.GetAll()
	var parent, child *recorder.Span

	for i := range spans {
		if spans[i].Name == parentName {
			parent = &spans[i]
		}
		if spans[i].Name == childName {
			child = &spans[i]
		}
	}

	if parent == nil {
		m.t.Errorf("Parent span '%s' not found", parentName)
		return
	}
	if child == nil {
		m.t.Errorf("Child span '%s' not found", childName)
		return
	}

	if child.ParentID != parent.SpanID {
		m.t.Errorf("Parent-child relationship broken: %s is not parent of %s. Child ParentID=%s, Parent SpanID=%s",
			parentName, childName, child.ParentID, parent.SpanID)
	}
	if child.TraceID != parent.TraceID {
		m.t.Errorf("Trace ID mismatch: parent=%s, child=%s", parent.TraceID, child.TraceID)
	}
}

// Harness is a miniredis server, a go-redis client and a recorder wired
// together. The client has no hooks; tests choose how to trace it.
type Harness struct {
	Server    *miniredis.Miniredis
	Redis     *redis.Client
	Tracer    *recorder.Tracer
	Collector *MockCollector
	Config    *redistrace.Config
}

// NewHarness builds a Harness whose Config traces with the recorder.
// Extra options are applied after WithTracer.
func NewHarness(t *testing.T, opts ...redistrace.Option) *Harness {
	t.Helper()

	server := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	// Open one connection up front so connection setup stays out of the spans.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping: %v", err)
	}

	tracer := recorder.New()
	t.Cleanup(tracer.Close)
	collector := NewMockCollector(t, "redis")
	tracer.AddCollector(collector.Collector)

	cfg, err := redistrace.NewConfig(append([]redistrace.Option{redistrace.WithTracer(tracer)}, opts...)...)
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	return &Harness{
		Server:    server,
		Redis:     rdb,
		Tracer:    tracer,
		Collector: collector,
		Config:    cfg,
	}
}

// Client returns the harness connection as a traced Client.
func (h *Harness) Client() *redistrace.TracedClient {
	return redistrace.NewTracedClient(redistrace.FromRedis(h.Redis), h.Config)
}

// Hook installs the tracing hook on the go-redis client.
func (h *Harness) Hook() {
	h.Redis.AddHook(redistrace.NewHook(h.Config))
}

// SpanTree represents a hierarchical view of spans.
type SpanTree struct {
	Span     recorder.Span
	Children []*SpanTree
}

// BuildSpanTree constructs a tree from flat span list.
func BuildSpanTree(spans []recorder.Span) []*SpanTree {
	nodeMap := make(map[string]*SpanTree, len(spans))
	roots := make([]*SpanTree, 0)

	for i := range spans {
		nodeMap[spans[i].SpanID] = &SpanTree{Span: spans[i]}
	}

	for i := range spans {
		node := nodeMap[spans[i].SpanID]
		if parent, ok := nodeMap[spans[i].ParentID]; ok && spans[i].ParentID != "" {
			parent.Children = append(parent.Children, node)
		} else {
			roots = append(roots, node)
		}
	}

	return roots
}

// PrintSpanTree formats span tree for debugging.
func PrintSpanTree(trees []*SpanTree) string {
	var sb strings.Builder
	for _, tree := range trees {
		printTreeNode(&sb, tree, 0)
	}
	return sb.String()
}

func printTreeNode(sb *strings.Builder, node *SpanTree, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(sb, "%s%s [%s]\n", indent, node.Span.Name, node.Span.Tag(redistrace.TagDBStatement))
	for _, child := range node.Children {
		printTreeNode(sb, child, depth+1)
	}
}

// SpanMatcher provides fluent assertions for spans.
type SpanMatcher struct {
	t    *testing.T
	span *recorder.Span
}

// NewSpanMatcher creates a matcher for span assertions.
func NewSpanMatcher(t *testing.T, span *recorder.Span) *SpanMatcher {
	return &SpanMatcher{t: t, span: span}
}

// HasTag verifies tag exists with value.
func (m *SpanMatcher) HasTag(key, value string) *SpanMatcher {
	m.t.Helper()
	if m.span == nil {
		return m
	}
	if actual, exists := m.span.Tags[key]; !exists {
		m.t.Errorf("Span %s missing tag '%s'", m.span.Name, key)
	} else if actual != value {
		m.t.Errorf("Span %s tag '%s': expected '%s', got '%s'",
			m.span.Name, key, value, actual)
	}
	return m
}

// IsRedisSpan verifies the fixed tags every command or batch span carries.
func (m *SpanMatcher) IsRedisSpan(statement string) *SpanMatcher {
	m.t.Helper()
	return m.
		HasTag(redistrace.TagComponent, redistrace.ComponentName).
		HasTag(redistrace.TagDBType, redistrace.DBType).
		HasTag(redistrace.TagSpanKind, redistrace.SpanKindClient).
		HasTag(redistrace.TagDBStatement, statement)
}

// Succeeded verifies the span carries no error tags.
func (m *SpanMatcher) Succeeded() *SpanMatcher {
	m.t.Helper()
	if m.span == nil {
		return m
	}
	if m.span.Failed() {
		m.t.Errorf("Span %s unexpectedly failed: %s", m.span.Name, m.span.Tag(redistrace.TagErrorObject))
	}
	if _, ok := m.span.Tags[redistrace.TagErrorObject]; ok {
		m.t.Errorf("Span %s has an error.object tag", m.span.Name)
	}
	return m
}

// FailedWith verifies the span was tagged with an error whose text contains substr.
func (m *SpanMatcher) FailedWith(substr string) *SpanMatcher {
	m.t.Helper()
	if m.span == nil {
		return m
	}
	if !m.span.Failed() {
		m.t.Errorf("Span %s expected to fail", m.span.Name)
	}
	if got := m.span.Tag(redistrace.TagErrorObject); !strings.Contains(got, substr) {
		m.t.Errorf("Span %s error.object %q does not contain %q", m.span.Name, got, substr)
	}
	return m
}

// HasParent verifies parent relationship.
func (m *SpanMatcher) HasParent(parentID string) *SpanMatcher {
	m.t.Helper()
	if m.span == nil {
		return m
	}
	if m.span.ParentID != parentID {
		m.t.Errorf("Span %s wrong parent: expected %s, got %s",
			m.span.Name, parentID, m.span.ParentID)
	}
	return m
}
