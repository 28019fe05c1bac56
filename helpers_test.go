package redistrace

import (
	"context"
	"sync"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockClient is a Client whose replies are scripted with testify/mock.
type mockClient struct {
	mock.Mock
}

func (m *mockClient) ExecuteCommand(_ context.Context, args ...interface{}) (interface{}, error) {
	ret := m.Called(args)
	return ret.Get(0), ret.Error(1)
}

func (m *mockClient) Pipeline(transaction bool, shardHint string) Pipeline {
	ret := m.Called(transaction, shardHint)
	return ret.Get(0).(Pipeline)
}

// fakePipeline queues commands and answers Execute with canned values.
type fakePipeline struct {
	stack        []Command
	replies      []interface{}
	err          error
	raiseOnError []bool
	stackAtExec  []Command
}

func (p *fakePipeline) Queue(args ...interface{}) {
	p.stack = append(p.stack, Command(args))
}

func (p *fakePipeline) CommandStack() []Command {
	return p.stack
}

func (p *fakePipeline) Execute(_ context.Context, raiseOnError bool) ([]interface{}, error) {
	p.raiseOnError = append(p.raiseOnError, raiseOnError)
	p.stackAtExec = p.stack
	p.stack = nil
	return p.replies, p.err
}

// countingSpan records tags and how many times Finish ran.
type countingSpan struct {
	tags     map[string]interface{}
	name     string
	finished int
}

func (s *countingSpan) SetTag(key string, value interface{}) {
	s.tags[key] = value
}

func (s *countingSpan) Finish() {
	s.finished++
}

type countingTracer struct {
	spans []*countingSpan
	mu    sync.Mutex
}

func (t *countingTracer) StartSpan(ctx context.Context, operationName string) (context.Context, Span) {
	t.mu.Lock()
	defer t.mu.Unlock()
	span := &countingSpan{name: operationName, tags: make(map[string]interface{})}
	t.spans = append(t.spans, span)
	return ctx, span
}

// wrappingTracer exposes the tracer it wraps through Unwrap.
type wrappingTracer struct {
	Tracer
	inner Tracer
}

func (w wrappingTracer) Unwrap() Tracer {
	return w.inner
}

// newMockTracer returns a mocktracer adapted to Tracer.
func newMockTracer() (*mocktracer.MockTracer, Tracer) {
	mt := mocktracer.New()
	return mt, OpenTracing(mt)
}

// useGlobalTracer installs t as the opentracing global tracer for one test.
func useGlobalTracer(t *testing.T, tracer opentracing.Tracer) {
	t.Helper()
	opentracing.SetGlobalTracer(tracer)
	t.Cleanup(func() {
		opentracing.SetGlobalTracer(opentracing.NoopTracer{})
	})
}

// initTracing runs InitTracing and resets process-wide state after the test.
func initTracing(t *testing.T, opts ...Option) {
	t.Helper()
	require.NoError(t, InitTracing(opts...))
	t.Cleanup(ResetTracing)
}

func requireSingleSpan(t *testing.T, mt *mocktracer.MockTracer) *mocktracer.MockSpan {
	t.Helper()
	spans := mt.FinishedSpans()
	require.Len(t, spans, 1)
	return spans[0]
}

func requireBaseTags(t *testing.T, span *mocktracer.MockSpan, statement string) {
	t.Helper()
	require.Equal(t, ComponentName, span.Tag(TagComponent))
	require.Equal(t, DBType, span.Tag(TagDBType))
	require.Equal(t, statement, span.Tag(TagDBStatement))
	require.Equal(t, SpanKindClient, span.Tag(TagSpanKind))
}
