package recorder

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/zoobzio/clockz"
)

func TestMetricsObserve(t *testing.T) {
	m, err := NewMetrics(nil)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.Observe(Span{Name: "Redis/GET", Duration: 2 * time.Millisecond})
	m.Observe(Span{Name: "Cache/get", Duration: 4 * time.Millisecond})
	m.Observe(Span{Name: "Redis/GET", Tags: map[string]string{"error": "true"}})

	if got := testutil.ToFloat64(m.Commands.WithLabelValues("GET", StatusOK)); got != 2 {
		t.Errorf("Expected 2 ok GETs across prefixes, got %v", got)
	}
	if got := testutil.ToFloat64(m.Commands.WithLabelValues("GET", StatusError)); got != 1 {
		t.Errorf("Expected 1 failed GET, got %v", got)
	}
	if got := testutil.CollectAndCount(m.CommandDuration); got != 1 {
		t.Errorf("Expected 1 duration series, got %d", got)
	}
	if got := testutil.CollectAndCount(m.BatchSize); got != 1 {
		t.Errorf("Expected batch size histogram, got %d series", got)
	}
}

func TestMetricsBatchSize(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.Observe(Span{Name: "Redis/MULTI", Tags: map[string]string{"db.statement": "INCR rl;EXPIRE rl 60"}})
	m.Observe(Span{Name: "Redis/MULTI", Tags: map[string]string{"db.statement": "SET a 1;SET b 2;SET c 3"}})
	m.Observe(Span{Name: "Redis/SET", Tags: map[string]string{"db.statement": "SET a 1"}})

	expected := `
# HELP redistrace_batch_commands Number of commands per traced pipeline or transaction
# TYPE redistrace_batch_commands histogram
redistrace_batch_commands_bucket{le="1"} 0
redistrace_batch_commands_bucket{le="2"} 1
redistrace_batch_commands_bucket{le="4"} 2
redistrace_batch_commands_bucket{le="8"} 2
redistrace_batch_commands_bucket{le="16"} 2
redistrace_batch_commands_bucket{le="32"} 2
redistrace_batch_commands_bucket{le="64"} 2
redistrace_batch_commands_bucket{le="128"} 2
redistrace_batch_commands_bucket{le="+Inf"} 2
redistrace_batch_commands_sum 5
redistrace_batch_commands_count 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "redistrace_batch_commands"); err != nil {
		t.Error(err)
	}
}

func TestMetricsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewMetrics(reg); err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	if _, err := NewMetrics(reg); err == nil {
		t.Error("Expected duplicate registration to fail")
	}
}

func TestMetricsAttach(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	clock := clockz.NewFakeClock()
	tracer := NewWithClock(clock)
	defer tracer.Close()
	id := m.Attach(tracer)

	_, span := tracer.Start(context.Background(), "Redis/MULTI")
	clock.Advance(time.Millisecond)
	span.Finish()

	expected := `
# HELP redistrace_commands_total Total number of traced Redis commands and batches
# TYPE redistrace_commands_total counter
redistrace_commands_total{command="MULTI",status="ok"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "redistrace_commands_total"); err != nil {
		t.Error(err)
	}

	tracer.RemoveHandler(id)
	_, span = tracer.Start(context.Background(), "Redis/MULTI")
	span.Finish()
	if got := testutil.ToFloat64(m.Commands.WithLabelValues("MULTI", StatusOK)); got != 1 {
		t.Errorf("Expected detached metrics to stop counting, got %v", got)
	}
}
