package recorder

import (
	"fmt"
	"sync"
	"testing"
)

func redisSpan(name, statement string) Span {
	return Span{
		Name:    name,
		TraceID: "trace-1",
		Tags:    map[string]string{"db.statement": statement},
	}
}

func TestCollectorExport(t *testing.T) {
	collector := NewCollector("redis", 10)

	collector.Collect(redisSpan("Redis/SET", "SET a 1"))
	collector.Collect(redisSpan("Redis/GET", "GET a"))

	if collector.Name() != "redis" {
		t.Errorf("Expected name 'redis', got %s", collector.Name())
	}
	if collector.Count() != 2 {
		t.Errorf("Expected 2 spans, got %d", collector.Count())
	}

	spans := collector.Export()
	if len(spans) != 2 || spans[0].Command() != "SET" || spans[1].Command() != "GET" {
		t.Fatalf("Unexpected export: %+v", spans)
	}
	if collector.Count() != 0 {
		t.Errorf("Expected 0 spans after export, got %d", collector.Count())
	}
	if collector.Export() != nil {
		t.Error("Expected nil export from empty collector")
	}
}

func TestCollectorLimit(t *testing.T) {
	collector := NewCollector("redis", 3)

	for i := 0; i < 10; i++ {
		collector.Collect(redisSpan("Redis/INCR", "INCR hits"))
	}

	if collector.Count() != 3 {
		t.Errorf("Expected 3 buffered spans, got %d", collector.Count())
	}
	if collector.DroppedCount() != 7 {
		t.Errorf("Expected 7 dropped spans, got %d", collector.DroppedCount())
	}

	// Exporting frees room again.
	collector.Export()
	collector.Collect(redisSpan("Redis/INCR", "INCR hits"))
	if collector.Count() != 1 {
		t.Errorf("Expected 1 span after export, got %d", collector.Count())
	}
}

func TestCollectorUnbounded(t *testing.T) {
	collector := NewCollector("redis", 0)
	for i := 0; i < 5000; i++ {
		collector.Collect(redisSpan("Redis/SET", fmt.Sprintf("SET k%d v", i)))
	}
	if collector.Count() != 5000 || collector.DroppedCount() != 0 {
		t.Errorf("Expected 5000 spans and no drops, got %d/%d", collector.Count(), collector.DroppedCount())
	}
}

func TestCollectorCopiesOnCollect(t *testing.T) {
	collector := NewCollector("redis", 0)

	span := redisSpan("Redis/GET", "GET foo")
	collector.Collect(span)
	span.Tags["db.statement"] = "mutated"

	if got := collector.Export()[0].Statement(); got != "GET foo" {
		t.Errorf("Expected buffered span to be isolated, got %q", got)
	}
}

func TestCollectorSelect(t *testing.T) {
	collector := NewCollector("redis", 0)

	failed := redisSpan("Redis/lpush", "lpush str x")
	failed.Tags["error"] = "true"
	failed.Tags["error.object"] = "WRONGTYPE"
	other := redisSpan("Redis/GET", "GET a")
	other.TraceID = "trace-2"

	collector.Collect(redisSpan("Redis/SET", "SET a 1"))
	collector.Collect(failed)
	collector.Collect(redisSpan("Redis/MULTI", "SET a 1;SET b 2"))
	collector.Collect(other)

	for _, tt := range []struct {
		name    string
		filters []Filter
		expect  []string
	}{
		{"all", nil, []string{"SET", "LPUSH", "MULTI", "GET"}},
		{"by command", []Filter{ByCommand("set")}, []string{"SET"}},
		{"go-redis casing", []Filter{ByCommand("LPUSH")}, []string{"LPUSH"}},
		{"batches", []Filter{Batches()}, []string{"MULTI"}},
		{"by command multi", []Filter{ByCommand("MULTI")}, []string{"MULTI"}},
		{"failures", []Filter{Failures()}, []string{"LPUSH"}},
		{"trace", []Filter{InTrace("trace-2")}, []string{"GET"}},
		{"combined", []Filter{InTrace("trace-1"), Failures()}, []string{"LPUSH"}},
		{"none", []Filter{ByCommand("DEL")}, nil},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, span := range collector.Select(tt.filters...) {
				got = append(got, span.Command())
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.expect) {
				t.Errorf("Expected %v, got %v", tt.expect, got)
			}
		})
	}

	if collector.Count() != 4 {
		t.Errorf("Expected Select to leave the buffer intact, got %d", collector.Count())
	}

	selected := collector.Select(Failures())
	selected[0].Tags["error.object"] = "mutated"
	if got := collector.Select(Failures())[0].Err(); got != "WRONGTYPE" {
		t.Errorf("Expected selected copies to be independent, got %q", got)
	}
}

func TestCollectorReset(t *testing.T) {
	collector := NewCollector("redis", 1)
	collector.Collect(redisSpan("Redis/DEL", "DEL k"))
	collector.Collect(redisSpan("Redis/DEL", "DEL k"))

	collector.Reset()

	if collector.Count() != 0 {
		t.Errorf("Expected 0 spans after reset, got %d", collector.Count())
	}
	if collector.DroppedCount() != 0 {
		t.Errorf("Expected dropped count reset, got %d", collector.DroppedCount())
	}
}

func TestCollectorConcurrentCollectAndExport(t *testing.T) {
	collector := NewCollector("redis", 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	exported := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				collector.Collect(redisSpan("Redis/GET", "GET k"))
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			n := len(collector.Export())
			mu.Lock()
			exported += n
			mu.Unlock()
		}
	}()

	wg.Wait()
	exported += len(collector.Export())

	if exported != 1000 {
		t.Errorf("Expected 1000 spans across exports, got %d", exported)
	}
}
