package emit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBufferedEmitter(t *testing.T) {
	b := NewBufferedEmitter()
	b.Emit(Event{SessionID: "s1", Step: 1, NodeID: "analyze_resume", Msg: MsgNodeStart})
	b.Emit(Event{SessionID: "s1", Step: 1, NodeID: "analyze_resume", Msg: MsgNodeEnd})
	b.Emit(Event{SessionID: "s1", Step: 2, NodeID: "create_plan", Msg: MsgNodeError})
	b.Emit(Event{SessionID: "s2", Step: 1, Msg: MsgSessionStarted})

	if got := len(b.GetHistory("s1")); got != 3 {
		t.Fatalf("s1 history = %d events, want 3", got)
	}
	if got := len(b.GetHistory("missing")); got != 0 {
		t.Fatalf("unknown session history = %d events", got)
	}

	two := 2
	tests := []struct {
		name   string
		filter HistoryFilter
		want   int
	}{
		{"by node", HistoryFilter{NodeID: "analyze_resume"}, 2},
		{"by msg", HistoryFilter{Msg: MsgNodeError}, 1},
		{"min step", HistoryFilter{MinStep: &two}, 1},
		{"max step", HistoryFilter{MaxStep: &two}, 3},
		{"node and msg", HistoryFilter{NodeID: "analyze_resume", Msg: MsgNodeEnd}, 1},
	}
	for _, tt := range tests {
		if got := len(b.GetHistoryWithFilter("s1", tt.filter)); got != tt.want {
			t.Errorf("%s: got %d events, want %d", tt.name, got, tt.want)
		}
	}

	// Returned slices are copies.
	h := b.GetHistory("s1")
	h[0].Msg = "changed"
	if b.GetHistory("s1")[0].Msg != MsgNodeStart {
		t.Fatal("history aliased")
	}

	b.Clear("s1")
	if len(b.GetHistory("s1")) != 0 || len(b.GetHistory("s2")) != 1 {
		t.Fatal("Clear(s1) touched the wrong sessions")
	}
	b.Clear("")
	if len(b.GetHistory("s2")) != 0 {
		t.Fatal("Clear(\"\") kept events")
	}
}

func TestBufferedEmitterConcurrent(t *testing.T) {
	b := NewBufferedEmitter()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(step int) {
			defer wg.Done()
			b.Emit(Event{SessionID: "s", Step: step, Msg: MsgNodeEnd})
		}(i)
	}
	wg.Wait()
	if got := len(b.GetHistory("s")); got != 50 {
		t.Fatalf("got %d events, want 50", got)
	}
}

type counting struct{ n int }

func (c *counting) Emit(Event) { c.n++ }

func TestMulti(t *testing.T) {
	a, b := &counting{}, &counting{}
	m := Multi(a, nil, b, NewNullEmitter())
	m.Emit(Event{Msg: MsgNodeStart})
	m.Emit(Event{Msg: MsgNodeEnd})
	if a.n != 2 || b.n != 2 {
		t.Fatalf("counts = %d/%d, want 2/2", a.n, b.n)
	}
}

func TestLogEmitter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLogEmitter(zap.New(core))

	l.Emit(Event{SessionID: "s", Msg: MsgSessionStarted, Meta: map[string]interface{}{"entries": []string{"a", "b"}}})
	l.Emit(Event{SessionID: "s", Step: 2, NodeID: "fast_eval", Msg: MsgNodeEnd, Meta: map[string]interface{}{"duration_ms": int64(12), "attempt": 0}})
	l.Emit(Event{SessionID: "s", Step: 2, NodeID: "rubric_eval", Msg: MsgNodeRetry, Meta: map[string]interface{}{"delay": 5 * time.Millisecond}})
	l.Emit(Event{SessionID: "s", Step: 3, NodeID: "synthesize", Msg: MsgNodeError, Meta: map[string]interface{}{"error": "boom"}})

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	wantLevels := []zapcore.Level{zapcore.InfoLevel, zapcore.DebugLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != wantLevels[i] {
			t.Errorf("entry %d level = %v, want %v", i, e.Level, wantLevels[i])
		}
		if e.LoggerName != "graph" {
			t.Errorf("entry %d logger = %q", i, e.LoggerName)
		}
	}

	started := entries[0].ContextMap()
	if started["session_id"] != "s" {
		t.Errorf("session_id = %v", started["session_id"])
	}
	if _, ok := started["step"]; ok {
		t.Error("step logged for a session-level event")
	}

	end := entries[1].ContextMap()
	if end["node_id"] != "fast_eval" || end["duration_ms"] != int64(12) || end["step"] != int64(2) {
		t.Errorf("node_end fields = %v", end)
	}
	if entries[3].ContextMap()["error"] != "boom" {
		t.Errorf("error field = %v", entries[3].ContextMap()["error"])
	}
}

func TestLogEmitterRespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewLogEmitter(zap.New(core))
	l.Emit(Event{Msg: MsgNodeStart})
	l.Emit(Event{Msg: MsgSessionPaused})
	if logs.Len() != 1 {
		t.Fatalf("got %d entries, want only the info one", logs.Len())
	}

	NewLogEmitter(nil).Emit(Event{Msg: MsgNodeError})
}

func newTracer(t *testing.T) (*tracetest.InMemoryExporter, *OTelEmitter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, NewOTelEmitter(tp.Tracer("test"))
}

func attrs(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestOTelEmitter(t *testing.T) {
	exporter, o := newTracer(t)
	end := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	o.Emit(Event{
		SessionID: "s",
		Step:      4,
		NodeID:    "rubric_eval",
		Msg:       MsgNodeEnd,
		Time:      end,
		Meta:      map[string]interface{}{"duration_ms": int64(250), "attempt": 1, "targets": []string{"synthesize"}},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	span := spans[0]
	if span.Name != MsgNodeEnd {
		t.Errorf("name = %q", span.Name)
	}
	if !span.EndTime.Equal(end) || span.EndTime.Sub(span.StartTime) != 250*time.Millisecond {
		t.Errorf("span covers %v..%v", span.StartTime, span.EndTime)
	}

	a := attrs(span.Attributes)
	if a[AttrSessionID].AsString() != "s" || a[AttrStep].AsInt64() != 4 || a[AttrNodeID].AsString() != "rubric_eval" {
		t.Errorf("attributes = %v", a)
	}
	if a["interview_graph.attempt"].AsInt64() != 1 {
		t.Errorf("attempt = %v", a["interview_graph.attempt"])
	}
	if got := a["interview_graph.targets"].AsStringSlice(); len(got) != 1 || got[0] != "synthesize" {
		t.Errorf("targets = %v", got)
	}
	if span.Status.Code != codes.Unset {
		t.Errorf("status = %v", span.Status)
	}
}

func TestOTelEmitterErrors(t *testing.T) {
	exporter, o := newTracer(t)
	o.Emit(Event{SessionID: "s", NodeID: "deep_dive_question", Msg: MsgNodeError, Meta: map[string]interface{}{"error": "item not found"}})

	span := exporter.GetSpans()[0]
	if span.Status.Code != codes.Error || span.Status.Description != "item not found" {
		t.Fatalf("status = %+v", span.Status)
	}
	if len(span.Events) != 1 || span.Events[0].Name != "exception" {
		t.Fatalf("events = %+v", span.Events)
	}
}

func TestOTelEmitterFlush(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(time.Hour)))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	o := NewOTelEmitter(otel.Tracer("test"))
	o.Emit(Event{SessionID: "s", Msg: MsgSessionEnded})
	if len(exporter.GetSpans()) != 0 {
		t.Fatal("span exported before flush")
	}
	if err := o.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(exporter.GetSpans()) != 1 {
		t.Fatalf("got %d spans after flush", len(exporter.GetSpans()))
	}
}

func TestMetaConversion(t *testing.T) {
	if got := metaAttribute("k", 3*time.Second); got.Value.AsInt64() != 3000 {
		t.Errorf("duration attribute = %v", got.Value)
	}
	if got := metaAttribute("k", struct{ A int }{1}); got.Value.AsString() != "{1}" {
		t.Errorf("fallback attribute = %v", got.Value)
	}
	if f := metaField("err", errors.New("x")); f.Type != zapcore.ErrorType {
		t.Errorf("error field type = %v", f.Type)
	}
	if d, ok := durationOf(map[string]interface{}{"duration_ms": 1.5}); !ok || d != 1500*time.Microsecond {
		t.Errorf("durationOf(1.5) = %v, %v", d, ok)
	}
	if _, ok := durationOf(nil); ok {
		t.Error("durationOf(nil) reported a duration")
	}
}
