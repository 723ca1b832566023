package graph

import (
	"context"
	"testing"

	"github.com/NishanthN27/Final-Year/graph/emit"
	"github.com/NishanthN27/Final-Year/graph/store"
)

type testState struct {
	Log    []string `json:"log"`
	Count  int      `json:"count"`
	Answer string   `json:"answer"`
}

type testPatch struct {
	Log    []string
	Count  Slot[int]
	Answer Slot[string]
}

func testReducers() *ReducerRegistry[testState, testPatch] {
	r := NewReducerRegistry[testState, testPatch]()
	r.MustRegister("log", func(s *testState, p testPatch) error {
		s.Log = append(s.Log, p.Log...)
		return nil
	})
	r.MustRegister("count", func(s *testState, p testPatch) error {
		if v, ok := p.Count.Get(); ok && v < 0 {
			return Invalid("count cannot be negative, got %d", v)
		}
		Overwrite(&s.Count, p.Count)
		return nil
	})
	r.MustRegister("answer", func(s *testState, p testPatch) error {
		Overwrite(&s.Answer, p.Answer)
		return nil
	})
	return r
}

// logNode appends its name to the log.
func logNode(name string) NodeFunc[testState, testPatch] {
	return func(context.Context, testState) NodeResult[testPatch] {
		return NodeResult[testPatch]{Delta: testPatch{Log: []string{name}}}
	}
}

func newTestEngine(t *testing.T, emitter emit.Emitter, opts ...Option) (*Engine[testState, testPatch], *store.MemStore[testState]) {
	t.Helper()
	st := store.NewMemStore[testState]()
	return New[testState, testPatch](testReducers().Reduce, st, emitter, opts...), st
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
