package model

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
)

func TestSplitSystem(t *testing.T) {
	system, rest := SplitSystem([]Message{
		System("You are an interviewer."),
		User("hi"),
		System("Reply in JSON."),
		{Role: RoleAssistant, Content: "hello"},
	})
	if system != "You are an interviewer.\n\nReply in JSON." {
		t.Fatalf("system = %q", system)
	}
	if len(rest) != 2 || rest[0].Role != RoleUser || rest[1].Role != RoleAssistant {
		t.Fatalf("rest = %+v", rest)
	}

	system, rest = SplitSystem([]Message{User("only")})
	if system != "" || len(rest) != 1 {
		t.Fatalf("got %q, %+v", system, rest)
	}
}

func TestMockChatModelResponses(t *testing.T) {
	m := &MockChatModel{Responses: []ChatOut{{Text: "first"}, {Text: "second"}}}
	ctx := context.Background()

	for _, want := range []string{"first", "second", "second"} {
		out, err := m.Chat(ctx, []Message{User("q")})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if out.Text != want {
			t.Fatalf("got %q, want %q", out.Text, want)
		}
	}
	if m.CallCount() != 3 {
		t.Fatalf("CallCount = %d", m.CallCount())
	}

	m.Reset()
	out, _ := m.Chat(ctx, nil)
	if out.Text != "first" || m.CallCount() != 1 {
		t.Fatalf("after Reset got %q with %d calls", out.Text, m.CallCount())
	}
}

func TestMockChatModelHandlerAndErrors(t *testing.T) {
	m := &MockChatModel{Handler: func(messages []Message) (ChatOut, error) {
		return ChatOut{Text: strings.ToUpper(messages[len(messages)-1].Content)}, nil
	}}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := m.Chat(context.Background(), []Message{User("abc")})
			if err != nil || out.Text != "ABC" {
				t.Errorf("got %q, %v", out.Text, err)
			}
		}()
	}
	wg.Wait()

	boom := errors.New("boom")
	failing := &MockChatModel{Err: boom, Responses: []ChatOut{{Text: "unused"}}}
	if _, err := failing.Chat(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&MockChatModel{}).Chat(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestMockChatModelCopiesMessages(t *testing.T) {
	m := &MockChatModel{}
	msgs := []Message{User("original")}
	_, _ = m.Chat(context.Background(), msgs)
	msgs[0].Content = "changed"
	if m.Calls[0][0].Content != "original" {
		t.Fatal("recorded call aliases the caller's slice")
	}
}

func closeTo(a, b float64) bool { return math.Abs(a-b) < 1e-12 }

func TestCostTracker(t *testing.T) {
	ct := NewCostTracker()

	call := ct.Record("gpt-4o-mini", Usage{InputTokens: 1_000_000, OutputTokens: 500_000})
	if !closeTo(call.CostUSD, 0.15+0.30) {
		t.Fatalf("cost = %v", call.CostUSD)
	}
	// Versioned names are priced by their longest known prefix.
	call = ct.Record("gemini-1.5-flash-latest", Usage{InputTokens: 2_000_000})
	if !closeTo(call.CostUSD, 0.15) {
		t.Fatalf("prefix cost = %v", call.CostUSD)
	}
	if call = ct.Record("local-llama", Usage{InputTokens: 10}); call.CostUSD != 0 {
		t.Fatalf("unknown model cost = %v", call.CostUSD)
	}

	ct.SetPricing("local-llama", Pricing{InputPer1M: 1})
	ct.Record("local-llama", Usage{InputTokens: 1_000_000})

	if !closeTo(ct.Total(), 0.45+0.15+1) {
		t.Fatalf("total = %v", ct.Total())
	}
	in, out := ct.Tokens()
	if in != 4_000_010 || out != 500_000 {
		t.Fatalf("tokens = %d/%d", in, out)
	}
	by := ct.ByModel()
	if !closeTo(by["local-llama"], 1) || len(by) != 3 {
		t.Fatalf("by model = %v", by)
	}
	if len(ct.Calls()) != 4 {
		t.Fatalf("calls = %d", len(ct.Calls()))
	}
	if s := ct.String(); !strings.HasPrefix(s, "4 calls") || !strings.Contains(s, "gpt-4o-mini: $0.4500") {
		t.Fatalf("String() = %q", s)
	}
}

func TestCostTrackerDoesNotShareDefaults(t *testing.T) {
	ct := NewCostTracker()
	ct.SetPricing("gpt-4o", Pricing{})
	if DefaultPricing["gpt-4o"].InputPer1M == 0 {
		t.Fatal("SetPricing modified DefaultPricing")
	}
}

func TestTracked(t *testing.T) {
	ct := NewCostTracker()
	inner := &MockChatModel{Responses: []ChatOut{{Text: "ok", Usage: Usage{InputTokens: 100, OutputTokens: 20}}}}
	m := Tracked(inner, "gpt-4o", ct)

	if _, err := m.Chat(context.Background(), []Message{User("q")}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	inner.Err = errors.New("down")
	if _, err := m.Chat(context.Background(), []Message{User("q")}); err == nil {
		t.Fatal("error swallowed")
	}

	calls := ct.Calls()
	if len(calls) != 1 || calls[0].Model != "gpt-4o" || calls[0].InputTokens != 100 {
		t.Fatalf("calls = %+v", calls)
	}

	// A nil tracker passes calls through.
	inner.Err = nil
	if _, err := Tracked(inner, "x", nil).Chat(context.Background(), nil); err != nil {
		t.Fatalf("untracked Chat: %v", err)
	}
}
