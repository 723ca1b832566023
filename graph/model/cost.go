package model

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Pricing is the USD price per one million tokens.
type Pricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// DefaultPricing covers the default models of the bundled adapters. Prices
// change; override them with CostTracker.SetPricing.
var DefaultPricing = map[string]Pricing{
	"gemini-1.5-flash":  {InputPer1M: 0.075, OutputPer1M: 0.30},
	"gemini-1.5-pro":    {InputPer1M: 1.25, OutputPer1M: 5.00},
	"gemini-2.0-flash":  {InputPer1M: 0.10, OutputPer1M: 0.40},
	"gpt-4o":            {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-mini":       {InputPer1M: 0.15, OutputPer1M: 0.60},
	"claude-3-5-haiku":  {InputPer1M: 0.80, OutputPer1M: 4.00},
	"claude-3-5-sonnet": {InputPer1M: 3.00, OutputPer1M: 15.00},
}

// Call is one recorded model invocation.
type Call struct {
	Model        string
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
	Time         time.Time
}

// CostTracker accumulates token usage and cost of model calls. It is safe
// for concurrent use.
type CostTracker struct {
	mu      sync.RWMutex
	pricing map[string]Pricing
	calls   []Call
	byModel map[string]float64
	total   float64
	input   int64
	output  int64
}

// NewCostTracker creates a tracker using DefaultPricing.
func NewCostTracker() *CostTracker {
	pricing := make(map[string]Pricing, len(DefaultPricing))
	for k, v := range DefaultPricing {
		pricing[k] = v
	}
	return &CostTracker{pricing: pricing, byModel: make(map[string]float64)}
}

// SetPricing overrides the price of one model.
func (ct *CostTracker) SetPricing(model string, p Pricing) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.pricing[model] = p
}

// Record adds one call. Unknown models are counted with zero cost. A model
// name with a version suffix ("gemini-1.5-flash-latest") is priced by its
// longest known prefix.
func (ct *CostTracker) Record(model string, usage Usage) Call {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	p := ct.lookup(model)
	cost := float64(usage.InputTokens)/1_000_000*p.InputPer1M +
		float64(usage.OutputTokens)/1_000_000*p.OutputPer1M
	call := Call{
		Model:        model,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		CostUSD:      cost,
		Time:         time.Now(),
	}
	ct.calls = append(ct.calls, call)
	ct.byModel[model] += cost
	ct.total += cost
	ct.input += usage.InputTokens
	ct.output += usage.OutputTokens
	return call
}

func (ct *CostTracker) lookup(model string) Pricing {
	if p, ok := ct.pricing[model]; ok {
		return p
	}
	best := ""
	for name := range ct.pricing {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	return ct.pricing[best]
}

// Total returns the cumulative cost in USD.
func (ct *CostTracker) Total() float64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.total
}

// ByModel returns the cost per model.
func (ct *CostTracker) ByModel() map[string]float64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	out := make(map[string]float64, len(ct.byModel))
	for k, v := range ct.byModel {
		out[k] = v
	}
	return out
}

// Tokens returns the cumulative input and output token counts.
func (ct *CostTracker) Tokens() (input, output int64) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.input, ct.output
}

// Calls returns a copy of the recorded calls.
func (ct *CostTracker) Calls() []Call {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return append([]Call(nil), ct.calls...)
}

// String summarizes the tracker, one model per line.
func (ct *CostTracker) String() string {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d calls, %d input / %d output tokens, $%.4f", len(ct.calls), ct.input, ct.output, ct.total)
	models := make([]string, 0, len(ct.byModel))
	for m := range ct.byModel {
		models = append(models, m)
	}
	sort.Strings(models)
	for _, m := range models {
		fmt.Fprintf(&sb, "\n  %s: $%.4f", m, ct.byModel[m])
	}
	return sb.String()
}

// Tracked wraps m so every successful call is recorded under name.
func Tracked(m ChatModel, name string, ct *CostTracker) ChatModel {
	return &trackedModel{next: m, name: name, tracker: ct}
}

type trackedModel struct {
	next    ChatModel
	name    string
	tracker *CostTracker
}

func (t *trackedModel) Chat(ctx context.Context, messages []Message) (ChatOut, error) {
	out, err := t.next.Chat(ctx, messages)
	if err == nil && t.tracker != nil {
		t.tracker.Record(t.name, out.Usage)
	}
	return out, err
}
