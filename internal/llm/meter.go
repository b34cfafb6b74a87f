package llm

import (
	"strings"
	"sync"
)

// Price is the USD cost per million tokens.
type Price struct {
	Input  float64
	Output float64
}

// prices is keyed by a model family substring, checked in order.
var prices = []struct {
	family string
	price  Price
}{
	{"opus", Price{Input: 15, Output: 75}},
	{"haiku", Price{Input: 0.80, Output: 4}},
	{"sonnet", Price{Input: 3, Output: 15}},
	{"gpt-4o", Price{Input: 2.50, Output: 10}},
}

var defaultPrice = Price{Input: 3, Output: 15}

// PriceFor returns the price table entry for model, defaulting to Sonnet rates.
func PriceFor(model string) Price {
	m := strings.ToLower(model)
	for _, p := range prices {
		if strings.Contains(m, p.family) {
			return p.price
		}
	}
	return defaultPrice
}

// Meter tracks calls and token usage for one classifier. Safe for concurrent use.
type Meter struct {
	model        string
	calls        int
	successes    int
	failures     int
	inputTokens  int64
	outputTokens int64
	mu           sync.Mutex
}

// NewMeter creates a meter pricing usage as model.
func NewMeter(model string) *Meter {
	return &Meter{model: model}
}

// Snapshot is a point-in-time copy of a Meter.
type Snapshot struct {
	Model            string
	Calls            int
	Successes        int
	Failures         int
	InputTokens      int64
	OutputTokens     int64
	AvgInputTokens   float64
	AvgOutputTokens  float64
	EstimatedCostUSD float64
}

// RecordSuccess counts a completed call.
func (m *Meter) RecordSuccess(u Usage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.successes++
	m.inputTokens += u.InputTokens
	m.outputTokens += u.OutputTokens
}

// RecordFailure counts a failed call.
func (m *Meter) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.failures++
}

// Snapshot returns the current counters with derived averages and cost.
func (m *Meter) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Model:        m.model,
		Calls:        m.calls,
		Successes:    m.successes,
		Failures:     m.failures,
		InputTokens:  m.inputTokens,
		OutputTokens: m.outputTokens,
	}
	if m.successes > 0 {
		s.AvgInputTokens = float64(m.inputTokens) / float64(m.successes)
		s.AvgOutputTokens = float64(m.outputTokens) / float64(m.successes)
	}
	p := PriceFor(m.model)
	s.EstimatedCostUSD = (float64(m.inputTokens)*p.Input + float64(m.outputTokens)*p.Output) / 1_000_000
	return s
}

// Reset zeroes all counters.
func (m *Meter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls, m.successes, m.failures = 0, 0, 0
	m.inputTokens, m.outputTokens = 0, 0
}
