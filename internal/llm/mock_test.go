package llm

import (
	"context"
	"sync"
)

type mockClient struct {
	err       error
	responses []string
	requests  []Request
	usage     Usage
	mu        sync.Mutex
}

func (m *mockClient) Complete(_ context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return Response{}, m.err
	}
	text := ""
	if len(m.responses) > 0 {
		text = m.responses[0]
		if len(m.responses) > 1 {
			m.responses = m.responses[1:]
		}
	}
	return Response{Text: text, Model: "claude-sonnet-4-5", Usage: m.usage}, nil
}
