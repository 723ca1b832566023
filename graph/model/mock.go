package model

import (
	"context"
	"sync"
)

// MockChatModel is a ChatModel for tests.
//
// If Handler is set it computes every reply, which keeps results independent
// of call order when several nodes share the mock concurrently. Otherwise
// Responses are returned in order, repeating the last one; Err, when set,
// is returned for every call.
type MockChatModel struct {
	Responses []ChatOut
	Handler   func(messages []Message) (ChatOut, error)
	Err       error

	// Calls records every conversation received.
	Calls [][]Message

	mu        sync.Mutex
	callIndex int
}

// Chat implements ChatModel.
func (m *MockChatModel) Chat(ctx context.Context, messages []Message) (ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return ChatOut{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, append([]Message(nil), messages...))

	if m.Err != nil {
		return ChatOut{}, m.Err
	}
	if m.Handler != nil {
		return m.Handler(messages)
	}
	if len(m.Responses) == 0 {
		return ChatOut{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// CallCount returns the number of Chat calls received.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Reset clears recorded calls and rewinds Responses.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.callIndex = 0
}
