package llm

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response string
	Err      error
	// GenerateFunc, si se define, reemplaza Response/Err.
	GenerateFunc func(ctx context.Context, system string, turns []Turn) (string, error)

	mu    sync.Mutex
	calls []MockCall
}

type MockCall struct {
	System string
	Turns  []Turn
}

func (m *MockClient) Generate(ctx context.Context, system string, turns []Turn) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{System: system, Turns: append([]Turn(nil), turns...)})
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, system, turns)
	}
	return m.Response, m.Err
}

// Calls devuelve las llamadas registradas.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

func (m *MockClient) LastCall() (MockCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return MockCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}
