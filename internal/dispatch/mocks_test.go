package dispatch_test

import (
	"context"
	"sync"
)

// completerCall records one Complete invocation.
type completerCall struct {
	Model  string
	Prompt string
}

// mockCompleter implements completion.Completer with per-model behavior.
// Models without a behavior answer "REPORT_OK".
type mockCompleter struct {
	mu       sync.Mutex
	calls    []completerCall
	behavior map[string]func(ctx context.Context, prompt string) (string, error)
}

func newMockCompleter() *mockCompleter {
	return &mockCompleter{behavior: make(map[string]func(context.Context, string) (string, error))}
}

// on sets the behavior of model. Not safe after the first Complete call.
func (m *mockCompleter) on(model string, fn func(ctx context.Context, prompt string) (string, error)) *mockCompleter {
	m.behavior[model] = fn
	return m
}

// fail makes model always return err.
func (m *mockCompleter) fail(model string, err error) *mockCompleter {
	return m.on(model, func(context.Context, string) (string, error) { return "", err })
}

// answer makes model always return text.
func (m *mockCompleter) answer(model, text string) *mockCompleter {
	return m.on(model, func(context.Context, string) (string, error) { return text, nil })
}

func (m *mockCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, completerCall{Model: model, Prompt: prompt})
	fn := m.behavior[model]
	m.mu.Unlock()

	if fn == nil {
		return "REPORT_OK", nil
	}
	return fn(ctx, prompt)
}

func (m *mockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockCompleter) Calls() []completerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]completerCall, len(m.calls))
	copy(out, m.calls)
	return out
}
