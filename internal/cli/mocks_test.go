package cli

import (
	"context"
	"strings"
	"sync"

	"github.com/alnah/medreport/internal/completion"
	"github.com/alnah/medreport/internal/config"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock CompleterFactory + Completer
// ---------------------------------------------------------------------------

type mockCompleterFactory struct {
	NewCompleterErr error // Error to return from NewCompleter

	mu                sync.Mutex
	newCompleterCalls []completerCall
	completer         *mockCompleter
}

type completerCall struct {
	Provider Provider
	APIKey   string
}

func (m *mockCompleterFactory) NewCompleter(provider Provider, apiKey string) (completion.Completer, error) {
	m.mu.Lock()
	m.newCompleterCalls = append(m.newCompleterCalls, completerCall{Provider: provider, APIKey: apiKey})
	if m.completer == nil {
		m.completer = &mockCompleter{}
	}
	c := m.completer
	m.mu.Unlock()

	if m.NewCompleterErr != nil {
		return nil, m.NewCompleterErr
	}
	return c, nil
}

func (m *mockCompleterFactory) NewCompleterCalls() []completerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]completerCall, len(m.newCompleterCalls))
	copy(result, m.newCompleterCalls)
	return result
}

// mockCompleter answers "REPORT_OK from <model>" unless CompleteFunc is set.
type mockCompleter struct {
	CompleteFunc func(ctx context.Context, model, prompt string) (string, error)

	mu      sync.Mutex
	models  []string
	prompts []string
}

func (m *mockCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	m.mu.Lock()
	m.models = append(m.models, model)
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, model, prompt)
	}
	return "REPORT_OK from " + model, nil
}

// Models returns the model of every call, in call order.
func (m *mockCompleter) Models() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.models...)
}

// Prompts returns the prompt of every call, in call order.
func (m *mockCompleter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// failModels returns a CompleteFunc failing for the given models.
func failModels(err error, models ...string) func(context.Context, string, string) (string, error) {
	return func(_ context.Context, model, _ string) (string, error) {
		for _, m := range models {
			if m == model {
				return "", err
			}
		}
		return "REPORT_OK from " + model, nil
	}
}

// promptContains reports whether any prompt has substr.
func promptContains(prompts []string, substr string) bool {
	for _, p := range prompts {
		if strings.Contains(p, substr) {
			return true
		}
	}
	return false
}
