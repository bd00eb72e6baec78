// Package completion adapts chat-completion providers to a single
// prompt-in, text-out call.
//
// Adapters do not retry. A failed call is returned classified into apierr
// sentinels so the caller can move on to its next model.
package completion

import "context"

// Completer sends one prompt to one model and returns the generated text.
type Completer interface {
	// Complete sends prompt as a single user message with temperature 0.
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Compile-time interface compliance checks.
var (
	_ Completer = (*OpenAICompleter)(nil)
	_ Completer = (*DeepSeekCompleter)(nil)
)
