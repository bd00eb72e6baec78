package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/medreport/internal/apierr"
)

// chatCompleter is an internal interface for OpenAI chat completion.
// *openai.Client implements this implicitly.
// This allows injecting mocks in tests.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAICompleter generates completions with OpenAI's chat completion API,
// or any gateway that speaks the same protocol.
type OpenAICompleter struct {
	client    chatCompleter
	baseURL   string
	maxTokens int
}

// OpenAIOption configures an OpenAICompleter.
type OpenAIOption func(*OpenAICompleter)

// WithOpenAIBaseURL points the client at an OpenAI-compatible endpoint.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(c *OpenAICompleter) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithOpenAIMaxTokens caps the completion length. Zero leaves the provider default.
func WithOpenAIMaxTokens(n int) OpenAIOption {
	return func(c *OpenAICompleter) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// withChatCompleter sets a custom chat completer (for testing).
func withChatCompleter(cc chatCompleter) OpenAIOption {
	return func(c *OpenAICompleter) {
		c.client = cc
	}
}

// NewOpenAICompleter creates an OpenAICompleter.
// Returns nil and ErrEmptyAPIKey if apiKey is empty.
func NewOpenAICompleter(apiKey string, opts ...OpenAIOption) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}

	c := &OpenAICompleter{}
	for _, opt := range opts {
		opt(c)
	}
	// Build the client after options are applied (base URL may be customized).
	if c.client == nil {
		cfg := openai.DefaultConfig(apiKey)
		if c.baseURL != "" {
			cfg.BaseURL = c.baseURL
		}
		c.client = openai.NewClientWithConfig(cfg)
	}
	return c, nil
}

// Complete sends prompt to model and returns the first choice's content.
func (c *OpenAICompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		return "", ErrEmptyModel
	}

	req := openai.ChatCompletionRequest{
		Model:               model,
		MaxCompletionTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0, // Deterministic output
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai %s: %w", model, classifyOpenAIError(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai %s: %w", model, ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyOpenAIError maps go-openai errors to apierr sentinels.
// Uses errors.As for typed errors instead of string matching.
func classifyOpenAIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if classified := apierr.FromStatus(apiErr.HTTPStatusCode, apiErr.Message); classified != nil {
			return classified
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if classified := apierr.FromStatus(reqErr.HTTPStatusCode, reqErr.Error()); classified != nil {
			return classified
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}
