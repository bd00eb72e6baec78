package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alnah/medreport/internal/apierr"
)

// DeepSeek API configuration.
const (
	defaultDeepSeekBaseURL     = "https://api.deepseek.com"
	defaultDeepSeekHTTPTimeout = 5 * time.Minute // reasoner models think before answering

	// Response size limit to prevent OOM from malformed responses (10MB)
	maxResponseSize = 10 * 1024 * 1024
)

// httpDoer abstracts HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DeepSeekCompleter generates completions with DeepSeek's chat completion API.
type DeepSeekCompleter struct {
	apiKey      string
	baseURL     string
	maxTokens   int
	httpTimeout time.Duration
	httpClient  httpDoer
}

// DeepSeekOption configures a DeepSeekCompleter.
type DeepSeekOption func(*DeepSeekCompleter)

// WithDeepSeekBaseURL sets a custom base URL (for testing or proxies).
func WithDeepSeekBaseURL(url string) DeepSeekOption {
	return func(c *DeepSeekCompleter) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithDeepSeekMaxTokens caps the completion length.
// "deepseek-chat" accepts at most 8K, "deepseek-reasoner" 64K.
func WithDeepSeekMaxTokens(n int) DeepSeekOption {
	return func(c *DeepSeekCompleter) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithDeepSeekHTTPTimeout sets the HTTP client timeout.
func WithDeepSeekHTTPTimeout(timeout time.Duration) DeepSeekOption {
	return func(c *DeepSeekCompleter) {
		if timeout > 0 {
			c.httpTimeout = timeout
		}
	}
}

// withDeepSeekHTTPClient sets a custom HTTP client (for testing).
func withDeepSeekHTTPClient(client httpDoer) DeepSeekOption {
	return func(c *DeepSeekCompleter) {
		c.httpClient = client
	}
}

// NewDeepSeekCompleter creates a DeepSeekCompleter.
// Returns nil and ErrEmptyAPIKey if apiKey is empty.
func NewDeepSeekCompleter(apiKey string, opts ...DeepSeekOption) (*DeepSeekCompleter, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}

	c := &DeepSeekCompleter{
		apiKey:      apiKey,
		baseURL:     defaultDeepSeekBaseURL,
		httpTimeout: defaultDeepSeekHTTPTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.httpTimeout}
	}
	return c, nil
}

// Complete sends prompt to model and returns the first choice's content.
func (c *DeepSeekCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		return "", ErrEmptyModel
	}

	resp, err := c.callAPI(ctx, deepSeekRequest{
		Model:       model,
		MaxTokens:   c.maxTokens,
		Temperature: 0,
		Messages:    []deepSeekMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("deepseek %s: %w", model, classifyDeepSeekError(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("deepseek %s: %w", model, ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// deepSeekRequest represents a DeepSeek chat completion request.
type deepSeekRequest struct {
	Model       string            `json:"model"`
	Messages    []deepSeekMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float64           `json:"temperature"`
}

// deepSeekMessage represents a message in the conversation.
type deepSeekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// deepSeekResponse holds the fields of a chat completion response we read.
type deepSeekResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// deepSeekErrorResponse represents an error response from the DeepSeek API.
type deepSeekErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// callAPI makes an HTTP request to the DeepSeek API.
func (c *DeepSeekCompleter) callAPI(ctx context.Context, reqBody deepSeekRequest) (_ *deepSeekResponse, err error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseDeepSeekError(resp.StatusCode, respBody)
	}

	var result deepSeekResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

// deepSeekAPIError represents a typed DeepSeek API error.
type deepSeekAPIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       string
}

func (e *deepSeekAPIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("DeepSeek API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("DeepSeek API error %d", e.StatusCode)
}

// parseDeepSeekError parses an error response from the DeepSeek API.
func parseDeepSeekError(statusCode int, body []byte) *deepSeekAPIError {
	var errResp deepSeekErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return &deepSeekAPIError{StatusCode: statusCode, Message: strings.TrimSpace(string(body))}
	}
	return &deepSeekAPIError{
		StatusCode: statusCode,
		Message:    errResp.Error.Message,
		Type:       errResp.Error.Type,
		Code:       errResp.Error.Code,
	}
}

// classifyDeepSeekError maps DeepSeek API errors to apierr sentinels.
func classifyDeepSeekError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *deepSeekAPIError
	if errors.As(err, &apiErr) {
		if classified := apierr.FromStatus(apiErr.StatusCode, apiErr.Message); classified != nil {
			return classified
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}
