package cli

import (
	"errors"
	"fmt"
)

// Provider names accepted by --provider and the provider config key.
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
)

// Credential environment variables.
const (
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
	EnvDeepSeekAPIKey = "DEEPSEEK_API_KEY"
)

// Provider represents a validated completion-service provider.
// Zero value is invalid and must not be used.
// Use ParseProvider to create from user input, or the pre-parsed constants.
type Provider struct {
	name string
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Provider{}

// ErrInvalidProvider indicates an invalid provider name was specified.
var ErrInvalidProvider = errors.New("invalid provider")

// Pre-parsed provider constants for use in code.
var (
	OpenAIProvider   = Provider{name: ProviderOpenAI}
	DeepSeekProvider = Provider{name: ProviderDeepSeek}
)

// providerDefaults holds the built-in model tiers of each provider.
var providerDefaults = map[string]struct {
	primary, fallback string
	apiKeyEnv         string
	missingKey        error
}{
	ProviderOpenAI:   {"gpt-4o", "gpt-4o-mini", EnvOpenAIAPIKey, ErrAPIKeyMissing},
	ProviderDeepSeek: {"deepseek-reasoner", "deepseek-chat", EnvDeepSeekAPIKey, ErrDeepSeekKeyMissing},
}

// ParseProvider validates and parses a provider name string.
// Returns ErrInvalidProvider if the name is not recognized.
// Empty string returns an error; callers treat "unset" before parsing.
func ParseProvider(s string) (Provider, error) {
	if s == "" {
		return Provider{}, fmt.Errorf("provider cannot be empty: %w", ErrInvalidProvider)
	}
	if _, ok := providerDefaults[s]; !ok {
		return Provider{}, fmt.Errorf("unknown provider %q (use 'openai' or 'deepseek'): %w", s, ErrInvalidProvider)
	}
	return Provider{name: s}, nil
}

// MustParseProvider parses a provider name, panicking if invalid.
// Use only for compile-time constants and tests.
func MustParseProvider(s string) Provider {
	p, err := ParseProvider(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the provider name string.
// Returns empty string for zero value.
func (p Provider) String() string {
	return p.name
}

// IsZero returns true if no provider is set.
func (p Provider) IsZero() bool {
	return p.name == ""
}

// IsDeepSeek returns true if this provider is DeepSeek.
func (p Provider) IsDeepSeek() bool {
	return p.name == ProviderDeepSeek
}

// IsOpenAI returns true if this provider is OpenAI.
func (p Provider) IsOpenAI() bool {
	return p.name == ProviderOpenAI
}

// OrDefault returns the provider, or OpenAIProvider if zero.
func (p Provider) OrDefault() Provider {
	if p.IsZero() {
		return OpenAIProvider
	}
	return p
}

// DefaultModels returns the built-in primary and fallback models.
// The zero Provider uses the default provider's models.
func (p Provider) DefaultModels() (primary, fallback string) {
	d := providerDefaults[p.OrDefault().name]
	return d.primary, d.fallback
}

// APIKeyEnv returns the environment variable holding the provider's API key.
func (p Provider) APIKeyEnv() string {
	return providerDefaults[p.OrDefault().name].apiKeyEnv
}

// apiKey reads the provider's API key through getenv.
// A missing key wraps ErrAPIKeyMissing or ErrDeepSeekKeyMissing.
func (p Provider) apiKey(getenv func(string) string) (string, error) {
	d := providerDefaults[p.OrDefault().name]
	key := getenv(d.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%w (set it with: export %s=sk-...)", d.missingKey, d.apiKeyEnv)
	}
	return key, nil
}
