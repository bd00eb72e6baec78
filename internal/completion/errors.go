package completion

import "errors"

// Sentinel errors returned by the adapters.
var (
	// ErrEmptyAPIKey indicates that the API key was not provided.
	ErrEmptyAPIKey = errors.New("API key is required")

	// ErrEmptyModel indicates Complete was called without a model identifier.
	ErrEmptyModel = errors.New("model is required")

	// ErrEmptyResponse indicates the provider answered without any choice.
	ErrEmptyResponse = errors.New("no response from API")
)
