// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"fmt"
	"net/http"
)

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers. Implementations report failures as
// *CompletionError.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewClient creates a new LLM client based on provider. baseURL only applies to
// OpenAI-compatible providers and may be empty.
func NewClient(provider Provider, apiKey, baseURL string) (Client, error) {
	var (
		client Client
		err    error
	)
	switch provider {
	case ProviderAnthropic:
		client, err = NewAnthropicClient(apiKey)
	case ProviderOpenAI:
		client, err = NewOpenAIClient(apiKey)
	default:
		client, err = NewGeminiClient(apiKey, baseURL)
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ErrorKind classifies why a completion failed.
type ErrorKind string

const (
	ErrorKindEmpty      ErrorKind = "empty"
	ErrorKindBadRequest ErrorKind = "bad_request"
	ErrorKindAuth       ErrorKind = "auth"
	ErrorKindNotFound   ErrorKind = "not_found"
	ErrorKindUpstream   ErrorKind = "upstream"
	ErrorKindNetwork    ErrorKind = "network"
)

// CompletionError is the failure half of a completion result.
type CompletionError struct {
	Kind       ErrorKind
	StatusCode int
	Detail     string
	Err        error
}

func (e *CompletionError) Error() string {
	switch e.Kind {
	case ErrorKindEmpty:
		return "Error: No response generated by the LLM API"
	case ErrorKindBadRequest:
		return fmt.Sprintf("Error 400: Invalid request - %s", e.Detail)
	case ErrorKindAuth:
		return fmt.Sprintf("Error %d: API key invalid or quota exceeded. Please check your API key.", e.StatusCode)
	case ErrorKindNotFound:
		return fmt.Sprintf("Error 404: API endpoint not found. Please check the model name. %s", e.Detail)
	case ErrorKindNetwork:
		return fmt.Sprintf("Error connecting to LLM API: %s", e.Detail)
	default:
		return fmt.Sprintf("Error: API returned status %d - %s", e.StatusCode, e.Detail)
	}
}

func (e *CompletionError) Unwrap() error { return e.Err }

// statusError builds a CompletionError from an HTTP status returned by a provider.
func statusError(status int, detail string, err error) *CompletionError {
	if detail == "" {
		detail = http.StatusText(status)
	}
	kind := ErrorKindUpstream
	switch status {
	case http.StatusBadRequest:
		kind = ErrorKindBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = ErrorKindAuth
	case http.StatusNotFound:
		kind = ErrorKindNotFound
	}
	return &CompletionError{Kind: kind, StatusCode: status, Detail: detail, Err: err}
}

func networkError(err error) *CompletionError {
	return &CompletionError{Kind: ErrorKindNetwork, Detail: err.Error(), Err: err}
}

func emptyError(model string) *CompletionError {
	return &CompletionError{Kind: ErrorKindEmpty, StatusCode: http.StatusOK, Detail: "no candidates from " + model}
}
