package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultGeminiBaseURL is Gemini's OpenAI-compatible endpoint.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// OpenAIClient talks to any OpenAI-compatible chat completion API.
type OpenAIClient struct {
	client       *openai.Client
	provider     Provider
	defaultModel string
	models       []string
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	return &OpenAIClient{
		client:       openai.NewClient(apiKey),
		provider:     ProviderOpenAI,
		defaultModel: "gpt-4o-mini",
		models: []string{
			"gpt-4o",
			"gpt-4o-mini",
			"gpt-4-turbo",
		},
	}, nil
}

// NewGeminiClient creates a client for Gemini through its OpenAI-compatible API.
func NewGeminiClient(apiKey, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = strings.TrimSuffix(baseURL, "/")

	return &OpenAIClient{
		client:       openai.NewClientWithConfig(config),
		provider:     ProviderGemini,
		defaultModel: "gemini-2.0-flash",
		models: []string{
			"gemini-2.0-flash",
			"gemini-1.5-flash",
			"gemini-1.5-pro",
		},
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return string(c.provider)
}

// Models returns available models.
func (c *OpenAIClient) Models() []string {
	return c.models
}

// Complete sends a completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	// Convert messages to OpenAI format
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, emptyError(model)
	}

	return &CompletionResponse{
		Content:    resp.Choices[0].Message.Content,
		Model:      resp.Model,
		TokensIn:   resp.Usage.PromptTokens,
		TokensOut:  resp.Usage.CompletionTokens,
		StopReason: string(resp.Choices[0].FinishReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

func classifyOpenAIError(err error) *CompletionError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return statusError(apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		detail := ""
		if reqErr.Err != nil {
			detail = reqErr.Err.Error()
		}
		return statusError(reqErr.HTTPStatusCode, detail, err)
	}

	return networkError(err)
}
