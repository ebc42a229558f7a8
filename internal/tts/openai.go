package tts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// OpenAI synthesizes through the OpenAI speech endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates the OpenAI strategy. baseURL may be empty.
func NewOpenAI(apiKey, model, baseURL string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if model == "" {
		model = string(openai.TTSModel1)
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Name implements Strategy.
func (o *OpenAI) Name() string { return "openai" }

// Synthesize implements Strategy.
func (o *OpenAI) Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          text,
		Voice:          openaiVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	return audio, nil
}

func openaiVoice(voice VoiceProfile) openai.SpeechVoice {
	if voice.Gender == "Female" {
		return openai.VoiceNova
	}
	return openai.VoiceOnyx
}
