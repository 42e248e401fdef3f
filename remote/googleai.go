package remote

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/tonalhq/keysense/logging"
)

// DefaultGoogleAIModel is the model used when none is configured
const DefaultGoogleAIModel = "gemini-2.5-flash-lite"

// GoogleAIConfig holds configuration for the Google AI provider
type GoogleAIConfig struct {
	APIKey string `json:"-"` // Never serialized
	Model  string `json:"model"`
}

// GoogleAIProvider implements Provider on top of the Google AI (Gemini)
// multimodal API via langchaingo.
type GoogleAIProvider struct {
	llm    *googleai.GoogleAI
	model  string
	logger logging.Logger
}

// NewGoogleAIProvider creates a Google AI provider. A missing API key is an
// immediate error so the caller can surface RemoteUnavailableError without
// any network traffic.
func NewGoogleAIProvider(ctx context.Context, config GoogleAIConfig) (*GoogleAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("google ai api key not configured")
	}

	model := config.Model
	if model == "" {
		model = DefaultGoogleAIModel
	}

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(config.APIKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating google ai client: %w", err)
	}

	return &GoogleAIProvider{
		llm:    llm,
		model:  model,
		logger: logging.WithFields(logging.Fields{"component": "googleai_provider"}),
	}, nil
}

// GenerateFromAudio uploads the clip alongside the prompt as one multimodal
// message and returns the model's raw text reply.
func (p *GoogleAIProvider) GenerateFromAudio(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error) {
	p.logger.Debug("sending clip to model", logging.Fields{
		"model":      p.model,
		"mime_type":  mimeType,
		"clip_bytes": len(audio),
	})

	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(mimeType, audio),
				llms.TextPart(prompt),
			},
		},
	}

	response, err := p.llm.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	return response.Choices[0].Content, nil
}

// Name identifies the backend
func (p *GoogleAIProvider) Name() string {
	return "googleai"
}
