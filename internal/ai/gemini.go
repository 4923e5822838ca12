package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"deck2jira/internal/common/config"
	"deck2jira/internal/common/logger"
)

// GeminiProvider calls the Gemini API through the official genai client,
// sending the slide image as inline JPEG data.
type GeminiProvider struct {
	client *genai.Client
	model  string
	logger logger.Logger
}

func NewGeminiProvider(ctx context.Context, cfg *config.Config, log logger.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.AI.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{
		client: client,
		model:  cfg.AI.GeminiModel,
		logger: log.With(map[string]interface{}{"provider": "gemini"}),
	}, nil
}

func (p *GeminiProvider) Name() string { return "gemini:" + p.model }

func (p *GeminiProvider) AnalyzeSlide(ctx context.Context, image []byte, slideNumber int) (string, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{
			{Text: userPrompt(slideNumber)},
			{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: image}},
		},
	}}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Temperature:       genai.Ptr(float32(analysisTemperature)),
		MaxOutputTokens:   maxCompletionTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty response for slide %d", slideNumber)
	}

	p.logger.Debug("inference call completed", map[string]interface{}{"slide": slideNumber})
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
