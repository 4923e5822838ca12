package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"deck2jira/internal/common/config"
	"deck2jira/internal/common/httpclient"
	"deck2jira/internal/common/logger"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

const (
	maxCompletionTokens  = 3000
	analysisTemperature  = 0.1
	imageDetail          = "high"
	errorBodySnippetSize = 2048
)

// OpenAIProvider calls an OpenAI-compatible chat completions endpoint with
// the slide image inlined as a base64 data URL.
type OpenAIProvider struct {
	client   *httpclient.Client
	apiKey   string
	model    string
	endpoint string
	logger   logger.Logger
}

func NewOpenAIProvider(cfg *config.Config, log logger.Logger) *OpenAIProvider {
	endpoint := cfg.AI.OpenAIBaseURL
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	return &OpenAIProvider{
		client:   httpclient.NewClient(config.GetDuration(cfg.Processing.RequestTimeout)),
		apiKey:   cfg.AI.OpenAIAPIKey,
		model:    cfg.AI.OpenAIModel,
		endpoint: endpoint,
		logger:   log.With(map[string]interface{}{"provider": "openai"}),
	}
}

func (p *OpenAIProvider) Name() string { return "openai:" + p.model }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// Content is a plain string for the system message and a part list for the
// user message, matching the multimodal chat completions schema.
type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *OpenAIProvider) AnalyzeSlide(ctx context.Context, image []byte, slideNumber int) (string, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	reqBody := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: userPrompt(slideNumber)},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL, Detail: imageDetail}},
			}},
		},
		MaxTokens:   maxCompletionTokens,
		Temperature: analysisTemperature,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodySnippetSize))
		return "", fmt.Errorf("chat completions: unexpected status %s: %s", resp.Status, string(snippet))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("chat completions: decode response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat completions: empty response for slide %d", slideNumber)
	}

	p.logger.Debug("inference call completed", map[string]interface{}{"slide": slideNumber})
	return out.Choices[0].Message.Content, nil
}
