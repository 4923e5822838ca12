package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deck2jira/internal/common/config"
	"deck2jira/internal/common/logger"
)

func openAIConfig(endpoint string) *config.Config {
	return &config.Config{
		AI: config.AIConfig{
			Provider:      "openai",
			OpenAIAPIKey:  "test-key",
			OpenAIModel:   "gpt-4o",
			OpenAIBaseURL: endpoint,
		},
		Processing: config.ProcessingConfig{RequestTimeout: 5000},
	}
}

func TestOpenAIProvider_AnalyzeSlide(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "{\"title\": \"found it\"}"}}]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(openAIConfig(server.URL), logger.NewTestLogger(t))
	content, err := provider.AnalyzeSlide(context.Background(), []byte("jpeg-bytes"), 3)
	require.NoError(t, err)
	assert.Equal(t, `{"title": "found it"}`, content)

	assert.Equal(t, "gpt-4o", captured["model"])
	assert.Equal(t, float64(3000), captured["max_tokens"])
	assert.Equal(t, 0.1, captured["temperature"])

	messages := captured["messages"].([]interface{})
	require.Len(t, messages, 2)

	system := messages[0].(map[string]interface{})
	assert.Equal(t, "system", system["role"])
	assert.Contains(t, system["content"], "extracting issue information")

	user := messages[1].(map[string]interface{})
	parts := user["content"].([]interface{})
	require.Len(t, parts, 2)

	text := parts[0].(map[string]interface{})
	assert.Contains(t, text["text"], "slide #3")

	image := parts[1].(map[string]interface{})["image_url"].(map[string]interface{})
	assert.True(t, strings.HasPrefix(image["url"].(string), "data:image/jpeg;base64,"))
	assert.Equal(t, "high", image["detail"])
}

func TestOpenAIProvider_AnalyzeSlide_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(openAIConfig(server.URL), logger.NewNoOpLogger())
	_, err := provider.AnalyzeSlide(context.Background(), []byte("jpeg-bytes"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAIProvider_AnalyzeSlide_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(openAIConfig(server.URL), logger.NewNoOpLogger())
	_, err := provider.AnalyzeSlide(context.Background(), []byte("jpeg-bytes"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestNewProvider_UnknownProviderRejected(t *testing.T) {
	cfg := openAIConfig("")
	cfg.AI.Provider = "clippy"

	_, err := NewProvider(context.Background(), cfg, logger.NewNoOpLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIG_INVALID")
}
