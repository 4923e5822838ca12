// Package ai turns slide images into structured issue records by calling a
// vision model. Two providers are supported behind one interface: an
// OpenAI-compatible chat completions endpoint and Google Gemini.
package ai

import (
	"context"
	"fmt"

	"deck2jira/internal/common/config"
	commonerrors "deck2jira/internal/common/errors"
	"deck2jira/internal/common/logger"
)

// Provider issues one vision inference call per slide image and returns the
// raw model text. Parsing and fallback handling happen in the analyzer, so
// providers stay thin transport wrappers.
type Provider interface {
	AnalyzeSlide(ctx context.Context, image []byte, slideNumber int) (string, error)
	Name() string
}

// NewProvider builds the configured provider. The provider name is validated
// at config load time; an unknown value here means the config was bypassed.
func NewProvider(ctx context.Context, cfg *config.Config, log logger.Logger) (Provider, error) {
	switch cfg.AI.Provider {
	case "openai":
		return NewOpenAIProvider(cfg, log), nil
	case "gemini":
		return NewGeminiProvider(ctx, cfg, log)
	default:
		return nil, commonerrors.NewConfigInvalidError(fmt.Sprintf("unknown AI provider: %q", cfg.AI.Provider))
	}
}

const systemPrompt = `You are an expert at analyzing presentation slides and extracting issue information for Jira management.

Given a slide image, extract the following information for creating a Jira issue:

1. **Title/Summary**: A concise title (max 200 chars) that captures the main issue
2. **Description**: A comprehensive description of the issue, including:
   - What the problem is
   - Any visible data, metrics, or evidence related to the issue
   - Context or background information related to the issue
   - Any proposed solutions or next steps mentioned

3. **Priority**: Estimate priority based on visual cues (High/Medium/Low), if not clear, use **Medium**.
4. **Issue Type**: Categorize as Bug or Task based on content, if not clear, use Task as default.
5. **Labels**: Add upto two most relevant labels to the issue.

Format your response as JSON:
` + "```json" + `
{
  "title": "Concise issue title",
  "description": "Detailed description in markdown format",
  "priority": "High|Medium|Low",
  "issue_type": "Bug|Task",
  "labels": ["label1", "label2"]
}
` + "```" + `

Be thorough but concise.`

func userPrompt(slideNumber int) string {
	return fmt.Sprintf("Please analyze this slide (slide #%d) and extract issue information according to the format specified.", slideNumber)
}
