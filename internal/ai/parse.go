package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"deck2jira/internal/common/logger"
	"deck2jira/internal/models"
)

// analysisSchema validates the extracted model output before it is trusted.
// A response that parses as JSON but carries the wrong shape (bad enum,
// non-string title) degrades to the fallback record just like unparseable
// text does.
const analysisSchema = `{
  "type": "object",
  "required": ["title"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "priority": {"type": "string", "enum": ["High", "Medium", "Low"]},
    "issue_type": {"type": "string", "enum": ["Bug", "Task"]},
    "labels": {"type": "array", "items": {"type": "string"}}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(analysisSchema)

type rawAnalysis struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	IssueType   string   `json:"issue_type"`
	Labels      []string `json:"labels"`
}

// parseAnalysis extracts the JSON object embedded in the model's reply (the
// model wraps it in markdown fences and prose) and builds a SlideAnalysis.
// Any parse or validation failure yields a fallback record carrying the raw
// reply as the description, so the slide still becomes a reviewable ticket.
func parseAnalysis(content string, slideNumber int, log logger.Logger) models.SlideAnalysis {
	raw, err := extractJSON(content)
	if err == nil {
		err = validateAnalysis(raw)
	}
	if err != nil {
		log.Warn("falling back to raw analysis record", map[string]interface{}{
			"slide": slideNumber,
			"error": err.Error(),
		})
		return fallbackAnalysis(content, slideNumber)
	}

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return fallbackAnalysis(content, slideNumber)
	}

	analysis := models.SlideAnalysis{
		SlideNumber: slideNumber,
		Title:       parsed.Title,
		Description: parsed.Description,
		Priority:    parsed.Priority,
		IssueType:   parsed.IssueType,
		Labels:      parsed.Labels,
	}
	if analysis.Priority == "" {
		analysis.Priority = models.DefaultPriority
	}
	if analysis.IssueType == "" {
		analysis.IssueType = models.DefaultIssueType
	}
	if analysis.Labels == nil {
		analysis.Labels = []string{}
	}
	return analysis
}

// extractJSON slices out the substring between the first '{' and the last
// '}' of the reply.
func extractJSON(content string) (string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return content[start : end+1], nil
}

func validateAnalysis(raw string) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return fmt.Errorf("schema violation: %s", strings.Join(details, "; "))
	}
	return nil
}

func fallbackAnalysis(content string, slideNumber int) models.SlideAnalysis {
	return models.SlideAnalysis{
		SlideNumber: slideNumber,
		Title:       fmt.Sprintf("Issue from Slide %d", slideNumber),
		Description: content,
		Priority:    models.DefaultPriority,
		IssueType:   models.DefaultIssueType,
		Labels:      []string{fmt.Sprintf("slide-%d", slideNumber)},
	}
}
