package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv sets the minimum environment for a valid openai run.
// Individual tests blank out or override keys from here.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JIRA_BASE_URL", "https://example.atlassian.net")
	t.Setenv("JIRA_EMAIL", "bot@example.com")
	t.Setenv("JIRA_API_TOKEN", "token-123")
	t.Setenv("JIRA_PROJECT_KEY", "")
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("RULES_DEFAULT_PROJECT", "OPS")
}

func TestLoad_AppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.AI.OpenAIModel)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.GeminiModel)
	assert.Equal(t, 2.0, cfg.Processing.MaxImageSizeMB)
	assert.Equal(t, "soffice", cfg.Processing.LibreOfficeCommand)
	assert.Equal(t, "pdftoppm", cfg.Processing.PdftoppmCommand)
	assert.Equal(t, 5, cfg.Processing.MaxConcurrentRequests)
	assert.Equal(t, 30*time.Second, GetDuration(cfg.Processing.RequestTimeout))
	assert.Equal(t, 2*time.Minute, GetDuration(cfg.Processing.PDFConversionTimeout))

	// Default rule set detects issue markers and routes DB issues.
	assert.NotEmpty(t, cfg.Rules.Detectors)
	require.Len(t, cfg.Rules.Routes, 1)
	assert.Equal(t, "DB", cfg.Rules.Routes[0].Project)
	assert.Equal(t, "OPS", cfg.Rules.DefaultProject)
}

func TestLoad_RequiresJiraSettings(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JIRA_BASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JIRA_BASE_URL")
}

func TestLoad_RequiresProviderKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AI_PROVIDER", "gemini")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AI_PROVIDER", "watson")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider")
}

func TestLoad_DefaultProjectRequiredWithoutOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RULES_DEFAULT_PROJECT", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RULES_DEFAULT_PROJECT")
}

func TestLoad_ProjectOverrideReplacesDefaultProject(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RULES_DEFAULT_PROJECT", "")
	t.Setenv("JIRA_PROJECT_KEY", "OVERRIDE")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "OVERRIDE", cfg.Jira.ProjectKey)
}

func TestLoad_EnvOverridesProcessingDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_CONCURRENT_REQUESTS", "9")
	t.Setenv("LIBREOFFICE_COMMAND", "/opt/libreoffice/soffice")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Processing.MaxConcurrentRequests)
	assert.Equal(t, "/opt/libreoffice/soffice", cfg.Processing.LibreOfficeCommand)
}

func TestLoad_TimeoutEnvVarsAreMilliseconds(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REQUEST_TIMEOUT_MS", "1500")
	t.Setenv("PDF_CONVERSION_TIMEOUT_MS", "45000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, GetDuration(cfg.Processing.RequestTimeout))
	assert.Equal(t, 45*time.Second, GetDuration(cfg.Processing.PDFConversionTimeout))
}
