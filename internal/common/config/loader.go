// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Processing defaults, matching the limits the external services tolerate.
const (
	DefaultMaxImageSizeMB        = 2.0
	DefaultMaxConcurrentRequests = 5
	DefaultRequestTimeout        = 30000  // milliseconds
	DefaultPDFConversionTimeout  = 120000 // milliseconds
	DefaultOpenAIModel           = "gpt-4o"
	DefaultGeminiModel           = "gemini-2.0-flash"
)

// Load builds the run configuration from the environment (plus an optional
// config.yaml for rule lists) and validates required keys before any
// pipeline stage runs.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// bindEnvKeys maps the flat environment variable names onto the nested
// config keys so AutomaticEnv picks them up.
func bindEnvKeys(v *viper.Viper) {
	bindings := map[string]string{
		"jira.base_url":                      "JIRA_BASE_URL",
		"jira.email":                         "JIRA_EMAIL",
		"jira.api_token":                     "JIRA_API_TOKEN",
		"jira.project_key":                   "JIRA_PROJECT_KEY",
		"ai.provider":                        "AI_PROVIDER",
		"ai.openai_api_key":                  "OPENAI_API_KEY",
		"ai.openai_model":                    "OPENAI_MODEL",
		"ai.openai_base_url":                 "OPENAI_BASE_URL",
		"ai.gemini_api_key":                  "GEMINI_API_KEY",
		"ai.gemini_model":                    "GEMINI_MODEL",
		"processing.max_image_size_mb":       "MAX_IMAGE_SIZE_MB",
		"processing.libreoffice_command":     "LIBREOFFICE_COMMAND",
		"processing.pdftoppm_command":        "PDFTOPPM_COMMAND",
		"processing.max_concurrent_requests": "MAX_CONCURRENT_REQUESTS",
		"processing.request_timeout":         "REQUEST_TIMEOUT_MS",
		"processing.pdf_conversion_timeout":  "PDF_CONVERSION_TIMEOUT_MS",
		"rules.default_project":              "RULES_DEFAULT_PROJECT",
		"logging.level":                      "LOG_LEVEL",
		"logging.format":                     "LOG_FORMAT",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}
}

// loadEnvFile loads .env from the working directory or the project root.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "deck2jira"
	}

	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.OpenAIModel == "" {
		cfg.AI.OpenAIModel = DefaultOpenAIModel
	}
	if cfg.AI.GeminiModel == "" {
		cfg.AI.GeminiModel = DefaultGeminiModel
	}

	if cfg.Processing.MaxImageSizeMB == 0 {
		cfg.Processing.MaxImageSizeMB = DefaultMaxImageSizeMB
	}
	if cfg.Processing.LibreOfficeCommand == "" {
		cfg.Processing.LibreOfficeCommand = "soffice"
	}
	if cfg.Processing.PdftoppmCommand == "" {
		cfg.Processing.PdftoppmCommand = "pdftoppm"
	}
	if cfg.Processing.MaxConcurrentRequests == 0 {
		cfg.Processing.MaxConcurrentRequests = DefaultMaxConcurrentRequests
	}
	if cfg.Processing.RequestTimeout == 0 {
		cfg.Processing.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Processing.PDFConversionTimeout == 0 {
		cfg.Processing.PDFConversionTimeout = DefaultPDFConversionTimeout
	}

	if len(cfg.Rules.Detectors) == 0 {
		cfg.Rules.Detectors = []string{
			`(?i)^issue:`,
			`(?i)^bug:`,
			`(?i)^db issue:`,
		}
	}
	if len(cfg.Rules.Routes) == 0 {
		cfg.Rules.Routes = []RouteRule{
			{Pattern: `(?i)^db issue:`, Project: "DB"},
		}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	if cfg.Jira.BaseURL == "" {
		return fmt.Errorf("jira.base_url is required (JIRA_BASE_URL)")
	}
	if cfg.Jira.Email == "" {
		return fmt.Errorf("jira.email is required (JIRA_EMAIL)")
	}
	if cfg.Jira.APIToken == "" {
		return fmt.Errorf("jira.api_token is required (JIRA_API_TOKEN)")
	}

	switch cfg.AI.Provider {
	case "openai":
		if cfg.AI.OpenAIAPIKey == "" {
			return fmt.Errorf("ai.openai_api_key is required (OPENAI_API_KEY)")
		}
	case "gemini":
		if cfg.AI.GeminiAPIKey == "" {
			return fmt.Errorf("ai.gemini_api_key is required (GEMINI_API_KEY)")
		}
	default:
		return fmt.Errorf("ai.provider must be 'openai' or 'gemini', got %q", cfg.AI.Provider)
	}

	if cfg.Jira.ProjectKey == "" && cfg.Rules.DefaultProject == "" {
		return fmt.Errorf("rules.default_project is required (RULES_DEFAULT_PROJECT) when no jira.project_key override is set")
	}

	if cfg.Processing.MaxConcurrentRequests < 1 {
		return fmt.Errorf("processing.max_concurrent_requests must be >= 1")
	}
	if cfg.Processing.MaxImageSizeMB <= 0 {
		return fmt.Errorf("processing.max_image_size_mb must be > 0")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
