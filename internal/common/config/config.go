// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Jira       JiraConfig       `mapstructure:"jira"`
	AI         AIConfig         `mapstructure:"ai"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Rules      RulesConfig      `mapstructure:"rules"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// JiraConfig holds the ticket store connection settings. ProjectKey, when
// set, is the run-level manual override: every ticket in the run is filed
// against it and rule-based routing is disabled.
type JiraConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Email      string `mapstructure:"email"`
	APIToken   string `mapstructure:"api_token"`
	ProjectKey string `mapstructure:"project_key"`
}

// AIConfig holds vision inference provider settings.
type AIConfig struct {
	Provider      string `mapstructure:"provider"` // "openai" or "gemini"
	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIModel   string `mapstructure:"openai_model"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	GeminiAPIKey  string `mapstructure:"gemini_api_key"`
	GeminiModel   string `mapstructure:"gemini_model"`
}

// ProcessingConfig holds rendering and batch settings.
type ProcessingConfig struct {
	MaxImageSizeMB        float64 `mapstructure:"max_image_size_mb"`
	LibreOfficeCommand    string  `mapstructure:"libreoffice_command"`
	PdftoppmCommand       string  `mapstructure:"pdftoppm_command"`
	MaxConcurrentRequests int     `mapstructure:"max_concurrent_requests"`
	RequestTimeout        int     `mapstructure:"request_timeout"`        // milliseconds
	PDFConversionTimeout  int     `mapstructure:"pdf_conversion_timeout"` // milliseconds
	DryRun                bool    `mapstructure:"dry_run"`
	Debug                 bool    `mapstructure:"debug"`
}

// RouteRule binds a slide-text pattern to a target project key. Rules are
// kept in an ordered slice, never a map: the first declared match wins.
type RouteRule struct {
	Pattern string `mapstructure:"pattern"`
	Project string `mapstructure:"project"`
}

// RulesConfig holds issue detection and project routing rules.
type RulesConfig struct {
	Detectors      []string    `mapstructure:"detectors"`
	Routes         []RouteRule `mapstructure:"routes"`
	DefaultProject string      `mapstructure:"default_project"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
