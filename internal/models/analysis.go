// internal/models/analysis.go
package models

const (
	DefaultPriority  = "Medium"
	DefaultIssueType = "Task"
)

// Detection is the classification result for one issue slide: its 1-based
// slide number (stable join key for all later stages) and the project key
// the routing rules assigned.
type Detection struct {
	SlideNumber int    `json:"slideNumber"`
	ProjectKey  string `json:"projectKey"`
}

// SlideAnalysis is the structured issue record extracted from one slide
// image. JiraKey stays empty until ticket filing succeeds, and is set at
// most once.
type SlideAnalysis struct {
	SlideNumber int      `json:"slideNumber"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	IssueType   string   `json:"issueType"`
	Labels      []string `json:"labels"`
	ProjectKey  string   `json:"projectKey"`
	JiraKey     string   `json:"jiraKey,omitempty"`
}
