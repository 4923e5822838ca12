package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deck2jira/internal/common/config"
)

func testRules() config.RulesConfig {
	return config.RulesConfig{
		Detectors: []string{
			`(?i)^issue:`,
			`(?i)^bug:`,
			`(?i)^db issue:`,
		},
		Routes: []config.RouteRule{
			{Pattern: `(?i)^db issue:`, Project: "DB"},
			{Pattern: `(?i)^bug:`, Project: "QA"},
		},
		DefaultProject: "OPS",
	}
}

func TestEngine_Classify(t *testing.T) {
	engine, err := New(testRules())
	require.NoError(t, err)

	tests := []struct {
		name        string
		text        string
		wantProject string
		wantIssue   bool
	}{
		{
			name:      "no marker anywhere",
			text:      "Quarterly roadmap\nRevenue is up 4%",
			wantIssue: false,
		},
		{
			name:      "marker not at line start",
			text:      "we found an issue: slow startup",
			wantIssue: false,
		},
		{
			name:        "generic issue marker falls back to default project",
			text:        "Issue: camera misaligned",
			wantProject: "OPS",
			wantIssue:   true,
		},
		{
			name:        "marker on a later line",
			text:        "Sprint review\nDB issue: replica lag growing",
			wantProject: "DB",
			wantIssue:   true,
		},
		{
			name:        "case insensitive marker",
			text:        "dB IsSuE: connection pool exhausted",
			wantProject: "DB",
			wantIssue:   true,
		},
		{
			name:        "unrelated lines do not disturb routing",
			text:        "Agenda\nDB issue: slow queries\nNext steps",
			wantProject: "DB",
			wantIssue:   true,
		},
		{
			name:        "first declared route wins over later match",
			text:        "DB issue: migration broke\nBug: also reproduced in staging",
			wantProject: "DB",
			wantIssue:   true,
		},
		{
			name:        "bug marker routes to its project",
			text:        "Bug: login loop on mobile",
			wantProject: "QA",
			wantIssue:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, ok := engine.Classify(tt.text)
			assert.Equal(t, tt.wantIssue, ok)
			if tt.wantIssue {
				assert.Equal(t, tt.wantProject, project)
			}
		})
	}
}

func TestEngine_Classify_RoutePrecedenceIsDeclarationOrder(t *testing.T) {
	// Reverse the route order and the same text must route differently:
	// precedence is positional, not pattern specificity.
	cfg := testRules()
	cfg.Routes = []config.RouteRule{
		{Pattern: `(?i)^bug:`, Project: "QA"},
		{Pattern: `(?i)^db issue:`, Project: "DB"},
	}
	engine, err := New(cfg)
	require.NoError(t, err)

	project, ok := engine.Classify("Bug: checkout fails\nDB issue: deadlock on orders")
	require.True(t, ok)
	assert.Equal(t, "QA", project)
}

func TestEngine_Classify_Idempotent(t *testing.T) {
	engine, err := New(testRules())
	require.NoError(t, err)

	text := "DB issue: replication stalled"
	first, firstOK := engine.Classify(text)
	for i := 0; i < 10; i++ {
		project, ok := engine.Classify(text)
		assert.Equal(t, first, project)
		assert.Equal(t, firstOK, ok)
	}
}

func TestEngine_Classify_IssueWithoutRouteGetsDefaultNeverEmpty(t *testing.T) {
	engine, err := New(testRules())
	require.NoError(t, err)

	project, ok := engine.Classify("Issue: something broke")
	require.True(t, ok)
	assert.NotEmpty(t, project)
	assert.Equal(t, "OPS", project)
}

func TestNew_InvalidPattern(t *testing.T) {
	cfg := testRules()
	cfg.Detectors = append(cfg.Detectors, `([unclosed`)
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = testRules()
	cfg.Routes = append(cfg.Routes, config.RouteRule{Pattern: `)(`, Project: "X"})
	_, err = New(cfg)
	assert.Error(t, err)
}
