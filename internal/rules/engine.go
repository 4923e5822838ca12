// Package rules decides whether a slide's text marks it as an issue slide
// and which project it routes to. The engine is pure: no I/O, no state
// mutation after construction.
package rules

import (
	"fmt"
	"regexp"

	"deck2jira/internal/common/config"
)

type route struct {
	re      *regexp.Regexp
	project string
}

// Engine holds an ordered list of issue-detector patterns and an ordered
// list of routing rules. Both are evaluated in declaration order; routing
// precedence is "first declared match wins", never "most specific wins".
type Engine struct {
	detectors      []*regexp.Regexp
	routes         []route
	defaultProject string
}

// New compiles the configured patterns. Each pattern is matched against
// the full newline-joined slide text with multiline anchoring, so a line
// anchor (^) matches at the start of any line, not only the first.
func New(cfg config.RulesConfig) (*Engine, error) {
	e := &Engine{defaultProject: cfg.DefaultProject}

	for _, p := range cfg.Detectors {
		re, err := regexp.Compile("(?m)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid detector pattern %q: %w", p, err)
		}
		e.detectors = append(e.detectors, re)
	}

	for _, r := range cfg.Routes {
		re, err := regexp.Compile("(?m)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid route pattern %q: %w", r.Pattern, err)
		}
		e.routes = append(e.routes, route{re: re, project: r.Project})
	}

	return e, nil
}

// Classify returns the project key for an issue slide, or ok=false when
// the text matches no issue marker. A detected issue slide always gets a
// non-empty project: the first matching route wins, and the default
// project covers issues no route matches.
func (e *Engine) Classify(text string) (string, bool) {
	detected := false
	for _, re := range e.detectors {
		if re.MatchString(text) {
			detected = true
			break
		}
	}
	if !detected {
		return "", false
	}

	for _, r := range e.routes {
		if r.re.MatchString(text) {
			return r.project, true
		}
	}

	return e.defaultProject, true
}
