// Package validate checks the structural invariants of a site navigation
// definition and reports them as lint-style issues.
package validate

import (
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/docnav/internal/foundation/errors"
)

// Severity indicates the importance level of an issue.
type Severity int

const (
	// SeverityInfo marks optional improvements.
	SeverityInfo Severity = iota
	// SeverityWarning marks issues that render but should be fixed.
	SeverityWarning
	// SeverityError marks definitions the documentation framework cannot use.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON renders the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Issue is a single problem found in a site definition.
type Issue struct {
	Path     string   `json:"path"` // field path, e.g. themeConfig.nav[2].items
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Fix      string   `json:"fix,omitempty"`
}

// Result contains all issues found during validation.
type Result struct {
	Issues       []Issue `json:"issues"`
	EntriesTotal int     `json:"entries_total"` // nav entries, group items and sidebar prefixes checked
}

// HasErrors returns true if any error-level issues exist.
func (r *Result) HasErrors() bool { return r.ErrorCount() > 0 }

// HasWarnings returns true if any warning-level issues exist.
func (r *Result) HasWarnings() bool { return r.WarningCount() > 0 }

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int { return r.count(SeverityError) }

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int { return r.count(SeverityWarning) }

func (r *Result) count(sev Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == sev {
			n++
		}
	}
	return n
}

// Rules returns the rule names of all issues, in report order.
func (r *Result) Rules() []string {
	rules := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		rules = append(rules, issue.Rule)
	}
	return rules
}

// Err returns a classified validation error when the result has errors.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	var first Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			first = issue
			break
		}
	}
	return errors.ValidationError("site configuration is invalid").
		WithContext("errors", r.ErrorCount()).
		WithContext("first", fmt.Sprintf("%s: %s", first.Path, first.Message)).
		Build()
}

func (r *Result) add(sev Severity, path, rule, message, fix string) {
	r.Issues = append(r.Issues, Issue{Path: path, Severity: sev, Rule: rule, Message: message, Fix: fix})
}
