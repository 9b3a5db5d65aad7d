package validate

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter formats validation results for output.
type Formatter interface {
	Format(w io.Writer, result *Result, source string) error
}

// NewFormatter returns the formatter for the named output format.
// Unknown names fall back to text.
func NewFormatter(format string) Formatter {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return &JSONFormatter{}
	}
	return &TextFormatter{}
}

// TextFormatter formats results as human-readable text.
type TextFormatter struct{}

// Format outputs results in human-readable text format.
func (f *TextFormatter) Format(w io.Writer, result *Result, source string) error {
	if _, err := fmt.Fprintf(w, "Validating site definition: %s\n", source); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("━", 60)); err != nil {
		return err
	}

	for _, issue := range result.Issues {
		if err := f.formatIssue(w, issue); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, strings.Repeat("━", 60)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Results:\n  %d entries checked\n", result.EntriesTotal); err != nil {
		return err
	}
	if n := result.ErrorCount(); n > 0 {
		if _, err := fmt.Fprintf(w, "  %d error%s (blocks build)\n", n, pluralize(n)); err != nil {
			return err
		}
	}
	if n := result.WarningCount(); n > 0 {
		if _, err := fmt.Fprintf(w, "  %d warning%s (should fix)\n", n, pluralize(n)); err != nil {
			return err
		}
	}
	if n := result.count(SeverityInfo); n > 0 {
		if _, err := fmt.Fprintf(w, "  %d info\n", n); err != nil {
			return err
		}
	}

	var final string
	switch {
	case result.HasErrors():
		final = "❌ Site definition has errors that will prevent rendering."
	case result.HasWarnings():
		final = "⚠️  Site definition has warnings. Consider fixing before publishing."
	case len(result.Issues) > 0:
		final = "ℹ️  All issues are informational."
	default:
		final = "✨ Site definition is valid!"
	}
	_, err := fmt.Fprintf(w, "\n%s\n", final)
	return err
}

func (f *TextFormatter) formatIssue(w io.Writer, issue Issue) error {
	var icon string
	switch issue.Severity {
	case SeverityError:
		icon = "✗"
	case SeverityWarning:
		icon = "⚠"
	case SeverityInfo:
		icon = "ℹ"
	}
	if _, err := fmt.Fprintf(w, "%s %s [%s]\n  %s: %s\n", icon, issue.Path, issue.Rule, issue.Severity, issue.Message); err != nil {
		return err
	}
	if issue.Fix != "" {
		if _, err := fmt.Fprintf(w, "  Fix: %s\n", issue.Fix); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// JSONFormatter formats results as JSON.
type JSONFormatter struct{}

// JSONOutput represents the JSON output structure.
type JSONOutput struct {
	Source       string  `json:"source"`
	Valid        bool    `json:"valid"`
	EntriesTotal int     `json:"entries_total"`
	ErrorCount   int     `json:"error_count"`
	WarningCount int     `json:"warning_count"`
	InfoCount    int     `json:"info_count"`
	Issues       []Issue `json:"issues"`
}

// Format outputs results as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, result *Result, source string) error {
	out := JSONOutput{
		Source:       source,
		Valid:        !result.HasErrors(),
		EntriesTotal: result.EntriesTotal,
		ErrorCount:   result.ErrorCount(),
		WarningCount: result.WarningCount(),
		InfoCount:    result.count(SeverityInfo),
		Issues:       result.Issues,
	}
	if out.Issues == nil {
		out.Issues = []Issue{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
