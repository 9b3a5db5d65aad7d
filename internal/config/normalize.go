package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments and warnings from normalization.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig canonicalizes enumerated and bounded fields before
// defaults are applied. It mutates c in place.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, fmt.Errorf("config nil")
	}
	res := &NormalizationResult{}
	normalizeOutput(&c.Output, res)
	normalizeLinkCheck(&c.LinkCheck, res)
	normalizeLogging(&c.Logging, res)
	return res, nil
}

func normalizeOutput(o *OutputConfig, res *NormalizationResult) {
	formats := make([]string, 0, len(o.Formats))
	seen := make(map[string]bool)
	for _, raw := range o.Formats {
		f := NormalizeFormat(raw)
		if f == "" {
			// Left in place so validation can report it.
			f = strings.TrimSpace(raw)
		} else if f != raw {
			res.Warnings = append(res.Warnings, warnChanged("output.formats", raw, f))
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		formats = append(formats, f)
	}
	if o.Formats != nil {
		o.Formats = formats
	}
	o.Directory = strings.TrimSpace(o.Directory)
}

func normalizeLinkCheck(l *LinkCheckConfig, res *NormalizationResult) {
	if rb := NormalizeRetryBackoff(string(l.RetryBackoff)); rb != "" {
		if l.RetryBackoff != rb {
			res.Warnings = append(res.Warnings, warnChanged("linkcheck.retry_backoff", l.RetryBackoff, rb))
			l.RetryBackoff = rb
		}
	} else if strings.TrimSpace(string(l.RetryBackoff)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("linkcheck.retry_backoff", string(l.RetryBackoff), string(RetryBackoffExponential)))
		l.RetryBackoff = RetryBackoffExponential
	}
	if l.MaxConcurrent < 0 {
		l.MaxConcurrent = 0
	}
	if l.MaxRetries < 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("linkcheck.max_retries: negative value %d coerced to 0", l.MaxRetries))
		l.MaxRetries = 0
	}
}

func normalizeLogging(l *LoggingConfig, res *NormalizationResult) {
	if lvl := NormalizeLogLevel(string(l.Level)); lvl != "" {
		if l.Level != lvl {
			res.Warnings = append(res.Warnings, warnChanged("logging.level", l.Level, lvl))
			l.Level = lvl
		}
	} else if strings.TrimSpace(string(l.Level)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("logging.level", string(l.Level), string(LogLevelInfo)))
		l.Level = LogLevelInfo
	}
	if f := NormalizeLogFormat(string(l.Format)); f != "" {
		if l.Format != f {
			res.Warnings = append(res.Warnings, warnChanged("logging.format", l.Format, f))
			l.Format = f
		}
	} else if strings.TrimSpace(string(l.Format)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("logging.format", string(l.Format), string(LogFormatText)))
		l.Format = LogFormatText
	}
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("%s: normalized %v -> %v", field, from, to)
}

func warnUnknown(field, value, fallback string) string {
	return fmt.Sprintf("%s: unknown value %q, using %s", field, value, fallback)
}
