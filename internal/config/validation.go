package config

import (
	"fmt"
	"slices"
	"time"

	"git.home.luguber.info/inful/docnav/internal/foundation/errors"
)

// ValidateConfig checks a normalized, defaulted configuration. Structural
// rules of the site definition itself are checked by the validate package.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if cv.config == nil {
		return errors.ConfigError("configuration is nil").Build()
	}
	if err := cv.validateSite(); err != nil {
		return err
	}
	if err := cv.validateOutput(); err != nil {
		return err
	}
	if err := cv.validateLinkCheck(); err != nil {
		return err
	}
	return cv.validateWatch()
}

func (cv *configurationValidator) validateSite() error {
	if cv.config.Site == nil && cv.config.SiteFile == "" {
		return errors.ConfigError("no site definition: set site or site_file").Build()
	}
	return nil
}

func (cv *configurationValidator) validateOutput() error {
	for _, f := range cv.config.Output.Formats {
		if !slices.Contains(OutputFormats, f) {
			return fieldError("output.formats", fmt.Sprintf("unknown output format %q, valid options: %v", f, OutputFormats))
		}
	}
	return nil
}

func (cv *configurationValidator) validateLinkCheck() error {
	l := cv.config.LinkCheck
	if l.MaxConcurrent <= 0 {
		return fieldError("linkcheck.max_concurrent", "must be greater than 0")
	}
	durations := []struct{ field, value string }{
		{"linkcheck.timeout", l.Timeout},
		{"linkcheck.retry_initial_delay", l.RetryInitialDelay},
		{"linkcheck.retry_max_delay", l.RetryMaxDelay},
		{"linkcheck.cache_ttl", l.CacheTTL},
		{"linkcheck.cache_ttl_failures", l.CacheTTLFailures},
	}
	for _, d := range durations {
		if err := positiveDuration(d.field, d.value); err != nil {
			return err
		}
	}
	if Duration(l.RetryInitialDelay, 0) > Duration(l.RetryMaxDelay, 0) {
		return fieldError("linkcheck.retry_initial_delay", "must not exceed retry_max_delay")
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	w := cv.config.Watch
	if err := positiveDuration("watch.debounce", w.Debounce); err != nil {
		return err
	}
	if w.LinkCheckInterval != "" {
		if err := positiveDuration("watch.link_check_interval", w.LinkCheckInterval); err != nil {
			return err
		}
	}
	return nil
}

func positiveDuration(field, raw string) error {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fieldError(field, fmt.Sprintf("invalid duration %q", raw))
	}
	if d <= 0 {
		return fieldError(field, "must be a positive duration")
	}
	return nil
}

func fieldError(field, msg string) error {
	return errors.ConfigError(field+": "+msg).WithContext("field", field).Build()
}
