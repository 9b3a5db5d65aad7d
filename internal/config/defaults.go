package config

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// Default values.
const (
	DefaultDocsDir           = "docs"
	DefaultOutputDir         = "docs/.vuepress"
	DefaultHistoryPath       = ".docnav/history.db"
	DefaultTimeout           = "10s"
	DefaultMaxConcurrent     = 8
	DefaultMaxRetries        = 2
	DefaultRetryInitialDelay = "500ms"
	DefaultRetryMaxDelay     = "10s"
	DefaultCacheTTL          = "24h"
	DefaultCacheTTLFailures  = "1h"
	DefaultNATSSubject       = "docnav.links.broken"
	DefaultKVBucket          = "docnav-link-cache"
	DefaultDebounce          = "500ms"
	DefaultMetricsAddr       = "127.0.0.1:9464"
)

// OutputDefaultApplier handles output and docs defaults.
type OutputDefaultApplier struct{}

func (OutputDefaultApplier) Domain() string { return "output" }

func (OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Docs.Dir == "" {
		cfg.Docs.Dir = DefaultDocsDir
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}
	if len(cfg.Output.Formats) == 0 {
		cfg.Output.Formats = []string{"vuepress"}
	}
	return nil
}

// LinkCheckDefaultApplier handles link check defaults.
type LinkCheckDefaultApplier struct{}

func (LinkCheckDefaultApplier) Domain() string { return "linkcheck" }

func (LinkCheckDefaultApplier) ApplyDefaults(cfg *Config) error {
	l := &cfg.LinkCheck
	if l.Timeout == "" {
		l.Timeout = DefaultTimeout
	}
	if l.MaxConcurrent == 0 {
		l.MaxConcurrent = DefaultMaxConcurrent
	}
	if l.MaxRetries == 0 {
		l.MaxRetries = DefaultMaxRetries
	}
	if l.RetryBackoff == "" {
		l.RetryBackoff = RetryBackoffExponential
	}
	if l.RetryInitialDelay == "" {
		l.RetryInitialDelay = DefaultRetryInitialDelay
	}
	if l.RetryMaxDelay == "" {
		l.RetryMaxDelay = DefaultRetryMaxDelay
	}
	if l.CacheTTL == "" {
		l.CacheTTL = DefaultCacheTTL
	}
	if l.CacheTTLFailures == "" {
		l.CacheTTLFailures = DefaultCacheTTLFailures
	}
	if l.NATS.URL != "" {
		if l.NATS.Subject == "" {
			l.NATS.Subject = DefaultNATSSubject
		}
		if l.NATS.KVBucket == "" {
			l.NATS.KVBucket = DefaultKVBucket
		}
	}
	return nil
}

// RuntimeDefaultApplier handles history, watch and logging defaults.
type RuntimeDefaultApplier struct{}

func (RuntimeDefaultApplier) Domain() string { return "runtime" }

func (RuntimeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = DefaultDebounce
	}
	if cfg.Watch.MetricsAddr == "" {
		cfg.Watch.MetricsAddr = DefaultMetricsAddr
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}

var defaultAppliers = []DefaultApplier{
	OutputDefaultApplier{},
	LinkCheckDefaultApplier{},
	RuntimeDefaultApplier{},
}

func applyDefaults(cfg *Config) error {
	for _, applier := range defaultAppliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
