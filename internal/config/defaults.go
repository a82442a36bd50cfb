package config

const (
	DefaultConcurrency    = 8
	DefaultSummaryMax     = 12
	DefaultCacheDirectory = ".routegen/cache"
	DefaultOutputDir      = "dist"
	DefaultDebounce       = "250ms"
	DefaultMetricsPath    = "/metrics"
	DefaultEventsSubject  = "routegen.runs"

	DefaultRetryInitial    = "1s"
	DefaultRetryMax        = "30s"
	DefaultRetryMaxRetries = 2
)

// DefaultApplier fills one configuration section.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

type outputDefaults struct{}

func (outputDefaults) Domain() string { return "output" }

func (outputDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}
	if cfg.Output.SummaryMax <= 0 {
		cfg.Output.SummaryMax = DefaultSummaryMax
	}
}

type cacheDefaults struct{}

func (cacheDefaults) Domain() string { return "cache" }

func (cacheDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = CacheBackendFS
	}
	if cfg.Cache.Directory == "" {
		cfg.Cache.Directory = DefaultCacheDirectory
	}
}

type buildDefaults struct{}

func (buildDefaults) Domain() string { return "build" }

func (buildDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Build.Concurrency <= 0 {
		cfg.Build.Concurrency = DefaultConcurrency
	}
}

type watchDefaults struct{}

func (watchDefaults) Domain() string { return "watch" }

func (watchDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = DefaultDebounce
	}
}

type observabilityDefaults struct{}

func (observabilityDefaults) Domain() string { return "observability" }

func (observabilityDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Metrics.ListenAddress != "" && cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Events.NATSURL != "" && cfg.Events.Subject == "" {
		cfg.Events.Subject = DefaultEventsSubject
	}
	if r := &cfg.Events.Retry; r.Backoff == "" {
		r.Backoff = RetryBackoffLinear
		if r.MaxRetries == 0 {
			r.MaxRetries = DefaultRetryMaxRetries
		}
	}
	if cfg.Events.Retry.Initial == "" {
		cfg.Events.Retry.Initial = DefaultRetryInitial
	}
	if cfg.Events.Retry.Max == "" {
		cfg.Events.Retry.Max = DefaultRetryMax
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}

var appliers = []DefaultApplier{
	outputDefaults{},
	cacheDefaults{},
	buildDefaults{},
	watchDefaults{},
	observabilityDefaults{},
}

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	for _, a := range appliers {
		a.ApplyDefaults(cfg)
	}
}
