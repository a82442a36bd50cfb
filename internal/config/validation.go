package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
)

// Validate normalizes enumerations and reports every invalid field as one
// ConfigError.
func Validate(cfg *Config) error {
	var problems []string

	if backend, err := cacheBackendNormalizer.NormalizeWithError(string(cfg.Cache.Backend)); err != nil {
		problems = append(problems, "cache.backend: "+err.Error())
	} else {
		cfg.Cache.Backend = backend
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))

	if len(cfg.Entries) == 0 && cfg.Manifest == "" {
		problems = append(problems, "either manifest or entries must be set")
	}
	for origin := range cfg.Entries {
		if strings.TrimSpace(origin) == "" {
			problems = append(problems, "entries contain an empty origin")
			break
		}
	}
	if strings.TrimSpace(cfg.Output.Directory) == "" {
		problems = append(problems, "output.directory is required")
	}
	if cfg.Build.Concurrency < 1 {
		problems = append(problems, "build.concurrency must be at least 1")
	}
	if _, err := time.ParseDuration(cfg.Watch.Debounce); err != nil {
		problems = append(problems, fmt.Sprintf("watch.debounce %q is not a duration", cfg.Watch.Debounce))
	}
	if cfg.Watch.Schedule != "" {
		if d, err := time.ParseDuration(cfg.Watch.Schedule); err != nil || d <= 0 {
			problems = append(problems, fmt.Sprintf("watch.schedule %q must be a positive duration", cfg.Watch.Schedule))
		}
	}
	if cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		problems = append(problems, "metrics.path must start with /")
	}
	if cfg.Events.NATSURL != "" {
		if u, err := url.Parse(cfg.Events.NATSURL); err != nil || u.Scheme == "" {
			problems = append(problems, fmt.Sprintf("events.nats_url %q is not a URL", cfg.Events.NATSURL))
		}
	}
	if mode, err := retryBackoffNormalizer.NormalizeWithError(string(cfg.Events.Retry.Backoff)); err != nil {
		problems = append(problems, "events.retry.backoff: "+err.Error())
	} else {
		cfg.Events.Retry.Backoff = mode
	}
	for _, f := range []struct{ name, raw string }{
		{"initial", cfg.Events.Retry.Initial},
		{"max", cfg.Events.Retry.Max},
	} {
		if d, err := time.ParseDuration(f.raw); err != nil || d <= 0 {
			problems = append(problems, fmt.Sprintf("events.retry.%s %q must be a positive duration", f.name, f.raw))
		}
	}
	if cfg.Events.Retry.MaxRetries < 0 {
		problems = append(problems, "events.retry.max_retries cannot be negative")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.ConfigError("configuration validation failed: " + strings.Join(problems, "; ")).
		WithContext("problems", problems).
		Build()
}

// DebounceDuration returns watch.debounce parsed.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0
	}
	return d
}

// ScheduleInterval returns watch.schedule parsed; zero disables scheduling.
func (c *Config) ScheduleInterval() time.Duration {
	if c.Watch.Schedule == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Watch.Schedule)
	if err != nil {
		return 0
	}
	return d
}
