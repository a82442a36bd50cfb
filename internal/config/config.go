package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when --config is not given.
const DefaultPath = "routegen.yaml"

// Config is the routegen project configuration.
type Config struct {
	Version string `yaml:"version"`
	// Manifest points at a route manifest file. Entries below are merged on top of it.
	Manifest string            `yaml:"manifest,omitempty"`
	Entries  map[string]string `yaml:"entries,omitempty"`
	// Dependencies lists extra files whose content invalidates a route's cache record.
	Dependencies map[string][]string `yaml:"dependencies,omitempty"`
	Output       OutputConfig        `yaml:"output"`
	Cache        CacheConfig         `yaml:"cache"`
	Build        BuildConfig         `yaml:"build"`
	Watch        WatchConfig         `yaml:"watch,omitempty"`
	Metrics      MetricsConfig       `yaml:"metrics,omitempty"`
	Events       EventsConfig        `yaml:"events,omitempty"`
	Logging      LoggingConfig       `yaml:"logging,omitempty"`

	// base is the directory relative paths are resolved against.
	base string
}

// OutputConfig controls where pages are written and how the run summary looks.
type OutputConfig struct {
	Directory  string `yaml:"directory"`
	SummaryMax int    `yaml:"summary_max,omitempty"`
}

// CacheConfig selects the incremental cache backend.
type CacheConfig struct {
	Backend   CacheBackend `yaml:"backend"`
	Directory string       `yaml:"directory"`
	Force     bool         `yaml:"force,omitempty"`
}

// BuildConfig holds stage execution settings.
type BuildConfig struct {
	Concurrency int  `yaml:"concurrency"`
	Strict      bool `yaml:"strict,omitempty"`
}

// WatchConfig drives the watch command.
type WatchConfig struct {
	Debounce string `yaml:"debounce,omitempty"`
	// Schedule forces a full rebuild at a fixed interval (Go duration, empty disables).
	Schedule string `yaml:"schedule,omitempty"`
}

// MetricsConfig exposes Prometheus metrics when ListenAddress is set.
type MetricsConfig struct {
	ListenAddress string `yaml:"listen_address,omitempty"`
	Path          string `yaml:"path,omitempty"`
}

// EventsConfig publishes run events to NATS when URL is set.
type EventsConfig struct {
	NATSURL string      `yaml:"nats_url,omitempty"`
	Subject string      `yaml:"subject,omitempty"`
	Retry   RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig controls how failed event publishes are retried.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff,omitempty"` // fixed|linear|exponential
	Initial    string           `yaml:"initial,omitempty"`
	Max        string           `yaml:"max,omitempty"`
	MaxRetries int              `yaml:"max_retries,omitempty"`
}

// Delays returns the parsed initial and maximum delays; unparsable values
// are zero.
func (r RetryConfig) Delays() (initial, maxDelay time.Duration) {
	initial, _ = time.ParseDuration(r.Initial)
	maxDelay, _ = time.ParseDuration(r.Max)
	return initial, maxDelay
}

// LoggingConfig sets the slog level and handler format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// BaseDir returns the directory the configuration was loaded from.
func (c *Config) BaseDir() string {
	if c.base == "" {
		return "."
	}
	return c.base
}

// Resolve turns p into a path relative to the configuration directory.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir(), p)
}

// Load reads, expands, defaults and validates the configuration at configPath.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	cfg.base = filepath.Dir(configPath)
	return cfg, nil
}

// Parse decodes an already expanded configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
	}
	if cfg.Version != "" && cfg.Version != CurrentVersion {
		return nil, errors.ConfigError(fmt.Sprintf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion)).Build()
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CurrentVersion is the configuration schema version written by Init.
const CurrentVersion = "1"

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("path", configPath).
			Build()
	}

	example := Config{
		Version: CurrentVersion,
		Entries: map[string]string{
			"pages/index.yaml": "pages/index.yaml",
			"pages/blog.html":  "pages/blog.html",
		},
		Output: OutputConfig{Directory: "dist", SummaryMax: DefaultSummaryMax},
		Cache:  CacheConfig{Backend: CacheBackendFS, Directory: DefaultCacheDirectory},
		Build:  BuildConfig{Concurrency: DefaultConcurrency},
		Watch:  WatchConfig{Debounce: DefaultDebounce},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}

	// #nosec G306 -- config is meant to be shared with the project
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
