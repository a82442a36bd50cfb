package commands

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/routegen/internal/build"
	"git.home.luguber.info/inful/routegen/internal/config"
	"git.home.luguber.info/inful/routegen/internal/events"
	"git.home.luguber.info/inful/routegen/internal/loader"
	"git.home.luguber.info/inful/routegen/internal/metrics"
	"git.home.luguber.info/inful/routegen/internal/retry"
	"git.home.luguber.info/inful/routegen/internal/storage"
)

// Global is bound into every command's Run.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"routegen.yaml" env:"ROUTEGEN_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build  BuildCmd  `cmd:"" help:"Generate every route into the output directory"`
	Status StatusCmd `cmd:"" help:"Show which routes are cached and which need compiling"`
	Watch  WatchCmd  `cmd:"" help:"Rebuild whenever a route input changes"`
	Cache  CacheCmd  `cmd:"" help:"Manage the incremental cache"`
	Init   InitCmd   `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; it installs the default logger.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	setupLogging(c.logLevel(""), config.LogFormatText)
	return nil
}

// logLevel resolves the level: --verbose, then ROUTEGEN_LOG_LEVEL, then the
// configured level.
func (c *CLI) logLevel(configured config.LogLevel) slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	if env := strings.TrimSpace(os.Getenv("ROUTEGEN_LOG_LEVEL")); env != "" {
		return config.NormalizeLogLevel(env).SlogLevel()
	}
	return configured.SlogLevel()
}

func setupLogging(level slog.Level, format config.LogFormat) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the configuration and reapplies logging from it.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	setupLogging(root.logLevel(cfg.Logging.Level), cfg.Logging.Format)
	return cfg, nil
}

// Runtime is the set of collaborators a command needs for running builds.
type Runtime struct {
	Config    *config.Config
	Service   *build.DefaultService
	Store     storage.Store
	Publisher events.Publisher
	Registry  *prom.Registry
	History   *events.History
	recorder  metrics.Recorder
}

// newRuntime opens the cache store and, when configured, the NATS publisher.
// serving adds the Prometheus recorder and run history used by the status
// server.
func newRuntime(cfg *config.Config, serving bool) (*Runtime, error) {
	store, err := cfg.OpenStore()
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg, Store: store}
	var publishers events.Multi
	if cfg.Events.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			slog.Warn("Run events disabled", "error", err)
		} else {
			publishers = append(publishers, pub.WithRetry(retry.FromConfig(cfg.Events.Retry)))
		}
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if serving && cfg.Metrics.ListenAddress != "" {
		rt.Registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(rt.Registry)
		rt.History = events.NewHistory(0)
		publishers = append(publishers, rt.History)
	}

	switch len(publishers) {
	case 0:
		rt.Publisher = events.Noop{}
	case 1:
		rt.Publisher = publishers[0]
	default:
		rt.Publisher = publishers
	}

	rt.recorder = recorder
	rt.Service = rt.newService(cfg)
	return rt, nil
}

func (rt *Runtime) newService(cfg *config.Config) *build.DefaultService {
	return build.NewService().
		WithLoader(loader.NewDocuments(cfg.BaseDir())).
		WithStore(rt.Store).
		WithRecorder(rt.recorder).
		WithPublisher(rt.Publisher).
		WithLogger(slog.Default()).
		WithConcurrency(cfg.Build.Concurrency).
		WithStrict(cfg.Build.Strict)
}

// Reconfigure rebuilds the service from cfg. The cache store is reopened
// only when its backend or directory changed; the publisher and metrics
// are kept.
func (rt *Runtime) Reconfigure(cfg *config.Config) error {
	old := rt.Config
	if cfg.Cache.Backend != old.Cache.Backend || cfg.Resolve(cfg.Cache.Directory) != old.Resolve(old.Cache.Directory) {
		store, err := cfg.OpenStore()
		if err != nil {
			return err
		}
		if err := rt.Store.Close(); err != nil {
			slog.Warn("Failed to close cache store", "error", err)
		}
		rt.Store = store
	}
	rt.Config = cfg
	rt.Service = rt.newService(cfg)
	return nil
}

// Close releases the store and publisher.
func (rt *Runtime) Close() {
	if err := rt.Publisher.Close(); err != nil {
		slog.Warn("Failed to close publisher", "error", err)
	}
	if err := rt.Store.Close(); err != nil {
		slog.Warn("Failed to close cache store", "error", err)
	}
}
