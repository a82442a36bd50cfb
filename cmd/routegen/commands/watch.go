package commands

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"git.home.luguber.info/inful/routegen/internal/api"
	"git.home.luguber.info/inful/routegen/internal/config"
	"git.home.luguber.info/inful/routegen/internal/manifest"
	"git.home.luguber.info/inful/routegen/internal/metrics"
	"git.home.luguber.info/inful/routegen/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output string `short:"o" help:"Output directory (overrides output.directory)"`
	Force  bool   `short:"f" help:"Force the initial build"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if w.Output != "" {
		cfg.Output.Directory = w.Output
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(cfg, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	s := &watchSession{global: g, root: root, rt: rt, cfg: cfg, output: w.Output}

	debouncer, err := watch.NewDebouncer(watch.DebouncerConfig{QuietWindow: cfg.DebounceDuration()}, s.rebuild)
	if err != nil {
		return err
	}

	if rt.Registry != nil {
		srv := api.NewServer(cfg.Metrics.ListenAddress, rt.History,
			api.WithMetrics(cfg.Metrics.Path, metrics.HTTPHandler(rt.Registry)),
			api.WithRebuild(debouncer),
		)
		go func() {
			slog.Info("Serving status and metrics", "address", srv.Addr, "metrics_path", cfg.Metrics.Path)
			if err := srv.Start(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				slog.Error("Status server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	watcher, err := watch.NewWatcher(debouncer)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Stop() }()
	s.watcher = watcher

	if interval := cfg.ScheduleInterval(); interval > 0 {
		scheduler, err := watch.NewScheduler(debouncer)
		if err != nil {
			return err
		}
		if _, err := scheduler.SchedulePeriodicRebuild(interval); err != nil {
			_ = scheduler.Stop()
			return err
		}
		scheduler.Start()
		defer func() { _ = scheduler.Stop() }()
		slog.Info("Scheduled forced rebuilds", "interval", interval)
	}

	if err := s.refreshWatches(cfg); err != nil {
		return err
	}
	watcher.Start(ctx)

	go func() {
		select {
		case <-debouncer.Ready():
			debouncer.Request("startup", w.Force || cfg.Cache.Force)
		case <-ctx.Done():
		}
	}()

	slog.Info("Watching for changes", "dirs", len(watcher.Dirs()))
	err = debouncer.Run(ctx)
	if err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("Watch stopped")
	return nil
}

// watchSession reloads configuration for every rebuild so manifest edits
// take effect without restarting.
type watchSession struct {
	global  *Global
	root    *CLI
	rt      *Runtime
	cfg     *config.Config
	output  string
	watcher *watch.Watcher
}

func (s *watchSession) rebuild(ctx context.Context, t watch.Trigger) {
	slog.Info("Rebuilding", "reason", t.Reason, "force", t.Force, "requests", t.Requests)

	cfg, err := config.Load(s.root.Config)
	if err != nil {
		slog.Warn("Keeping previous configuration", "error", err)
		cfg = s.cfg
	} else if s.output != "" {
		cfg.Output.Directory = s.output
	}
	if err := s.rt.Reconfigure(cfg); err != nil {
		slog.Warn("Keeping previous cache store", "error", err)
		cfg = s.cfg
	}
	s.cfg = cfg

	if _, err := runOnce(ctx, s.global, s.rt, cfg, t.Force || cfg.Cache.Force); err != nil {
		slog.Error("Rebuild failed", "error", err)
	}
	if err := s.refreshWatches(cfg); err != nil {
		slog.Warn("Failed to update watched files", "error", err)
	}
}

func (s *watchSession) refreshWatches(cfg *config.Config) error {
	files := []string{s.root.Config}
	if cfg.Manifest != "" {
		files = append(files, cfg.Resolve(cfg.Manifest))
	}
	m, err := cfg.LoadManifest()
	if err != nil {
		slog.Warn("Watching configuration only", "error", err)
	} else {
		files = append(files, watchedFiles(m)...)
	}
	return s.watcher.SetFiles(files)
}

// watchedFiles returns every module and dependency path in m, sorted and unique.
func watchedFiles(m *manifest.Manifest) []string {
	seen := make(map[string]struct{})
	for _, p := range m.Entries {
		seen[p] = struct{}{}
	}
	for _, deps := range m.Dependencies {
		for _, d := range deps {
			seen[d] = struct{}{}
		}
	}
	files := make([]string, 0, len(seen))
	for p := range seen {
		if p != "" {
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return files
}
