package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/routegen/internal/build"
	"git.home.luguber.info/inful/routegen/internal/config"
	"git.home.luguber.info/inful/routegen/internal/output"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory (overrides output.directory)"`
	Force  bool   `short:"f" help:"Ignore the incremental cache and compile every route"`
	Strict bool   `help:"Stop at the first stage that logs an error"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.Strict {
		cfg.Build.Strict = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_, err = RunBuild(ctx, g, cfg, b.Force || cfg.Cache.Force)
	return err
}

// RunBuild performs one run and prints its summary.
func RunBuild(ctx context.Context, g *Global, cfg *config.Config, force bool) (*build.Result, error) {
	rt, err := newRuntime(cfg, false)
	if err != nil {
		return nil, err
	}
	defer rt.Close()
	return runOnce(ctx, g, rt, cfg, force)
}

func runOnce(ctx context.Context, g *Global, rt *Runtime, cfg *config.Config, force bool) (*build.Result, error) {
	m, err := cfg.LoadManifest()
	if err != nil {
		return nil, err
	}
	result, err := rt.Service.Run(ctx, build.Request{
		Manifest:  m,
		OutputDir: cfg.OutputDir(),
		Force:     force,
	})
	if result != nil && (err == nil || len(result.Written) > 0) {
		color := false
		if f, ok := g.out().(*os.File); ok {
			color = output.ColorEnabled(f)
		}
		if perr := result.Summary(cfg.Output.SummaryMax, color).Print(g.out()); perr != nil {
			return result, perr
		}
	}
	if result != nil && len(result.Failed) > 0 {
		_, _ = fmt.Fprintf(g.out(), "%d route(s) failed: %v\n", len(result.Failed), result.Failed)
	}
	return result, err
}
