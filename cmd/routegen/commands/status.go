package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	Force bool `short:"f" help:"Report as if --force were passed to build"`
}

func (s *StatusCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	rt, err := newRuntime(cfg, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	m, err := cfg.LoadManifest()
	if err != nil {
		return err
	}
	decision, err := rt.Service.Plan(context.Background(), m, s.Force || cfg.Cache.Force)
	if err != nil {
		return err
	}

	cached := make([]string, 0, len(decision.Cached))
	for origin := range decision.Cached {
		cached = append(cached, origin)
	}
	sort.Strings(cached)

	out := g.out()
	printGroup(out, "cached", cached)
	printGroup(out, "to compile", decision.ToCompile)
	return nil
}

func printGroup(w io.Writer, label string, origins []string) {
	_, _ = fmt.Fprintf(w, "%s (%d)\n", label, len(origins))
	for _, o := range origins {
		_, _ = fmt.Fprintf(w, "  %s\n", o)
	}
}
