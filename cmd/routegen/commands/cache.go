package commands

import (
	"context"
	"fmt"
)

// CacheCmd groups cache maintenance subcommands.
type CacheCmd struct {
	Clear CacheClearCmd `cmd:"" help:"Drop every cache record"`
	List  CacheListCmd  `cmd:"" help:"List origins with a cache record"`
}

// CacheClearCmd implements 'cache clear'.
type CacheClearCmd struct{}

func (c *CacheClearCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	store, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Clear(context.Background()); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.out(), "cache cleared")
	return nil
}

// CacheListCmd implements 'cache list'.
type CacheListCmd struct{}

func (c *CacheListCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	store, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	origins, err := store.List(context.Background())
	if err != nil {
		return err
	}
	for _, o := range origins {
		_, _ = fmt.Fprintln(g.out(), o)
	}
	return nil
}
