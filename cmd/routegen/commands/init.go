package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"git.home.luguber.info/inful/routegen/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory to write routegen.yaml into"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	if i.Output != "" {
		return RunInit(g.out(), filepath.Join(i.Output, config.DefaultPath), i.Force)
	}
	return RunInit(g.out(), root.Config, i.Force)
}

func RunInit(w io.Writer, configPath string, force bool) error {
	_, _ = fmt.Fprintf(w, "Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		_, _ = fmt.Fprintln(w, "Initialization failed")
		return err
	}
	_, _ = fmt.Fprintln(w, "initialized successfully")
	return nil
}
