package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory to write sitebuilder.yaml into"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := root.Config
	if i.Output != "" {
		path = filepath.Join(i.Output, config.DefaultPath)
	}
	w := g.out()
	_, _ = fmt.Fprintf(w, "Writing configuration to %s\n", path)
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, "initialized successfully")
	return nil
}
