package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Content  string `help:"Content directory (overrides content.dir)"`
	Output   string `short:"o" help:"Output directory (overrides output.directory)"`
	Clean    bool   `help:"Remove existing output before rendering"`
	SQLite   string `name:"sqlite" help:"Write a SQLite page index to this path"`
	NoExport bool   `name:"no-export" help:"Skip the SQLite export even when configured"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if b.Content != "" {
		cfg.Content.Dir = b.Content
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.Clean {
		cfg.Output.Clean = true
	}
	if b.SQLite != "" {
		cfg.Export.SQLite = b.SQLite
	}

	svc := build.NewService().WithLogger(g.logger())
	result, err := svc.Run(context.Background(), build.Request{
		Config:  cfg,
		Options: build.Options{SkipExport: b.NoExport},
	})
	if err != nil {
		return err
	}

	w := g.out()
	_, _ = fmt.Fprintf(w, "Built %d pages into %s (%d files written, %d skipped) in %s\n",
		result.Pages, cfg.Output.Directory, len(result.Written), len(result.Skipped), result.Duration.Round(time.Millisecond))
	printSkipped(w, result)
	return nil
}
