package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Content string `help:"Content directory (overrides content.dir)"`
	Strict  bool   `help:"Fail when any file was skipped"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	result, err := runCheck(g, root, c.Content)
	if err != nil {
		return err
	}

	w := g.out()
	_, _ = fmt.Fprintf(w, "Content OK: %d pages, %d files, %d skipped\n",
		result.Pages, result.FilesProcessed, len(result.Skipped))
	printSkipped(w, result)
	if c.Strict && len(result.Skipped) > 0 {
		return errSkippedFiles(len(result.Skipped))
	}
	return nil
}

func runCheck(g *Global, root *CLI, content string) (*build.Result, error) {
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	if content != "" {
		cfg.Content.Dir = content
	}
	svc := build.NewService().WithLogger(g.logger())
	return svc.Run(context.Background(), build.Request{
		Config:  cfg,
		Options: build.Options{CheckOnly: true},
	})
}
