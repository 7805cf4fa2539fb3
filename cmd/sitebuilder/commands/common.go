// Package commands implements the sitebuilder subcommands.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// Global is shared state passed to every command.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitebuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build      BuildCmd      `cmd:"" help:"Build the site into the output directory"`
	Check      CheckCmd      `cmd:"" help:"Validate content and menus without writing output"`
	Taxonomies TaxonomiesCmd `cmd:"" help:"List taxonomy terms and how many pages each classifies"`
	Init       InitCmd       `cmd:"" help:"Initialize a new configuration file"`
	Preview    PreviewCmd    `cmd:"" help:"Serve the site locally and rebuild on changes"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig loads the configuration named by --config. The default file
// may be absent, in which case defaults are used.
func loadConfig(root *CLI) (*config.Config, error) {
	return config.LoadOrDefault(root.Config, root.Config != config.DefaultPath)
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// printSkipped lists files the build could not use.
func printSkipped(w io.Writer, result *build.Result) {
	for _, s := range result.Skipped {
		_, _ = fmt.Fprintf(w, "  skipped %s: %v\n", s.Path, s.Err)
	}
}
