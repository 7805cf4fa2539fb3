package commands

import (
	"context"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/preview"
)

// PreviewCmd implements the 'preview' command.
type PreviewCmd struct {
	Port    int    `short:"p" help:"Port to serve on (overrides preview.port)"`
	Content string `help:"Content directory (overrides content.dir)"`
	Output  string `short:"o" help:"Output directory (overrides output.directory)"`
	Metrics bool   `help:"Serve Prometheus metrics (overrides monitoring.metrics.enabled)"`
}

func (p *PreviewCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if p.Port != 0 {
		cfg.Preview.Port = p.Port
	}
	if p.Content != "" {
		cfg.Content.Dir = p.Content
	}
	if p.Output != "" {
		cfg.Output.Directory = p.Output
	}
	if p.Metrics {
		cfg.Monitoring.Metrics.Enabled = true
	}

	svc := build.NewService().WithLogger(g.logger())
	var reg *prom.Registry
	if cfg.Monitoring.Metrics.Enabled {
		reg = prom.NewRegistry()
		svc = svc.WithRecorder(metrics.NewPrometheusRecorder(reg))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return preview.New(cfg, svc, reg, g.logger()).Run(ctx)
}
