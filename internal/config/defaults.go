package config

import "time"

const (
	defaultContentDir  = "content"
	defaultOutputDir   = "public"
	defaultPreviewPort = 1313
	defaultMetricsPath = "/metrics"
	defaultDebounce    = 300 * time.Millisecond
)

func applyDefaults(cfg *Config) {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Untitled Site"
	}
	if cfg.Content.Dir == "" {
		cfg.Content.Dir = defaultContentDir
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = defaultOutputDir
	}
	if len(cfg.Taxonomies) == 0 {
		cfg.Taxonomies = []TaxonomyConfig{
			{Singular: "category", Plural: "categories"},
			{Singular: "tag", Plural: "tags"},
		}
	}
	if cfg.Preview.Port == 0 {
		cfg.Preview.Port = defaultPreviewPort
	}
	if cfg.Preview.Debounce == "" {
		cfg.Preview.Debounce = defaultDebounce.String()
	}
	if cfg.Monitoring.Metrics.Path == "" {
		cfg.Monitoring.Metrics.Path = defaultMetricsPath
	}
}
