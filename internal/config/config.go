package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	foundation "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "sitebuilder.yaml"

// Config is the sitebuilder configuration file.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Content    ContentConfig    `yaml:"content"`
	Taxonomies []TaxonomyConfig `yaml:"taxonomies"`
	Markdown   MarkdownConfig   `yaml:"markdown"`
	Output     OutputConfig     `yaml:"output"`
	Export     ExportConfig     `yaml:"export"`
	Preview    PreviewConfig    `yaml:"preview"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// SiteConfig holds values the theme shows on every page.
type SiteConfig struct {
	Title       string `yaml:"title"`
	BaseURL     string `yaml:"base_url"`
	Description string `yaml:"description"`
	Author      string `yaml:"author"`
}

// ContentConfig locates the content tree.
type ContentConfig struct {
	Dir    string   `yaml:"dir"`
	Ignore []string `yaml:"ignore,omitempty"` // doublestar globs relative to dir
}

// TaxonomyConfig declares one taxonomy, e.g. tag/tags.
type TaxonomyConfig struct {
	Singular string `yaml:"singular"`
	Plural   string `yaml:"plural"`
}

// MarkdownConfig tunes the markdown renderer.
type MarkdownConfig struct {
	UnsafeHTML bool `yaml:"unsafe_html"`
	HardWraps  bool `yaml:"hard_wraps"`
}

// OutputConfig controls where pages are written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"`
	Layouts   string `yaml:"layouts,omitempty"` // directory of template overrides
}

// ExportConfig enables the SQLite page index.
type ExportConfig struct {
	SQLite string `yaml:"sqlite,omitempty"`
}

// PreviewConfig configures the preview server.
type PreviewConfig struct {
	Port     int    `yaml:"port"`
	Debounce string `yaml:"debounce"`
}

// MonitoringConfig toggles Prometheus metrics.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
}

// MonitoringMetrics represents metrics configuration.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DebounceDuration returns the parsed preview debounce.
func (p PreviewConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(p.Debounce)
	if err != nil || d <= 0 {
		return defaultDebounce
	}
	return d
}

// Load reads a configuration file. Environment variables from .env and
// .env.local are loaded first and ${VAR} references are expanded.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		msg := "read configuration"
		if errors.Is(err, os.ErrNotExist) {
			msg = "configuration file not found"
		}
		return nil, foundation.WrapError(err, foundation.CategoryConfig, msg).
			WithContext("path", path).Fatal().Build()
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// LoadOrDefault loads path, falling back to defaults when the file is
// missing and was not asked for explicitly.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !explicit {
		return Default(), nil
	}
	return Load(path)
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Parse decodes, defaults and validates configuration YAML.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryConfig, "parse configuration").Fatal().Build()
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryConfig, "invalid configuration").Fatal().Build()
	}
	return &cfg, nil
}

// loadEnvFiles loads the .env files that exist. Variables already set in
// the process environment are not overwritten.
func loadEnvFiles() {
	for _, p := range []string{".env", ".env.local"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			fmt.Fprintf(os.Stderr, "Note: could not load %s: %v\n", p, err)
		}
	}
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return foundation.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).Build()
	}

	example := Config{
		Site: SiteConfig{
			Title:       "My Site",
			BaseURL:     "https://example.org",
			Description: "Notes and articles",
			Author:      "${SITE_AUTHOR}",
		},
		Content: ContentConfig{Dir: defaultContentDir, Ignore: []string{"**/*.draft.md", "drafts/**"}},
		Taxonomies: []TaxonomyConfig{
			{Singular: "category", Plural: "categories"},
			{Singular: "tag", Plural: "tags"},
		},
		Output:     OutputConfig{Directory: defaultOutputDir, Clean: true},
		Export:     ExportConfig{SQLite: "public/index.db"},
		Preview:    PreviewConfig{Port: defaultPreviewPort, Debounce: "300ms"},
		Monitoring: MonitoringConfig{Metrics: MonitoringMetrics{Enabled: true, Path: defaultMetricsPath}},
	}
	data, err := yaml.Marshal(&example)
	if err != nil {
		return foundation.WrapError(err, foundation.CategoryInternal, "marshal example configuration").Build()
	}
	header := []byte("# sitebuilder configuration\n# ${VAR} references are expanded from the environment and .env files.\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return foundation.WrapError(err, foundation.CategoryFileSystem, "write configuration").
			WithContext("path", path).Build()
	}
	return nil
}
