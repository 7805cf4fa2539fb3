package config

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var segmentPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Validate checks the configuration after defaults were applied.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Site),
		validation.Field(&c.Content),
		validation.Field(&c.Taxonomies, validation.Required, validation.By(uniquePlurals)),
		validation.Field(&c.Output),
		validation.Field(&c.Preview),
		validation.Field(&c.Monitoring),
	)
}

func (s SiteConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Title, validation.Required),
		validation.Field(&s.BaseURL, is.URL),
	)
}

func (c ContentConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Ignore, validation.Each(validation.Required, validation.By(func(value any) error {
			pattern, _ := value.(string)
			if !doublestar.ValidatePattern(pattern) {
				return errors.New("invalid glob pattern")
			}
			return nil
		}))),
	)
}

func (t TaxonomyConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Singular, validation.Required),
		validation.Field(&t.Plural, validation.Required, validation.Match(segmentPattern)),
	)
}

func (o OutputConfig) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Directory, validation.Required),
	)
}

func (p PreviewConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Port, validation.Min(1), validation.Max(65535)),
		validation.Field(&p.Debounce, validation.By(func(value any) error {
			s, _ := value.(string)
			if _, err := time.ParseDuration(s); err != nil {
				return errors.New("must be a duration such as 300ms")
			}
			return nil
		})),
	)
}

func (m MonitoringConfig) Validate() error {
	return validation.ValidateStruct(&m.Metrics,
		validation.Field(&m.Metrics.Path, validation.Required, validation.By(func(value any) error {
			s, _ := value.(string)
			if !strings.HasPrefix(s, "/") {
				return errors.New("must start with /")
			}
			return nil
		})),
	)
}

func uniquePlurals(value any) error {
	taxonomies, _ := value.([]TaxonomyConfig)
	seen := make(map[string]bool, len(taxonomies))
	for _, t := range taxonomies {
		if seen[t.Plural] {
			return errors.New("duplicate taxonomy " + t.Plural)
		}
		seen[t.Plural] = true
	}
	return nil
}
