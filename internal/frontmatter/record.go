package frontmatter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DateLayouts are tried in order when parsing a record date.
var DateLayouts = []string{
	"2006-01-02T15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

var (
	menuRefPattern = regexp.MustCompile(`^/\S*$`)
	slugPattern    = regexp.MustCompile(`^[^/\s]+$`)
)

// Taxonomy is one declared classification key with its values in document order.
type Taxonomy struct {
	Name   string
	Values []string
}

// Record is the decoded metadata of one file. Empty fields were not set.
type Record struct {
	Title       string
	Slug        string
	URL         string
	Date        string
	Description string
	Author      string
	Menu        []string
	Taxonomies  []Taxonomy
}

// Time parses Date. A record without a date yields the zero time.
func (r *Record) Time() (time.Time, error) {
	if strings.TrimSpace(r.Date) == "" {
		return time.Time{}, nil
	}
	return ParseDate(r.Date)
}

// ParseDate parses s with the first matching layout of DateLayouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// Validate checks the record before it is turned into a page.
func (r *Record) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Slug, validation.Match(slugPattern).Error("must be a single path segment")),
		validation.Field(&r.Date, validation.By(func(value any) error {
			s, _ := value.(string)
			if strings.TrimSpace(s) == "" {
				return nil
			}
			if _, err := ParseDate(s); err != nil {
				return validation.NewError("validation_date_layout", err.Error())
			}
			return nil
		})),
		validation.Field(&r.Menu, validation.Each(
			validation.Required,
			validation.Match(menuRefPattern).Error("must be an absolute url path"),
		)),
		validation.Field(&r.Taxonomies, validation.Each(validation.By(func(value any) error {
			tax, _ := value.(Taxonomy)
			for _, v := range tax.Values {
				if strings.TrimSpace(v) == "" {
					return validation.NewError("validation_taxonomy_value", fmt.Sprintf("%s has a blank value", tax.Name))
				}
			}
			return nil
		}))),
	)
	if err != nil {
		return errors.Join(ErrInvalidRecord, err)
	}
	return nil
}

func (r *Record) set(key string, value any) error {
	switch strings.ToLower(key) {
	case "title":
		return assignString(&r.Title, key, value)
	case "slug":
		return assignString(&r.Slug, key, value)
	case "url":
		return assignString(&r.URL, key, value)
	case "date":
		return assignString(&r.Date, key, value)
	case "description", "summary":
		return assignString(&r.Description, key, value)
	case "author":
		return assignString(&r.Author, key, value)
	case "menu", "menu_items", "menuitems":
		refs, err := toStrings(key, value)
		if err != nil {
			return err
		}
		r.Menu = append(r.Menu, refs...)
	case "taxonomies":
		entries, ok := value.([]entry)
		if !ok {
			return fmt.Errorf("%w: %s must be a mapping", ErrDecodeFailed, key)
		}
		for _, e := range entries {
			values, err := toStrings(e.key, e.value)
			if err != nil {
				return err
			}
			r.Taxonomies = append(r.Taxonomies, Taxonomy{Name: e.key, Values: values})
		}
	default:
		// other top level keys such as "tags: [go]" or "tags: go" are taxonomy
		// declarations; the site tree drops names it has no taxonomy for
		values, err := toStrings(key, value)
		if err != nil || len(values) == 0 {
			return nil
		}
		r.Taxonomies = append(r.Taxonomies, Taxonomy{Name: key, Values: values})
	}
	return nil
}

// entry is one key of a decoded mapping. Values are string, []string or []entry.
type entry struct {
	key   string
	value any
}

func assignString(dst *string, key string, value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: %s must be a string", ErrDecodeFailed, key)
	}
	*dst = strings.TrimSpace(s)
	return nil
}

func toStrings(key string, value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []string:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a list of strings", ErrDecodeFailed, key)
	}
}
