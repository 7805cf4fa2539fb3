package sitetree

import (
	"strings"

	"github.com/goliatone/go-slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Slugify turns a file stem, directory name, title or term value into a
// lower case URL segment.
func Slugify(value string) string {
	normalized, err := slug.Normalize(value)
	if err == nil && normalized != "" {
		return strings.ToLower(normalized)
	}
	return strings.ToLower(strings.Join(strings.FieldsFunc(value, func(r rune) bool {
		return r == ' ' || r == '/' || r == '\\' || r == '_'
	}), "-"))
}

// TitleFromName derives a display title from a file stem such as "hello-world".
func TitleFromName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func joinURL(base, slug string) string {
	return strings.TrimSuffix(base, "/") + "/" + slug
}
