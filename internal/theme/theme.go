// Package theme renders a site tree to static HTML.
//
// Templates are embedded and may be overridden file by file from a layouts
// directory. Each page kind is parsed into its own template set together
// with base.html, which defines the document shell and calls "main".
package theme

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

// Kind selects the template used for a page.
type Kind string

const (
	KindPage     Kind = "page"
	KindTaxonomy Kind = "taxonomy"
	KindTerm     Kind = "term"
)

var kinds = []Kind{KindPage, KindTaxonomy, KindTerm}

// Templates holds one parsed template set per page kind.
type Templates struct {
	sets map[Kind]*template.Template
}

// LoadTemplates parses the embedded templates. When layouts is non-nil, a
// file with the same name in it replaces the embedded one.
func LoadTemplates(layouts billy.Filesystem) (*Templates, error) {
	base, err := readTemplate(layouts, "base.html")
	if err != nil {
		return nil, err
	}
	t := &Templates{sets: make(map[Kind]*template.Template, len(kinds))}
	for _, k := range kinds {
		name := string(k) + ".html"
		body, err := readTemplate(layouts, name)
		if err != nil {
			return nil, err
		}
		set, err := template.New("base").Funcs(funcMap()).Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse base.html: %w", err)
		}
		if _, err := set.Parse(body); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		t.sets[k] = set
	}
	return t, nil
}

func readTemplate(layouts billy.Filesystem, name string) (string, error) {
	if layouts != nil {
		data, err := util.ReadFile(layouts, name)
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("read layout %s: %w", name, err)
		}
	}
	data, err := fs.ReadFile(defaultTemplates, "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("read embedded template %s: %w", name, err)
	}
	return string(data), nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"href": href,
		// #nosec G203 -- page content is HTML produced by the markdown renderer
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	}
}

// href turns a page URL into a link target with a trailing slash.
func href(url string) string {
	if url == "" || url == "/" {
		return "/"
	}
	return strings.TrimSuffix(url, "/") + "/"
}

// OutputPath returns the file a page URL is written to.
func OutputPath(url string) string {
	trimmed := strings.Trim(url, "/")
	if trimmed == "" {
		return "index.html"
	}
	return trimmed + "/index.html"
}
