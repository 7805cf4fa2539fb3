package theme

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	foundation "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/sitetree"
)

// TermCount is a term listed on a taxonomy page with its number of pages.
type TermCount struct {
	Page  *sitetree.Page
	Count int
}

// PageData is the value every template executes with.
type PageData struct {
	Site        config.SiteConfig
	Kind        Kind
	Title       string
	Description string
	Canonical   string
	Page        *sitetree.Page
	Menu        []*sitetree.Page
	Taxonomies  []*sitetree.Page

	// Page kind: undated children and dated children grouped by year.
	Sections []*sitetree.Page
	Archive  []sitetree.YearGroup

	// Taxonomy kind.
	Listing []TermCount

	// Term kind: classified pages, newest first.
	Pages []*sitetree.Page
}

// Renderer writes the HTML for a site tree into an output filesystem.
type Renderer struct {
	out       billy.Filesystem
	site      config.SiteConfig
	templates *Templates
	logger    *slog.Logger
}

// NewRenderer returns a renderer writing into out.
func NewRenderer(out billy.Filesystem, site config.SiteConfig, templates *Templates, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{out: out, site: site, templates: templates, logger: logger}
}

// Render writes every structural page, every taxonomy list page and every
// term page. It returns the output paths in write order.
func (r *Renderer) Render(ctx context.Context, root *sitetree.Page, registry *sitetree.Registry) ([]string, error) {
	menu, err := root.MenuItemPages()
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryRender, "resolve site menu").Fatal().Build()
	}

	var lists []*sitetree.Page
	for _, t := range registry.Types() {
		if list := registry.ListPage(t); list != nil {
			lists = append(lists, list)
		}
	}

	base := PageData{Site: r.site, Menu: menu, Taxonomies: lists}
	var written []string

	err = root.Walk(func(p *sitetree.Page) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		data := base
		data.Kind = KindPage
		data.Page = p
		data.Sections, data.Archive = splitChildren(p)
		out, err := r.write(data)
		if err != nil {
			return err
		}
		written = append(written, out)
		return nil
	})
	if err != nil {
		return written, err
	}

	terms := registry.Terms()
	for _, t := range registry.Types() {
		list := registry.ListPage(t)
		if list == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}
		data := base
		data.Kind = KindTaxonomy
		data.Page = list
		for _, term := range sortedByTitle(terms[t]) {
			data.Listing = append(data.Listing, TermCount{Page: term, Count: len(term.Children())})
		}
		out, err := r.write(data)
		if err != nil {
			return written, err
		}
		written = append(written, out)

		for _, term := range terms[t] {
			data := base
			data.Kind = KindTerm
			data.Page = term
			data.Pages = newestFirst(term.Children())
			out, err := r.write(data)
			if err != nil {
				return written, err
			}
			written = append(written, out)
		}
	}
	return written, nil
}

func (r *Renderer) write(data PageData) (string, error) {
	p := data.Page
	data.Title = p.Title()
	if p.IsRoot() && data.Title == r.site.Title {
		data.Title = ""
	}
	data.Description = p.Description()
	if data.Description == "" {
		data.Description = Summary(p.Content())
	}
	if data.Description == "" && p.IsRoot() {
		data.Description = r.site.Description
	}
	if r.site.BaseURL != "" {
		data.Canonical = strings.TrimSuffix(r.site.BaseURL, "/") + href(p.URL())
	}

	set, ok := r.templates.sets[data.Kind]
	if !ok {
		return "", foundation.NewError(foundation.CategoryInternal, "no template for page kind").
			WithContext("kind", string(data.Kind)).
			Build()
	}

	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, "base", data); err != nil {
		return "", foundation.WrapError(err, foundation.CategoryRender, "execute template").
			WithContext("url", p.URL()).
			WithContext("kind", string(data.Kind)).
			Fatal().
			Build()
	}

	out := OutputPath(p.URL())
	if dir := path.Dir(out); dir != "." {
		if err := r.out.MkdirAll(dir, 0o755); err != nil {
			return "", foundation.WrapError(err, foundation.CategoryFileSystem, "create output directory").
				WithContext("dir", dir).
				Fatal().
				Build()
		}
	}
	if err := util.WriteFile(r.out, out, buf.Bytes(), 0o644); err != nil {
		return "", foundation.WrapError(err, foundation.CategoryFileSystem, fmt.Sprintf("write %s", out)).
			Fatal().
			Build()
	}
	r.logger.Debug("Wrote page", logfields.URL(p.URL()), logfields.Path(out))
	return out, nil
}

// splitChildren separates structural children into undated sections, sorted
// by title, and dated entries grouped by year.
func splitChildren(p *sitetree.Page) ([]*sitetree.Page, []sitetree.YearGroup) {
	var sections []*sitetree.Page
	for _, c := range p.Children() {
		if c.Parent() == p && !c.HasDate() {
			sections = append(sections, c)
		}
	}
	return sortedByTitle(sections), p.ChildPagesByYear()
}

func sortedByTitle(pages []*sitetree.Page) []*sitetree.Page {
	out := append([]*sitetree.Page(nil), pages...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Title()) < strings.ToLower(out[j].Title())
	})
	return out
}

func newestFirst(pages []*sitetree.Page) []*sitetree.Page {
	out := append([]*sitetree.Page(nil), pages...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date().After(out[j].Date()) })
	return out
}
