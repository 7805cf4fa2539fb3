package sitetree

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// Fields seeds a new Page. Empty values mean "not set".
type Fields struct {
	Title       string
	Slug        string
	URL         string
	Date        time.Time
	Content     string
	Description string
	Author      string
	MenuRefs    []string
}

// Page is one node of the content tree.
//
// Structural children are stored in attach order; a taxonomy term stores the
// pages classified under it in the same list without owning them.
type Page struct {
	title       string
	slug        string
	url         string
	date        time.Time
	content     string
	description string
	author      string

	parent   *Page
	children []*Page
	terms    []*Page
	menuRefs []string

	term *TermInfo
}

// NewPage returns a detached page seeded from f.
func NewPage(f Fields) *Page {
	p := &Page{
		title:       f.Title,
		slug:        f.Slug,
		url:         f.URL,
		date:        f.Date,
		content:     f.Content,
		description: f.Description,
		author:      f.Author,
	}
	p.AddMenuRefs(f.MenuRefs...)
	return p
}

func (p *Page) Title() string       { return p.title }
func (p *Page) Slug() string        { return p.slug }
func (p *Page) URL() string         { return p.url }
func (p *Page) Date() time.Time     { return p.date }
func (p *Page) HasDate() bool       { return !p.date.IsZero() }
func (p *Page) Content() string     { return p.content }
func (p *Page) Description() string { return p.description }
func (p *Page) Author() string      { return p.author }

// Parent returns the structural parent, nil for a root or a detached page.
func (p *Page) Parent() *Page { return p.parent }

// IsRoot reports whether the page has no parent.
func (p *Page) IsRoot() bool { return p.parent == nil }

// Term returns the taxonomy identity of a term page.
func (p *Page) Term() (TermInfo, bool) {
	if p.term == nil {
		return TermInfo{}, false
	}
	return *p.term, true
}

// Children returns child pages in the order they were attached.
func (p *Page) Children() []*Page { return slices.Clone(p.children) }

// ChildPages returns the children keyed by their current URL.
func (p *Page) ChildPages() map[string]*Page {
	out := make(map[string]*Page, len(p.children))
	for _, c := range p.children {
		out[c.url] = c
	}
	return out
}

// TaxonomyTerms returns the term pages p is classified under.
func (p *Page) TaxonomyTerms() []*Page { return slices.Clone(p.terms) }

// TaxonomyTermPages returns the term pages keyed by term URL.
func (p *Page) TaxonomyTermPages() map[string]*Page {
	out := make(map[string]*Page, len(p.terms))
	for _, t := range p.terms {
		out[t.url] = t
	}
	return out
}

// MenuRefs returns the declared, unresolved menu references.
func (p *Page) MenuRefs() []string { return slices.Clone(p.menuRefs) }

// AddMenuRefs appends references not already declared, keeping first-seen order.
func (p *Page) AddMenuRefs(refs ...string) {
	for _, ref := range refs {
		if !slices.Contains(p.menuRefs, ref) {
			p.menuRefs = append(p.menuRefs, ref)
		}
	}
}

// YearGroup is the set of dated children published in one year.
type YearGroup struct {
	Year  int
	Pages []*Page
}

// ChildPagesByYear groups dated structural children by year, newest first.
func (p *Page) ChildPagesByYear() []YearGroup {
	byYear := make(map[int][]*Page)
	for _, c := range p.children {
		if c.parent != p || !c.HasDate() {
			continue
		}
		byYear[c.date.Year()] = append(byYear[c.date.Year()], c)
	}
	groups := make([]YearGroup, 0, len(byYear))
	for year, pages := range byYear {
		sort.SliceStable(pages, func(i, j int) bool { return pages[i].date.After(pages[j].date) })
		groups = append(groups, YearGroup{Year: year, Pages: pages})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Year > groups[j].Year })
	return groups
}

// Walk visits p and its structural descendants depth first.
func (p *Page) Walk(fn func(*Page) error) error {
	if err := fn(p); err != nil {
		return err
	}
	for _, c := range p.children {
		if c.parent != p {
			continue
		}
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

func (p *Page) childAt(url string) *Page {
	for _, c := range p.children {
		if c.url == url {
			return c
		}
	}
	return nil
}

func (p *Page) termAt(url string) *Page {
	for _, t := range p.terms {
		if t.url == url {
			return t
		}
	}
	return nil
}

func (p *Page) removeChild(child *Page) {
	p.children = slices.DeleteFunc(p.children, func(c *Page) bool { return c == child })
}

func (p *Page) removeTerm(term *Page) {
	p.terms = slices.DeleteFunc(p.terms, func(t *Page) bool { return t == term })
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

// FillDefaults sets the title, description and author of p from f where p
// has none.
func (p *Page) FillDefaults(f Fields) {
	if isBlank(p.title) {
		p.title = f.Title
	}
	if isBlank(p.description) {
		p.description = f.Description
	}
	if isBlank(p.author) {
		p.author = f.Author
	}
}
