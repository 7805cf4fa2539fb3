package sitetree

import (
	"slices"
	"strings"
	"sync"
)

// TaxonomyType names one kind of classification, e.g. category/categories.
type TaxonomyType struct {
	Singular string
	Plural   string
}

func (t TaxonomyType) String() string { return t.Plural }

// DefaultTaxonomies are used when the configuration declares none.
func DefaultTaxonomies() []TaxonomyType {
	return []TaxonomyType{
		{Singular: "category", Plural: "categories"},
		{Singular: "tag", Plural: "tags"},
	}
}

// TermInfo identifies a taxonomy term page.
type TermInfo struct {
	Type  TaxonomyType
	Value string
}

// Declaration is one taxonomy key of a metadata record with its values in
// the order the record lists them.
type Declaration struct {
	Name   string
	Values []string
}

type termKey struct {
	plural string
	slug   string
}

// Registry is the catalogue of taxonomy terms of one build.
//
// Terms are created lazily and are never removed. Every term hangs below a
// list page for its type, so a term URL is /<plural>/<slug>.
type Registry struct {
	mu        sync.Mutex
	known     []TaxonomyType
	lists     map[string]*Page
	seen      []TaxonomyType
	terms     map[termKey]*Page
	termOrder map[string][]*Page
}

// NewRegistry returns an empty registry that accepts the given taxonomy types.
func NewRegistry(types ...TaxonomyType) *Registry {
	if len(types) == 0 {
		types = DefaultTaxonomies()
	}
	return &Registry{
		known:     types,
		lists:     make(map[string]*Page),
		terms:     make(map[termKey]*Page),
		termOrder: make(map[string][]*Page),
	}
}

// Lookup resolves a declared key, singular or plural, to a known type.
func (r *Registry) Lookup(name string) (TaxonomyType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range r.known {
		if name == strings.ToLower(t.Plural) || name == strings.ToLower(t.Singular) {
			return t, true
		}
	}
	return TaxonomyType{}, false
}

// GetOrCreate returns the term page for (t, value), creating it on first use.
// The same pair always yields the same instance.
func (r *Registry) GetOrCreate(value string, t TaxonomyType) *Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreate(value, t)
}

func (r *Registry) getOrCreate(value string, t TaxonomyType) *Page {
	// values that slug alike, such as "Go" and "go", share one term page
	key := termKey{plural: t.Plural, slug: Slugify(value)}
	if term, ok := r.terms[key]; ok {
		return term
	}
	list, ok := r.lists[t.Plural]
	if !ok {
		slug := Slugify(t.Plural)
		list = NewPage(Fields{Title: TitleFromName(t.Plural), URL: joinURL("", slug)})
		list.slug = slug
		r.lists[t.Plural] = list
		r.seen = append(r.seen, t)
	}
	term := NewPage(Fields{Title: value, Slug: Slugify(value)})
	term.term = &TermInfo{Type: t, Value: value}
	list.AddChildPage(term)
	r.terms[key] = term
	r.termOrder[t.Plural] = append(r.termOrder[t.Plural], term)
	return term
}

// GetOrCreateForAll resolves every declared value of every known type.
// Unknown types and blank values contribute nothing, and a term resolved
// twice is returned once.
func (r *Registry) GetOrCreateForAll(declared []Declaration) []*Page {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Page
	for _, d := range declared {
		t, ok := r.Lookup(d.Name)
		if !ok {
			continue
		}
		for _, v := range d.Values {
			if isBlank(v) {
				continue
			}
			if term := r.getOrCreate(strings.TrimSpace(v), t); !slices.Contains(out, term) {
				out = append(out, term)
			}
		}
	}
	return out
}

// Types returns the taxonomy types that have at least one term, in first-use order.
func (r *Registry) Types() []TaxonomyType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TaxonomyType(nil), r.seen...)
}

// Terms returns every term created so far grouped by type.
func (r *Registry) Terms() map[TaxonomyType][]*Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[TaxonomyType][]*Page, len(r.seen))
	for _, t := range r.seen {
		out[t] = append([]*Page(nil), r.termOrder[t.Plural]...)
	}
	return out
}

// ListPage returns the page that lists all terms of t, nil if t has none.
func (r *Registry) ListPage(t TaxonomyType) *Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lists[t.Plural]
}

// CheckCollisions reports two generated pages sharing a URL, or a content
// page whose URL is also the URL of a taxonomy list or term page.
func (r *Registry) CheckCollisions(root *Page) error {
	r.mu.Lock()
	generated := make(map[string]*Page)
	var clash error
	add := func(page *Page) {
		if other, ok := generated[page.url]; ok && other != page && clash == nil {
			clash = &ValidationError{
				Err:    ErrDuplicateURL,
				URL:    page.url,
				Slug:   page.slug,
				Titles: []string{other.title, page.title},
			}
		}
		generated[page.url] = page
	}
	for _, t := range r.seen {
		add(r.lists[t.Plural])
		for _, term := range r.termOrder[t.Plural] {
			add(term)
		}
	}
	r.mu.Unlock()
	if clash != nil {
		return clash
	}

	return root.Walk(func(page *Page) error {
		if other, ok := generated[page.url]; ok && other != page {
			return &ValidationError{
				Err:    ErrDuplicateURL,
				URL:    page.url,
				Slug:   page.slug,
				Titles: []string{page.title, other.title},
			}
		}
		return nil
	})
}
