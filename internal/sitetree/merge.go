package sitetree

import "slices"

// Merge folds other into p.
//
// Every non-empty scalar field of other overwrites the field in p. Owned
// children are matched by URL: unknown ones are adopted, known ones are
// merged recursively. Pages classified under other are matched by identity
// and reclassified under p, never merged with one another. Terms of other
// are adopted unless p already has a term at that URL; two distinct term
// pages are never merged. Menu references are unioned in first-seen order.
// other must not be used after the merge.
func (p *Page) Merge(other *Page) {
	if other == nil || other == p {
		return
	}
	if other.title != "" {
		p.title = other.title
	}
	if !other.date.IsZero() {
		p.date = other.date
	}
	if other.url != "" {
		p.url = other.url
	}
	if other.slug != "" {
		p.slug = other.slug
	}
	if other.content != "" {
		p.content = other.content
	}
	if other.description != "" {
		p.description = other.description
	}
	if other.author != "" {
		p.author = other.author
	}
	if other.term != nil && p.term == nil {
		info := *other.term
		p.term = &info
	}
	p.recomputeURL()

	for _, child := range slices.Clone(other.children) {
		p.mergeChild(other, child)
	}
	for _, term := range slices.Clone(other.terms) {
		term.removeChild(other)
		if p.termAt(term.url) == nil {
			p.AddTaxonomyTerm(term)
		}
	}
	p.AddMenuRefs(other.menuRefs...)
}

func (p *Page) mergeChild(from, child *Page) {
	if child.parent != from {
		// a page classified under the term being merged; its URL says
		// nothing about identity, an unattached leaf has none yet
		child.removeTerm(from)
		child.AddTaxonomyTerm(p)
		return
	}
	if existing := p.childAt(joinURL(p.url, child.slug)); existing != nil {
		existing.Merge(child)
		return
	}
	p.AddChildPage(child)
}
