package sitetree

import "slices"

// AddChildPage attaches child under p.
//
// The child's URL, and the URLs of its whole subtree, are recomputed from
// p's URL before the child is registered, so the key it is found under is
// always its final URL. A child moved from another parent is removed there.
func (p *Page) AddChildPage(child *Page) {
	if child == nil || child == p {
		return
	}
	if child.parent != nil && child.parent != p {
		child.parent.removeChild(child)
	}
	attach(p, child)
	for _, c := range p.children {
		if c == child {
			return
		}
	}
	p.children = append(p.children, child)
}

// attach sets the non-owning parent pointer and then recomputes the URL.
func attach(parent, child *Page) {
	child.parent = parent
	child.recomputeURL()
}

func (p *Page) recomputeURL() {
	if p.parent != nil {
		p.url = joinURL(p.parent.url, p.slug)
	}
	for _, c := range p.children {
		if c.parent == p {
			c.recomputeURL()
		}
	}
}

// AddTaxonomyTerm classifies p under term. Both sides record the relation.
func (p *Page) AddTaxonomyTerm(term *Page) {
	if term == nil {
		return
	}
	if !slices.Contains(p.terms, term) {
		p.terms = append(p.terms, term)
	}
	term.addClassified(p)
}

func (p *Page) addClassified(page *Page) {
	for _, c := range p.children {
		if c == page {
			return
		}
	}
	p.children = append(p.children, page)
}
