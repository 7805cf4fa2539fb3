package sitetree

// MenuItemPages resolves the declared menu references of p against every
// descendant of p. When references do not resolve the returned *MenuError
// names all of them.
func (p *Page) MenuItemPages() ([]*Page, error) {
	if len(p.menuRefs) == 0 {
		return nil, nil
	}
	index := make(map[string]*Page)
	p.collectDescendants(index)

	pages := make([]*Page, 0, len(p.menuRefs))
	var missing []string
	for _, ref := range p.menuRefs {
		page, ok := index[ref]
		if !ok {
			missing = append(missing, ref)
			continue
		}
		pages = append(pages, page)
	}
	if len(missing) > 0 {
		return nil, &MenuError{Owner: p.url, Missing: missing}
	}
	return pages, nil
}

func (p *Page) collectDescendants(index map[string]*Page) {
	for _, c := range p.children {
		if _, ok := index[c.url]; !ok {
			index[c.url] = c
		}
		if c.parent == p {
			c.collectDescendants(index)
		}
	}
}

// ResolveMenus resolves the menus of every page in the tree rooted at p and
// returns the first failure.
func (p *Page) ResolveMenus() error {
	return p.Walk(func(page *Page) error {
		_, err := page.MenuItemPages()
		return err
	})
}
