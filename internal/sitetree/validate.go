package sitetree

// Validate checks the tree rooted at p and reports the first violation:
// a blank URL, a slug on the root, a blank slug below it, or a URL shared by
// two pages. The root keeps its base path, which may be empty.
func (p *Page) Validate() error {
	seen := make(map[string]*Page)
	return p.Walk(func(page *Page) error {
		if err := checkIdentity(page); err != nil {
			return err
		}
		if prev, ok := seen[page.url]; ok {
			return &ValidationError{
				Err:    ErrDuplicateURL,
				URL:    page.url,
				Slug:   page.slug,
				Titles: []string{prev.title, page.title},
			}
		}
		seen[page.url] = page
		return nil
	})
}

func checkIdentity(page *Page) error {
	if page.parent == nil {
		if page.slug != "" {
			return &ValidationError{Err: ErrRootSlug, URL: page.url, Slug: page.slug, Titles: []string{page.title}}
		}
		return nil
	}
	if isBlank(page.url) {
		return &ValidationError{Err: ErrBlankURL, Slug: page.slug, Titles: []string{page.title}}
	}
	if isBlank(page.slug) {
		return &ValidationError{Err: ErrBlankSlug, URL: page.url, Titles: []string{page.title}}
	}
	return nil
}
