package sitetree

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeIsRightBiasedOnNonEmptyFields(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	a := NewPage(Fields{Title: "A", Slug: "a", URL: "/a", Date: jan, Content: "<p>a</p>", Description: "desc a", Author: "Ann"})
	b := NewPage(Fields{Title: "B", Date: feb, Author: "Bob"})
	a.Merge(b)

	assert.Equal(t, "B", a.Title())
	assert.Equal(t, feb, a.Date())
	assert.Equal(t, "Bob", a.Author())
	assert.Equal(t, "a", a.Slug())
	assert.Equal(t, "/a", a.URL())
	assert.Equal(t, "<p>a</p>", a.Content())
	assert.Equal(t, "desc a", a.Description())
}

func TestMergeEmptyOtherLeavesPageUnchanged(t *testing.T) {
	a := NewPage(Fields{Title: "A", Slug: "a", Content: "c", Description: "d", Author: "x"})
	a.Merge(NewPage(Fields{}))
	a.Merge(nil)
	a.Merge(a)

	assert.Equal(t, "A", a.Title())
	assert.Equal(t, "a", a.Slug())
	assert.Equal(t, "c", a.Content())
	assert.Equal(t, "d", a.Description())
	assert.Equal(t, "x", a.Author())
	assert.False(t, a.HasDate())
}

func withChild(slug, title string) *Page {
	p := NewPage(Fields{})
	p.AddChildPage(NewPage(Fields{Slug: slug, Title: title}))
	return p
}

func childTitles(p *Page) map[string]string {
	out := make(map[string]string)
	for url, c := range p.ChildPages() {
		out[url] = c.Title()
	}
	return out
}

func TestMergeChildrenIsOrderIndependent(t *testing.T) {
	first := NewPage(Fields{URL: "/blog"})
	first.Merge(withChild("one", "One"))
	first.Merge(withChild("two", "Two"))

	second := NewPage(Fields{URL: "/blog"})
	second.Merge(withChild("two", "Two"))
	second.Merge(withChild("one", "One"))

	want := map[string]string{"/blog/one": "One", "/blog/two": "Two"}
	assert.Equal(t, want, childTitles(first))
	assert.Equal(t, want, childTitles(second))
	for _, c := range first.Children() {
		assert.Same(t, first, c.Parent())
	}
}

func TestMergeRecursesIntoExistingChild(t *testing.T) {
	parent := NewPage(Fields{})
	existing := NewPage(Fields{Slug: "foo", Title: "Foo"})
	parent.AddChildPage(existing)

	other := NewPage(Fields{})
	other.AddChildPage(NewPage(Fields{Slug: "foo", Description: "more"}))
	parent.Merge(other)

	require.Len(t, parent.Children(), 1)
	got := parent.ChildPages()["/foo"]
	assert.Same(t, existing, got)
	assert.Equal(t, "Foo", got.Title())
	assert.Equal(t, "more", got.Description())
}

func TestMergeUnionsMenuRefsInFirstSeenOrder(t *testing.T) {
	a := NewPage(Fields{MenuRefs: []string{"/a", "/b"}})
	a.Merge(NewPage(Fields{MenuRefs: []string{"/b", "/c", "/a"}}))
	assert.Equal(t, []string{"/a", "/b", "/c"}, a.MenuRefs())
}

func TestMergeSlugRecomputesAttachedURL(t *testing.T) {
	root := NewPage(Fields{})
	child := NewPage(Fields{Slug: "draft"})
	root.AddChildPage(child)
	grandchild := NewPage(Fields{Slug: "g"})
	child.AddChildPage(grandchild)

	child.Merge(NewPage(Fields{Slug: "final", URL: "/ignored"}))
	assert.Equal(t, "/final", child.URL())
	assert.Equal(t, "/final/g", grandchild.URL())
}

func TestAddChildPageDerivesURL(t *testing.T) {
	blog := NewPage(Fields{URL: "/blog"})
	news := NewPage(Fields{URL: "/news"})
	foo := NewPage(Fields{Slug: "foo"})

	blog.AddChildPage(foo)
	assert.Equal(t, "/blog/foo", foo.URL())
	assert.Same(t, blog, foo.Parent())
	assert.Same(t, foo, blog.ChildPages()["/blog/foo"])

	news.AddChildPage(foo)
	assert.Equal(t, "/news/foo", foo.URL())
	assert.Same(t, foo, news.ChildPages()["/news/foo"])
	assert.Empty(t, blog.Children())
}

func TestAddChildPageRecomputesSubtree(t *testing.T) {
	section := NewPage(Fields{Slug: "posts"})
	hello := NewPage(Fields{Slug: "hello"})
	section.AddChildPage(hello)
	assert.Equal(t, "/hello", hello.URL())

	root := NewPage(Fields{})
	root.AddChildPage(section)
	assert.Equal(t, "/posts", section.URL())
	assert.Equal(t, "/posts/hello", hello.URL())
	assert.Same(t, hello, section.ChildPages()["/posts/hello"])
}

func TestValidate(t *testing.T) {
	t.Run("valid tree", func(t *testing.T) {
		root := NewPage(Fields{Title: "Home"})
		posts := NewPage(Fields{Slug: "posts"})
		root.AddChildPage(posts)
		posts.AddChildPage(NewPage(Fields{Slug: "hello"}))
		require.NoError(t, root.Validate())
	})

	t.Run("root with slug", func(t *testing.T) {
		root := NewPage(Fields{Slug: "home"})
		err := root.Validate()
		require.ErrorIs(t, err, ErrRootSlug)
	})

	t.Run("child without slug", func(t *testing.T) {
		root := NewPage(Fields{})
		root.AddChildPage(NewPage(Fields{Title: "Nameless"}))
		err := root.Validate()
		require.ErrorIs(t, err, ErrBlankSlug)
	})

	t.Run("duplicate sibling url", func(t *testing.T) {
		root := NewPage(Fields{})
		parent := NewPage(Fields{Slug: "parent"})
		root.AddChildPage(parent)
		parent.AddChildPage(NewPage(Fields{Slug: "foo", Title: "First"}))
		parent.AddChildPage(NewPage(Fields{Slug: "foo", Title: "Second"}))

		err := root.Validate()
		require.ErrorIs(t, err, ErrDuplicateURL)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "/parent/foo", verr.URL)
		assert.Equal(t, []string{"First", "Second"}, verr.Titles)
		assert.Contains(t, err.Error(), `"/parent/foo"`)
	})
}

func TestMenuItemPages(t *testing.T) {
	root := NewPage(Fields{MenuRefs: []string{"/a", "/missing"}})
	a := NewPage(Fields{Slug: "a"})
	root.AddChildPage(a)

	_, err := root.MenuItemPages()
	require.ErrorIs(t, err, ErrDanglingMenuReference)
	var merr *MenuError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, []string{"/missing"}, merr.Missing)
	assert.Equal(t, "", merr.Owner)
	assert.NotContains(t, merr.Missing, "/a")
}

func TestMenuItemPagesResolvesDescendantsInOrder(t *testing.T) {
	root := NewPage(Fields{MenuRefs: []string{"/posts/hello", "/about", "/missing-one", "/missing-two"}})
	posts := NewPage(Fields{Slug: "posts"})
	about := NewPage(Fields{Slug: "about"})
	hello := NewPage(Fields{Slug: "hello"})
	root.AddChildPage(posts)
	root.AddChildPage(about)
	posts.AddChildPage(hello)

	_, err := root.MenuItemPages()
	var merr *MenuError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, []string{"/missing-one", "/missing-two"}, merr.Missing)

	root = NewPage(Fields{MenuRefs: []string{"/posts/hello", "/about"}})
	root.AddChildPage(posts)
	root.AddChildPage(about)
	pages, err := root.MenuItemPages()
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Same(t, hello, pages[0])
	assert.Same(t, about, pages[1])
	require.NoError(t, root.ResolveMenus())
}

func TestChildPagesByYear(t *testing.T) {
	root := NewPage(Fields{})
	day := func(y, m int) time.Time { return time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC) }
	old := NewPage(Fields{Slug: "old", Date: day(2022, 5)})
	newer := NewPage(Fields{Slug: "newer", Date: day(2024, 3)})
	newest := NewPage(Fields{Slug: "newest", Date: day(2024, 9)})
	undated := NewPage(Fields{Slug: "undated"})
	for _, p := range []*Page{old, newer, undated, newest} {
		root.AddChildPage(p)
	}

	groups := root.ChildPagesByYear()
	require.Len(t, groups, 2)
	assert.Equal(t, 2024, groups[0].Year)
	assert.Equal(t, []*Page{newest, newer}, groups[0].Pages)
	assert.Equal(t, 2022, groups[1].Year)
	assert.Equal(t, []*Page{old}, groups[1].Pages)
}

func TestFillDefaultsOnlySetsBlankFields(t *testing.T) {
	p := NewPage(Fields{Title: "Home"})
	p.FillDefaults(Fields{Title: "Site", Description: "About the site", Author: "Ann"})

	assert.Equal(t, "Home", p.Title())
	assert.Equal(t, "About the site", p.Description())
	assert.Equal(t, "Ann", p.Author())
}
