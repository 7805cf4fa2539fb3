package sitetree

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundation "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

type paragraphRenderer struct{ fail bool }

func (r paragraphRenderer) Render(body []byte) (string, error) {
	if r.fail {
		return "", errors.New("renderer exploded")
	}
	return "<p>" + string(bytes.TrimSpace(body)) + "</p>", nil
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBuilder(NewRegistry(), frontmatter.NewDecoder(), paragraphRenderer{}, logger)
}

type event struct {
	kind string
	path string
	data string
}

func enter(dir string) event       { return event{kind: "enter", path: dir} }
func leave(dir string) event       { return event{kind: "leave", path: dir} }
func file(path, data string) event { return event{kind: "file", path: path, data: data} }

func replay(t *testing.T, b *Builder, events ...event) *Page {
	t.Helper()
	for _, ev := range events {
		switch ev.kind {
		case "enter":
			require.NoError(t, b.Enter(ev.path))
		case "leave":
			require.NoError(t, b.Leave(ev.path))
		case "file":
			require.NoError(t, b.File(ev.path, []byte(ev.data)))
		}
	}
	root, err := b.Root()
	require.NoError(t, err)
	return root
}

func TestBuilderEndToEnd(t *testing.T) {
	b := newTestBuilder(t)
	root := replay(t, b,
		enter("content"),
		file("content/_index.yaml", "title: Home\n"),
		enter("content/posts"),
		file("content/posts/hello.md", "Hello there"),
		file("content/posts/hello.yaml", "slug: hello\ntaxonomies:\n  categories: [intro]\n"),
		leave("content/posts"),
		leave("content"),
	)

	require.NoError(t, root.Validate())
	assert.Equal(t, "", root.URL())
	assert.Equal(t, "Home", root.Title())

	posts := root.ChildPages()["/posts"]
	require.NotNil(t, posts)
	assert.Equal(t, "posts", posts.Title())

	hello := posts.ChildPages()["/posts/hello"]
	require.NotNil(t, hello)
	assert.Equal(t, "<p>Hello there</p>", hello.Content())
	assert.Equal(t, "Hello", hello.Title())

	registry := b.Registry()
	types := registry.Types()
	require.Len(t, types, 1)
	assert.Equal(t, "categories", types[0].Plural)
	terms := registry.Terms()[types[0]]
	require.Len(t, terms, 1)
	assert.Equal(t, "intro", terms[0].Title())
	assert.Same(t, hello, terms[0].ChildPages()["/posts/hello"])
	assert.Same(t, terms[0], hello.TaxonomyTermPages()["/categories/intro"])
	assert.Equal(t, 3, b.Processed())
	assert.Empty(t, b.Skipped())
}

func TestBuilderSharesTaxonomyTerms(t *testing.T) {
	b := newTestBuilder(t)
	root := replay(t, b,
		enter("content"),
		enter("content/a"),
		file("content/a/one.yaml", "categories: [kotlin]\n"),
		leave("content/a"),
		enter("content/b"),
		file("content/b/two.md", "---\ntaxonomies:\n  categories: [kotlin]\n---\nbody\n"),
		leave("content/b"),
		leave("content"),
	)
	require.NoError(t, root.Validate())

	one := root.ChildPages()["/a"].ChildPages()["/a/one"]
	two := root.ChildPages()["/b"].ChildPages()["/b/two"]
	require.NotNil(t, one)
	require.NotNil(t, two)

	termOne := one.TaxonomyTerms()[0]
	termTwo := two.TaxonomyTerms()[0]
	assert.Same(t, termOne, termTwo)
	assert.Equal(t, []*Page{one, two}, termOne.Children())
}

func TestBuilderTermValuesDifferingInCaseShareOneTerm(t *testing.T) {
	b := newTestBuilder(t)
	root := replay(t, b,
		enter("content"),
		enter("content/posts"),
		file("content/posts/a.md", "---\ntitle: Alpha\ncategories: [Go]\n---\nalpha\n"),
		file("content/posts/b.md", "---\ntitle: Beta\ncategories: [go]\n---\nbeta\n"),
		file("content/posts/c.md", "---\ntitle: Gamma\ncategories: [Go, go]\n---\ngamma\n"),
		leave("content/posts"),
		leave("content"),
	)
	require.NoError(t, root.Validate())
	require.NoError(t, b.Registry().CheckCollisions(root))

	posts := root.ChildPages()["/posts"]
	require.NotNil(t, posts)
	require.Len(t, posts.Children(), 3)

	var pages []*Page
	for _, want := range []struct{ title, slug string }{
		{"Alpha", "alpha"},
		{"Beta", "beta"},
		{"Gamma", "gamma"},
	} {
		page := posts.ChildPages()["/posts/"+want.slug]
		require.NotNil(t, page, want.slug)
		assert.Equal(t, want.title, page.Title())
		assert.Equal(t, want.slug, page.Slug())
		assert.Len(t, page.TaxonomyTerms(), 1)
		pages = append(pages, page)
	}

	terms := b.Registry().Terms()[categories]
	require.Len(t, terms, 1)
	term := terms[0]
	assert.Equal(t, "/categories/go", term.URL())
	assert.ElementsMatch(t, pages, term.Children())
	for _, page := range pages {
		assert.Same(t, term, page.TaxonomyTerms()[0])
	}
}

func TestBuilderDuplicateSiblingSlugs(t *testing.T) {
	b := newTestBuilder(t)
	root := replay(t, b,
		enter("content"),
		enter("content/parent"),
		file("content/parent/a.yaml", "slug: foo\n"),
		file("content/parent/b.yaml", "slug: foo\n"),
		leave("content/parent"),
		leave("content"),
	)

	err := root.Validate()
	require.ErrorIs(t, err, ErrDuplicateURL)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "/parent/foo", verr.URL)
}

func TestBuilderSkipsMalformedFile(t *testing.T) {
	b := newTestBuilder(t)
	root := replay(t, b,
		enter("content"),
		file("content/_index.yaml", "title: Home\ndescription: Welcome\n"),
		file("content/_index.toml", "title = [broken"),
		file("content/notes.txt", "ignored"),
		leave("content"),
	)

	assert.Equal(t, "Home", root.Title())
	assert.Equal(t, "Welcome", root.Description())
	skipped := b.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, "content/_index.toml", skipped[0].Path)
	assert.True(t, foundation.HasCategory(skipped[0].Err, foundation.CategoryContent))
	assert.ErrorIs(t, skipped[0].Err, frontmatter.ErrDecodeFailed)
	assert.Equal(t, 1, b.Processed())
}

func TestBuilderSkipsUnrenderableContent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := NewBuilder(NewRegistry(), frontmatter.NewDecoder(), paragraphRenderer{fail: true}, logger)
	root := replay(t, b,
		enter("content"),
		file("content/post.yaml", "title: Kept\n"),
		file("content/post.md", "body"),
		leave("content"),
	)

	children := root.Children()
	require.Len(t, children, 1)
	post := children[0]
	assert.Equal(t, "Kept", post.Title())
	assert.Empty(t, post.Content())
	require.Len(t, b.Skipped(), 1)
}

func TestBuilderLeafDefaults(t *testing.T) {
	b := newTestBuilder(t)
	root := replay(t, b,
		enter("content"),
		file("content/hello-world.md", "hi"),
		file("content/about.yaml", "title: About\nslug: about\n"),
		leave("content"),
	)

	hello := root.ChildPages()["/hello-world"]
	require.NotNil(t, hello)
	assert.Equal(t, "Hello World", hello.Title())
	assert.Equal(t, "hello-world", hello.Slug())

	about := root.ChildPages()["/about"]
	require.NotNil(t, about)
	assert.Equal(t, "About", about.Title())
}

func TestBuilderIndexMergesIntoDirectory(t *testing.T) {
	b := newTestBuilder(t)
	root := replay(t, b,
		enter("content"),
		file("content/index.md", "---\nmenu: [/posts]\n---\nWelcome"),
		enter("content/posts"),
		file("content/posts/_index.json", `{"title": "Posts", "description": "All posts"}`),
		leave("content/posts"),
		leave("content"),
	)

	assert.Equal(t, "<p>Welcome</p>", root.Content())
	assert.Equal(t, []string{"/posts"}, root.MenuRefs())
	menu, err := root.MenuItemPages()
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, "Posts", menu[0].Title())
	assert.Equal(t, "All posts", menu[0].Description())
	assert.Len(t, root.Children(), 1)
}

func TestBuilderProtocolErrorsAreFatal(t *testing.T) {
	b := newTestBuilder(t)

	err := b.File("orphan.md", []byte("x"))
	require.ErrorIs(t, err, ErrNoCurrentPage)
	classified, ok := foundation.AsClassified(err)
	require.True(t, ok)
	assert.True(t, classified.IsFatal())
	assert.Equal(t, foundation.CategoryWalk, classified.Category())

	require.ErrorIs(t, b.Leave("content"), ErrNoCurrentPage)

	_, err = b.Root()
	require.ErrorIs(t, err, ErrNoRoot)

	require.NoError(t, b.Enter("content"))
	_, err = b.Root()
	require.ErrorIs(t, err, ErrNoRoot)
}

func TestClassifyFile(t *testing.T) {
	assert.Equal(t, KindContent, ClassifyFile("a/b.md"))
	assert.Equal(t, KindContent, ClassifyFile("a/b.Markdown"))
	assert.Equal(t, KindMetadata, ClassifyFile("a/b.yaml"))
	assert.Equal(t, KindMetadata, ClassifyFile("a/b.toml"))
	assert.Equal(t, KindOther, ClassifyFile("a/b.png"))
}
