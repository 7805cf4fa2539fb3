package build

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/export"
	foundation "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/sitetree"
	"git.home.luguber.info/inful/sitebuilder/internal/walk"
)

var _ walk.Handler = (*sitetree.Builder)(nil)
var _ walk.Skipper = (*sitetree.Builder)(nil)

// recordingRecorder captures outcomes and stage results.
type recordingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes []metrics.BuildOutcomeLabel
	stages   map[string]metrics.ResultLabel
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{stages: make(map[string]metrics.ResultLabel)}
}

func (r *recordingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[stage] = result
}

func writeFiles(t *testing.T, fs billy.Filesystem, files map[string]string) {
	t.Helper()
	for name, body := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(name), 0o755))
		require.NoError(t, util.WriteFile(fs, name, []byte(body), 0o644))
	}
}

func blogContent(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"/_index.yaml":             "menu: [/posts, /about]\n",
		"/about.md":                "---\ntitle: About\n---\nWho we are.\n",
		"/posts/_index.yaml":       "title: Posts\n",
		"/posts/hello.md":          "# Hello\n\nFirst post body.\n",
		"/posts/hello.yaml":        "slug: hello\ndate: 2024-03-01T09:30\ntaxonomies:\n  categories: [intro]\n",
		"/posts/second.md":         "+++\ntitle = \"Second\"\ndate = \"2024-05-02\"\ntags = [\"go\"]\n+++\nMore.\n",
		"/drafts/ignored.md":       "not walked",
		"/posts/.hidden.md":        "not walked",
		"/posts/notes.txt":         "ignored kind",
		"/posts/broken.yaml":       "title: [unclosed\n",
		"/posts/collision.json":    `{"title": "JSON page"}`,
		"/posts/collision.toml":    "description = \"from toml\"\n",
		"/posts/badmenu/_index.md": "---\nmenu: [\"relative\"]\n---\n",
	})
	return fs
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Site.Title = "Example"
	cfg.Site.Author = "Ann"
	cfg.Content.Ignore = []string{"drafts"}
	return cfg
}

func newTestService() *DefaultService {
	return NewService().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStatusIsSuccess(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusSuccess, true},
		{StatusWarning, true},
		{StatusFailed, false},
		{StatusCancelled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsSuccess())
		})
	}
}

func TestRunNilConfig(t *testing.T) {
	rec := newRecordingRecorder()
	result, err := newTestService().WithRecorder(rec).Run(context.Background(), Request{})

	require.ErrorIs(t, err, ErrNoConfig)
	classified, ok := foundation.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, foundation.CategoryConfig, classified.Category())
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeFailed}, rec.outcomes)
}

func TestRunBuildsSite(t *testing.T) {
	out := memfs.New()
	rec := newRecordingRecorder()
	svc := newTestService().WithRecorder(rec)

	result, err := svc.Run(context.Background(), Request{
		Config:  testConfig(t),
		Content: blogContent(t),
		Output:  out,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Root)

	// broken.yaml and the relative menu entry are skipped, the rest builds.
	assert.Equal(t, StatusWarning, result.Status)
	assert.NotEmpty(t, result.BuildID)
	skipped := make([]string, 0, len(result.Skipped))
	for _, s := range result.Skipped {
		skipped = append(skipped, s.Path)
	}
	assert.ElementsMatch(t, []string{"/posts/broken.yaml", "/posts/badmenu/_index.md"}, skipped)

	root := result.Root
	assert.Equal(t, "Example", root.Title())
	assert.Equal(t, "Ann", root.Author())

	posts := root.ChildPages()["/posts"]
	require.NotNil(t, posts)
	hello := posts.ChildPages()["/posts/hello"]
	require.NotNil(t, hello)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), hello.Date())
	assert.Contains(t, hello.Content(), "First post body.")

	collision := posts.ChildPages()["/posts/collision"]
	require.NotNil(t, collision)
	assert.Equal(t, "JSON page", collision.Title())
	assert.Equal(t, "from toml", collision.Description())

	years := posts.ChildPagesByYear()
	require.Len(t, years, 1)
	assert.Equal(t, 2024, years[0].Year)
	require.Len(t, years[0].Pages, 2)
	assert.Equal(t, "Second", years[0].Pages[0].Title())

	terms := result.Registry.Terms()
	require.Len(t, terms, 2)
	for _, w := range []string{
		"index.html",
		"about/index.html",
		"posts/index.html",
		"posts/hello/index.html",
		"posts/second/index.html",
		"categories/index.html",
		"categories/intro/index.html",
		"tags/index.html",
		"tags/go/index.html",
	} {
		assert.Contains(t, result.Written, w)
		_, err := out.Stat(w)
		assert.NoError(t, err, w)
	}
	_, err = out.Stat("drafts/index.html")
	assert.Error(t, err)

	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeWarning}, rec.outcomes)
	assert.Equal(t, metrics.ResultWarning, rec.stages[StageWalk])
	assert.Equal(t, metrics.ResultSuccess, rec.stages[StageRender])
}

func TestRunCheckOnlyWritesNothing(t *testing.T) {
	out := memfs.New()
	result, err := newTestService().Run(context.Background(), Request{
		Config:  testConfig(t),
		Content: blogContent(t),
		Output:  out,
		Options: Options{CheckOnly: true},
	})
	require.NoError(t, err)
	assert.True(t, result.Status.IsSuccess())
	assert.Empty(t, result.Written)

	_, err = out.Stat("index.html")
	assert.Error(t, err)
}

func TestRunFailsOnDuplicateURL(t *testing.T) {
	content := memfs.New()
	writeFiles(t, content, map[string]string{
		"/a.yaml": "title: A\nslug: same\n",
		"/b.yaml": "title: B\nslug: same\n",
	})

	result, err := newTestService().Run(context.Background(), Request{
		Config:  testConfig(t),
		Content: content,
		Output:  memfs.New(),
	})
	require.ErrorIs(t, err, sitetree.ErrDuplicateURL)
	classified, ok := foundation.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, foundation.CategoryValidation, classified.Category())
	url, _ := classified.Context().GetString("url")
	assert.Equal(t, "/same", url)
	assert.Equal(t, StatusFailed, result.Status)
}

func TestRunFailsOnDanglingMenu(t *testing.T) {
	content := memfs.New()
	writeFiles(t, content, map[string]string{
		"/_index.yaml": "menu: [/missing]\n",
		"/page.md":     "body",
	})

	_, err := newTestService().Run(context.Background(), Request{
		Config:  testConfig(t),
		Content: content,
		Output:  memfs.New(),
	})
	require.ErrorIs(t, err, sitetree.ErrDanglingMenuReference)
	var merr *sitetree.MenuError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, []string{"/missing"}, merr.Missing)
}

func TestRunFailsWhenContentShadowsTaxonomy(t *testing.T) {
	content := memfs.New()
	writeFiles(t, content, map[string]string{
		"/tags.md": "---\ntitle: My tags\n---\n",
		"/post.md": "---\ntags: [go]\n---\n",
	})

	_, err := newTestService().Run(context.Background(), Request{
		Config:  testConfig(t),
		Content: content,
		Output:  memfs.New(),
	})
	require.ErrorIs(t, err, sitetree.ErrDuplicateURL)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := newRecordingRecorder()

	result, err := newTestService().WithRecorder(rec).Run(ctx, Request{
		Config:  testConfig(t),
		Content: blogContent(t),
		Output:  memfs.New(),
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCancelled, result.Status)
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeCanceled}, rec.outcomes)
}

func TestRunCleansOutput(t *testing.T) {
	out := memfs.New()
	writeFiles(t, out, map[string]string{"/stale/index.html": "old"})
	cfg := testConfig(t)
	cfg.Output.Clean = true

	_, err := newTestService().Run(context.Background(), Request{Config: cfg, Content: blogContent(t), Output: out})
	require.NoError(t, err)
	_, err = out.Stat("stale/index.html")
	assert.Error(t, err)
}

func TestRunExportsIndex(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.SQLite = filepath.Join(t.TempDir(), "site.db")

	_, err := newTestService().Run(context.Background(), Request{Config: cfg, Content: blogContent(t), Output: memfs.New()})
	require.NoError(t, err)

	idx, err := export.NewSQLiteIndex(cfg.Export.SQLite)
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	pages, err := idx.ClassifiedPages(context.Background(), "/categories/intro")
	require.NoError(t, err)
	assert.Equal(t, []string{"/posts/hello"}, pages)

	menu, err := idx.MenuTargets(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/posts", "/about"}, menu)
}
