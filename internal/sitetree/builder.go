package sitetree

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	foundation "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// MetadataDecoder decodes standalone metadata files and the front matter of content files.
type MetadataDecoder interface {
	DecodeMetadata(path string, data []byte) (*frontmatter.Record, error)
	SplitContent(data []byte) (*frontmatter.Record, []byte, error)
}

// ContentRenderer renders a markdown body to markup.
type ContentRenderer interface {
	Render(body []byte) (string, error)
}

// FileKind classifies the files of a content directory.
type FileKind int

const (
	KindOther FileKind = iota
	KindContent
	KindMetadata
)

// ClassifyFile returns the kind of the file at path, by extension.
func ClassifyFile(path string) FileKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return KindContent
	}
	if _, ok := frontmatter.FormatForPath(path); ok {
		return KindMetadata
	}
	return KindOther
}

// SkippedFile records a file that could not be processed.
type SkippedFile struct {
	Path string
	Err  error
}

// frame is one directory being walked. Files that are not an index file
// become leaf pages, collected by stem until the directory is left.
type frame struct {
	dir    string
	page   *Page
	leaves map[string]*Page
}

// Builder assembles a content tree from enter, file and leave events.
type Builder struct {
	registry *Registry
	decoder  MetadataDecoder
	renderer ContentRenderer
	logger   *slog.Logger

	stack     []*frame
	root      *Page
	processed int
	skipped   []SkippedFile
}

// NewBuilder returns a builder that classifies pages into registry.
func NewBuilder(registry *Registry, decoder MetadataDecoder, renderer ContentRenderer, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{registry: registry, decoder: decoder, renderer: renderer, logger: logger}
}

// Enter pushes a new page for dir, titled after the directory.
// Directories below the root get a slug from their name.
func (b *Builder) Enter(dir string) error {
	name := filepath.Base(filepath.Clean(dir))
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}
	page := NewPage(Fields{Title: name})
	if len(b.stack) > 0 {
		page.slug = Slugify(name)
	}
	b.stack = append(b.stack, &frame{dir: dir, page: page, leaves: make(map[string]*Page)})
	return nil
}

// File merges one file into the current directory. Failures of a single
// file are logged and recorded, the walk continues. A file outside any
// directory is a fatal protocol error.
func (b *Builder) File(path string, data []byte) error {
	top, err := b.current("file", path)
	if err != nil {
		return err
	}
	kind := ClassifyFile(path)
	if kind == KindOther {
		b.logger.Debug("Ignoring file", logfields.Path(path))
		return nil
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	index := stem == "_index" || stem == "index"

	partial, err := b.decode(path, kind, data, !index)
	if err != nil {
		b.Skip(path, err)
		return nil
	}

	if index {
		top.page.Merge(partial)
	} else {
		leaf, ok := top.leaves[stem]
		if !ok {
			leaf = NewPage(Fields{Title: TitleFromName(stem), Slug: Slugify(stem)})
			top.leaves[stem] = leaf
		}
		leaf.Merge(partial)
	}
	b.processed++
	return nil
}

// Skip records a file that could not be read or decoded.
func (b *Builder) Skip(path string, err error) {
	b.logger.Warn("Skipping file", logfields.Path(path), logfields.Error(err))
	b.skipped = append(b.skipped, SkippedFile{Path: path, Err: err})
}

// Leave pops the current directory. Its leaf pages are attached to it, and
// it is attached to its parent directory, or becomes the root.
func (b *Builder) Leave(dir string) error {
	top, err := b.current("leave", dir)
	if err != nil {
		return err
	}
	b.stack = b.stack[:len(b.stack)-1]

	stems := make([]string, 0, len(top.leaves))
	for stem := range top.leaves {
		stems = append(stems, stem)
	}
	sort.Strings(stems)
	for _, stem := range stems {
		top.page.AddChildPage(top.leaves[stem])
	}

	if len(b.stack) == 0 {
		b.root = top.page
		return nil
	}
	b.stack[len(b.stack)-1].page.AddChildPage(top.page)
	return nil
}

// Root returns the finished tree. It fails while directories are still open.
func (b *Builder) Root() (*Page, error) {
	if b.root == nil || len(b.stack) > 0 {
		return nil, foundation.WrapError(ErrNoRoot, foundation.CategoryWalk, "content tree is incomplete").
			WithContext("open_directories", len(b.stack)).
			Fatal().
			Build()
	}
	return b.root, nil
}

// Registry returns the taxonomy registry the builder classifies into.
func (b *Builder) Registry() *Registry { return b.registry }

// Processed returns the number of files merged into the tree.
func (b *Builder) Processed() int { return b.processed }

// Skipped returns the files that were skipped.
func (b *Builder) Skipped() []SkippedFile { return append([]SkippedFile(nil), b.skipped...) }

func (b *Builder) current(event, path string) (*frame, error) {
	if len(b.stack) == 0 {
		return nil, foundation.WrapError(ErrNoCurrentPage, foundation.CategoryWalk, event+" event outside of a directory").
			WithContext("path", path).
			Fatal().
			Build()
	}
	return b.stack[len(b.stack)-1], nil
}

// decode turns one file into a detached partial page. The partial carries
// term references for classification on merge.
func (b *Builder) decode(path string, kind FileKind, data []byte, leaf bool) (*Page, error) {
	var (
		rec     *frontmatter.Record
		content string
		err     error
	)
	switch kind {
	case KindMetadata:
		rec, err = b.decoder.DecodeMetadata(path, data)
		if err != nil {
			return nil, foundation.WrapError(err, foundation.CategoryContent, "decode metadata").
				WithContext("path", path).Warning().Build()
		}
	case KindContent:
		var body []byte
		rec, body, err = b.decoder.SplitContent(data)
		if err != nil {
			return nil, foundation.WrapError(err, foundation.CategoryContent, "decode front matter").
				WithContext("path", path).Warning().Build()
		}
		content, err = b.renderer.Render(body)
		if err != nil {
			return nil, foundation.WrapError(err, foundation.CategoryContent, "render content").
				WithContext("path", path).Warning().Build()
		}
	}

	partial := NewPage(Fields{Content: content})
	if rec == nil {
		return partial, nil
	}
	date, err := rec.Time()
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryContent, "parse date").
			WithContext("path", path).Warning().Build()
	}
	partial.title = rec.Title
	partial.slug = rec.Slug
	if partial.slug == "" && leaf && rec.Title != "" {
		partial.slug = Slugify(rec.Title)
	}
	partial.url = rec.URL
	partial.date = date
	partial.description = rec.Description
	partial.author = rec.Author
	partial.AddMenuRefs(rec.Menu...)

	declared := make([]Declaration, 0, len(rec.Taxonomies))
	for _, tax := range rec.Taxonomies {
		if _, ok := b.registry.Lookup(tax.Name); !ok {
			b.logger.Debug("Ignoring unknown taxonomy", logfields.Path(path), logfields.Taxonomy(tax.Name))
			continue
		}
		declared = append(declared, Declaration{Name: tax.Name, Values: tax.Values})
	}
	// one-sided until merged, so a discarded partial is never listed by a term
	partial.terms = b.registry.GetOrCreateForAll(declared)
	return partial, nil
}
