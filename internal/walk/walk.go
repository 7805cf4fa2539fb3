// Package walk drives a depth-first traversal of a content directory and
// reports it as enter, file and leave events.
package walk

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	foundation "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Handler receives directory walk events.
type Handler interface {
	Enter(dir string) error
	File(path string, data []byte) error
	Leave(dir string) error
}

// Skipper is implemented by handlers that want to know about unreadable files.
type Skipper interface {
	Skip(path string, err error)
}

// Walker walks a billy filesystem. Within a directory files are reported
// before subdirectories, both in name order. Hidden entries and entries
// matching an ignore pattern are never reported.
type Walker struct {
	fs     billy.Filesystem
	root   string
	ignore []string
	logger *slog.Logger
}

// New returns a walker over root in fs. Ignore patterns are doublestar globs
// matched against slash separated paths relative to root.
func New(fs billy.Filesystem, root string, ignore []string, logger *slog.Logger) (*Walker, error) {
	for _, pattern := range ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, foundation.ConfigError("invalid ignore pattern").
				WithContext("pattern", pattern).
				Build()
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if root == "" {
		root = "/"
	}
	return &Walker{fs: fs, root: root, ignore: ignore, logger: logger}, nil
}

// Walk reports the whole tree below the walker's root to h.
func (w *Walker) Walk(ctx context.Context, h Handler) error {
	return w.walkDir(ctx, w.root, h)
}

func (w *Walker) walkDir(ctx context.Context, dir string, h Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := w.fs.ReadDir(dir)
	if err != nil {
		return foundation.WrapError(err, foundation.CategoryWalk, "read directory").
			WithContext("dir", dir).
			Fatal().
			Build()
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	if err := h.Enter(dir); err != nil {
		return err
	}

	var subdirs []string
	for _, entry := range entries {
		p := filepath.Join(dir, entry.Name())
		if w.excluded(entry, p) {
			continue
		}
		if entry.IsDir() {
			subdirs = append(subdirs, p)
			continue
		}
		if !entry.Mode().IsRegular() {
			continue
		}
		data, err := util.ReadFile(w.fs, p)
		if err != nil {
			w.skip(h, p, err)
			continue
		}
		if err := h.File(p, data); err != nil {
			return err
		}
	}

	for _, sub := range subdirs {
		if err := w.walkDir(ctx, sub, h); err != nil {
			return err
		}
	}
	return h.Leave(dir)
}

func (w *Walker) excluded(entry os.FileInfo, p string) bool {
	if strings.HasPrefix(entry.Name(), ".") {
		return true
	}
	rel := strings.TrimPrefix(filepath.ToSlash(p), filepath.ToSlash(strings.TrimSuffix(w.root, "/"))+"/")
	for _, pattern := range w.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			w.logger.Debug("Ignoring path", logfields.Path(rel), slog.String("pattern", pattern))
			return true
		}
	}
	return false
}

func (w *Walker) skip(h Handler, p string, err error) {
	wrapped := foundation.WrapError(err, foundation.CategoryFileSystem, "read file").
		WithContext("path", p).
		Warning().
		Build()
	if s, ok := h.(Skipper); ok {
		s.Skip(p, wrapped)
		return
	}
	w.logger.Warn("Skipping unreadable file", logfields.Path(p), logfields.Error(err))
}
