// Package preview serves a built site locally and rebuilds it when the
// content directory changes.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	foundation "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// buildStatus tracks the latest build outcome for the error page.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
}

func (bs *buildStatus) setSuccess() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.hasGoodBuild = true
}

func (bs *buildStatus) get() (hasGoodBuild bool, lastErr error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.hasGoodBuild, bs.lastError
}

// Server rebuilds and serves one site.
type Server struct {
	cfg      *config.Config
	svc      build.Service
	registry *prom.Registry
	status   buildStatus
	logger   *slog.Logger
}

// New returns a preview server. A nil registry disables the metrics endpoint.
func New(cfg *config.Config, svc build.Service, registry *prom.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, svc: svc, registry: registry, logger: logger}
}

// Run builds the site, serves it on the configured port and rebuilds it
// after changes until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	absContent, err := resolveContentDir(s.cfg.Content.Dir)
	if err != nil {
		return err
	}

	s.rebuild(ctx)

	addr := net.JoinHostPort("", strconv.Itoa(s.cfg.Preview.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return foundation.WrapError(err, foundation.CategoryRuntime, "listen").
			WithContext("addr", addr).
			Fatal().
			Build()
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Preview server stopped", logfields.Error(err))
		}
	}()
	s.logger.Info("Preview server listening",
		logfields.Addr(addr),
		slog.String("url", fmt.Sprintf("http://localhost:%d", s.cfg.Preview.Port)))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_ = srv.Close()
		return foundation.WrapError(err, foundation.CategoryRuntime, "create watcher").Fatal().Build()
	}
	defer func() { _ = watcher.Close() }()
	addDirsRecursive(watcher, absContent, s.logger)

	rebuildReq, trigger := newDebouncer(s.cfg.Preview.DebounceDuration())
	s.startRebuildWorker(ctx, rebuildReq)

	for {
		select {
		case <-ctx.Done():
			return s.shutdown(srv)
		case ev, ok := <-watcher.Events:
			if !ok {
				return s.shutdown(srv)
			}
			s.handleFileEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return s.shutdown(srv)
			}
			s.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Handler serves the output directory and, when enabled, metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.registry != nil && s.cfg.Monitoring.Metrics.Enabled {
		mux.Handle(s.cfg.Monitoring.Metrics.Path, metrics.HTTPHandler(s.registry))
	}
	files := http.FileServer(http.Dir(s.cfg.Output.Directory))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		good, lastErr := s.status.get()
		if lastErr != nil {
			w.Header().Set("X-Build-Error", "true")
			if !good {
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = fmt.Fprintf(w, "Build failed\n\n%s\n", foundation.NewCLIErrorAdapter(false, s.logger).FormatError(lastErr))
				return
			}
		}
		files.ServeHTTP(w, r)
	})
	return mux
}

func (s *Server) rebuild(ctx context.Context) {
	result, err := s.svc.Run(ctx, build.Request{Config: s.cfg})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn("Build failed", logfields.Error(err))
		s.status.setError(err)
		return
	}
	s.status.setSuccess()
	s.logger.Info("Site built",
		logfields.BuildID(result.BuildID),
		logfields.Count(result.Pages),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
}

// startRebuildWorker runs at most one rebuild at a time. A request that
// arrives during a rebuild causes exactly one more rebuild afterwards.
func (s *Server) startRebuildWorker(ctx context.Context, rebuildReq chan struct{}) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-rebuildReq:
				s.logger.Info("Change detected; rebuilding site")
				s.rebuild(ctx)
			}
		}
	}()
}

func (s *Server) shutdown(srv *http.Server) error {
	s.logger.Info("Shutting down preview server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	return nil
}

func (s *Server) handleFileEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			addDirsRecursive(watcher, ev.Name, s.logger)
		}
	}
	s.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

// newDebouncer returns a channel that receives one value per quiet period
// of delay after any number of trigger calls.
func newDebouncer(delay time.Duration) (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	return rebuildReq, trigger
}

func resolveContentDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", foundation.WrapError(err, foundation.CategoryConfig, "resolve content dir").Build()
	}
	if st, statErr := os.Stat(abs); statErr != nil || !st.IsDir() {
		return "", foundation.ConfigError("content dir not found or not a directory").
			WithContext("dir", abs).
			Build()
	}
	return abs, nil
}

func addDirsRecursive(w *fsnotify.Watcher, root string, logger *slog.Logger) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			if err := w.Add(path); err != nil {
				logger.Warn("Watch add failed", logfields.Dir(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent reports events for hidden, editor swap and OS metadata files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
