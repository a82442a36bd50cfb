package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/routegen/internal/logfields"
)

// Requester receives rebuild requests.
type Requester interface {
	Request(reason string, force bool)
}

// Watcher requests a rebuild whenever one of a set of files changes.
// Parent directories are watched rather than the files, so editors that
// replace files by rename are still seen.
type Watcher struct {
	watcher *fsnotify.Watcher
	target  Requester
	logger  *slog.Logger

	mu    sync.RWMutex
	files map[string]bool
	dirs  map[string]bool

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher that sends requests to target.
func NewWatcher(target Requester) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		watcher:  fw,
		target:   target,
		logger:   slog.Default(),
		files:    map[string]bool{},
		dirs:     map[string]bool{},
		stopChan: make(chan struct{}),
	}, nil
}

// WithLogger sets a custom logger.
func (w *Watcher) WithLogger(l *slog.Logger) *Watcher {
	if l != nil {
		w.logger = l
	}
	return w
}

// SetFiles replaces the watched file set. Directories no longer needed are
// released.
func (w *Watcher) SetFiles(files []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	nextFiles := make(map[string]bool, len(files))
	nextDirs := map[string]bool{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		nextFiles[abs] = true
		nextDirs[filepath.Dir(abs)] = true
	}

	for dir := range nextDirs {
		if w.dirs[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("Cannot watch directory", logfields.Path(dir), logfields.Error(err))
			delete(nextDirs, dir)
		}
	}
	for dir := range w.dirs {
		if !nextDirs[dir] {
			_ = w.watcher.Remove(dir)
		}
	}

	w.files, w.dirs = nextFiles, nextDirs
	w.logger.Debug("Watching files", logfields.Count(len(nextFiles)), slog.Int("directories", len(nextDirs)))
	return nil
}

// Dirs returns the watched directories, sorted.
func (w *Watcher) Dirs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) watched(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.files[abs]
}

// Start begins the event loop.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(ctx)
	}()
}

// Stop ends the event loop and releases the fsnotify handle.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.watched(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.logger.Debug("Input changed", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			w.target.Request("changed: "+event.Name, false)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", logfields.Error(err))
		}
	}
}
