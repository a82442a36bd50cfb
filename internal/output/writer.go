// Package output writes the pages of a run in two phases: a dry run that
// probes every target for write access, then the commit.
package output

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
	"git.home.luguber.info/inful/routegen/internal/logfields"
	"git.home.luguber.info/inful/routegen/internal/pageindex"
	"git.home.luguber.info/inful/routegen/internal/permalink"
)

// Writer commits pages under an output directory.
type Writer struct {
	outputDir string
	probe     Probe
	limit     int
	logger    *slog.Logger
}

// NewWriter creates a writer rooted at outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir, probe: AccessProbe{}, limit: -1, logger: slog.Default()}
}

// WithProbe replaces the dry-run probe.
func (w *Writer) WithProbe(p Probe) *Writer {
	if p != nil {
		w.probe = p
	}
	return w
}

// WithConcurrency bounds concurrent file operations; n <= 0 means unbounded.
func (w *Writer) WithConcurrency(n int) *Writer {
	if n <= 0 {
		n = -1
	}
	w.limit = n
	return w
}

// WithLogger sets a custom logger.
func (w *Writer) WithLogger(logger *slog.Logger) *Writer {
	w.logger = logger
	return w
}

// OutputDir returns the writer's root.
func (w *Writer) OutputDir() string { return w.outputDir }

// DryRun resolves and probes every entry. Unresolvable paths are returned
// as they are; unwritable ones are reported together in one
// WritePermissionError. Nothing is written.
func (w *Writer) DryRun(ctx context.Context, entries []pageindex.Entry) error {
	var (
		mu       sync.Mutex
		failed   []string
		resolved []error
	)
	eg := new(errgroup.Group)
	eg.SetLimit(w.limit)
	for _, e := range entries {
		eg.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			target, err := permalink.Resolve(e.Permalink, w.outputDir)
			if err != nil {
				mu.Lock()
				resolved = append(resolved, err)
				mu.Unlock()
				return nil
			}
			if !w.probe.CanWrite(target) {
				mu.Lock()
				failed = append(failed, e.Permalink)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	if len(resolved) > 0 {
		return stderrors.Join(resolved...)
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return errors.WritePermissionError("Failed to write files: \n" + strings.Join(failed, "\n")).
			WithContext("permalinks", failed).
			Build()
	}
	return nil
}

// Commit writes every entry. It returns the permalinks actually written,
// sorted. Directory/file conflicts are fatal FilesystemConflictErrors; other
// per-file failures are WriteErrors and do not stop sibling writes.
func (w *Writer) Commit(ctx context.Context, entries []pageindex.Entry) ([]string, error) {
	var (
		mu      sync.Mutex
		written []string
		errs    []error
	)
	eg := new(errgroup.Group)
	eg.SetLimit(w.limit)
	for _, e := range entries {
		eg.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			err := w.writeOne(e)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			written = append(written, e.Permalink)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(written)
	return written, stderrors.Join(errs...)
}

func (w *Writer) writeOne(e pageindex.Entry) error {
	target, err := permalink.Resolve(e.Permalink, w.outputDir)
	if err != nil {
		return err
	}
	root, _ := filepath.Abs(w.outputDir)
	relFile := rel(root, target)
	dir := filepath.Dir(target)

	if e.Content == "" {
		return errors.WriteError(fmt.Sprintf("No source sent for file %s", relFile)).
			WithContext("permalink", e.Permalink).
			Build()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		if blocker, ok := fileInPath(root, dir); ok {
			return errors.FilesystemConflictError(fmt.Sprintf(
				"Can't create folder %q for file %q because a file with the same name already exists in its path (%s); ensure your permalinks do not cause conflicts, or clear the output directory to remove conflicting files",
				rel(root, dir), relFile, rel(root, blocker))).
				WithContext("permalink", e.Permalink).
				Build()
		}
		return errors.WriteError(fmt.Sprintf("%s not written", relFile)).WithCause(err).Build()
	}

	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return errors.FilesystemConflictError(fmt.Sprintf(
			"Attempted to overwrite directory %q with an output file; add an extension to your permalink, or clear the output directory to remove conflicting files",
			relFile)).
			WithContext("permalink", e.Permalink).
			Build()
	}

	// #nosec G306 - site output is meant to be world-readable
	if err := os.WriteFile(target, []byte(e.Content), 0o644); err != nil {
		w.logger.Warn("File not written", logfields.Permalink(e.Permalink), logfields.Error(err))
		return errors.WriteError(fmt.Sprintf("%s not written", relFile)).
			WithCause(err).
			WithContext("permalink", e.Permalink).
			Build()
	}
	return nil
}

// fileInPath finds the first non-directory between root and dir.
func fileInPath(root, dir string) (string, bool) {
	relDir, err := filepath.Rel(root, dir)
	if err != nil {
		return "", false
	}
	p := root
	for _, part := range strings.Split(relDir, string(filepath.Separator)) {
		if part == "." || part == "" {
			continue
		}
		p = filepath.Join(p, part)
		info, err := os.Stat(p)
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				return "", false
			}
			continue
		}
		if !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

func rel(root, p string) string {
	r, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(r)
}
