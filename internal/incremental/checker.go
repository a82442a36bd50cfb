package incremental

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
	"git.home.luguber.info/inful/routegen/internal/logfields"
	"git.home.luguber.info/inful/routegen/internal/storage"
)

// Decision is the outcome of Checker.Decide.
type Decision struct {
	// ToCompile lists origins whose module must be rebuilt, in input order.
	ToCompile []string
	// Cached maps reusable origins to their recorded import path.
	Cached map[string]string
	// CachedDependencies maps reusable origins to their recorded dependency paths (sorted).
	CachedDependencies map[string][]string
}

// IsCached reports whether origin can reuse its compiled module.
func (d Decision) IsCached(origin string) bool {
	_, ok := d.Cached[origin]
	return ok
}

// Checker reads and writes per-route cache records.
type Checker struct {
	store  storage.Store
	logger *slog.Logger
	exists func(importPath string) bool
	now    func() time.Time
}

// NewChecker creates a checker over store.
func NewChecker(store storage.Store) *Checker {
	if store == nil {
		store = storage.Discard{}
	}
	return &Checker{
		store:  store,
		logger: slog.Default(),
		exists: fileExists,
		now:    time.Now,
	}
}

// WithLogger sets a custom logger.
func (c *Checker) WithLogger(logger *slog.Logger) *Checker {
	c.logger = logger
	return c
}

// WithArtifactCheck replaces the "compiled module still exists" probe.
// The default stats the import path on disk.
func (c *Checker) WithArtifactCheck(exists func(importPath string) bool) *Checker {
	if exists != nil {
		c.exists = exists
	}
	return c
}

// Decide classifies each origin as cached or needing compilation. It never
// writes to the store.
func (c *Checker) Decide(ctx context.Context, origins []string, force bool) (Decision, error) {
	d := Decision{
		Cached:             make(map[string]string),
		CachedDependencies: make(map[string][]string),
	}

	for _, origin := range origins {
		if err := ctx.Err(); err != nil {
			return d, err
		}
		if force {
			d.ToCompile = append(d.ToCompile, origin)
			continue
		}

		rec, err := c.store.Get(ctx, origin)
		if err != nil {
			if !storage.IsNotFound(err) {
				c.logger.Warn("Cache record unreadable; recompiling",
					logfields.Route(origin), logfields.Error(err))
			}
			d.ToCompile = append(d.ToCompile, origin)
			continue
		}
		if len(rec.DependenciesHashed) == 0 {
			d.ToCompile = append(d.ToCompile, origin)
			continue
		}

		if reason := c.staleReason(rec); reason != "" {
			c.logger.Debug("Route needs compile", logfields.Route(origin), slog.String("reason", reason))
			d.ToCompile = append(d.ToCompile, origin)
			continue
		}

		deps := make([]string, 0, len(rec.DependenciesHashed))
		for p := range rec.DependenciesHashed {
			deps = append(deps, p)
		}
		sort.Strings(deps)
		d.Cached[origin] = rec.ImportPath
		d.CachedDependencies[origin] = deps
	}

	return d, nil
}

func (c *Checker) staleReason(rec *storage.Record) string {
	for path, recorded := range rec.DependenciesHashed {
		if HashOrMissing(path) != recorded {
			return "dependency changed: " + path
		}
	}
	if !c.exists(rec.ImportPath) {
		return "compiled module missing: " + rec.ImportPath
	}
	return ""
}

// Record persists the dependency snapshot of a route that generated successfully.
func (c *Checker) Record(ctx context.Context, origin, importPath string, hashed map[string]string) error {
	rec := &storage.Record{
		Origin:             origin,
		ImportPath:         importPath,
		DependenciesHashed: hashed,
		UpdatedAt:          c.now().UTC(),
	}
	if err := c.store.Put(ctx, rec); err != nil {
		return errors.CacheError(fmt.Sprintf("%s: failed to write cache record", origin)).
			WithCause(err).
			WithContext("origin", origin).
			Build()
	}
	return nil
}

// Forget drops the record for origin. A missing record is not an error.
func (c *Checker) Forget(ctx context.Context, origin string) error {
	if err := c.store.Delete(ctx, origin); err != nil && !storage.IsNotFound(err) {
		return errors.CacheError(fmt.Sprintf("%s: failed to delete cache record", origin)).
			WithCause(err).
			Build()
	}
	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
