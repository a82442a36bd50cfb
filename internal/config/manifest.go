package config

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
	"git.home.luguber.info/inful/routegen/internal/manifest"
	"git.home.luguber.info/inful/routegen/internal/storage"
)

// LoadManifest merges the manifest file (if any) with inline entries.
func (c *Config) LoadManifest() (*manifest.Manifest, error) {
	m := manifest.New(nil, nil, c.BaseDir())
	if c.Manifest != "" {
		fromFile, err := manifest.Load(c.Resolve(c.Manifest))
		if err != nil {
			return nil, err
		}
		m.Merge(fromFile)
	}
	m.Merge(manifest.New(c.Entries, c.Dependencies, c.BaseDir()))
	return m, nil
}

// OutputDir returns the absolute-or-config-relative output directory.
func (c *Config) OutputDir() string {
	return c.Resolve(c.Output.Directory)
}

// OpenStore opens the cache backend selected by cache.backend.
func (c *Config) OpenStore() (storage.Store, error) {
	dir := c.Resolve(c.Cache.Directory)
	switch c.Cache.Backend {
	case CacheBackendNone:
		return storage.Discard{}, nil
	case CacheBackendSQLite:
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryCache, "failed to create cache directory").
				WithContext("path", dir).
				Build()
		}
		s, err := storage.NewSQLiteStore(filepath.Join(dir, "cache.db"))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := storage.NewFSStore(dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
