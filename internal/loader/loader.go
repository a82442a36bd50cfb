// Package loader resolves an import path to a module's exports.
package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
	"git.home.luguber.info/inful/routegen/internal/route"
	"git.home.luguber.info/inful/routegen/internal/templates"
)

// Loader loads compiled route modules.
type Loader interface {
	// Load returns the module's exports, or an ImportError when nothing is
	// found at importPath.
	Load(ctx context.Context, importPath string) (route.Exports, error)
	// Exists reports whether a module is available at importPath.
	Exists(importPath string) bool
}

func notFound(importPath string) error {
	return errors.ImportError(fmt.Sprintf("No module found at %q", importPath)).
		WithContext("import_path", importPath).
		Build()
}

// Registry holds in-process modules keyed by import path.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]route.Exports
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]route.Exports)}
}

// Register adds or replaces the module at importPath.
func (r *Registry) Register(importPath string, exports route.Exports) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[importPath] = exports
}

// Load returns a copy of the registered symbol table.
func (r *Registry) Load(_ context.Context, importPath string) (route.Exports, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.modules[importPath]
	if !ok {
		return nil, notFound(importPath)
	}
	cp := make(route.Exports, len(ex))
	for k, v := range ex {
		cp[k] = v
	}
	return cp, nil
}

func (r *Registry) Exists(importPath string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[importPath]
	return ok
}

// Documents loads declarative module documents from disk. Every Load
// re-reads the file, so a watch-mode rebuild always sees the latest module.
type Documents struct {
	// Root resolves relative import paths; empty means the working directory.
	Root string
}

// NewDocuments creates a document loader rooted at root.
func NewDocuments(root string) *Documents {
	return &Documents{Root: root}
}

func (d *Documents) path(importPath string) string {
	if filepath.IsAbs(importPath) || d.Root == "" {
		return importPath
	}
	return filepath.Join(d.Root, importPath)
}

// Supported reports whether the file extension is a module document format.
func Supported(importPath string) bool {
	switch strings.ToLower(filepath.Ext(importPath)) {
	case ".yaml", ".yml", ".json", ".html", ".htm":
		return true
	}
	return false
}

func (d *Documents) Exists(importPath string) bool {
	if !Supported(importPath) {
		return false
	}
	info, err := os.Stat(d.path(importPath))
	return err == nil && !info.IsDir()
}

func (d *Documents) Load(ctx context.Context, importPath string) (route.Exports, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.Exists(importPath) {
		return nil, notFound(importPath)
	}
	path := d.path(importPath)

	// #nosec G304 - import paths come from the entries manifest
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.ImportError(fmt.Sprintf("cannot read module %q", importPath)).WithCause(err).Build()
	}
	defer func() { _ = f.Close() }()

	var doc *templates.Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		doc, err = templates.ParseModulePage(f)
	default:
		var raw []byte
		raw, err = io.ReadAll(f)
		if err == nil {
			doc, err = templates.ParseDocument(raw)
		}
	}
	if err != nil {
		return nil, errors.ImportError(fmt.Sprintf("invalid module %q", importPath)).WithCause(err).Build()
	}

	doc.Dir = filepath.Dir(path)
	doc.Name = importPath
	ex, err := doc.Exports()
	if err != nil {
		return nil, errors.ImportError(fmt.Sprintf("invalid module %q", importPath)).WithCause(err).Build()
	}
	return ex, nil
}

// Chain tries each loader in order and uses the first that has the module.
type Chain []Loader

func (c Chain) Load(ctx context.Context, importPath string) (route.Exports, error) {
	for _, l := range c {
		if l.Exists(importPath) {
			return l.Load(ctx, importPath)
		}
	}
	return nil, notFound(importPath)
}

func (c Chain) Exists(importPath string) bool {
	for _, l := range c {
		if l.Exists(importPath) {
			return true
		}
	}
	return false
}
