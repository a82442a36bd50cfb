// Package manifest reads the entries manifest written by the bundler: which
// compiled module serves each route origin, and which source files each
// route depends on.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
	"git.home.luguber.info/inful/routegen/internal/route"
)

// Manifest maps route origins to compiled modules and dependency files.
type Manifest struct {
	// Entries maps origin to import path. An empty import path means the
	// origin is itself loadable.
	Entries      map[string]string   `yaml:"entries" json:"entries"`
	Dependencies map[string][]string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
}

type rawManifest struct {
	Entries      yaml.Node           `yaml:"entries"`
	Dependencies map[string][]string `yaml:"dependencies"`
}

// Parse decodes a YAML or JSON manifest. entries may be a map of
// origin to import path, or a plain list of origins.
func Parse(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	m := &Manifest{Entries: map[string]string{}, Dependencies: raw.Dependencies}
	if m.Dependencies == nil {
		m.Dependencies = map[string][]string{}
	}

	switch raw.Entries.Kind {
	case 0:
	case yaml.MappingNode:
		if err := raw.Entries.Decode(&m.Entries); err != nil {
			return nil, fmt.Errorf("decode entries: %w", err)
		}
	case yaml.SequenceNode:
		var origins []string
		if err := raw.Entries.Decode(&origins); err != nil {
			return nil, fmt.Errorf("decode entries: %w", err)
		}
		for _, o := range origins {
			m.Entries[o] = ""
		}
	default:
		return nil, fmt.Errorf("entries must be a map or a list (line %d)", raw.Entries.Line)
	}
	return m, nil
}

// Load reads a manifest file. Relative paths inside it are resolved against
// the manifest's directory.
func Load(path string) (*Manifest, error) {
	// #nosec G304 - manifest path is user configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("cannot read entries manifest %s", path)).WithCause(err).Build()
	}
	m, err := Parse(data)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("invalid entries manifest %s", path)).WithCause(err).Build()
	}
	m.resolve(filepath.Dir(path))
	return m, nil
}

// New builds a manifest from in-memory entries, resolving relative paths
// against base.
func New(entries map[string]string, deps map[string][]string, base string) *Manifest {
	m := &Manifest{Entries: make(map[string]string, len(entries)), Dependencies: make(map[string][]string, len(deps))}
	for o, p := range entries {
		m.Entries[o] = p
	}
	for o, d := range deps {
		m.Dependencies[o] = append([]string(nil), d...)
	}
	m.resolve(base)
	return m
}

// Merge copies other's entries and dependencies into m. other wins on
// conflicting origins.
func (m *Manifest) Merge(other *Manifest) {
	if other == nil {
		return
	}
	for o, p := range other.Entries {
		m.Entries[o] = p
	}
	for o, d := range other.Dependencies {
		m.Dependencies[o] = append([]string(nil), d...)
	}
}

func (m *Manifest) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	for origin, importPath := range m.Entries {
		if importPath == "" {
			importPath = origin
		}
		m.Entries[origin] = abs(importPath)
	}
	for origin, deps := range m.Dependencies {
		out := make([]string, len(deps))
		for i, d := range deps {
			out[i] = abs(d)
		}
		m.Dependencies[origin] = out
	}
}

// Origins returns every entry origin, sorted.
func (m *Manifest) Origins() []string {
	origins := make([]string, 0, len(m.Entries))
	for o := range m.Entries {
		origins = append(origins, o)
	}
	sort.Strings(origins)
	return origins
}

// Routes builds one route per entry, sorted by origin.
func (m *Manifest) Routes() []*route.Route {
	routes := make([]*route.Route, 0, len(m.Entries))
	for _, origin := range m.Origins() {
		routes = append(routes, route.New(origin, m.Entries[origin], m.Dependencies[origin]))
	}
	return routes
}

// Hash is a deterministic digest of the manifest contents.
func (m *Manifest) Hash() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}
