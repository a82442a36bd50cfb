// Package pageindex collects every generated page of a run keyed by permalink.
package pageindex

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
)

// Entry is one generated page.
type Entry struct {
	Permalink string
	Content   string
	// Origin is the route that produced the page; informational only.
	Origin string
}

// Index maps permalinks to content. A repeated permalink overwrites the
// stored content and is recorded as a duplicate.
type Index struct {
	mu         sync.Mutex
	pages      map[string]Entry
	seen       map[string]struct{}
	duplicates []string
}

// New creates an empty index.
func New() *Index {
	return &Index{
		pages: make(map[string]Entry),
		seen:  make(map[string]struct{}),
	}
}

// Add inserts an entry.
func (x *Index) Add(e Entry) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.seen[e.Permalink]; ok {
		x.duplicates = append(x.duplicates, e.Permalink)
	}
	x.seen[e.Permalink] = struct{}{}
	x.pages[e.Permalink] = e
}

// AddAll inserts entries in order.
func (x *Index) AddAll(entries []Entry) {
	for _, e := range entries {
		x.Add(e)
	}
}

// All returns a permalink to content snapshot.
func (x *Index) All() map[string]string {
	x.mu.Lock()
	defer x.mu.Unlock()

	out := make(map[string]string, len(x.pages))
	for k, e := range x.pages {
		out[k] = e.Content
	}
	return out
}

// Entries returns every stored entry sorted by permalink.
func (x *Index) Entries() []Entry {
	x.mu.Lock()
	defer x.mu.Unlock()

	out := make([]Entry, 0, len(x.pages))
	for _, e := range x.pages {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Permalink < out[j].Permalink })
	return out
}

// Len returns the number of distinct permalinks.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.pages)
}

// Duplicates returns every repeat insertion, in insertion order.
func (x *Index) Duplicates() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]string(nil), x.duplicates...)
}

// CheckDuplicates returns a DuplicatePermalinkError naming every duplicate,
// or nil.
func (x *Index) CheckDuplicates() error {
	dups := x.Duplicates()
	if len(dups) == 0 {
		return nil
	}
	noun := "Pages"
	if len(dups) == 1 {
		noun = "Page"
	}
	return errors.DuplicatePermalinkError(fmt.Sprintf(
		"%s generated with overlapping permalinks:\n %s", noun, strings.Join(dups, "\n "))).
		WithContext("permalinks", dups).
		Build()
}
