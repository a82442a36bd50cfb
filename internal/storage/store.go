// Package storage persists incremental cache records, one document per route origin.
package storage

import (
	"context"
	"time"
)

// Store persists cache records keyed by route origin.
type Store interface {
	// Get returns the record for origin, or ErrNotFound.
	Get(ctx context.Context, origin string) (*Record, error)

	// Put writes (or replaces) the record for rec.Origin.
	Put(ctx context.Context, rec *Record) error

	// Delete removes the record for origin, or returns ErrNotFound.
	Delete(ctx context.Context, origin string) error

	// List returns the origins of all stored records.
	List(ctx context.Context) ([]string, error)

	// Clear removes every record.
	Clear(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Record is the persisted dependency snapshot of a route that generated successfully.
type Record struct {
	Origin             string            `json:"origin"`
	ImportPath         string            `json:"importPath"`
	DependenciesHashed map[string]string `json:"dependenciesHashed"`

	// UpdatedAt is informational; it never takes part in cache decisions.
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Clone returns a deep copy so stores never share maps with callers.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	cp.DependenciesHashed = make(map[string]string, len(r.DependenciesHashed))
	for k, v := range r.DependenciesHashed {
		cp.DependenciesHashed[k] = v
	}
	return &cp
}

// ErrNotFound is returned when no record exists for an origin.
type ErrNotFound struct {
	Origin string
}

func (e ErrNotFound) Error() string {
	return "cache record not found: " + e.Origin
}

// IsNotFound returns true if the error is ErrNotFound.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}

// Discard is a Store that remembers nothing; every lookup misses.
type Discard struct{}

func (Discard) Get(_ context.Context, origin string) (*Record, error) {
	return nil, ErrNotFound{Origin: origin}
}
func (Discard) Put(context.Context, *Record) error { return nil }
func (Discard) Delete(_ context.Context, origin string) error {
	return ErrNotFound{Origin: origin}
}
func (Discard) List(context.Context) ([]string, error) { return nil, nil }
func (Discard) Clear(context.Context) error            { return nil }
func (Discard) Close() error                           { return nil }
