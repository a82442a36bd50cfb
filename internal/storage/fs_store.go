package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FSStore keeps one JSON document per origin:
//
//	<basePath>/
//	  records/
//	    <sha256(origin)>.json
type FSStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFSStore creates a filesystem-backed record store.
func NewFSStore(basePath string) (*FSStore, error) {
	dir := filepath.Join(basePath, "records")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}
	return &FSStore{basePath: basePath}, nil
}

// Get reads the record for origin.
func (fs *FSStore) Get(ctx context.Context, origin string) (*Record, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	// #nosec G304 - path is derived from a hash of origin
	data, err := os.ReadFile(fs.recordPath(origin))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound{Origin: origin}
		}
		return nil, fmt.Errorf("read record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record %s: %w", origin, err)
	}
	return &rec, nil
}

// Put writes rec atomically (temp file + rename).
func (fs *FSStore) Put(ctx context.Context, rec *Record) error {
	if rec == nil || rec.Origin == "" {
		return fmt.Errorf("record origin is required")
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	stored := rec.Clone()
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	path := fs.recordPath(rec.Origin)
	tmp, err := os.CreateTemp(filepath.Dir(path), ".record-*")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close record: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename record: %w", err)
	}
	return nil
}

// Delete removes the record for origin.
func (fs *FSStore) Delete(ctx context.Context, origin string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(fs.recordPath(origin)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound{Origin: origin}
		}
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// List returns the origins of every readable record.
func (fs *FSStore) List(ctx context.Context) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := os.ReadDir(fs.recordsDir())
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	origins := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		// #nosec G304 - listing our own directory
		data, err := os.ReadFile(filepath.Join(fs.recordsDir(), e.Name()))
		if err != nil {
			continue
		}
		var rec Record
		if json.Unmarshal(data, &rec) == nil && rec.Origin != "" {
			origins = append(origins, rec.Origin)
		}
	}
	return origins, nil
}

// Clear removes the records directory and recreates it empty.
func (fs *FSStore) Clear(ctx context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.RemoveAll(fs.recordsDir()); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	return os.MkdirAll(fs.recordsDir(), 0750)
}

// Close releases resources.
func (fs *FSStore) Close() error {
	return nil
}

func (fs *FSStore) recordsDir() string {
	return filepath.Join(fs.basePath, "records")
}

func (fs *FSStore) recordPath(origin string) string {
	sum := sha256.Sum256([]byte(origin))
	return filepath.Join(fs.recordsDir(), hex.EncodeToString(sum[:])+".json")
}
