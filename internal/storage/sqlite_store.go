package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps cache records in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) a record database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serialises writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_records (
		origin TEXT PRIMARY KEY,
		import_path TEXT NOT NULL,
		dependencies TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get reads the record for origin.
func (s *SQLiteStore) Get(ctx context.Context, origin string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rec     = Record{Origin: origin}
		depJSON string
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT import_path, dependencies, updated_at FROM cache_records WHERE origin = ?",
		origin,
	).Scan(&rec.ImportPath, &depJSON, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound{Origin: origin}
		}
		return nil, fmt.Errorf("query record: %w", err)
	}

	if err := json.Unmarshal([]byte(depJSON), &rec.DependenciesHashed); err != nil {
		return nil, fmt.Errorf("unmarshal dependencies for %s: %w", origin, err)
	}
	rec.UpdatedAt = time.Unix(updated, 0).UTC()
	return &rec, nil
}

// Put upserts rec.
func (s *SQLiteStore) Put(ctx context.Context, rec *Record) error {
	if rec == nil || rec.Origin == "" {
		return fmt.Errorf("record origin is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	deps := rec.DependenciesHashed
	if deps == nil {
		deps = map[string]string{}
	}
	depJSON, err := json.Marshal(deps)
	if err != nil {
		return fmt.Errorf("marshal dependencies: %w", err)
	}
	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache_records (origin, import_path, dependencies, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(origin) DO UPDATE SET
			import_path = excluded.import_path,
			dependencies = excluded.dependencies,
			updated_at = excluded.updated_at`,
		rec.Origin, rec.ImportPath, string(depJSON), updated.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// Delete removes the record for origin.
func (s *SQLiteStore) Delete(ctx context.Context, origin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM cache_records WHERE origin = ?", origin)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound{Origin: origin}
	}
	return nil
}

// List returns every stored origin in lexical order.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT origin FROM cache_records ORDER BY origin")
	if err != nil {
		return nil, fmt.Errorf("query origins: %w", err)
	}
	defer rows.Close()

	var origins []string
	for rows.Next() {
		var origin string
		if err := rows.Scan(&origin); err != nil {
			return nil, fmt.Errorf("scan origin: %w", err)
		}
		origins = append(origins, origin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return origins, nil
}

// Clear removes every record.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM cache_records"); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
