package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	rec := &Record{
		Origin:             "pages/blog.yaml",
		ImportPath:         "/abs/pages/blog.yaml",
		DependenciesHashed: map[string]string{"pages/blog.yaml": "h1", "data/posts.json": "h2"},
	}
	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, rec.Origin)
	require.NoError(t, err)
	require.Equal(t, rec.ImportPath, got.ImportPath)
	require.Equal(t, rec.DependenciesHashed, got.DependenciesHashed)

	rec.DependenciesHashed = map[string]string{"pages/blog.yaml": "h3"}
	require.NoError(t, store.Put(ctx, rec))
	got, err = store.Get(ctx, rec.Origin)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"pages/blog.yaml": "h3"}, got.DependenciesHashed)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.Get(context.Background(), "missing")
	require.True(t, IsNotFound(err))
	require.True(t, IsNotFound(store.Delete(context.Background(), "missing")))
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, &Record{Origin: "b"}))
	require.NoError(t, store.Put(ctx, &Record{Origin: "a"}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	origins, err := store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, origins)

	require.NoError(t, store.Clear(ctx))
	origins, err = store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, origins)
}
