package incremental

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/routegen/internal/foundation/errors"
	"git.home.luguber.info/inful/routegen/internal/storage"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// fixture records a route whose dependency and compiled module exist on disk.
func fixture(t *testing.T) (store *storage.MockStore, origin, dep, module string) {
	t.Helper()
	dir := t.TempDir()
	origin = "src/pages/index.yaml"
	dep = filepath.Join(dir, "src", "partial.html")
	module = filepath.Join(dir, "build", "index.yaml")
	writeFile(t, dep, "<p>hello</p>")
	writeFile(t, module, "url: /")

	store = storage.NewMockStore()
	checker := NewChecker(store)
	require.NoError(t, checker.Record(context.Background(), origin, module,
		HashDependencies(context.Background(), []string{dep})))
	return store, origin, dep, module
}

func TestDecide_CachedWhenUnchanged(t *testing.T) {
	store, origin, dep, module := fixture(t)

	d, err := NewChecker(store).Decide(context.Background(), []string{origin}, false)
	require.NoError(t, err)
	require.Empty(t, d.ToCompile)
	require.Equal(t, module, d.Cached[origin])
	require.Equal(t, []string{dep}, d.CachedDependencies[origin])
	require.True(t, d.IsCached(origin))
}

func TestDecide_DependencyChangeFlipsToCompile(t *testing.T) {
	store, origin, dep, _ := fixture(t)
	checker := NewChecker(store)

	writeFile(t, dep, "<p>hello!</p>")

	d, err := checker.Decide(context.Background(), []string{origin}, false)
	require.NoError(t, err)
	require.Equal(t, []string{origin}, d.ToCompile)
	require.False(t, d.IsCached(origin))
}

func TestDecide_RemovedDependencyInvalidates(t *testing.T) {
	store, origin, dep, _ := fixture(t)
	require.NoError(t, os.Remove(dep))

	d, err := NewChecker(store).Decide(context.Background(), []string{origin}, false)
	require.NoError(t, err)
	require.Equal(t, []string{origin}, d.ToCompile)
}

func TestDecide_MissingArtifactInvalidates(t *testing.T) {
	store, origin, _, module := fixture(t)
	require.NoError(t, os.Remove(module))

	d, err := NewChecker(store).Decide(context.Background(), []string{origin}, false)
	require.NoError(t, err)
	require.Equal(t, []string{origin}, d.ToCompile)
}

func TestDecide_ArtifactCheckOverride(t *testing.T) {
	store, origin, _, module := fixture(t)
	require.NoError(t, os.Remove(module))

	checker := NewChecker(store).WithArtifactCheck(func(string) bool { return true })
	d, err := checker.Decide(context.Background(), []string{origin}, false)
	require.NoError(t, err)
	require.True(t, d.IsCached(origin))
}

func TestDecide_ForceAndUnknown(t *testing.T) {
	store, origin, _, _ := fixture(t)
	checker := NewChecker(store)

	d, err := checker.Decide(context.Background(), []string{origin, "other"}, true)
	require.NoError(t, err)
	require.Equal(t, []string{origin, "other"}, d.ToCompile)
	require.Empty(t, d.Cached)

	d, err = checker.Decide(context.Background(), []string{"other"}, false)
	require.NoError(t, err)
	require.Equal(t, []string{"other"}, d.ToCompile)
}

func TestDecide_EmptyHashesNeedCompile(t *testing.T) {
	store := storage.NewMockStore()
	require.NoError(t, store.Put(context.Background(), &storage.Record{Origin: "a", ImportPath: "/x"}))

	d, err := NewChecker(store).Decide(context.Background(), []string{"a"}, false)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, d.ToCompile)
}

func TestDecide_HasNoSideEffects(t *testing.T) {
	store, origin, _, _ := fixture(t)
	before := store.Calls().Put

	_, err := NewChecker(store).Decide(context.Background(), []string{origin, "x"}, false)
	require.NoError(t, err)
	require.Equal(t, before, store.Calls().Put)
}

func TestRecord_StoreFailureIsCacheError(t *testing.T) {
	store := storage.NewMockStore()
	store.PutErr = os.ErrPermission

	err := NewChecker(store).Record(context.Background(), "a", "/a", map[string]string{"a": "1"})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryCache))
}

func TestForget_IgnoresMissing(t *testing.T) {
	require.NoError(t, NewChecker(storage.NewMockStore()).Forget(context.Background(), "nope"))
}
