package route

import (
	"context"
	"errors"
	"iter"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/routegen/internal/foundation/errors"
)

func html(_ context.Context, _ any, _ *Meta) (string, error) { return "<p></p>", nil }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		exports Exports
		want    []string
	}{
		{
			name:    "missing both",
			exports: Exports{ExportCollection: "not checked", ExportPerPage: -1},
			want: []string{
				"ensure 'html' function is exported",
				"ensure 'url' string or function is exported",
			},
		},
		{
			name:    "missing html only",
			exports: Exports{ExportURL: "/"},
			want:    []string{"ensure 'html' function is exported"},
		},
		{
			name:    "wrong types",
			exports: Exports{ExportURL: 42, ExportHTML: "<p>"},
			want: []string{
				"export 'html' must be of type function",
				"export 'url' must be of type function or string",
			},
		},
		{
			name:    "string url with collection",
			exports: Exports{ExportURL: "/", ExportHTML: html, ExportCollection: []int{1}},
			want:    []string{"export 'url' must be a function when using a collection"},
		},
		{
			name:    "perPage not a number",
			exports: Exports{ExportURL: "/", ExportHTML: html, ExportPerPage: "5"},
			want:    []string{"export 'perPage' must be a positive number"},
		},
		{
			name:    "perPage zero",
			exports: Exports{ExportURL: "/", ExportHTML: html, ExportPerPage: 0},
			want:    []string{"export 'perPage' must be positive"},
		},
		{
			name:    "perPage fractional",
			exports: Exports{ExportURL: "/", ExportHTML: html, ExportPerPage: 2.5},
			want:    []string{"export 'perPage' must be a whole number from 1 upwards"},
		},
		{
			name:    "unsupported callable",
			exports: Exports{ExportURL: "/", ExportHTML: func(int) string { return "" }},
			want:    []string{"export 'html' has an unsupported signature func(int) string"},
		},
		{
			name:    "valid",
			exports: Exports{ExportURL: "/", ExportHTML: html, ExportPerPage: float64(3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Violations(tt.exports))

			err := Validate("pages/x", tt.exports)
			if len(tt.want) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
			ce, ok := ferrors.AsClassified(err)
			require.True(t, ok)
			require.Equal(t, "pages/x: "+strings.Join(tt.want, ", "), ce.Message())
		})
	}
}

func TestExports_URL(t *testing.T) {
	fn, ok := Exports{ExportURL: "/about/"}.URL()
	require.True(t, ok)
	got, err := fn(context.Background(), nil, &Meta{})
	require.NoError(t, err)
	require.Equal(t, "/about/", got)

	fn, ok = Exports{ExportURL: func(c any, _ *Meta) string { return "/" + c.(string) + "/" }}.URL()
	require.True(t, ok)
	got, err = fn(context.Background(), "x", &Meta{})
	require.NoError(t, err)
	require.Equal(t, "/x/", got)
}

func TestExports_PerPage(t *testing.T) {
	n, ok := Exports{ExportPerPage: 5}.PerPage()
	require.True(t, ok)
	require.Equal(t, 5, n)

	_, ok = Exports{ExportPerPage: 0}.PerPage()
	require.False(t, ok)
	_, ok = Exports{}.PerPage()
	require.False(t, ok)

	n, ok = Exports{ExportPerPage: int64(5_000_000_000)}.PerPage()
	require.True(t, ok)
	require.Equal(t, math.MaxInt32, n)
	require.Empty(t, Violations(Exports{ExportURL: "/", ExportHTML: html, ExportPerPage: 1e12}))
}

func TestItems(t *testing.T) {
	var seq iter.Seq[any] = func(yield func(any) bool) {
		for _, v := range []any{"a", "b"} {
			if !yield(v) {
				return
			}
		}
	}

	tests := []struct {
		in   any
		want []any
		ok   bool
	}{
		{in: []any{1, 2}, want: []any{1, 2}, ok: true},
		{in: []string{"a"}, want: []any{"a"}, ok: true},
		{in: [2]int{3, 4}, want: []any{3, 4}, ok: true},
		{in: seq, want: []any{"a", "b"}, ok: true},
		{in: "abc"},
		{in: 12},
		{in: map[string]any{"a": 1}},
		{in: nil},
	}
	for _, tt := range tests {
		got, ok := Items(tt.in)
		require.Equal(t, tt.ok, ok, "%T", tt.in)
		require.Equal(t, tt.want, got, "%T", tt.in)
	}
}

func TestGather(t *testing.T) {
	r := New("pages/list", "", nil)
	require.Equal(t, "pages/list", r.ImportPath)

	r.Compiled = Exports{
		ExportContent:    func() any { return map[string]any{"title": "T"} },
		ExportCollection: func(context.Context) (any, error) { return []string{"a", "b"}, nil },
	}
	require.NoError(t, Gather(context.Background(), r))
	require.Equal(t, map[string]any{"title": "T"}, r.UserData.Content)
	require.Equal(t, []any{"a", "b"}, r.UserData.Items)
}

func TestGather_NonIterableCollection(t *testing.T) {
	r := New("pages/bad", "", nil)
	r.Compiled = Exports{ExportCollection: func() any { return 7 }}

	err := Gather(context.Background(), r)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryData))
	require.Contains(t, err.Error(), "pages/bad: value returned from 'collection' must be iterable")
	require.Nil(t, r.UserData.Items)
}

func TestGather_CallableError(t *testing.T) {
	r := New("pages/err", "", nil)
	boom := errors.New("boom")
	r.Compiled = Exports{ExportContent: func() (any, error) { return nil, boom }}

	err := Gather(context.Background(), r)
	require.ErrorIs(t, err, boom)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryData))
}

func TestGather_BothCallablesRunAndFail(t *testing.T) {
	r := New("pages/both", "", nil)
	var contentSawCancel bool
	r.Compiled = Exports{
		ExportCollection: func(context.Context) (any, error) { return nil, errors.New("no items") },
		ExportContent: func(ctx context.Context) (any, error) {
			time.Sleep(10 * time.Millisecond)
			contentSawCancel = ctx.Err() != nil
			return nil, errors.New("no content")
		},
	}

	err := Gather(context.Background(), r)
	require.Error(t, err)
	require.False(t, contentSawCancel)
	require.Contains(t, err.Error(), "pages/both: 'collection' failed")
	require.Contains(t, err.Error(), "pages/both: 'content' failed")
}

func TestGather_NoCollectionLeavesItemsNil(t *testing.T) {
	r := New("pages/one", "", nil)
	r.Compiled = Exports{ExportContent: "plain"}
	require.NoError(t, Gather(context.Background(), r))
	require.Equal(t, "plain", r.UserData.Content)
	require.Nil(t, r.UserData.Items)
}

func TestMeta_Relative(t *testing.T) {
	m := &Meta{Root: "../../"}
	require.Equal(t, "../../css/site.css", m.Relative("css/site.css"))
	m.Root = "./"
	require.Equal(t, "css/site.css", m.Relative("css/site.css"))
}
