package templates

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/routegen/internal/route"
)

func TestDocument_YAMLExports(t *testing.T) {
	doc, err := ParseDocument([]byte(`
url_template: "/posts/{{ .Content.slug }}/"
html: "<h1>{{ .Content.title }}</h1>"
collection:
  - {slug: one, title: One}
  - {slug: two, title: Two}
`))
	require.NoError(t, err)
	doc.Name = "posts.yaml"

	ex, err := doc.Exports()
	require.NoError(t, err)
	require.Empty(t, route.Violations(ex))
	require.False(t, ex.Has(route.ExportContent))
	require.False(t, ex.Has(route.ExportPerPage))

	urlFn, ok := ex.URL()
	require.True(t, ok)
	items, ok := route.Items(ex[route.ExportCollection])
	require.True(t, ok)
	link, err := urlFn(context.Background(), items[1], &route.Meta{})
	require.NoError(t, err)
	require.Equal(t, "/posts/two/", link)

	htmlFn, _ := ex.HTML()
	out, err := htmlFn(context.Background(), items[0], &route.Meta{})
	require.NoError(t, err)
	require.Equal(t, "<h1>One</h1>", out)
}

func TestDocument_MarkdownAndPlainURL(t *testing.T) {
	doc, err := ParseDocument([]byte("url: /about/\nmarkdown: true\nhtml: \"# {{ .Content }}\"\ncontent: About\n"))
	require.NoError(t, err)
	ex, err := doc.Exports()
	require.NoError(t, err)

	s, ok := ex.URLString()
	require.True(t, ok)
	require.Equal(t, "/about/", s)

	htmlFn, _ := ex.HTML()
	out, err := htmlFn(context.Background(), "About", &route.Meta{})
	require.NoError(t, err)
	require.Contains(t, out, "<h1")
	require.Contains(t, out, "About</h1>")
}

func TestDocument_MissingExportsStayMissing(t *testing.T) {
	doc, err := ParseDocument([]byte("content: {a: 1}\n"))
	require.NoError(t, err)
	ex, err := doc.Exports()
	require.NoError(t, err)
	require.Equal(t, []string{
		"ensure 'html' function is exported",
		"ensure 'url' string or function is exported",
	}, route.Violations(ex))
}

func TestDocument_DataFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts.json"), []byte(`[{"slug":"a"},{"slug":"b"}]`), 0o600))

	doc := &Document{URLTemplate: "/{{ .Content.slug }}/", HTML: "x", CollectionFile: "posts.json", Dir: dir}
	ex, err := doc.Exports()
	require.NoError(t, err)

	v, err := route.Resolve(context.Background(), ex[route.ExportCollection])
	require.NoError(t, err)
	items, ok := route.Items(v)
	require.True(t, ok)
	require.Len(t, items, 2)

	doc.CollectionFile = "missing.json"
	ex, err = doc.Exports()
	require.NoError(t, err)
	_, err = route.Resolve(context.Background(), ex[route.ExportCollection])
	require.Error(t, err)
}

func TestDocument_BadTemplate(t *testing.T) {
	doc := &Document{URL: "/", HTML: "{{ .Content", Name: "broken"}
	_, err := doc.Exports()
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "broken:html"))
}
