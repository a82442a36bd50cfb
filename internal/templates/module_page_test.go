package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseModulePage_Script(t *testing.T) {
	page := `
		<html>
			<head>
				<meta property="routegen:url_template" content="/tags/{{ .Content }}/">
				<meta property="routegen:collection" content='["go", "web"]'>
				<meta property="other:ignored" content="x">
			</head>
			<body>
				<script type="text/x-go-template" id="html">
					<h1>{{ .Content }}</h1><p>{{ if gt (len .Meta.Items) 1 }}many{{ end }}</p>
				</script>
			</body>
		</html>`

	doc, err := ParseModulePage(strings.NewReader(page))
	require.NoError(t, err)
	require.Equal(t, "/tags/{{ .Content }}/", doc.URLTemplate)
	require.Equal(t, []any{"go", "web"}, doc.Collection)
	require.Equal(t, `<h1>{{ .Content }}</h1><p>{{ if gt (len .Meta.Items) 1 }}many{{ end }}</p>`, doc.HTML)
	require.False(t, doc.Markdown)
}

func TestParseModulePage_MarkdownBlock(t *testing.T) {
	page := `
		<html>
			<head>
				<meta property="routegen:url" content="/">
				<meta property="routegen:content" content="{title: Home}">
			</head>
			<body>
				<pre><code class="language-markdown"># {{ .Content.title }}</code></pre>
			</body>
		</html>`

	doc, err := ParseModulePage(strings.NewReader(page))
	require.NoError(t, err)
	require.Equal(t, "/", doc.URL)
	require.Equal(t, map[string]any{"title": "Home"}, doc.Content)
	require.Equal(t, "# {{ .Content.title }}", doc.HTML)
	require.True(t, doc.Markdown)
}

func TestParseModulePage_PerPage(t *testing.T) {
	page := `<meta property="routegen:per_page" content="10"><meta property="routegen:markdown" content="false">`
	doc, err := ParseModulePage(strings.NewReader(page))
	require.NoError(t, err)
	require.Equal(t, 10, doc.PerPage)
}

func TestParseModulePage_MultipleBodies(t *testing.T) {
	page := `
		<script id="html">a</script>
		<pre><code class="language-md">b</code></pre>`
	_, err := ParseModulePage(strings.NewReader(page))
	require.Error(t, err)
}

func TestParseModulePage_BadMarkdownFlag(t *testing.T) {
	_, err := ParseModulePage(strings.NewReader(`<meta property="routegen:markdown" content="maybe">`))
	require.Error(t, err)
}
