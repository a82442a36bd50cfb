package templates

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/routegen/internal/renderctx"
	"git.home.luguber.info/inful/routegen/internal/route"
)

func TestTemplate_Execute(t *testing.T) {
	tpl, err := Parse("body", `<h1>{{ .Content.title }}</h1><link href="{{ relative "site.css" }}">{{ json .Content.tags }}`)
	require.NoError(t, err)

	meta := &route.Meta{Root: "../"}
	out, err := tpl.Execute(context.Background(), map[string]any{"title": "Hi", "tags": []string{"a"}}, meta)
	require.NoError(t, err)
	require.Equal(t, `<h1>Hi</h1><link href="../site.css">["a"]`, out)
}

func TestTemplate_MissingKey(t *testing.T) {
	tpl, err := Parse("body", `{{ .Content.nope }}`)
	require.NoError(t, err)
	_, err = tpl.Execute(context.Background(), map[string]any{}, &route.Meta{})
	require.Error(t, err)
}

func TestTemplate_CurrentReadsRenderContext(t *testing.T) {
	tpl, err := Parse("body", `{{ with current }}{{ .Meta.URL }}:{{ .Content }}{{ end }}`)
	require.NoError(t, err)

	meta := &route.Meta{URL: "/a/"}
	ctx := renderctx.With(context.Background(), "alpha", meta)
	out, err := tpl.Execute(ctx, "ignored", &route.Meta{})
	require.NoError(t, err)
	require.Equal(t, "/a/:alpha", out)

	_, err = tpl.Execute(context.Background(), "x", &route.Meta{})
	require.Error(t, err)
}

func TestTemplate_ConcurrentExecute(t *testing.T) {
	tpl, err := Parse("body", `{{ .Content }}`)
	require.NoError(t, err)

	done := make(chan string, 20)
	for i := range 20 {
		go func() {
			out, _ := tpl.Execute(context.Background(), i, &route.Meta{})
			done <- out
		}()
	}
	seen := map[string]bool{}
	for range 20 {
		seen[<-done] = true
	}
	require.Len(t, seen, 20)
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Title\n\n| a |\n|---|\n| b |\n")
	require.NoError(t, err)
	require.Contains(t, out, `<h1 id="title">Title</h1>`)
	require.Contains(t, out, "<table>")
}
