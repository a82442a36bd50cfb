package templates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"git.home.luguber.info/inful/routegen/internal/renderctx"
	"git.home.luguber.info/inful/routegen/internal/route"
)

// Template is a parsed text/template body executed once per render call.
type Template struct {
	tpl *template.Template
}

// Data is what a template body sees as ".".
type Data struct {
	Content any
	Meta    *route.Meta
}

// Parse compiles body. Helpers are bound per call, so parsing only needs
// their names.
func Parse(name, body string) (*Template, error) {
	tpl, err := template.New(name).Funcs(funcs(context.Background(), nil)).Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return &Template{tpl: tpl}, nil
}

// Execute renders the body for one page.
func (t *Template) Execute(ctx context.Context, content any, meta *route.Meta) (string, error) {
	tpl, err := t.tpl.Clone()
	if err != nil {
		return "", fmt.Errorf("clone template %s: %w", t.tpl.Name(), err)
	}
	// Clone does not carry the missingkey option over.
	tpl.Funcs(funcs(ctx, meta)).Option("missingkey=error")

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, Data{Content: content, Meta: meta}); err != nil {
		return "", fmt.Errorf("render template %s: %w", t.tpl.Name(), err)
	}
	return buf.String(), nil
}

// funcs returns the helpers available inside module templates. "current"
// reads the page through the render context rather than the template data.
func funcs(ctx context.Context, meta *route.Meta) template.FuncMap {
	return template.FuncMap{
		"relative": func(p string) string {
			return meta.Relative(p)
		},
		"current": func() (Data, error) {
			f, ok := renderctx.Current(ctx)
			if !ok {
				return Data{}, fmt.Errorf("current: no render in progress")
			}
			return Data{Content: f.Content, Meta: f.Meta}, nil
		},
		"json": func(v any) (string, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
		"markdown": func(src string) (string, error) {
			return RenderMarkdown(src)
		},
	}
}
