// Package templates implements routegen's declarative module format: a YAML,
// JSON or HTML document whose url and html exports are text/template bodies.
package templates

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/routegen/internal/route"
)

// Document is a module document before its templates are compiled.
type Document struct {
	URL         string `yaml:"url"`
	URLTemplate string `yaml:"url_template"`
	HTML        string `yaml:"html"`
	Markdown    bool   `yaml:"markdown"`

	Content        any    `yaml:"content"`
	ContentFile    string `yaml:"content_file"`
	Collection     any    `yaml:"collection"`
	CollectionFile string `yaml:"collection_file"`
	PerPage        any    `yaml:"per_page"`

	// Dir resolves *_file paths; set by the loader.
	Dir string `yaml:"-"`
	// Name labels compiled templates in error messages.
	Name string `yaml:"-"`
}

// ParseDocument decodes a YAML or JSON module document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode module document: %w", err)
	}
	return &doc, nil
}

// Exports compiles the document into a module symbol table. Fields that are
// absent from the document are absent from the table, so the usual contract
// checks report them.
func (d *Document) Exports() (route.Exports, error) {
	ex := route.Exports{}

	switch {
	case d.URLTemplate != "":
		tpl, err := Parse(d.Name+":url", d.URLTemplate)
		if err != nil {
			return nil, err
		}
		ex[route.ExportURL] = route.RenderFunc(func(ctx context.Context, content any, meta *route.Meta) (any, error) {
			out, err := tpl.Execute(ctx, content, meta)
			if err != nil {
				return nil, err
			}
			return strings.TrimSpace(out), nil
		})
	case d.URL != "":
		ex[route.ExportURL] = d.URL
	}

	if d.HTML != "" {
		tpl, err := Parse(d.Name+":html", d.HTML)
		if err != nil {
			return nil, err
		}
		markdown := d.Markdown
		ex[route.ExportHTML] = route.RenderFunc(func(ctx context.Context, content any, meta *route.Meta) (any, error) {
			out, err := tpl.Execute(ctx, content, meta)
			if err != nil {
				return nil, err
			}
			if markdown {
				return RenderMarkdown(out)
			}
			return out, nil
		})
	}

	switch {
	case d.ContentFile != "":
		ex[route.ExportContent] = d.dataFile(d.ContentFile)
	case d.Content != nil:
		ex[route.ExportContent] = d.Content
	}

	switch {
	case d.CollectionFile != "":
		ex[route.ExportCollection] = d.dataFile(d.CollectionFile)
	case d.Collection != nil:
		ex[route.ExportCollection] = d.Collection
	}

	if d.PerPage != nil {
		ex[route.ExportPerPage] = d.PerPage
	}
	return ex, nil
}

// dataFile defers reading a YAML/JSON data file until the gather stage.
func (d *Document) dataFile(name string) route.DataFunc {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.Dir, path)
	}
	return func(ctx context.Context) (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// #nosec G304 - data files are declared by the module author
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read data file: %w", err)
		}
		var v any
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode data file %s: %w", name, err)
		}
		return v, nil
	}
}
