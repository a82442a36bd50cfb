// Package pages expands a validated route into its pages: one for a single
// route, one per item of an unpaged collection, or one per chunk of a paged
// collection.
package pages

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
	"git.home.luguber.info/inful/routegen/internal/logfields"
	"git.home.luguber.info/inful/routegen/internal/pageindex"
	"git.home.luguber.info/inful/routegen/internal/permalink"
	"git.home.luguber.info/inful/routegen/internal/renderctx"
	"git.home.luguber.info/inful/routegen/internal/route"
)

// Mode is how a route turns into pages.
type Mode struct {
	Single     bool
	Collection bool
	Paged      bool
	PerPage    int
}

// ModeOf selects the generation mode from a route's exports and gathered data.
// A route may be both Single (it exports content) and a collection.
func ModeOf(r *route.Route) Mode {
	ex := r.Compiled
	_, stringURL := ex.URLString()
	_, callableURL := ex.URL()
	hasContent := ex.Has(route.ExportContent)
	hasCollection := ex.Has(route.ExportCollection)

	basic := stringURL || (!hasContent && !hasCollection && callableURL)
	m := Mode{Single: basic || hasContent}

	if hasCollection && r.UserData.Items != nil {
		if ex.Has(route.ExportPerPage) {
			perPage, _ := ex.PerPage()
			m.Paged = true
			m.PerPage = min(perPage, max(len(r.UserData.Items), 1))
		} else {
			m.Collection = true
		}
	}
	return m
}

// Generator renders pages.
type Generator struct {
	outputDir string
	limit     int
	logger    *slog.Logger
}

// NewGenerator creates a generator writing permalinks relative to outputDir.
func NewGenerator(outputDir string) *Generator {
	return &Generator{outputDir: outputDir, limit: -1, logger: slog.Default()}
}

// WithConcurrency bounds concurrent page renders per route; n <= 0 means unbounded.
func (g *Generator) WithConcurrency(n int) *Generator {
	if n <= 0 {
		n = -1
	}
	g.limit = n
	return g
}

// WithLogger sets a custom logger.
func (g *Generator) WithLogger(logger *slog.Logger) *Generator {
	g.logger = logger
	return g
}

type job struct {
	content any
	meta    route.Meta
}

// Generate renders every page of r concurrently. When any page fails, no
// entries are returned and the error joins every page failure.
func (g *Generator) Generate(ctx context.Context, r *route.Route) ([]pageindex.Entry, error) {
	urlFn, ok := r.Compiled.URL()
	if !ok {
		return nil, errors.InternalError(fmt.Sprintf("%s: route was not validated", r.Origin)).Build()
	}
	htmlFn, ok := r.Compiled.HTML()
	if !ok {
		return nil, errors.InternalError(fmt.Sprintf("%s: route was not validated", r.Origin)).Build()
	}

	jobs := g.plan(r)
	entries := make([]pageindex.Entry, len(jobs))

	var (
		mu   sync.Mutex
		errs []error
	)
	eg := new(errgroup.Group)
	eg.SetLimit(g.limit)
	for i, j := range jobs {
		eg.Go(func() error {
			entry, err := g.render(ctx, r.Origin, urlFn, htmlFn, j)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			entries[i] = entry
			return nil
		})
	}
	_ = eg.Wait()

	if len(errs) > 0 {
		return nil, stderrors.Join(errs...)
	}
	g.logger.Debug("Route generated", logfields.Route(r.Origin), logfields.Pages(len(entries)))
	return entries, nil
}

func (g *Generator) plan(r *route.Route) []job {
	m := ModeOf(r)
	items := r.UserData.Items
	total := len(items)
	var jobs []job

	if m.Single {
		jobs = append(jobs, job{content: r.UserData.Content, meta: route.Meta{OutputDir: g.outputDir}})
	}
	if m.Collection {
		for i, item := range items {
			jobs = append(jobs, job{content: item, meta: route.Meta{
				Index:     ptr(i),
				Items:     items,
				Total:     ptr(total),
				OutputDir: g.outputDir,
			}})
		}
	}
	if m.Paged {
		for i, chunk := range Chunk(items, m.PerPage) {
			jobs = append(jobs, job{content: chunk, meta: route.Meta{
				Items:      items,
				Total:      ptr(total),
				Pagination: Paginate(i, m.PerPage, total),
				OutputDir:  g.outputDir,
			}})
		}
	}
	return jobs
}

func (g *Generator) render(ctx context.Context, origin string, urlFn, htmlFn route.RenderFunc, j job) (pageindex.Entry, error) {
	urlMeta := j.meta
	raw, err := urlFn(renderctx.With(ctx, j.content, &urlMeta), j.content, urlMeta.Clone())
	if err != nil {
		return pageindex.Entry{}, errors.RenderError(fmt.Sprintf("%s: url failed", origin)).WithCause(err).Build()
	}
	link, ok := raw.(string)
	if !ok {
		return pageindex.Entry{}, errors.RenderError(fmt.Sprintf("%s: url must return a string, found: %v", origin, describe(raw))).
			WithContext("origin", origin).
			Build()
	}
	if err := permalink.Validate(link); err != nil {
		return pageindex.Entry{}, err
	}

	target, err := permalink.Resolve(link, g.outputDir)
	if err != nil {
		return pageindex.Entry{}, err
	}
	output, err := permalink.OutputPath(link, g.outputDir)
	if err != nil {
		return pageindex.Entry{}, err
	}

	pageMeta := urlMeta
	pageMeta.URL = link
	pageMeta.Output = output
	pageMeta.Root = permalink.RootPrefix(target, g.outputDir)

	out, err := htmlFn(renderctx.With(ctx, j.content, &pageMeta), j.content, pageMeta.Clone())
	if err != nil {
		return pageindex.Entry{}, errors.RenderError(fmt.Sprintf("%s: html failed for %s", origin, link)).
			WithCause(err).
			WithContext("permalink", link).
			Build()
	}

	var content string
	switch v := out.(type) {
	case string:
		content = v
	case []byte:
		content = string(v)
	default:
		return pageindex.Entry{}, errors.RenderError(fmt.Sprintf("%s: html must return a string, found: %v", origin, describe(out))).
			WithContext("permalink", link).
			Build()
	}
	if content == "" {
		return pageindex.Entry{}, errors.RenderError(fmt.Sprintf("%s: html returned no content for %s", origin, link)).
			WithContext("permalink", link).
			Build()
	}

	return pageindex.Entry{Permalink: link, Content: content, Origin: origin}, nil
}

func describe(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T %v", v, v)
}
