package route

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
)

// Route is one entry point of a run, identified by Origin.
type Route struct {
	Origin     string
	ImportPath string

	Dependencies []string
	// DependenciesHashed is recomputed every run; unreadable files are absent.
	DependenciesHashed map[string]string

	Compiled Exports
	Valid    bool
	UserData UserData
}

// UserData holds the resolved content and collection exports.
type UserData struct {
	Content    any
	Collection any
	// Items is the flattened collection; nil when no collection was exported.
	Items []any
}

// New creates a route for origin. An empty importPath means the origin is
// itself loadable.
func New(origin, importPath string, deps []string) *Route {
	if importPath == "" {
		importPath = origin
	}
	return &Route{
		Origin:       origin,
		ImportPath:   importPath,
		Dependencies: append([]string(nil), deps...),
	}
}

// Validate checks exports against the module contract. All violations are
// joined into one ValidationError prefixed with origin.
func Validate(origin string, exports Exports) error {
	msgs := Violations(exports)
	if len(msgs) == 0 {
		return nil
	}
	return errors.ValidationError(fmt.Sprintf("%s: %s", origin, strings.Join(msgs, ", "))).
		WithContext("origin", origin).
		WithContext("violations", msgs).
		Build()
}

// Violations lists every contract violation. When html or url is absent only
// the missing-export messages are returned.
func Violations(exports Exports) []string {
	var msgs []string

	hasHTML := exports.Has(ExportHTML)
	hasURL := exports.Has(ExportURL)
	if !hasHTML {
		msgs = append(msgs, "ensure 'html' function is exported")
	}
	if !hasURL {
		msgs = append(msgs, "ensure 'url' string or function is exported")
	}
	if len(msgs) > 0 {
		return msgs
	}

	if _, ok := exports.HTML(); !ok {
		if IsCallable(exports[ExportHTML]) {
			msgs = append(msgs, fmt.Sprintf("export 'html' has an unsupported signature %s", describe(exports[ExportHTML])))
		} else {
			msgs = append(msgs, "export 'html' must be of type function")
		}
	}

	_, isString := exports.URLString()
	if _, ok := exports.URL(); !ok {
		if IsCallable(exports[ExportURL]) {
			msgs = append(msgs, fmt.Sprintf("export 'url' has an unsupported signature %s", describe(exports[ExportURL])))
		} else {
			msgs = append(msgs, "export 'url' must be of type function or string")
		}
	}

	if exports.Has(ExportCollection) && isString {
		msgs = append(msgs, "export 'url' must be a function when using a collection")
	}

	if exports.Has(ExportPerPage) {
		n, ok := number(exports[ExportPerPage])
		switch {
		case !ok:
			msgs = append(msgs, "export 'perPage' must be a positive number")
		case n <= 0:
			msgs = append(msgs, "export 'perPage' must be positive")
		case n != math.Trunc(n):
			msgs = append(msgs, "export 'perPage' must be a whole number from 1 upwards")
		}
	}

	return msgs
}

// Gather resolves content and collection concurrently and stores them in
// r.UserData. A declared collection that does not resolve to an iterable is
// a DataError.
func Gather(ctx context.Context, r *Route) error {
	var content, collection any
	var collectionErr, contentErr error

	// Neither callable cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		v, err := Resolve(ctx, r.Compiled[ExportCollection])
		if err != nil {
			collectionErr = errors.DataError(fmt.Sprintf("%s: 'collection' failed", r.Origin)).WithCause(err).Build()
			return nil
		}
		collection = v
		return nil
	})
	g.Go(func() error {
		v, err := Resolve(ctx, r.Compiled[ExportContent])
		if err != nil {
			contentErr = errors.DataError(fmt.Sprintf("%s: 'content' failed", r.Origin)).WithCause(err).Build()
			return nil
		}
		content = v
		return nil
	})
	_ = g.Wait()
	if collectionErr != nil && contentErr != nil {
		return stderrors.Join(collectionErr, contentErr)
	}
	if collectionErr != nil {
		return collectionErr
	}
	if contentErr != nil {
		return contentErr
	}

	ud := UserData{Content: content, Collection: collection}
	if r.Compiled.Has(ExportCollection) {
		items, ok := Items(collection)
		if !ok {
			return errors.DataError(fmt.Sprintf("%s: value returned from 'collection' must be iterable", r.Origin)).
				WithContext("origin", r.Origin).
				WithContext("type", describe(collection)).
				Build()
		}
		if items == nil {
			items = []any{}
		}
		ud.Items = items
	}
	r.UserData = ud
	return nil
}
