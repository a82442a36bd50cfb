package route

import (
	"context"
	"fmt"
	"iter"
	"math"
	"reflect"
)

// Export names making up the module contract.
const (
	ExportURL        = "url"
	ExportHTML       = "html"
	ExportContent    = "content"
	ExportCollection = "collection"
	ExportPerPage    = "perPage"
)

// Exports is a loaded module's symbol table. Presence of a key matters even
// when its value is nil.
type Exports map[string]any

// RenderFunc is the normalized shape of url and html.
type RenderFunc func(ctx context.Context, content any, meta *Meta) (any, error)

// DataFunc is the normalized shape of a callable content or collection export.
type DataFunc func(ctx context.Context) (any, error)

// Has reports whether name was exported.
func (e Exports) Has(name string) bool {
	_, ok := e[name]
	return ok
}

// URLString returns the url export when it is a plain string.
func (e Exports) URLString() (string, bool) {
	s, ok := e[ExportURL].(string)
	return s, ok
}

// URL returns url as a RenderFunc; a plain string becomes a constant function.
func (e Exports) URL() (RenderFunc, bool) {
	if s, ok := e.URLString(); ok {
		return func(context.Context, any, *Meta) (any, error) { return s, nil }, true
	}
	return AsRender(e[ExportURL])
}

// HTML returns html as a RenderFunc.
func (e Exports) HTML() (RenderFunc, bool) {
	return AsRender(e[ExportHTML])
}

// PerPage returns the page size when it is a positive whole number. Sizes
// above math.MaxInt32 are clamped to it.
func (e Exports) PerPage() (int, bool) {
	n, ok := number(e[ExportPerPage])
	if !ok || n <= 0 || n != math.Trunc(n) {
		return 0, false
	}
	if n > math.MaxInt32 {
		return math.MaxInt32, true
	}
	return int(n), true
}

// AsRender normalizes the callable forms a module may export for url or html.
func AsRender(v any) (RenderFunc, bool) {
	switch fn := v.(type) {
	case RenderFunc:
		return fn, fn != nil
	case func(context.Context, any, *Meta) (any, error):
		return fn, fn != nil
	case func(context.Context, any, *Meta) (string, error):
		if fn == nil {
			return nil, false
		}
		return func(ctx context.Context, c any, m *Meta) (any, error) { return fn(ctx, c, m) }, true
	case func(context.Context, any, *Meta) string:
		if fn == nil {
			return nil, false
		}
		return func(ctx context.Context, c any, m *Meta) (any, error) { return fn(ctx, c, m), nil }, true
	case func(any, *Meta) string:
		if fn == nil {
			return nil, false
		}
		return func(_ context.Context, c any, m *Meta) (any, error) { return fn(c, m), nil }, true
	case func(any, *Meta) (string, error):
		if fn == nil {
			return nil, false
		}
		return func(_ context.Context, c any, m *Meta) (any, error) { return fn(c, m) }, true
	}
	return nil, false
}

// AsData normalizes a zero-argument content or collection export.
func AsData(v any) (DataFunc, bool) {
	switch fn := v.(type) {
	case DataFunc:
		return fn, fn != nil
	case func(context.Context) (any, error):
		return fn, fn != nil
	case func(context.Context) any:
		if fn == nil {
			return nil, false
		}
		return func(ctx context.Context) (any, error) { return fn(ctx), nil }, true
	case func() (any, error):
		if fn == nil {
			return nil, false
		}
		return func(context.Context) (any, error) { return fn() }, true
	case func() any:
		if fn == nil {
			return nil, false
		}
		return func(context.Context) (any, error) { return fn(), nil }, true
	}
	return nil, false
}

// IsCallable reports whether v has a function kind, including shapes
// AsRender does not understand.
func IsCallable(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

// Resolve calls v when it is a DataFunc shape, otherwise returns it unchanged.
func Resolve(ctx context.Context, v any) (any, error) {
	if fn, ok := AsData(v); ok {
		return fn(ctx)
	}
	return v, nil
}

// Items flattens an iterable value. Slices, arrays and iter.Seq[any] are
// iterable; strings, maps and scalars are not.
func Items(v any) ([]any, bool) {
	switch seq := v.(type) {
	case nil:
		return nil, false
	case []any:
		return seq, true
	case iter.Seq[any]:
		var out []any
		for item := range seq {
			out = append(out, item)
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n)
	}
	return 0, false
}

func describe(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
