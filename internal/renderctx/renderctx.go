// Package renderctx carries the page being rendered through a context.Context,
// so helpers invoked deep inside a url or html call can find it without an
// extra parameter.
//
// A frame is scoped to the context value it was attached to. Goroutines
// started with that context see it; sibling renders holding their own
// contexts never do.
package renderctx

import (
	"context"

	"git.home.luguber.info/inful/routegen/internal/route"
)

// Frame is the content and metadata of one in-flight render call.
type Frame struct {
	Content any
	Meta    *route.Meta
}

type frameKey struct{}

// With returns a child of ctx carrying content and a private copy of meta.
func With(ctx context.Context, content any, meta *route.Meta) context.Context {
	return context.WithValue(ctx, frameKey{}, Frame{Content: content, Meta: meta.Clone()})
}

// Current returns the frame attached to ctx, if any.
func Current(ctx context.Context) (Frame, bool) {
	if ctx == nil {
		return Frame{}, false
	}
	f, ok := ctx.Value(frameKey{}).(Frame)
	return f, ok
}

// MustCurrent is Current for callers that only run inside a render call.
func MustCurrent(ctx context.Context) Frame {
	f, ok := Current(ctx)
	if !ok {
		panic("renderctx: no render in progress")
	}
	return f
}
