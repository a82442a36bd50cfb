package renderctx

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"git.home.luguber.info/inful/routegen/internal/route"
)

func TestCurrent_Empty(t *testing.T) {
	if _, ok := Current(context.Background()); ok {
		t.Fatal("expected no frame on a bare context")
	}
}

func TestWith_CopiesMeta(t *testing.T) {
	meta := &route.Meta{URL: "/a/"}
	ctx := With(context.Background(), "a", meta)
	meta.URL = "/mutated/"

	f := MustCurrent(ctx)
	if f.Meta.URL != "/a/" {
		t.Errorf("frame meta changed after With: %q", f.Meta.URL)
	}
	if f.Content != "a" {
		t.Errorf("content = %v", f.Content)
	}
}

// nestedHelper reads the frame after a hop through another goroutine.
func nestedHelper(ctx context.Context) <-chan Frame {
	out := make(chan Frame, 1)
	go func() {
		time.Sleep(time.Millisecond)
		f, _ := Current(ctx)
		out <- f
	}()
	return out
}

func TestConcurrentFramesAreIsolated(t *testing.T) {
	const n = 64
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			want := fmt.Sprintf("page-%d", i)
			ctx := With(context.Background(), want, &route.Meta{URL: "/" + want + "/"})

			f := <-nestedHelper(ctx)
			if f.Content != want || f.Meta.URL != "/"+want+"/" {
				errs <- fmt.Errorf("render %d saw %v %q", i, f.Content, f.Meta.URL)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestMustCurrent_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic outside a render")
		}
	}()
	MustCurrent(context.Background())
}
